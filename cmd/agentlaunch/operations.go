package main

import (
	"github.com/spf13/cobra"
)

var operationsCmd = &cobra.Command{
	Use:   "operations <resource-name>",
	Short: "List the operations a deployed agent answers",
	Args:  cobra.ExactArgs(1),
	RunE:  runOperations,
}

func init() {
	rootCmd.AddCommand(operationsCmd)
}

func runOperations(cmd *cobra.Command, args []string) error {
	l := newLauncher(nil)

	if _, err := l.Attach(cmd.Context(), args[0]); err != nil {
		return err
	}

	_, err := l.Operations(cmd.Context())

	return err
}
