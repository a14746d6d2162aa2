package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentlaunch/confirm"
	"github.com/hupe1980/agentlaunch/engine"
)

var (
	deleteYes   bool
	deleteForce bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete <resource-name>",
	Short: "Delete a deployed agent after confirmation",
	Long: "Permanently removes the deployed agent and its managed sessions. Prompts\n" +
		"for confirmation unless --yes is given; a declined prompt aborts without\n" +
		"touching the deployment.",
	Args: cobra.ExactArgs(1),
	RunE: runDelete,
}

func init() {
	deleteCmd.Flags().BoolVar(&deleteYes, "yes", false, "Skip the interactive confirmation")
	deleteCmd.Flags().BoolVar(&deleteForce, "force", false, "Delete even when child resources still exist")

	rootCmd.AddCommand(deleteCmd)
}

func runDelete(cmd *cobra.Command, args []string) error {
	gate := confirm.Confirmer(confirm.NewStdinConfirmer())
	if deleteYes {
		gate = confirm.Static(true)
	}

	l := newLauncher(gate)

	if _, err := l.Attach(cmd.Context(), args[0]); err != nil {
		return err
	}

	deleted, err := l.Teardown(cmd.Context(), func(o *engine.DeleteOptions) {
		o.Force = deleteForce
	})
	if err != nil {
		return err
	}

	if !deleted {
		fmt.Println("aborted")
	}

	return nil
}
