package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the configuration summary and validate it",
	RunE:  runConfig,
}

func init() {
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cliCfg.Summary(os.Stdout)

	if err := cliCfg.Validate(); err != nil {
		return err
	}

	fmt.Println("Configuration valid.")

	return nil
}
