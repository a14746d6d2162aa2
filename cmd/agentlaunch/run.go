package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var runMessage string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the full lifecycle: validate, smoke-test, deploy, query",
	Long: "Drives the whole deployment arc in one invocation: configuration summary\n" +
		"and validation, an in-process smoke test, provisioning on the platform and\n" +
		"a streamed query against the deployed agent. The deployment is left running.",
	RunE: runLifecycle,
}

func init() {
	runCmd.Flags().StringVarP(&runMessage, "message", "m", "Hello! What can you help me with?", "Message for the local and remote test queries")

	rootCmd.AddCommand(runCmd)
}

func runLifecycle(cmd *cobra.Command, _ []string) error {
	defer cliLogger.StartTimer("lifecycle")()

	l := newLauncher(nil)

	remote, err := l.Run(cmd.Context(), runMessage)
	if err != nil {
		return err
	}

	fmt.Printf("\nDeployed: %s\n", remote.ResourceName())
	fmt.Printf("Teardown with: agentlaunch delete %s\n", remote.ResourceName())

	return nil
}
