package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentlaunch/core"
)

var (
	queryMessage string
	queryUser    string
	querySession string
)

var queryCmd = &cobra.Command{
	Use:   "query <resource-name>",
	Short: "Stream a query against a deployed agent",
	Args:  cobra.ExactArgs(1),
	RunE:  runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryMessage, "message", "m", "", "Message to send (required)")
	queryCmd.Flags().StringVar(&queryUser, "user", "cli-user", "User identifier for session scoping")
	queryCmd.Flags().StringVar(&querySession, "session", "", "Session to continue; empty starts a fresh one")

	if err := queryCmd.MarkFlagRequired("message"); err != nil {
		panic(fmt.Sprintf("failed to mark message flag as required: %v", err))
	}

	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	l := newLauncher(nil)

	if _, err := l.Attach(cmd.Context(), args[0]); err != nil {
		return err
	}

	return l.QueryRemote(cmd.Context(), core.Query{
		UserID:    queryUser,
		SessionID: querySession,
		Message:   queryMessage,
	})
}
