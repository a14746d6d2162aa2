// Package main provides the agentlaunch CLI for deploying conversational
// agents to the managed platform and querying them once deployed.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentlaunch/config"
	"github.com/hupe1980/agentlaunch/logging"
)

var (
	cliCfg    *config.Config
	cliLogger *logging.AgentLaunchLogger

	logLevel  string
	logFormat string
)

var rootCmd = &cobra.Command{
	Use:   "agentlaunch",
	Short: "Deploy and manage conversational agents on the managed platform",
	Long: "agentlaunch validates deployment configuration, smoke-tests agents locally,\n" +
		"provisions them on the managed platform and streams queries against the\n" +
		"deployed instances.",
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// Load .env file if it exists, then build the config from the
		// environment. Flags on individual commands override config values.
		_ = godotenv.Load()

		cliCfg = config.FromEnv()
		cliLogger = logging.NewSlogLogger(logging.ParseLogLevel(logLevel), logFormat, false).WithComponent("cli")
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format (text or json)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
