package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentlaunch/engine"
)

var (
	deployDisplayName   string
	deployDescription   string
	deployRequirements  []string
	deployExtraPackages []string
	deployLabels        []string
)

var deployCmd = &cobra.Command{
	Use:   "deploy",
	Short: "Package the configured agent and provision it on the platform",
	Long: "Validates the configuration, installs credentials, then submits the agent\n" +
		"for provisioning and blocks until the platform finishes. Prints the resource\n" +
		"name of the new deployment on success.",
	RunE: runDeploy,
}

func init() {
	deployCmd.Flags().StringVar(&deployDisplayName, "display-name", "", "Display name override for the deployment")
	deployCmd.Flags().StringVar(&deployDescription, "description", "", "Description override for the deployment")
	deployCmd.Flags().StringArrayVar(&deployRequirements, "requirement", nil, "Runtime requirement specifier (repeatable)")
	deployCmd.Flags().StringArrayVar(&deployExtraPackages, "extra-package", nil, "Extra package directory to ship (repeatable)")
	deployCmd.Flags().StringArrayVar(&deployLabels, "label", nil, "Deployment label as key=value (repeatable)")

	rootCmd.AddCommand(deployCmd)
}

func runDeploy(cmd *cobra.Command, _ []string) error {
	labels, err := parseLabels(deployLabels)
	if err != nil {
		return err
	}

	l := newLauncher(nil)

	if err := l.ValidateAndPrepare(); err != nil {
		return err
	}

	start := time.Now()

	remote, err := l.Deploy(cmd.Context(), func(o *engine.DeployOptions) {
		o.DisplayName = deployDisplayName
		o.Description = deployDescription
		o.Requirements = deployRequirements
		o.ExtraPackages = deployExtraPackages
		o.Labels = labels
	})

	resource := ""
	if remote != nil {
		resource = remote.ResourceName()
	}

	cliLogger.LogDeployment(resource, time.Since(start), err == nil, err)

	if err != nil {
		return err
	}

	fmt.Println(remote.ResourceName())

	return nil
}
