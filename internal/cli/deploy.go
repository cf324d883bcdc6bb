package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/govdeploy/internal/app"
	"github.com/trebuchet-org/govdeploy/internal/cli/render"
	"github.com/trebuchet-org/govdeploy/internal/config"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// NewDeployCmd creates the deploy command
func NewDeployCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Deploy the plan to a network",
		Long: `Deploy every component of the plan to one network, one at a time and in
dependency order. Each component is deployed, confirmed to the network's depth,
submitted for source verification where enabled and initialized.

Without a plan file the built-in governance plan is used: GovernanceToken
(delegates votes to the deployer), TimeLock and TokenFactory.

A failed run keeps every record in the run output. Rerun with --resume to reuse
the components that were already deployed.

Examples:
  govdeploy deploy --network hardhat
  govdeploy deploy --network sepolia --plan deploy.yaml
  govdeploy deploy --network sepolia --resume`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := getApp(cmd)
			if err != nil {
				return err
			}

			networkID, err := selectNetwork(cmd, a)
			if err != nil {
				return err
			}
			if a.Deployer.Address == "" {
				return fmt.Errorf("no deployer configured: set [deployer] private_key in %s or %s in .env",
					config.ProjectFile, config.PrivateKeyEnv)
			}

			params := usecase.DeployStackParams{
				Run:            config.NewRunConfig(a.Config, networkID, a.Deployer),
				NonInteractive: a.Config.NonInteractive,
			}

			result, err := a.DeployStack.Run(cmd.Context(), params)
			if result != nil {
				renderer := render.NewDeployRenderer(cmd.OutOrStdout())
				renderer.RenderRunResult(result, a.DeployStack.OutputPath(networkID))
			}
			if err != nil {
				return fmt.Errorf("deployment failed: %w", err)
			}
			return nil
		},
	}

	cmd.Flags().String("plan", "", "Plan file (default: deploy.yaml or the built-in governance plan)")
	cmd.Flags().Bool("resume", false, "Reuse components already deployed by the previous run on this network")
	cmd.Flags().Duration("timeout", 0, "Abort the run after this duration (0 means no limit)")

	return cmd
}

// selectNetwork returns the --network value or prompts for one
func selectNetwork(cmd *cobra.Command, a *app.App) (string, error) {
	if a.Config.Network != "" {
		return a.Config.Network, nil
	}
	if a.Config.NonInteractive {
		return "", errors.New("--network is required in non-interactive mode")
	}

	result, err := a.ListNetworks.Run(cmd.Context(), usecase.ListNetworksParams{})
	if err != nil {
		return "", err
	}
	names := make([]string, 0, len(result.Networks))
	for _, n := range result.Networks {
		names = append(names, n.Name)
	}
	return a.Selector.SelectNetwork(cmd.Context(), names)
}
