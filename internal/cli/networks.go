package cli

import (
	"github.com/spf13/cobra"
	"github.com/trebuchet-org/govdeploy/internal/cli/render"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// NewNetworksCmd creates the networks command
func NewNetworksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "networks",
		Short: "List available networks",
		Long: `List the networks from the [networks] tables of govdeploy.toml together with
the built-in development networks.

Shows the chain id, the confirmation depth and whether source verification
would run with the current credentials.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ListNetworksParams{}
			if app.Config.Project != nil {
				params.VerificationCredential = app.Config.Project.Verification.APIKey
			}
			result, err := app.ListNetworks.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			renderer := render.NewNetworksRenderer(cmd.OutOrStdout(), !app.Config.NonInteractive)
			return renderer.RenderNetworksList(result)
		},
	}

	return cmd
}
