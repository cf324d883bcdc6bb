package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/govdeploy/internal/cli/render"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// NewShowCmd creates the show command
func NewShowCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "show [component]",
		Short: "Show the recorded deployment of a network",
		Long: `Show the records of the last run on a network: addresses, state, confirmation
depth, verification and initialization status.

Examples:
  govdeploy show --network sepolia
  govdeploy show TimeLock --network sepolia
  govdeploy show --network sepolia --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := getApp(cmd)
			if err != nil {
				return err
			}

			params := usecase.ShowRunParams{NetworkID: app.Config.Network}
			if len(args) == 1 {
				params.Component = args[0]
			}

			result, err := app.ShowRun.Run(cmd.Context(), params)
			if err != nil {
				return err
			}

			if jsonOutput {
				data, err := json.MarshalIndent(result, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal JSON: %w", err)
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}

			return render.NewRecordsRenderer(cmd.OutOrStdout()).RenderRun(result)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")

	return cmd
}
