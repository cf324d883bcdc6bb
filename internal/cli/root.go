package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/trebuchet-org/govdeploy/internal/adapters/progress"
	"github.com/trebuchet-org/govdeploy/internal/app"
	"github.com/trebuchet-org/govdeploy/internal/cli/render"
	"github.com/trebuchet-org/govdeploy/internal/config"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// contextKey is the type for context keys
type contextKey string

const (
	// appKey is the context key for the app instance
	appKey contextKey = "app"
)

// releaser collects the cleanups acquired while running one command
type releaser struct {
	fns []func()
}

func (r *releaser) add(fn func()) {
	r.fns = append(r.fns, fn)
}

// release runs the cleanups in reverse order; calling it again is a no-op
func (r *releaser) release() {
	for i := len(r.fns) - 1; i >= 0; i-- {
		r.fns[i]()
	}
	r.fns = nil
}

// Execute runs the CLI. The app's resources are released when the command
// returns, whether or not it failed.
func Execute(ctx context.Context) error {
	rel := &releaser{}
	return execute(ctx, newRootCmd(rel), rel)
}

func execute(ctx context.Context, cmd *cobra.Command, rel *releaser) error {
	defer rel.release()
	return cmd.ExecuteContext(ctx)
}

// NewRootCmd creates the root command
func NewRootCmd() *cobra.Command {
	return newRootCmd(&releaser{})
}

func newRootCmd(rel *releaser) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "govdeploy",
		Short: "Deploy and verify an on-chain governance stack",
		Long: `govdeploy deploys a governance token, a time-lock controller and a token factory
to an EVM network in dependency order, waits for the network's confirmation depth,
submits sources to the block explorer and runs post-deploy initialization.

Networks are configured in govdeploy.toml; secrets are read from .env.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// Skip for help/version commands
			if cmd.Name() == "version" || cmd.Name() == "help" || cmd.Name() == "completion" {
				return nil
			}

			projectRoot, err := config.FindProjectRoot()
			if err != nil {
				return err
			}

			v := config.SetupViper(projectRoot, cmd)
			var sink usecase.ProgressSink = progress.NewDeployProgress(render.NewDeployRenderer(cmd.OutOrStdout()))
			if jsonOut, _ := cmd.Flags().GetBool("json"); jsonOut {
				// Machine-readable output must not be interleaved with spinner frames
				sink = usecase.NopProgress{}
			}

			appInstance, release, err := app.InitApp(v, sink)
			if err != nil {
				return fmt.Errorf("failed to initialize app: %w", err)
			}

			ctx := context.WithValue(cmd.Context(), appKey, appInstance)
			rel.add(release)

			if appInstance.Config.Timeout > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, appInstance.Config.Timeout)
				rel.add(cancel)
			}

			cmd.SetContext(ctx)
			return nil
		},
		// Only reached on success; Execute covers the failure path.
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			rel.release()
		},
	}

	// Global flags
	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug output")
	rootCmd.PersistentFlags().Bool("non-interactive", false, "Disable interactive prompts")
	rootCmd.PersistentFlags().StringP("network", "n", "", "Network to use (e.g., mainnet, sepolia)")
	rootCmd.PersistentFlags().String("output-dir", "", "Directory for run outputs (default \"deployments\")")

	rootCmd.AddGroup(&cobra.Group{
		ID:    "main",
		Title: "Main Commands",
	})
	rootCmd.AddGroup(&cobra.Group{
		ID:    "management",
		Title: "Management Commands",
	})

	deployCmd := NewDeployCmd()
	deployCmd.GroupID = "main"
	rootCmd.AddCommand(deployCmd)

	showCmd := NewShowCmd()
	showCmd.GroupID = "main"
	rootCmd.AddCommand(showCmd)

	networksCmd := NewNetworksCmd()
	networksCmd.GroupID = "management"
	rootCmd.AddCommand(networksCmd)

	rootCmd.AddCommand(NewVersionCmd())

	return rootCmd
}

// getApp retrieves the app instance from the command context
func getApp(cmd *cobra.Command) (*app.App, error) {
	appInstance := cmd.Context().Value(appKey)
	if appInstance == nil {
		return nil, fmt.Errorf("app not initialized")
	}

	a, ok := appInstance.(*app.App)
	if !ok {
		return nil, fmt.Errorf("invalid app instance")
	}

	return a, nil
}
