package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Build information, set with -ldflags at release time
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// NewVersionCmd creates the version command
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of govdeploy",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "govdeploy version %s (commit %s, built %s)\n", Version, Commit, Date)
		},
	}
}
