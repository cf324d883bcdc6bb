package render

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// NetworksRenderer renders network lists
type NetworksRenderer struct {
	out   io.Writer
	color bool
}

// NewNetworksRenderer creates a new networks renderer
func NewNetworksRenderer(out io.Writer, color bool) *NetworksRenderer {
	return &NetworksRenderer{
		out:   out,
		color: color,
	}
}

// RenderNetworksList renders the configured network profiles
func (r *NetworksRenderer) RenderNetworksList(result *usecase.ListNetworksResult) error {
	if len(result.Networks) == 0 {
		fmt.Fprintln(r.out, "No networks configured in govdeploy.toml [networks]")
		return nil
	}

	fmt.Fprintln(r.out, "🌐 Available Networks:")
	fmt.Fprintln(r.out)

	rows := make(TableData, 0, len(result.Networks))
	for _, network := range result.Networks {
		if network.Error != nil {
			rows = append(rows, []string{"❌ " + network.Name, errorStyle.Sprintf("Error: %v", network.Error)})
			continue
		}
		p := network.Profile
		kind := ""
		if p.Development {
			kind = color.New(color.FgYellow).Sprint("development")
		}
		verify := faintStyle.Sprint("no verification")
		if p.VerificationEnabled {
			verify = successStyle.Sprint("verification")
		}
		rows = append(rows, []string{
			"✅ " + network.Name,
			fmt.Sprintf("Chain ID: %d", p.ChainID),
			fmt.Sprintf("%d confirmation(s)", p.RequiredConfirmations),
			verify,
			kind,
		})
	}
	fmt.Fprintln(r.out, renderTable(rows, "  "))
	return nil
}
