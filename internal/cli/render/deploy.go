package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/samber/lo"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

var (
	nameStyle   = color.New(color.FgCyan)
	faintStyle  = color.New(color.FgHiBlack)
	boldStyle   = color.New(color.Bold)
	addrStyle   = color.New(color.FgWhite)
	headerStyle = color.New(color.Bold, color.FgHiWhite)
)

// DeployRenderer renders orchestrated deployment runs
type DeployRenderer struct {
	out io.Writer
}

// NewDeployRenderer creates a new deploy renderer
func NewDeployRenderer(out io.Writer) *DeployRenderer {
	return &DeployRenderer{
		out: out,
	}
}

// GetWriter returns the io.Writer used by this renderer
func (r *DeployRenderer) GetWriter() io.Writer {
	return r.out
}

// RenderExecutionPlan displays the linearized plan before the first deployment
func (r *DeployRenderer) RenderExecutionPlan(plan *usecase.ExecutionPlan) {
	group := plan.Group
	if group == "" {
		group = "deployment"
	}
	fmt.Fprintf(r.out, "\n🎯 Deploying %s to %s\n", group, plan.Network.NetworkID)
	fmt.Fprintf(r.out, "   confirmations: %d, verification: %s\n\n",
		plan.Network.RequiredConfirmations, lo.Ternary(plan.Network.VerificationEnabled, "enabled", "disabled"))

	boldStyle.Fprintf(r.out, "📋 Execution Plan:\n")
	fmt.Fprintf(r.out, "%s\n", strings.Repeat("─", 50))

	for i, component := range plan.Components {
		fmt.Fprintf(r.out, "%d. ", i+1)
		nameStyle.Fprintf(r.out, "%s", component.Name)
		if component.ArtifactName() != component.Name {
			fmt.Fprintf(r.out, " → ")
			color.New(color.FgGreen).Fprintf(r.out, "%s", component.ArtifactName())
		}
		if deps := component.Dependencies(); len(deps) > 0 {
			faintStyle.Fprintf(r.out, " (depends on: %s)", strings.Join(deps, ", "))
		}
		if component.Bootstrap != nil && component.Bootstrap.Method != "" {
			fmt.Fprintln(r.out)
			color.New(color.FgYellow).Fprintf(r.out, "   then: %s", component.Bootstrap.Method)
		}
		fmt.Fprintln(r.out)
	}

	fmt.Fprintln(r.out)
}

// RenderComponentHeader shows the header of a component about to run
func (r *DeployRenderer) RenderComponentHeader(current, total int, name string) {
	fmt.Fprintln(r.out)
	boldStyle.Fprintf(r.out, "[%d/%d] %s\n", current, total, name)
}

// RenderRecord renders the outcome of one component
func (r *DeployRenderer) RenderRecord(rec *domain.DeploymentRecord) {
	switch rec.State {
	case domain.StateComplete:
		successStyle.Fprintf(r.out, "  ✓ %s at ", rec.ComponentName)
		addrStyle.Fprintln(r.out, rec.Address)
		if rec.TxHash != "" {
			faintStyle.Fprintf(r.out, "    tx %s (%d confirmation(s))\n", rec.TxHash, rec.ConfirmationsObserved)
		}
		if rec.Verified {
			faintStyle.Fprintf(r.out, "    verified %s\n", rec.VerificationNote)
		}
		if rec.BootstrapCompleted && rec.BootstrapTxHash != "" {
			faintStyle.Fprintf(r.out, "    bootstrap tx %s\n", rec.BootstrapTxHash)
		}
	case domain.StateFailed:
		errorStyle.Fprintf(r.out, "  ❌ %s failed: %s\n", rec.ComponentName, rec.Error)
		if rec.AwaitingReceipt() {
			faintStyle.Fprintf(r.out, "    pending tx %s (expected at %s)\n", rec.TxHash, rec.PendingAddress)
		}
	}
}

// RenderRunResult renders the final summary of a run
func (r *DeployRenderer) RenderRunResult(run *domain.RunResult, outputPath string) {
	fmt.Fprintf(r.out, "\n%s\n", strings.Repeat("═", 70))

	completed := lo.CountBy(run.Records, func(rec *domain.DeploymentRecord) bool {
		return rec.State == domain.StateComplete
	})

	if run.Succeeded() {
		color.New(color.FgGreen, color.Bold).Fprintf(r.out, "🎉 Successfully deployed %d component(s)\n", completed)
	} else {
		color.New(color.FgRed, color.Bold).Fprintf(r.out, "❌ Deployment failed\n")
	}

	fmt.Fprintf(r.out, "\n📊 Summary:\n")
	if run.Network != nil {
		fmt.Fprintf(r.out, "  • Network: %s", run.Network.NetworkID)
		if run.Network.ChainID != 0 {
			fmt.Fprintf(r.out, " (chain %d)", run.Network.ChainID)
		}
		fmt.Fprintln(r.out)
	}
	fmt.Fprintf(r.out, "  • Components completed: %d/%d\n", completed, len(run.Records))
	fmt.Fprintf(r.out, "  • Verified: %d\n", run.VerifiedCount())
	if run.FailedComponent != "" {
		fmt.Fprintf(r.out, "  • Failed at: %s\n", run.FailedComponent)
	}
	if run.Err != nil {
		fmt.Fprintf(r.out, "  • Error: %v\n", run.Err)
		if hint := recoveryHint(run.Err); hint != "" {
			warningStyle.Fprintf(r.out, "  • %s\n", hint)
		}
	}
	if outputPath != "" && len(run.Records) > 0 {
		faintStyle.Fprintf(r.out, "\nRun output written to %s\n", outputPath)
	}
}

// recoveryHint tells the operator how to continue after a halted run
func recoveryHint(err error) string {
	var bootstrapErr *domain.BootstrapError
	var deployErr *domain.DeploymentError
	switch {
	case errors.As(err, &bootstrapErr):
		return fmt.Sprintf("%s is deployed at %s but not initialized; rerun with --resume to retry %s",
			bootstrapErr.Component, bootstrapErr.Address, bootstrapErr.Action)
	case errors.As(err, &deployErr):
		if deployErr.Pending() {
			return fmt.Sprintf("transaction %s may still be mined; rerun with --resume to wait for it at %s",
				deployErr.TxHash, deployErr.Address)
		}
		return "rerun with --resume to continue from the last deployed component"
	}
	return ""
}
