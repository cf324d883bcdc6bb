package progress

import (
	"context"

	"github.com/trebuchet-org/govdeploy/internal/cli/render"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// DeployProgress renders orchestrator events as they happen
type DeployProgress struct {
	renderer *render.DeployRenderer
	spinner  *SpinnerProgressReporter

	planRendered bool
}

// NewDeployProgress creates a new deploy progress reporter
func NewDeployProgress(renderer *render.DeployRenderer) *DeployProgress {
	return &DeployProgress{
		renderer: renderer,
		spinner:  NewSpinnerProgressReporter(renderer.GetWriter()),
	}
}

// OnProgress handles progress events of a deployment run
func (p *DeployProgress) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	switch event.Stage {
	case usecase.StagePlanCreated:
		if plan, ok := event.Metadata.(*usecase.ExecutionPlan); ok && !p.planRendered {
			p.renderer.RenderExecutionPlan(plan)
			p.planRendered = true
		}

	case usecase.StageComponentStart:
		p.spinner.Stop()
		p.renderer.RenderComponentHeader(event.Current, event.Total, event.Component)

	case usecase.StageComponentSkip:
		p.spinner.Info("  " + event.Message)

	case usecase.StageTransition:
		rec, ok := event.Metadata.(*domain.DeploymentRecord)
		if !ok {
			return
		}
		switch rec.State {
		case domain.StateDeploying:
			p.spinner.OnProgress(ctx, usecase.ProgressEvent{Spinner: true, Message: "Deploying " + rec.ComponentName})
		case domain.StateComplete, domain.StateFailed:
			p.spinner.Stop()
			p.renderer.RenderRecord(rec)
		}

	case usecase.StageRunCompleted, usecase.StageLoaded:
		// The summary is rendered by the command once Run returns.
		p.spinner.Stop()

	case usecase.StageNetworkResolve:
		p.spinner.Info(event.Message)

	default:
		p.spinner.OnProgress(ctx, event)
	}
}

// Info forwards info messages to the spinner
func (p *DeployProgress) Info(message string) {
	p.spinner.Info(message)
}

// Warn forwards warnings to the spinner
func (p *DeployProgress) Warn(message string) {
	p.spinner.Warn(message)
}

// Error forwards error messages to the spinner
func (p *DeployProgress) Error(message string) {
	p.spinner.Error(message)
}

// Ensure DeployProgress implements ProgressSink
var _ usecase.ProgressSink = (*DeployProgress)(nil)
