package usecase

import (
	"context"
	"fmt"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// ShowRunParams contains parameters for showing a run output
type ShowRunParams struct {
	NetworkID string
	Component string // optional; limits the result to one record
}

// ShowRun is the use case for reading the persisted run output of a network
type ShowRun struct {
	store RecordStore
	sink  ProgressSink
}

// NewShowRun creates a new ShowRun use case
func NewShowRun(store RecordStore, sink ProgressSink) *ShowRun {
	return &ShowRun{
		store: store,
		sink:  sink,
	}
}

// Run executes the show run use case
func (uc *ShowRun) Run(ctx context.Context, params ShowRunParams) (*domain.RunResult, error) {
	if params.NetworkID == "" {
		return nil, fmt.Errorf("network not specified")
	}

	uc.sink.OnProgress(ctx, ProgressEvent{
		Stage:   StageLoading,
		Message: fmt.Sprintf("Loading run output for %s", params.NetworkID),
		Spinner: true,
	})

	run, err := uc.store.LoadRun(ctx, params.NetworkID)
	uc.sink.OnProgress(ctx, ProgressEvent{Stage: StageLoaded})
	if err != nil {
		return nil, fmt.Errorf("failed to load run output from %s: %w", uc.store.Path(params.NetworkID), err)
	}

	if params.Component == "" {
		return run, nil
	}

	rec := run.Record(params.Component)
	if rec == nil {
		return nil, fmt.Errorf("component %s: %w", params.Component, domain.ErrNotFound)
	}
	filtered := *run
	filtered.Records = []*domain.DeploymentRecord{rec}
	return &filtered, nil
}
