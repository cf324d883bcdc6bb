package usecase

import (
	"context"
	"log/slog"

	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

// DeployStack runs an orchestrated deployment of a plan
type DeployStack struct {
	resolver  NetworkResolver
	backend   ChainBackend
	verifier  SourceVerifier
	store     RecordStore
	confirmer Confirmer
	progress  ProgressSink
	log       *slog.Logger
}

// NewDeployStack creates a new deploy use case
func NewDeployStack(
	resolver NetworkResolver,
	backend ChainBackend,
	verifier SourceVerifier,
	store RecordStore,
	confirmer Confirmer,
	progress ProgressSink,
	log *slog.Logger,
) *DeployStack {
	return &DeployStack{
		resolver:  resolver,
		backend:   backend,
		verifier:  verifier,
		store:     store,
		confirmer: confirmer,
		progress:  progress,
		log:       log,
	}
}

// DeployStackParams contains parameters for a deployment run
type DeployStackParams struct {
	Run            config.RunConfig
	NonInteractive bool
}

// Run builds an Orchestrator for params.Run and executes it
func (uc *DeployStack) Run(ctx context.Context, params DeployStackParams) (*domain.RunResult, error) {
	orchestrator := NewOrchestrator(
		params.Run,
		uc.resolver,
		NewDeploymentExecutor(uc.backend, uc.progress, uc.log),
		NewVerificationSubmitter(uc.verifier, params.Run.VerificationCredential, uc.progress, uc.log),
		NewBootstrapRunner(uc.backend, uc.progress, uc.log),
		uc.store,
		uc.progress,
		uc.log,
	)

	if !params.NonInteractive {
		orchestrator.RequireConfirmation(uc.confirmer)
	}

	return orchestrator.Run(ctx)
}

// OutputPath returns where the run output for a network is persisted
func (uc *DeployStack) OutputPath(networkID string) string {
	return uc.store.Path(networkID)
}
