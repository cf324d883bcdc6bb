package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// DeploymentExecutor submits a component's creation transaction and waits for
// the network's confirmation depth.
type DeploymentExecutor struct {
	backend  ChainBackend
	progress ProgressSink
	log      *slog.Logger
}

// NewDeploymentExecutor creates a new deployment executor
func NewDeploymentExecutor(backend ChainBackend, progress ProgressSink, log *slog.Logger) *DeploymentExecutor {
	if progress == nil {
		progress = NopProgress{}
	}
	return &DeploymentExecutor{
		backend:  backend,
		progress: progress,
		log:      log.With("component", "executor"),
	}
}

// Deploy submits spec and blocks until profile.RequiredConfirmations have
// elapsed. It is not idempotent: every call creates a new on-chain component.
func (e *DeploymentExecutor) Deploy(ctx context.Context, spec *domain.ComponentSpec, profile *domain.NetworkProfile) (*domain.DeploymentRecord, error) {
	e.log.Debug("submitting deployment",
		"name", spec.Name,
		"artifact", spec.Artifact,
		"args", len(spec.ConstructorArgs),
		"network", profile.NetworkID,
	)

	tx, err := e.backend.SubmitDeployment(ctx, profile, DeploymentRequest{
		Component: spec.Name,
		Artifact:  spec.Artifact,
		Args:      spec.ConstructorArgs,
		From:      spec.Deployer,
	})
	if err != nil {
		return nil, &domain.DeploymentError{Component: spec.Name, Err: err}
	}
	return e.confirm(ctx, spec, profile, tx)
}

// Recover waits for a creation transaction broadcast by an earlier run instead
// of submitting a new one.
func (e *DeploymentExecutor) Recover(ctx context.Context, spec *domain.ComponentSpec, profile *domain.NetworkProfile, pending *domain.DeploymentRecord) (*domain.DeploymentRecord, error) {
	e.log.Info("awaiting previously submitted deployment",
		"name", spec.Name,
		"tx_hash", pending.TxHash,
		"address", pending.PendingAddress,
	)
	return e.confirm(ctx, spec, profile, &TxHandle{Hash: pending.TxHash, ContractAddress: pending.PendingAddress})
}

func (e *DeploymentExecutor) confirm(ctx context.Context, spec *domain.ComponentSpec, profile *domain.NetworkProfile, tx *TxHandle) (*domain.DeploymentRecord, error) {
	confirmations := profile.RequiredConfirmations
	if confirmations == 0 {
		confirmations = domain.DefaultConfirmations
	}

	e.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageConfirmations,
		Component: spec.Name,
		Total:     int(confirmations),
		Message:   fmt.Sprintf("Waiting for %d confirmation(s) of %s (%s)", confirmations, spec.Name, tx.Hash),
		Spinner:   true,
	})

	receipt, err := e.backend.AwaitConfirmations(ctx, profile, tx, confirmations)
	if err != nil {
		return nil, &domain.DeploymentError{Component: spec.Name, TxHash: tx.Hash, Address: tx.ContractAddress, Err: err}
	}

	address := receipt.ContractAddress
	if address == "" {
		address = tx.ContractAddress
	}
	if address == "" {
		return nil, &domain.DeploymentError{
			Component: spec.Name,
			TxHash:    tx.Hash,
			Err:       fmt.Errorf("receipt has no contract address"),
		}
	}

	e.log.Info("component deployed",
		"name", spec.Name,
		"address", address,
		"tx_hash", tx.Hash,
		"block", receipt.BlockNumber,
	)

	record := domain.NewPendingRecord(spec)
	record.Address = address
	record.TxHash = tx.Hash
	record.BlockNumber = receipt.BlockNumber
	record.ConfirmationsObserved = confirmations
	record.State = domain.StateDeployed
	record.UpdatedAt = time.Now()

	return record, nil
}
