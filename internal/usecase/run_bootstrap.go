package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// bootstrapConfirmations is the depth awaited for a bootstrap call: inclusion
// with a successful status.
const bootstrapConfirmations uint64 = 1

// BootstrapRunner invokes a component's one-time post-deploy action.
type BootstrapRunner struct {
	backend  ChainBackend
	progress ProgressSink
	log      *slog.Logger
}

// NewBootstrapRunner creates a new bootstrap action runner
func NewBootstrapRunner(backend ChainBackend, progress ProgressSink, log *slog.Logger) *BootstrapRunner {
	if progress == nil {
		progress = NopProgress{}
	}
	return &BootstrapRunner{
		backend:  backend,
		progress: progress,
		log:      log.With("component", "bootstrap"),
	}
}

// RunBootstrap calls action on the component at record.Address and waits for the
// call to be mined successfully. A record already marked complete is returned as is.
func (b *BootstrapRunner) RunBootstrap(ctx context.Context, record *domain.DeploymentRecord, action *domain.BootstrapAction, from domain.Identity, profile *domain.NetworkProfile) (*domain.DeploymentRecord, error) {
	if record.BootstrapCompleted || action == nil || action.Method == "" {
		return record, nil
	}

	bootstrapErr := func(txHash string, err error) error {
		return &domain.BootstrapError{
			Component: record.ComponentName,
			Action:    action.Method,
			Address:   record.Address,
			TxHash:    txHash,
			Err:       err,
		}
	}

	if record.Address == "" {
		return nil, bootstrapErr("", fmt.Errorf("component has no address"))
	}

	if record.BootstrapTxHash != "" {
		// Sent by an earlier run: wait for it rather than calling the action twice.
		b.progress.OnProgress(ctx, ProgressEvent{
			Stage:     StageBootstrap,
			Component: record.ComponentName,
			Message:   fmt.Sprintf("Awaiting %s on %s from previous run (tx %s)", action.Method, record.ComponentName, record.BootstrapTxHash),
			Spinner:   true,
		})
		sent := &TxHandle{Hash: record.BootstrapTxHash}
		receipt, err := b.backend.AwaitConfirmations(ctx, profile, sent, bootstrapConfirmations)
		switch {
		case err == nil:
			return b.completed(record, action, sent, receipt), nil
		case !errors.Is(err, domain.ErrTransactionReverted):
			return nil, bootstrapErr(sent.Hash, err)
		}
		b.log.Warn("previous bootstrap call reverted, resending", "name", record.ComponentName, "tx_hash", sent.Hash)
	}

	b.progress.OnProgress(ctx, ProgressEvent{
		Stage:     StageBootstrap,
		Component: record.ComponentName,
		Message:   fmt.Sprintf("Running %s on %s", action.Method, record.ComponentName),
		Spinner:   true,
	})

	tx, err := b.backend.SubmitCall(ctx, profile, CallRequest{
		Component: record.ComponentName,
		Artifact:  record.Artifact,
		Address:   record.Address,
		Method:    action.Method,
		Args:      action.Args,
		From:      from,
	})
	if err != nil {
		return nil, bootstrapErr("", err)
	}

	receipt, err := b.backend.AwaitConfirmations(ctx, profile, tx, bootstrapConfirmations)
	if err != nil {
		return nil, bootstrapErr(tx.Hash, err)
	}

	return b.completed(record, action, tx, receipt), nil
}

func (b *BootstrapRunner) completed(record *domain.DeploymentRecord, action *domain.BootstrapAction, tx *TxHandle, receipt *Receipt) *domain.DeploymentRecord {
	b.log.Info("bootstrap action completed",
		"name", record.ComponentName,
		"method", action.Method,
		"tx_hash", tx.Hash,
		"block", receipt.BlockNumber,
	)

	updated := record.Clone()
	updated.BootstrapCompleted = true
	updated.BootstrapTxHash = tx.Hash
	updated.UpdatedAt = time.Now()
	return updated
}
