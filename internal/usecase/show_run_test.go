package usecase_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

func TestShowRun(t *testing.T) {
	ctx := context.Background()
	store := newMemStore()
	store.runs["sepolia"] = &domain.RunResult{
		RunID:   "run-1",
		Network: &domain.NetworkProfile{NetworkID: "sepolia"},
		Status:  domain.RunComplete,
		Records: []*domain.DeploymentRecord{
			{ComponentName: "GovernanceToken", Address: addressN(1), State: domain.StateComplete},
			{ComponentName: "TimeLock", Address: addressN(2), State: domain.StateComplete},
		},
	}

	t.Run("whole run", func(t *testing.T) {
		sink := &recordingSink{}
		result, err := usecase.NewShowRun(store, sink).Run(ctx, usecase.ShowRunParams{NetworkID: "sepolia"})
		require.NoError(t, err)
		assert.Equal(t, "run-1", result.RunID)
		assert.Len(t, result.Records, 2)

		require.Len(t, sink.events, 2)
		assert.Equal(t, usecase.StageLoading, sink.events[0].Stage)
		assert.Equal(t, usecase.StageLoaded, sink.events[1].Stage)
	})

	t.Run("single component", func(t *testing.T) {
		uc := usecase.NewShowRun(store, usecase.NopProgress{})
		result, err := uc.Run(ctx, usecase.ShowRunParams{NetworkID: "sepolia", Component: "TimeLock"})
		require.NoError(t, err)
		require.Len(t, result.Records, 1)
		assert.Equal(t, addressN(2), result.Records[0].Address)
		assert.Len(t, store.runs["sepolia"].Records, 2)
	})

	t.Run("unknown component", func(t *testing.T) {
		uc := usecase.NewShowRun(store, usecase.NopProgress{})
		_, err := uc.Run(ctx, usecase.ShowRunParams{NetworkID: "sepolia", Component: "Governor"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("no run output", func(t *testing.T) {
		uc := usecase.NewShowRun(store, usecase.NopProgress{})
		_, err := uc.Run(ctx, usecase.ShowRunParams{NetworkID: "mainnet"})
		assert.ErrorIs(t, err, domain.ErrNotFound)
		assert.Contains(t, err.Error(), "deployments/mainnet.json")
	})

	t.Run("network required", func(t *testing.T) {
		uc := usecase.NewShowRun(store, usecase.NopProgress{})
		_, err := uc.Run(ctx, usecase.ShowRunParams{})
		assert.Error(t, err)
	})
}
