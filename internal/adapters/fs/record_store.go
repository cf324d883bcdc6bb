package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// RecordStoreAdapter persists run outputs as <outputDir>/<network>.json
type RecordStoreAdapter struct {
	dir string
	mu  sync.Mutex
}

// NewRecordStoreAdapter creates a new RecordStoreAdapter
func NewRecordStoreAdapter(cfg *config.RuntimeConfig) *RecordStoreAdapter {
	dir := cfg.OutputDir
	if dir == "" {
		dir = "deployments"
	}
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(cfg.ProjectRoot, dir)
	}
	return &RecordStoreAdapter{dir: dir}
}

// Path returns the run output file of a network
func (s *RecordStoreAdapter) Path(networkID string) string {
	return filepath.Join(s.dir, networkID+".json")
}

// LoadRun reads the last run output of a network
func (s *RecordStoreAdapter) LoadRun(_ context.Context, networkID string) (*domain.RunResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.Path(networkID))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("run output for %s: %w", networkID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read run output: %w", err)
	}

	var run domain.RunResult
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("failed to parse run output: %w", err)
	}
	if run.Records == nil {
		run.Records = make([]*domain.DeploymentRecord, 0)
	}
	return &run, nil
}

// SaveRun writes the run output, replacing the file atomically
func (s *RecordStoreAdapter) SaveRun(_ context.Context, run *domain.RunResult) error {
	if run.Network == nil || run.Network.NetworkID == "" {
		return fmt.Errorf("run output has no network")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	data, err := json.MarshalIndent(run, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal run output: %w", err)
	}

	path := s.Path(run.Network.NetworkID)
	tmp, err := os.CreateTemp(s.dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write run output: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write run output: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace run output: %w", err)
	}
	return nil
}

// Ensure RecordStoreAdapter implements RecordStore
var _ usecase.RecordStore = (*RecordStoreAdapter)(nil)
