package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/stretchr/testify/mock"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

const deployerAddress = "0xf39Fd6e51aad88F6F4ce6aB8827279cffFb92266"

var testDeployer = domain.Identity{Name: "deployer", Address: deployerAddress}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeChain is an in-memory ChainBackend. Contract addresses are assigned
// sequentially starting at 0x...01.
type fakeChain struct {
	mu sync.Mutex

	deployments []usecase.DeploymentRequest
	calls       []usecase.CallRequest
	waits       []uint64 // confirmations requested, in call order

	// failures keyed by component name (deployments) or method (calls)
	submitErr map[string]error
	awaitErr  map[string]error

	nextAddr  int
	nextBlock uint64
	subjects  map[string]string // tx hash -> component or method
	reverted  map[string]bool   // mined with a failed status, stays that way
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		submitErr: make(map[string]error),
		awaitErr:  make(map[string]error),
		subjects:  make(map[string]string),
		reverted:  make(map[string]bool),
		nextBlock: 100,
	}
}

func addressN(n int) string {
	return fmt.Sprintf("0x%040x", n)
}

func (c *fakeChain) SubmitDeployment(ctx context.Context, network *domain.NetworkProfile, req usecase.DeploymentRequest) (*usecase.TxHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.submitErr[req.Component]; err != nil {
		return nil, err
	}
	c.deployments = append(c.deployments, req)
	c.nextAddr++
	hash := fmt.Sprintf("0x%064x", 0xd000+c.nextAddr)
	c.subjects[hash] = req.Component
	return &usecase.TxHandle{Hash: hash, ContractAddress: addressN(c.nextAddr)}, nil
}

func (c *fakeChain) SubmitCall(ctx context.Context, network *domain.NetworkProfile, req usecase.CallRequest) (*usecase.TxHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.submitErr[req.Method]; err != nil {
		return nil, err
	}
	c.calls = append(c.calls, req)
	hash := fmt.Sprintf("0x%064x", 0xc000+len(c.calls))
	c.subjects[hash] = req.Method
	return &usecase.TxHandle{Hash: hash}, nil
}

func (c *fakeChain) AwaitConfirmations(ctx context.Context, network *domain.NetworkProfile, tx *usecase.TxHandle, confirmations uint64) (*usecase.Receipt, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.waits = append(c.waits, confirmations)
	if c.reverted[tx.Hash] {
		return nil, domain.ErrTransactionReverted
	}
	if err := c.awaitErr[c.subjects[tx.Hash]]; err != nil {
		if errors.Is(err, domain.ErrTransactionReverted) {
			c.reverted[tx.Hash] = true
		}
		return nil, err
	}
	c.nextBlock++
	return &usecase.Receipt{
		TxHash:          tx.Hash,
		ContractAddress: tx.ContractAddress,
		BlockNumber:     c.nextBlock,
		Confirmations:   confirmations,
	}, nil
}

func (c *fakeChain) deployedComponents() []string {
	names := make([]string, 0, len(c.deployments))
	for _, d := range c.deployments {
		names = append(names, d.Component)
	}
	return names
}

// MockSourceVerifier is a mock implementation of SourceVerifier
type MockSourceVerifier struct {
	mock.Mock
}

func (m *MockSourceVerifier) SubmitSource(ctx context.Context, req usecase.VerificationRequest) (*usecase.VerificationResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*usecase.VerificationResult), args.Error(1)
}

// memStore keeps run outputs in memory and counts saves
type memStore struct {
	runs  map[string]*domain.RunResult
	saves int
}

func newMemStore() *memStore {
	return &memStore{runs: make(map[string]*domain.RunResult)}
}

func (s *memStore) LoadRun(ctx context.Context, networkID string) (*domain.RunResult, error) {
	run, ok := s.runs[networkID]
	if !ok {
		return nil, fmt.Errorf("run output for %s: %w", networkID, domain.ErrNotFound)
	}
	return snapshot(run), nil
}

func (s *memStore) SaveRun(ctx context.Context, run *domain.RunResult) error {
	s.saves++
	s.runs[run.Network.NetworkID] = snapshot(run)
	return nil
}

func (s *memStore) Path(networkID string) string {
	return "deployments/" + networkID + ".json"
}

func snapshot(run *domain.RunResult) *domain.RunResult {
	c := *run
	c.Records = make([]*domain.DeploymentRecord, len(run.Records))
	for i, rec := range run.Records {
		c.Records[i] = rec.Clone()
	}
	return &c
}

// staticResolver serves a fixed profile table
type staticResolver map[string]*domain.NetworkProfile

func (r staticResolver) GetNetworks(ctx context.Context) []string {
	names := make([]string, 0, len(r))
	for name := range r {
		names = append(names, name)
	}
	return names
}

func (r staticResolver) ResolveNetwork(ctx context.Context, networkID string) (*domain.NetworkProfile, error) {
	p, ok := r[networkID]
	if !ok {
		return nil, &domain.ConfigurationError{Subject: networkID, Err: domain.ErrUnknownNetwork}
	}
	c := *p
	return &c, nil
}

func testNetworks() staticResolver {
	return staticResolver{
		"hardhat": {
			NetworkID:             "hardhat",
			ChainID:               31337,
			RequiredConfirmations: 1,
			Development:           true,
		},
		"sepolia": {
			NetworkID:             "sepolia",
			ChainID:               11155111,
			RequiredConfirmations: 6,
			VerificationEnabled:   true,
			ExplorerURL:           "https://sepolia.etherscan.io",
			ExplorerAPIURL:        "https://api-sepolia.etherscan.io/api",
		},
	}
}

// recordingSink collects progress events and warnings
type recordingSink struct {
	events   []usecase.ProgressEvent
	warnings []string
}

func (s *recordingSink) OnProgress(ctx context.Context, event usecase.ProgressEvent) {
	s.events = append(s.events, event)
}
func (s *recordingSink) Info(string)         {}
func (s *recordingSink) Warn(message string) { s.warnings = append(s.warnings, message) }
func (s *recordingSink) Error(string)        {}

// transitions returns the states component went through, in order
func (s *recordingSink) transitions(component string) []domain.ComponentState {
	var states []domain.ComponentState
	for _, e := range s.events {
		if e.Stage == usecase.StageTransition && e.Component == component {
			states = append(states, domain.ComponentState(e.Message))
		}
	}
	return states
}

// stubConfirmer answers every prompt with answer
type stubConfirmer struct {
	answer  bool
	prompts []string
}

func (c *stubConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	c.prompts = append(c.prompts, prompt)
	return c.answer, nil
}
