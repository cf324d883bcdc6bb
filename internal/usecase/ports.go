package usecase

import (
	"context"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// NetworkResolver handles network profile resolution
type NetworkResolver interface {
	GetNetworks(ctx context.Context) []string
	ResolveNetwork(ctx context.Context, networkID string) (*domain.NetworkProfile, error)
}

// Blockchain boundary

// DeploymentRequest is a contract-creation transaction to submit
type DeploymentRequest struct {
	Component string
	Artifact  string
	Args      []any
	From      domain.Identity
}

// CallRequest is a state-changing call against a deployed component
type CallRequest struct {
	Component string
	Artifact  string
	Address   string
	Method    string
	Args      []any
	From      domain.Identity
}

// TxHandle identifies a submitted transaction
type TxHandle struct {
	Hash            string
	ContractAddress string // set for deployments
}

// Receipt is the observed outcome of a transaction at the requested depth
type Receipt struct {
	TxHash          string
	ContractAddress string
	BlockNumber     uint64
	Confirmations   uint64
}

// ChainBackend submits transactions and waits for their confirmation depth.
// AwaitConfirmations returns an error wrapping domain.ErrTransactionReverted when
// the transaction was mined with a failed status.
type ChainBackend interface {
	SubmitDeployment(ctx context.Context, network *domain.NetworkProfile, req DeploymentRequest) (*TxHandle, error)
	AwaitConfirmations(ctx context.Context, network *domain.NetworkProfile, tx *TxHandle, confirmations uint64) (*Receipt, error)
	SubmitCall(ctx context.Context, network *domain.NetworkProfile, req CallRequest) (*TxHandle, error)
}

// Verification boundary

// VerificationRequest is submitted at most once per component
type VerificationRequest struct {
	Component       string
	Artifact        string
	Address         string
	ConstructorArgs []any
	Network         *domain.NetworkProfile
	Credential      string
}

// VerificationResult is the explorer's answer to a submission
type VerificationResult struct {
	Accepted    bool
	Message     string
	GUID        string
	ExplorerURL string
}

// SourceVerifier submits deployed sources to a public explorer. Implementations
// return errors wrapping domain.ErrAlreadyVerified or domain.ErrVerifierUnavailable
// where they can tell.
type SourceVerifier interface {
	SubmitSource(ctx context.Context, req VerificationRequest) (*VerificationResult, error)
}

// RecordStore persists the run output
type RecordStore interface {
	LoadRun(ctx context.Context, networkID string) (*domain.RunResult, error)
	SaveRun(ctx context.Context, run *domain.RunResult) error
	Path(networkID string) string
}

// Confirmer asks the operator before irreversible actions
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) (bool, error)
}

// NetworkSelector lets the operator pick a network when none was given
type NetworkSelector interface {
	SelectNetwork(ctx context.Context, networks []string) (string, error)
}

// Progress tracking interfaces

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Stage     string
	Component string
	Current   int
	Total     int
	Message   string
	Spinner   bool
	Metadata  interface{}
}

// Progress stages emitted by the orchestrator
const (
	StagePlanCreated    = "plan_created"
	StageComponentStart = "component_starting"
	StageTransition     = "transition"
	StageConfirmations  = "awaiting_confirmations"
	StageVerification   = "verification"
	StageBootstrap      = "bootstrap"
	StageRunCompleted   = "run_completed"
	StageComponentSkip  = "component_reused"
	StageNetworkResolve = "network_resolved"
	StageLoading        = "loading"
	StageLoaded         = "loaded"
)

// ProgressSink receives progress events
type ProgressSink interface {
	OnProgress(ctx context.Context, event ProgressEvent)
	Info(message string)
	Warn(message string)
	Error(message string)
}

// NopProgress is a no-op implementation of ProgressSink
type NopProgress struct{}

func (NopProgress) OnProgress(context.Context, ProgressEvent) {}
func (NopProgress) Info(string)                               {}
func (NopProgress) Warn(string)                               {}
func (NopProgress) Error(string)                              {}
