package domain

import (
	"slices"
	"time"
)

// ComponentState is the per-component orchestration state
type ComponentState string

const (
	StatePending       ComponentState = "PENDING"
	StateDeploying     ComponentState = "DEPLOYING"
	StateDeployed      ComponentState = "DEPLOYED"
	StateVerifying     ComponentState = "VERIFYING"
	StateBootstrapping ComponentState = "BOOTSTRAPPING"
	StateComplete      ComponentState = "COMPLETE"
	StateFailed        ComponentState = "FAILED"
)

var transitions = map[ComponentState][]ComponentState{
	StatePending:       {StateDeploying, StateFailed},
	StateDeploying:     {StateDeployed, StateFailed},
	StateDeployed:      {StateVerifying, StateBootstrapping, StateComplete, StateFailed},
	StateVerifying:     {StateDeployed, StateFailed},
	StateBootstrapping: {StateComplete, StateFailed},
}

// CanTransitionTo reports whether next is a legal successor of s
func (s ComponentState) CanTransitionTo(next ComponentState) bool {
	return slices.Contains(transitions[s], next)
}

// IsTerminal reports whether no further transition is possible
func (s ComponentState) IsTerminal() bool {
	return s == StateComplete || s == StateFailed
}

// AddressResolved reports whether dependents may consume this component's address
func (s ComponentState) AddressResolved() bool {
	return s == StateDeployed || s == StateComplete
}

// DeploymentRecord is the audit entry for one component within one run.
type DeploymentRecord struct {
	ComponentName         string         `json:"component"`
	Artifact              string         `json:"artifact,omitempty"`
	Address               string         `json:"address,omitempty"`
	TxHash                string         `json:"txHash,omitempty"`
	PendingAddress        string         `json:"pendingAddress,omitempty"`
	BlockNumber           uint64         `json:"blockNumber,omitempty"`
	ConfirmationsObserved uint64         `json:"confirmations"`
	Verified              bool           `json:"verified"`
	VerificationNote      string         `json:"verificationNote,omitempty"`
	BootstrapRequired     bool           `json:"bootstrapRequired"`
	BootstrapCompleted    bool           `json:"bootstrapCompleted"`
	BootstrapTxHash       string         `json:"bootstrapTxHash,omitempty"`
	State                 ComponentState `json:"state"`
	Error                 string         `json:"error,omitempty"`
	UpdatedAt             time.Time      `json:"updatedAt"`
}

// NewPendingRecord creates the initial record for a component spec
func NewPendingRecord(spec *ComponentSpec) *DeploymentRecord {
	return &DeploymentRecord{
		ComponentName:     spec.Name,
		Artifact:          spec.Artifact,
		BootstrapRequired: spec.RequiresBootstrap(),
		State:             StatePending,
		UpdatedAt:         time.Now(),
	}
}

// AwaitingReceipt reports whether the creation transaction was broadcast by an
// earlier run but never observed at its confirmation depth.
func (r *DeploymentRecord) AwaitingReceipt() bool {
	return r.Address == "" && r.TxHash != "" && r.PendingAddress != ""
}

// Clone returns a copy that can be mutated without affecting r
func (r *DeploymentRecord) Clone() *DeploymentRecord {
	if r == nil {
		return nil
	}
	c := *r
	return &c
}
