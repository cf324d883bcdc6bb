package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Sentinel errors for domain operations
var (
	// ErrUnknownNetwork is returned when a network id has no registered profile
	ErrUnknownNetwork = errors.New("unknown network")

	// ErrDependencyCycle is returned when the plan's dependency graph is not acyclic
	ErrDependencyCycle = errors.New("circular dependency")

	// ErrTransactionReverted is returned when a mined transaction has a failed status
	ErrTransactionReverted = errors.New("transaction reverted")

	// ErrAlreadyVerified is returned by verifiers when the explorer already has the source
	ErrAlreadyVerified = errors.New("already verified")

	// ErrVerifierUnavailable is returned when the verification service cannot be reached
	ErrVerifierUnavailable = errors.New("verification service unavailable")

	// ErrNotFound is returned when a requested resource doesn't exist
	ErrNotFound = errors.New("not found")

	// ErrAborted is returned when the operator declines to proceed
	ErrAborted = errors.New("aborted by operator")
)

// ConfigurationError reports a missing or invalid network profile or plan.
// It always aborts a run before any on-chain action.
type ConfigurationError struct {
	Subject     string
	Reason      string
	Suggestions []string
	Err         error
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("configuration error")
	if e.Subject != "" {
		fmt.Fprintf(&b, " (%s)", e.Subject)
	}
	if e.Reason != "" {
		b.WriteString(": ")
		b.WriteString(e.Reason)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Suggestions) > 0 {
		fmt.Fprintf(&b, " (did you mean: %s?)", strings.Join(e.Suggestions, ", "))
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// DeploymentError reports a rejected, reverted or unconfirmed deployment transaction.
// Address is the creation address the transaction was expected to produce; it is
// only set once the transaction has been broadcast.
type DeploymentError struct {
	Component string
	TxHash    string
	Address   string
	Err       error
}

// Pending reports whether the transaction was broadcast and may still be mined
func (e *DeploymentError) Pending() bool {
	return e.TxHash != "" && e.Address != "" && !errors.Is(e.Err, ErrTransactionReverted)
}

func (e *DeploymentError) Error() string {
	if e.TxHash != "" {
		return fmt.Sprintf("deployment of %s failed (tx %s): %v", e.Component, e.TxHash, e.Err)
	}
	return fmt.Sprintf("deployment of %s failed: %v", e.Component, e.Err)
}

func (e *DeploymentError) Unwrap() error { return e.Err }

// VerificationFailure is never fatal; it is recorded on the record and reported.
type VerificationFailure struct {
	Component string
	Address   string
	Err       error
}

func (e *VerificationFailure) Error() string {
	return fmt.Sprintf("verification of %s at %s failed: %v", e.Component, e.Address, e.Err)
}

func (e *VerificationFailure) Unwrap() error { return e.Err }

// BootstrapError reports a failed post-deploy action. The component exists on-chain
// at Address but is not fully initialized.
type BootstrapError struct {
	Component string
	Action    string
	Address   string
	TxHash    string
	Err       error
}

func (e *BootstrapError) Error() string {
	return fmt.Sprintf("bootstrap %s on %s (%s) failed: %v", e.Action, e.Component, e.Address, e.Err)
}

func (e *BootstrapError) Unwrap() error { return e.Err }
