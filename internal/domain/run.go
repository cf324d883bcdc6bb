package domain

import (
	"time"

	"github.com/samber/lo"
)

// RunStatus is the terminal status of a deployment run
type RunStatus string

const (
	RunComplete RunStatus = "COMPLETE"
	RunFailed   RunStatus = "FAILED"
)

// RunResult is the output of one orchestrated run. Records are kept in execution
// order and include the partial set when the run halts.
type RunResult struct {
	RunID           string              `json:"runId"`
	Group           string              `json:"group,omitempty"`
	Network         *NetworkProfile     `json:"network"`
	Deployer        string              `json:"deployer,omitempty"`
	Records         []*DeploymentRecord `json:"records"`
	Status          RunStatus           `json:"status"`
	FailedComponent string              `json:"failedComponent,omitempty"`
	Err             error               `json:"-"`
	StartedAt       time.Time           `json:"startedAt"`
	FinishedAt      time.Time           `json:"finishedAt,omitempty"`
}

// Record returns the record for a component, or nil
func (r *RunResult) Record(name string) *DeploymentRecord {
	rec, _ := lo.Find(r.Records, func(rec *DeploymentRecord) bool { return rec.ComponentName == name })
	return rec
}

// Succeeded reports whether every component reached COMPLETE
func (r *RunResult) Succeeded() bool {
	return r.Status == RunComplete
}

// VerifiedCount returns the number of verified records
func (r *RunResult) VerifiedCount() int {
	return lo.CountBy(r.Records, func(rec *DeploymentRecord) bool { return rec.Verified })
}
