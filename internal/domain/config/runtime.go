package config

import (
	"time"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// RuntimeConfig represents the complete runtime configuration
// This is injected into use cases and contains all resolved settings
type RuntimeConfig struct {
	// Core settings
	ProjectRoot string
	OutputDir   string

	// Context settings
	Network  string // network id requested on the command line
	PlanPath string

	// Execution settings
	Debug          bool
	NonInteractive bool
	Resume         bool
	Timeout        time.Duration

	// Resolved configurations
	Project *ProjectConfig
	Plan    *domain.Plan
}

// RunConfig is the explicit input of one orchestrated run. It is built once by
// the caller; nothing inside the run reads configuration from the environment.
type RunConfig struct {
	NetworkID              string
	Plan                   *domain.Plan
	Deployer               domain.Identity
	VerificationCredential string
	Resume                 bool
}
