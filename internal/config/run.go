package config

import (
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

// NewRunConfig builds the explicit input of a run. The network id overrides the
// one from the runtime configuration when set.
func NewRunConfig(cfg *config.RuntimeConfig, networkID string, deployer domain.Identity) config.RunConfig {
	if networkID == "" {
		networkID = cfg.Network
	}
	run := config.RunConfig{
		NetworkID: networkID,
		Plan:      cfg.Plan,
		Deployer:  deployer,
		Resume:    cfg.Resume,
	}
	if cfg.Project != nil {
		run.VerificationCredential = cfg.Project.Verification.APIKey
	}
	return run
}
