package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/trebuchet-org/govdeploy/internal/domain"
	"gopkg.in/yaml.v3"
)

// DefaultPlanFile is loaded from the project root when present
const DefaultPlanFile = "deploy.yaml"

// ResolvePlan picks the plan for a run: an explicit path first, then the path
// from the project file, then deploy.yaml, then the built-in governance plan.
func ResolvePlan(projectRoot, flagPath, projectPath string) (*domain.Plan, error) {
	for _, p := range []string{flagPath, projectPath} {
		if p == "" {
			continue
		}
		if !filepath.IsAbs(p) {
			p = filepath.Join(projectRoot, p)
		}
		return LoadPlan(p)
	}

	path := filepath.Join(projectRoot, DefaultPlanFile)
	if _, err := os.Stat(path); err == nil {
		return LoadPlan(path)
	}
	return DefaultPlan(), nil
}

// LoadPlan reads a YAML plan file
func LoadPlan(path string) (*domain.Plan, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-supplied plan path
	if err != nil {
		return nil, &domain.ConfigurationError{Subject: path, Reason: "failed to read plan", Err: err}
	}

	var plan domain.Plan
	if err := yaml.Unmarshal(data, &plan); err != nil {
		return nil, &domain.ConfigurationError{Subject: path, Reason: "failed to parse plan", Err: err}
	}
	if len(plan.Components) == 0 {
		return nil, &domain.ConfigurationError{Subject: path, Reason: "plan has no components"}
	}
	for i, c := range plan.Components {
		if c == nil || c.Name == "" {
			return nil, &domain.ConfigurationError{Subject: path, Reason: fmt.Sprintf("component %d has no name", i)}
		}
	}
	if plan.Group == "" {
		plan.Group = "default"
	}
	return &plan, nil
}

// DefaultPlan is the governance stack deployed when the project has no plan:
// a voting token that delegates to the deployer, a time-lock controlled by the
// deployer and a factory bound to the token.
func DefaultPlan() *domain.Plan {
	return &domain.Plan{
		Group: "governance",
		Components: []*domain.ComponentTemplate{
			{
				Name: "GovernanceToken",
				Bootstrap: &domain.BootstrapTemplate{
					Method: "delegate",
					Args:   []any{"${deployer}"},
				},
			},
			{
				Name: "TimeLock",
				Args: []any{3600, []any{}, []any{}, "${deployer}"},
			},
			{
				Name: "TokenFactory",
				Args: []any{"${GovernanceToken.address}"},
			},
		},
	}
}
