package usecase

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/govdeploy/internal/domain"
)

func names(components []*domain.ComponentTemplate) []string {
	out := make([]string, 0, len(components))
	for _, c := range components {
		out = append(out, c.Name)
	}
	return out
}

func TestTopologicalSort(t *testing.T) {
	tests := []struct {
		name       string
		components []*domain.ComponentTemplate
		want       []string
	}{
		{
			name: "independent components keep plan order",
			components: []*domain.ComponentTemplate{
				{Name: "TimeLock"},
				{Name: "GovernanceToken"},
				{Name: "Treasury"},
			},
			want: []string{"TimeLock", "GovernanceToken", "Treasury"},
		},
		{
			name: "address references order dependents after dependencies",
			components: []*domain.ComponentTemplate{
				{Name: "TokenFactory", Args: []any{"${GovernanceToken.address}"}},
				{Name: "TimeLock", Args: []any{3600, []any{}, []any{}, "${deployer}"}},
				{Name: "GovernanceToken"},
			},
			want: []string{"TimeLock", "GovernanceToken", "TokenFactory"},
		},
		{
			name: "explicit deps and nested references",
			components: []*domain.ComponentTemplate{
				{Name: "Governor", Args: []any{"${Token.address}", []any{"${TimeLock.address}"}}},
				{Name: "Registry", Deps: []string{"Governor"}},
				{Name: "TimeLock"},
				{Name: "Token"},
			},
			want: []string{"TimeLock", "Token", "Governor", "Registry"},
		},
		{
			name: "bootstrap args count as dependencies",
			components: []*domain.ComponentTemplate{
				{Name: "Token", Bootstrap: &domain.BootstrapTemplate{Method: "transferOwnership", Args: []any{"${TimeLock.address}"}}},
				{Name: "TimeLock"},
			},
			want: []string{"TimeLock", "Token"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plan := &domain.Plan{Components: tt.components}
			require.NoError(t, ValidatePlan(plan))

			ordered, err := NewDependencyGraph(plan).TopologicalSort()
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(ordered))

			// Same input, same order
			again, err := NewDependencyGraph(plan).TopologicalSort()
			require.NoError(t, err)
			assert.Equal(t, names(ordered), names(again))
		})
	}
}

func TestTopologicalSortCycle(t *testing.T) {
	plan := &domain.Plan{Components: []*domain.ComponentTemplate{
		{Name: "Standalone"},
		{Name: "A", Deps: []string{"C"}},
		{Name: "B", Args: []any{"${A.address}"}},
		{Name: "C", Deps: []string{"B"}},
	}}
	require.NoError(t, ValidatePlan(plan))

	_, err := NewDependencyGraph(plan).TopologicalSort()
	require.ErrorIs(t, err, domain.ErrDependencyCycle)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, cfgErr.Reason, "[A B C]")
}

func TestValidatePlan(t *testing.T) {
	tests := []struct {
		name       string
		plan       *domain.Plan
		wantReason string
	}{
		{"nil plan", nil, "at least one component"},
		{"no components", &domain.Plan{}, "at least one component"},
		{"unnamed", &domain.Plan{Components: []*domain.ComponentTemplate{{Artifact: "X"}}}, "name is required"},
		{"duplicate", &domain.Plan{Components: []*domain.ComponentTemplate{{Name: "A"}, {Name: "A"}}}, "duplicate component 'A'"},
		{"self dependency", &domain.Plan{Components: []*domain.ComponentTemplate{{Name: "A", Args: []any{"${A.address}"}}}}, "cannot depend on itself"},
		{"unknown dependency", &domain.Plan{Components: []*domain.ComponentTemplate{{Name: "A", Deps: []string{"B"}}}}, "non-existent component 'B'"},
		{"bootstrap without method", &domain.Plan{Components: []*domain.ComponentTemplate{{Name: "A", Bootstrap: &domain.BootstrapTemplate{}}}}, "must name a method"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePlan(tt.plan)
			var cfgErr *domain.ConfigurationError
			require.ErrorAs(t, err, &cfgErr)
			assert.Contains(t, cfgErr.Reason, tt.wantReason)
		})
	}
}
