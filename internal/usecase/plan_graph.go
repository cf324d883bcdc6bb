package usecase

import (
	"fmt"
	"sort"

	"github.com/samber/lo"
	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// ValidatePlan checks the plan for errors that must stop a run before any
// on-chain action.
func ValidatePlan(plan *domain.Plan) error {
	if plan == nil || len(plan.Components) == 0 {
		return &domain.ConfigurationError{Subject: "plan", Reason: "at least one component is required"}
	}

	seen := make(map[string]bool, len(plan.Components))
	for _, component := range plan.Components {
		if component.Name == "" {
			return &domain.ConfigurationError{Subject: "plan", Reason: "component name is required"}
		}
		if seen[component.Name] {
			return &domain.ConfigurationError{Subject: "plan", Reason: fmt.Sprintf("duplicate component '%s'", component.Name)}
		}
		seen[component.Name] = true
	}

	for _, component := range plan.Components {
		if component.Bootstrap != nil && component.Bootstrap.Method == "" {
			return &domain.ConfigurationError{
				Subject: component.Name,
				Reason:  "bootstrap action must name a method",
			}
		}
		for _, dep := range component.Dependencies() {
			if dep == component.Name {
				return &domain.ConfigurationError{
					Subject: component.Name,
					Reason:  fmt.Sprintf("component '%s' cannot depend on itself", component.Name),
				}
			}
			if !seen[dep] {
				return &domain.ConfigurationError{
					Subject: component.Name,
					Reason:  fmt.Sprintf("component '%s' depends on non-existent component '%s'", component.Name, dep),
				}
			}
		}
	}

	return nil
}

// DependencyGraph represents a directed acyclic graph of components
type DependencyGraph struct {
	nodes map[string]*domain.ComponentTemplate
	order map[string]int      // plan position, used to break ties
	edges map[string][]string // adjacency list: node -> list of dependents
}

// NewDependencyGraph creates a new dependency graph from the plan
func NewDependencyGraph(plan *domain.Plan) *DependencyGraph {
	graph := &DependencyGraph{
		nodes: make(map[string]*domain.ComponentTemplate, len(plan.Components)),
		order: make(map[string]int, len(plan.Components)),
		edges: make(map[string][]string),
	}

	for i, component := range plan.Components {
		graph.nodes[component.Name] = component
		graph.order[component.Name] = i
	}

	for _, component := range plan.Components {
		for _, dep := range component.Dependencies() {
			if _, exists := graph.nodes[dep]; !exists {
				// reported by ValidatePlan
				continue
			}
			graph.edges[dep] = append(graph.edges[dep], component.Name)
		}
	}

	return graph
}

// TopologicalSort returns the components in execution order, or an error if
// there's a cycle. Components that are ready at the same time keep plan order.
func (g *DependencyGraph) TopologicalSort() ([]*domain.ComponentTemplate, error) {
	inDegree := make(map[string]int, len(g.nodes))
	for name, component := range g.nodes {
		inDegree[name] += 0
		for _, dep := range component.Dependencies() {
			if _, exists := g.nodes[dep]; !exists {
				return nil, &domain.ConfigurationError{
					Subject: name,
					Reason:  fmt.Sprintf("component '%s' depends on non-existent component '%s'", name, dep),
				}
			}
			inDegree[name]++
		}
	}

	byPlanOrder := func(names []string) {
		sort.Slice(names, func(i, j int) bool { return g.order[names[i]] < g.order[names[j]] })
	}

	queue := lo.Filter(lo.Keys(inDegree), func(name string, _ int) bool { return inDegree[name] == 0 })
	byPlanOrder(queue)

	result := make([]*domain.ComponentTemplate, 0, len(g.nodes))
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		result = append(result, g.nodes[current])

		for _, dependent := range g.edges[current] {
			inDegree[dependent]--
			if inDegree[dependent] == 0 {
				queue = append(queue, dependent)
			}
		}
		byPlanOrder(queue)
	}

	if len(result) != len(g.nodes) {
		cycleNodes := lo.Filter(lo.Keys(inDegree), func(name string, _ int) bool { return inDegree[name] > 0 })
		byPlanOrder(cycleNodes)
		return nil, &domain.ConfigurationError{
			Subject: "plan",
			Reason:  fmt.Sprintf("components %v", cycleNodes),
			Err:     domain.ErrDependencyCycle,
		}
	}

	return result, nil
}
