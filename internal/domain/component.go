package domain

import (
	"fmt"
	"regexp"

	"github.com/samber/lo"
)

// DeployerPlaceholder is the template name that resolves to the deployer address
const DeployerPlaceholder = "deployer"

// placeholderPattern matches ${deployer} and ${Component.address}
var placeholderPattern = regexp.MustCompile(`^\$\{([A-Za-z_][A-Za-z0-9_-]*)(\.address)?\}$`)

// Identity is an opaque handle for an already-authorized deployer.
type Identity struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// BootstrapAction is a named post-deploy call with resolved arguments
type BootstrapAction struct {
	Method string `json:"method"`
	Args   []any  `json:"args,omitempty"`
}

// ComponentSpec is a component ready for submission. It is not modified after
// it has been handed to the executor.
type ComponentSpec struct {
	Name            string
	Artifact        string
	ConstructorArgs []any
	Deployer        Identity
	Bootstrap       *BootstrapAction
	DependsOn       []string
}

// RequiresBootstrap reports whether the component needs a post-deploy action
func (s *ComponentSpec) RequiresBootstrap() bool {
	return s.Bootstrap != nil && s.Bootstrap.Method != ""
}

// Plan is the ordered list of component templates for a deployment run
type Plan struct {
	Group      string               `yaml:"group" json:"group"`
	Components []*ComponentTemplate `yaml:"components" json:"components"`
}

// Names returns component names in plan order
func (p *Plan) Names() []string {
	return lo.Map(p.Components, func(c *ComponentTemplate, _ int) string { return c.Name })
}

// Component returns the template with the given name, or nil
func (p *Plan) Component(name string) *ComponentTemplate {
	c, _ := lo.Find(p.Components, func(c *ComponentTemplate) bool { return c.Name == name })
	return c
}

// ComponentTemplate describes one component; its args may reference the deployer
// or the resolved address of another component.
type ComponentTemplate struct {
	Name      string             `yaml:"name" json:"name"`
	Artifact  string             `yaml:"artifact" json:"artifact"`
	Args      []any              `yaml:"args,omitempty" json:"args,omitempty"`
	Deps      []string           `yaml:"deps,omitempty" json:"deps,omitempty"`
	Bootstrap *BootstrapTemplate `yaml:"bootstrap,omitempty" json:"bootstrap,omitempty"`
}

// BootstrapTemplate is the unresolved form of a BootstrapAction
type BootstrapTemplate struct {
	Method string `yaml:"method" json:"method"`
	Args   []any  `yaml:"args,omitempty" json:"args,omitempty"`
}

// ArtifactName returns the artifact to deploy, defaulting to the component name
func (t *ComponentTemplate) ArtifactName() string {
	if t.Artifact != "" {
		return t.Artifact
	}
	return t.Name
}

// References returns the components whose addresses appear in the arg templates
func (t *ComponentTemplate) References() []string {
	var refs []string
	collectRefs(t.Args, &refs)
	if t.Bootstrap != nil {
		collectRefs(t.Bootstrap.Args, &refs)
	}
	return lo.Uniq(refs)
}

// Dependencies returns explicit deps followed by address references, deduplicated
func (t *ComponentTemplate) Dependencies() []string {
	return lo.Uniq(append(append([]string{}, t.Deps...), t.References()...))
}

// Resolve substitutes placeholders and returns the submittable spec. Every
// referenced component must be present in addresses.
func (t *ComponentTemplate) Resolve(deployer Identity, addresses map[string]string) (*ComponentSpec, error) {
	args, err := resolveArgs(t.Args, deployer, addresses)
	if err != nil {
		return nil, fmt.Errorf("component %s: %w", t.Name, err)
	}

	spec := &ComponentSpec{
		Name:            t.Name,
		Artifact:        t.ArtifactName(),
		ConstructorArgs: args,
		Deployer:        deployer,
		DependsOn:       t.Dependencies(),
	}

	if t.Bootstrap != nil && t.Bootstrap.Method != "" {
		bargs, err := resolveArgs(t.Bootstrap.Args, deployer, addresses)
		if err != nil {
			return nil, fmt.Errorf("component %s bootstrap %s: %w", t.Name, t.Bootstrap.Method, err)
		}
		spec.Bootstrap = &BootstrapAction{Method: t.Bootstrap.Method, Args: bargs}
	}

	return spec, nil
}

func collectRefs(values []any, refs *[]string) {
	for _, v := range values {
		switch val := v.(type) {
		case string:
			if m := placeholderPattern.FindStringSubmatch(val); m != nil && m[2] != "" {
				*refs = append(*refs, m[1])
			}
		case []any:
			collectRefs(val, refs)
		}
	}
}

func resolveArgs(values []any, deployer Identity, addresses map[string]string) ([]any, error) {
	out := make([]any, 0, len(values))
	for _, v := range values {
		resolved, err := resolveArg(v, deployer, addresses)
		if err != nil {
			return nil, err
		}
		out = append(out, resolved)
	}
	return out, nil
}

func resolveArg(v any, deployer Identity, addresses map[string]string) (any, error) {
	switch val := v.(type) {
	case []any:
		return resolveArgs(val, deployer, addresses)
	case string:
		m := placeholderPattern.FindStringSubmatch(val)
		if m == nil {
			return val, nil
		}
		if m[2] == "" {
			if m[1] != DeployerPlaceholder {
				return nil, fmt.Errorf("unknown placeholder %q (use ${deployer} or ${<component>.address})", val)
			}
			if deployer.Address == "" {
				return nil, fmt.Errorf("placeholder %q used but deployer address is unknown", val)
			}
			return deployer.Address, nil
		}
		addr, ok := addresses[m[1]]
		if !ok || addr == "" {
			return nil, fmt.Errorf("address of %s is not resolved", m[1])
		}
		return addr, nil
	default:
		return v, nil
	}
}
