package network

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/sahilm/fuzzy"
	"github.com/samber/lo"
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
)

// maxSuggestions bounds the "did you mean" list of an unknown network error
const maxSuggestions = 3

// wellKnown holds chain-level defaults merged into configured networks of the same name
type wellKnown struct {
	chainID        uint64
	confirmations  uint64
	development    bool
	explorerURL    string
	explorerAPIURL string
	rpcURL         string
}

var wellKnownNetworks = map[string]wellKnown{
	"mainnet":   {chainID: 1, confirmations: 6, explorerURL: "https://etherscan.io", explorerAPIURL: "https://api.etherscan.io/api"},
	"sepolia":   {chainID: 11155111, confirmations: 6, explorerURL: "https://sepolia.etherscan.io", explorerAPIURL: "https://api-sepolia.etherscan.io/api"},
	"optimism":  {chainID: 10, confirmations: 2, explorerURL: "https://optimistic.etherscan.io", explorerAPIURL: "https://api-optimistic.etherscan.io/api"},
	"arbitrum":  {chainID: 42161, confirmations: 2, explorerURL: "https://arbiscan.io", explorerAPIURL: "https://api.arbiscan.io/api"},
	"polygon":   {chainID: 137, confirmations: 5, explorerURL: "https://polygonscan.com", explorerAPIURL: "https://api.polygonscan.com/api"},
	"base":      {chainID: 8453, confirmations: 2, explorerURL: "https://basescan.org", explorerAPIURL: "https://api.basescan.org/api"},
	"hardhat":   {chainID: 31337, development: true, rpcURL: "http://127.0.0.1:8545"},
	"localhost": {chainID: 31337, development: true, rpcURL: "http://127.0.0.1:8545"},
}

// Resolver maps network ids to profiles. The table is built once from the project
// configuration; lookups do no I/O.
type Resolver struct {
	profiles map[string]*domain.NetworkProfile
}

// NewResolver creates a resolver from the runtime configuration. The local
// development networks are always available; other networks must be configured.
func NewResolver(cfg *config.RuntimeConfig) (*Resolver, error) {
	var networks map[string]config.NetworkConfig
	if cfg != nil && cfg.Project != nil {
		networks = cfg.Project.Networks
	}
	return NewResolverFromNetworks(networks)
}

// NewResolverFromNetworks creates a resolver from [networks.<id>] tables
func NewResolverFromNetworks(networks map[string]config.NetworkConfig) (*Resolver, error) {
	r := &Resolver{profiles: make(map[string]*domain.NetworkProfile)}

	for name, known := range wellKnownNetworks {
		if known.development {
			r.profiles[name] = fromWellKnown(name, known)
		}
	}

	for name, nc := range networks {
		profile, err := buildProfile(name, nc)
		if err != nil {
			return nil, err
		}
		r.profiles[name] = profile
	}

	return r, nil
}

func fromWellKnown(name string, known wellKnown) *domain.NetworkProfile {
	confirmations := known.confirmations
	if confirmations == 0 {
		confirmations = domain.DefaultConfirmations
	}
	return &domain.NetworkProfile{
		NetworkID:             name,
		ChainID:               known.chainID,
		RPCURL:                known.rpcURL,
		RequiredConfirmations: confirmations,
		Development:           known.development,
		ExplorerURL:           known.explorerURL,
		ExplorerAPIURL:        known.explorerAPIURL,
	}
}

func buildProfile(name string, nc config.NetworkConfig) (*domain.NetworkProfile, error) {
	if nc.Confirmations < 0 {
		return nil, &domain.ConfigurationError{
			Subject: name,
			Reason:  fmt.Sprintf("confirmations must not be negative (got %d)", nc.Confirmations),
		}
	}

	profile := &domain.NetworkProfile{NetworkID: name}
	known, isKnown := wellKnownNetworks[name]
	if isKnown {
		profile = fromWellKnown(name, known)
	}

	if nc.RPCURL != "" {
		profile.RPCURL = nc.RPCURL
	}
	if nc.ChainID != 0 {
		profile.ChainID = nc.ChainID
	}
	if nc.Confirmations > 0 {
		profile.RequiredConfirmations = uint64(nc.Confirmations)
	}
	if profile.RequiredConfirmations == 0 {
		profile.RequiredConfirmations = domain.DefaultConfirmations
	}
	if nc.Development {
		profile.Development = true
	}
	if nc.ExplorerURL != "" {
		profile.ExplorerURL = strings.TrimRight(nc.ExplorerURL, "/")
	}
	if nc.ExplorerAPIURL != "" {
		profile.ExplorerAPIURL = nc.ExplorerAPIURL
	}
	// Well-known live networks verify unless the table says otherwise; any other
	// network opts in. Either way an explorer API is required.
	verify := isKnown && known.explorerAPIURL != ""
	if nc.Verify != nil {
		verify = *nc.Verify
	}
	profile.VerificationEnabled = verify && !profile.Development && profile.ExplorerAPIURL != ""

	return profile, nil
}

// GetNetworks returns the ids of all resolvable networks in sorted order
func (r *Resolver) GetNetworks(ctx context.Context) []string {
	names := lo.Keys(r.profiles)
	sort.Strings(names)
	return names
}

// ResolveNetwork returns a copy of the profile registered for networkID
func (r *Resolver) ResolveNetwork(ctx context.Context, networkID string) (*domain.NetworkProfile, error) {
	if networkID == "" {
		return nil, &domain.ConfigurationError{Subject: "network", Reason: "network not specified"}
	}

	profile, ok := r.profiles[networkID]
	if !ok {
		profile, ok = r.profiles[strings.ToLower(networkID)]
	}
	if !ok {
		return nil, &domain.ConfigurationError{
			Subject:     networkID,
			Err:         domain.ErrUnknownNetwork,
			Suggestions: r.suggest(networkID),
		}
	}

	p := *profile
	return &p, nil
}

// suggest returns the closest configured network ids for an unknown input
func (r *Resolver) suggest(input string) []string {
	names := r.GetNetworks(context.Background())
	matches := fuzzy.Find(strings.ToLower(input), names)
	suggestions := make([]string, 0, maxSuggestions)
	for _, m := range matches {
		if len(suggestions) == maxSuggestions {
			break
		}
		suggestions = append(suggestions, m.Str)
	}
	return suggestions
}
