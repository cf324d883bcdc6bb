package usecase

import (
	"context"

	"github.com/trebuchet-org/govdeploy/internal/domain"
)

// ListNetworksParams contains parameters for listing networks
type ListNetworksParams struct {
	// VerificationCredential is used to show whether verification would run
	VerificationCredential string
}

// ListNetworksResult contains the result of listing networks
type ListNetworksResult struct {
	Networks []NetworkStatus
}

// NetworkStatus represents the status of a network
type NetworkStatus struct {
	Name    string
	Profile *domain.NetworkProfile
	Error   error
}

// ListNetworks is a use case for listing available networks
type ListNetworks struct {
	resolver NetworkResolver
}

// NewListNetworks creates a new ListNetworks use case
func NewListNetworks(resolver NetworkResolver) *ListNetworks {
	return &ListNetworks{
		resolver: resolver,
	}
}

// Run executes the use case
func (uc *ListNetworks) Run(ctx context.Context, params ListNetworksParams) (*ListNetworksResult, error) {
	networkNames := uc.resolver.GetNetworks(ctx)

	networks := make([]NetworkStatus, 0, len(networkNames))
	for _, name := range networkNames {
		status := NetworkStatus{
			Name: name,
		}

		profile, err := uc.resolver.ResolveNetwork(ctx, name)
		if err != nil {
			status.Error = err
		} else {
			profile = withVerificationCapability(profile, params.VerificationCredential)
			status.Profile = profile
		}

		networks = append(networks, status)
	}

	return &ListNetworksResult{
		Networks: networks,
	}, nil
}

// withVerificationCapability returns a copy of profile whose VerificationEnabled
// flag also accounts for the presence of a credential.
func withVerificationCapability(profile *domain.NetworkProfile, credential string) *domain.NetworkProfile {
	p := *profile
	p.VerificationEnabled = p.VerificationEnabled && !p.Development && credential != ""
	return &p
}
