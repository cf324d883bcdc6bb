package app

import (
	"github.com/trebuchet-org/govdeploy/internal/domain"
	"github.com/trebuchet-org/govdeploy/internal/domain/config"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// App is the main application container that holds all use cases
type App struct {
	// Configuration
	Config   *config.RuntimeConfig
	Deployer domain.Identity

	// Shared dependencies
	Selector usecase.NetworkSelector

	// Use cases
	DeployStack  *usecase.DeployStack
	ListNetworks *usecase.ListNetworks
	ShowRun      *usecase.ShowRun
}

// NewApp creates a new application instance with all use cases
func NewApp(
	cfg *config.RuntimeConfig,
	deployer domain.Identity,
	selector usecase.NetworkSelector,
	deployStack *usecase.DeployStack,
	listNetworks *usecase.ListNetworks,
	showRun *usecase.ShowRun,
) (*App, error) {
	return &App{
		Config:       cfg,
		Deployer:     deployer,
		Selector:     selector,
		DeployStack:  deployStack,
		ListNetworks: listNetworks,
		ShowRun:      showRun,
	}, nil
}
