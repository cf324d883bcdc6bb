//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/govdeploy/internal/adapters"
	"github.com/trebuchet-org/govdeploy/internal/config"
	"github.com/trebuchet-org/govdeploy/internal/logging"
	"github.com/trebuchet-org/govdeploy/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper, sink usecase.ProgressSink) (*App, func(), error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.NewDeployStack,
		usecase.NewListNetworks,
		usecase.NewShowRun,

		// App
		NewApp,
	)
	return nil, nil, nil
}
