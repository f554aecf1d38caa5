//go:build wireinject
// +build wireinject

package app

import (
	"github.com/google/wire"
	"github.com/spf13/viper"
	"github.com/trebuchet-org/treb-safe/internal/adapters"
	"github.com/trebuchet-org/treb-safe/internal/config"
	"github.com/trebuchet-org/treb-safe/internal/events"
	"github.com/trebuchet-org/treb-safe/internal/logging"
	"github.com/trebuchet-org/treb-safe/internal/usecase"
)

// InitApp creates a fully wired App instance
func InitApp(v *viper.Viper) (*App, error) {
	wire.Build(
		// Configuration
		config.Provider,
		logging.LoggingSet,

		// Event bus
		events.NewBus,

		// Adapters
		adapters.AllAdapters,

		// Use cases
		usecase.UseCaseSet,

		// App
		NewApp,
	)
	return nil, nil
}
