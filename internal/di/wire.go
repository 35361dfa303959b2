//go:build wireinject
// +build wireinject

package di

import (
	"MarketPulse/pkg/config"
	"MarketPulse/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvidePostgresClient,
		ProvideCache,
		ProvideKafkaConsumer,

		// Repositories
		ProvideMarketRepository,
		ProvidePulseRepository,

		// Use cases
		ProvideMarketRegistry,
		ProvidePulseStore,
		ProvidePulseIngestHandler,

		// Boundary
		ProvideHTTPHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
