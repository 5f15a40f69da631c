//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"github.com/MiguelT18/trading-bot/pkg/config"
	"github.com/MiguelT18/trading-bot/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Feeds
		ProvideStreamFeed,
		ProvidePriceFeed,
		ProvideIngest,

		// Sinks
		ProvideDelivery,

		// Use cases
		ProvideJournal,
		ProvideTradingLoop,

		// HTTP
		ProvideRateLimiter,
		ProvideStatusHandler,
		ProvideHTTPServer,

		// App
		ProvideApp,
	)
	return nil, nil
}
