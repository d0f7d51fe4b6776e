//go:build wireinject
// +build wireinject

package di

import (
	"MarketLens/pkg/config"
	"MarketLens/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideFetcher,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideLogCollector,
		ProvideKafkaConsumer,
		ProvideNewsCache,

		// Adapters and repositories
		ProvideRegistry,
		ProvidePublisher,

		// Use cases
		ProvideOrchestrator,
		ProvideHistoryUseCase,
		ProvideQuoteUseCase,
		ProvideNewsUseCase,
		ProvideAnalysisUseCase,
		ProvideWatchlistUseCase,
		ProvideKafkaAnalysisHandler,

		// Transport and application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
