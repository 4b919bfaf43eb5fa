//go:build wireinject
// +build wireinject

package di

import (
	"DeskPortal/pkg/config"
	"DeskPortal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		ProvideLogger,
		ProvideMetrics,

		// Infrastructure clients
		ProvideCache,
		ProvideClickHouseClient,
		ProvideSnapshotStore,
		ProvideAuditStore,
		ProvideKafkaProducer,
		ProvideEventPipeline,
		ProvideEventSink,
		ProvideKafkaConsumer,
		ProvideAuditHandler,

		// Upstream services
		ProvideDirectusClient,
		ProvidePricer,
		ProvideSpotProvider,
		ProvidePortfolio,
		ProvideDealGateway,
		ProvideSessionCodec,
		ProvideLimiter,

		// Use cases
		ProvideAuthUseCase,
		ProvideTradeUseCase,
		ProvideQuoteUseCase,
		ProvideRiskUseCase,
		ProvideReferenceUseCase,
		ProvideTermSheetUseCase,
		ProvideCounterpartyUseCase,

		// Application server
		ProvideHandler,
		ProvideHTTPServer,
		ProvideApp,
	)
	return &server.App{}, nil
}
