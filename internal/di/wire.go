//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/internal/config"
)

// InfrastructureProviders provides the data source, caches and telemetry.
var InfrastructureProviders = wire.NewSet(
	provideLogger,
	provideCollector,
	provideTracing,
	provideSupabaseClient,
	provideSource,
	provideRegistry,
	provideWatcher,
)

// ApplicationProviders provides the query services.
var ApplicationProviders = wire.NewSet(
	queries.NewPaginationService,
	queries.NewChartService,
)

// InterfaceProviders provides the HTTP layer.
var InterfaceProviders = wire.NewSet(
	provideTokenVerifier,
	providePaginationHandler,
	provideChartHandler,
	provideCacheHandler,
	provideHealthHandler,
	provideRouter,
)

// InitializeContainer builds every component from cfg. The returned cleanup
// stops the watcher and caches and flushes traces.
func InitializeContainer(cfg *config.Config) (*Container, func(), error) {
	wire.Build(
		InfrastructureProviders,
		ApplicationProviders,
		InterfaceProviders,
		newContainer,
	)
	return nil, nil, nil
}
