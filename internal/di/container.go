// Package di wires the service together. InitializeContainer is generated by
// Wire from the provider sets in wire.go.
package di

import (
	"net/http"
	"sync"

	"go.uber.org/zap"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/internal/config"
	"pmadmin-backend/internal/infrastructure/observability"
	"pmadmin-backend/internal/interfaces/http/rest"
	"pmadmin-backend/internal/repository"
)

// Container holds the long-lived components of one process.
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	Source     repository.Source
	Registry   *queries.Registry
	Pagination *queries.PaginationService
	Charts     *queries.ChartService
	Collector  *observability.Collector
	Tracer     *observability.TracerProvider
	Watcher    *config.Watcher
	Router     *rest.Router

	handler     http.Handler
	handlerOnce sync.Once
}

func newContainer(
	cfg *config.Config,
	logger *zap.Logger,
	source repository.Source,
	registry *queries.Registry,
	pagination *queries.PaginationService,
	charts *queries.ChartService,
	collector *observability.Collector,
	tracer *observability.TracerProvider,
	watcher *config.Watcher,
	router *rest.Router,
) *Container {
	return &Container{
		Config:     cfg,
		Logger:     logger,
		Source:     source,
		Registry:   registry,
		Pagination: pagination,
		Charts:     charts,
		Collector:  collector,
		Tracer:     tracer,
		Watcher:    watcher,
		Router:     router,
	}
}

// Handler returns the HTTP handler, building the route tree on first use.
func (c *Container) Handler() http.Handler {
	c.handlerOnce.Do(func() {
		c.handler = c.Router.Setup()
	})
	return c.handler
}
