// Package rest wires the HTTP handlers into a chi router.
package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/swaggo/swag"
	"go.uber.org/zap"

	"pmadmin-backend/internal/config"
	"pmadmin-backend/internal/infrastructure/observability"
	"pmadmin-backend/internal/interfaces/http/docs"
	"pmadmin-backend/internal/interfaces/http/handlers"
	"pmadmin-backend/internal/interfaces/http/middleware"
)

// @title PM Admin Dashboard API
// @version 1.0
// @description Paged, cached reads over the project management backend.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

// Router creates and configures the HTTP router
type Router struct {
	pagination *handlers.PaginationHandler
	charts     *handlers.ChartHandler
	caches     *handlers.CacheHandler
	health     *handlers.HealthHandler

	verifier  middleware.TokenVerifier
	collector *observability.Collector
	cfg       *config.Config
	logger    *zap.Logger
}

// NewRouter creates a new router instance. verifier is required only when
// authentication is enabled; collector may be nil when metrics are disabled.
func NewRouter(
	pagination *handlers.PaginationHandler,
	charts *handlers.ChartHandler,
	caches *handlers.CacheHandler,
	health *handlers.HealthHandler,
	verifier middleware.TokenVerifier,
	collector *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *Router {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Router{
		pagination: pagination,
		charts:     charts,
		caches:     caches,
		health:     health,
		verifier:   verifier,
		collector:  collector,
		cfg:        cfg,
		logger:     logger,
	}
}

// Setup configures all routes and middleware
func (rt *Router) Setup() http.Handler {
	router := chi.NewRouter()

	// Global middleware
	router.Use(middleware.RequestID)
	router.Use(chimiddleware.RealIP)
	router.Use(middleware.Recovery(rt.logger))
	router.Use(middleware.Logger(rt.logger))
	if rt.cfg.Features.EnableMetrics && rt.collector != nil {
		router.Use(observability.MetricsMiddleware(rt.collector))
	}
	if rt.cfg.Features.EnableTracing {
		router.Use(observability.TracingMiddleware(observability.ServiceName))
	}
	if rt.cfg.CORS.Enabled {
		router.Use(cors.Handler(cors.Options{
			AllowedOrigins:   rt.cfg.CORS.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
			ExposedHeaders:   []string{middleware.RequestIDHeader},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	// Health checks
	router.Get("/health", rt.health.Health)
	router.Get("/ready", rt.health.Ready)

	if rt.cfg.Features.EnableMetrics && rt.collector != nil {
		router.Method(http.MethodGet, "/metrics", rt.collector.Handler())
	}
	router.Get("/swagger/doc.json", rt.swaggerDoc)

	// API v1 routes
	router.Route("/api/v1", func(r chi.Router) {
		if rt.cfg.Features.EnableAuth {
			r.Use(middleware.Authenticate(rt.verifier, rt.logger))
		}

		r.Get("/projects", rt.pagination.ListProjects)
		r.Get("/tickets", rt.pagination.ListTickets)
		r.Get("/payments", rt.pagination.ListPayments)

		r.Route("/users", func(r chi.Router) {
			r.Get("/", rt.pagination.ListUsers)
			r.Get("/{userID}/notifications", rt.pagination.ListNotifications)
		})

		r.Get("/charts/tickets/{projectID}", rt.charts.TicketStatus)

		r.Route("/cache", func(r chi.Router) {
			r.Get("/stats", rt.caches.Stats)
			r.Post("/invalidate/{kind}", rt.caches.Invalidate)
		})
	})

	return router
}

// swaggerDoc serves the OpenAPI document registered by the docs package.
func (rt *Router) swaggerDoc(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
	if err != nil {
		rt.logger.Error("Failed to render swagger document", zap.Error(err))
		http.Error(w, "swagger document unavailable", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
