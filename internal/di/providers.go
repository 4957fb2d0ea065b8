package di

import (
	"context"
	"fmt"

	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/internal/config"
	"pmadmin-backend/internal/infrastructure/cache"
	"pmadmin-backend/internal/infrastructure/observability"
	"pmadmin-backend/internal/infrastructure/persistence/memory"
	"pmadmin-backend/internal/infrastructure/persistence/supabase"
	"pmadmin-backend/internal/interfaces/http/handlers"
	"pmadmin-backend/internal/interfaces/http/middleware"
	"pmadmin-backend/internal/interfaces/http/rest"
	"pmadmin-backend/internal/repository"
)

// MetricsNamespace prefixes every exported Prometheus metric.
const MetricsNamespace = "pmadmin"

// Version is reported by the health endpoints and on trace resources.
var Version = "dev"

// provideLogger builds the process logger at the configured level.
func provideLogger(cfg *config.Config) (*zap.Logger, error) {
	var zapCfg zap.Config
	if cfg.IsProduction() {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
	}

	level, err := zapcore.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	return logger.With(zap.String("environment", cfg.Environment)), nil
}

// provideCollector returns nil when metrics are disabled.
func provideCollector(cfg *config.Config) *observability.Collector {
	if !cfg.Features.EnableMetrics {
		return nil
	}
	return observability.NewCollector(MetricsNamespace)
}

// provideTracing installs the OTLP exporter when tracing is enabled. A broken
// exporter is logged and tracing stays off.
func provideTracing(cfg *config.Config, logger *zap.Logger) (*observability.TracerProvider, func()) {
	if !cfg.Features.EnableTracing {
		return nil, func() {}
	}

	tp, err := observability.InitTracing(context.Background(), observability.TracingConfig{
		ServiceName: observability.ServiceName,
		Version:     Version,
		Environment: cfg.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		SampleRate:  cfg.Tracing.SampleRate,
		Insecure:    cfg.Tracing.Insecure,
	})
	if err != nil {
		logger.Warn("Failed to initialize tracing", zap.Error(err))
		return nil, func() {}
	}

	logger.Info("Tracing initialized", zap.String("endpoint", cfg.Tracing.Endpoint))
	return tp, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := tp.Shutdown(ctx); err != nil {
			logger.Warn("Failed to flush traces", zap.Error(err))
		}
	}
}

// provideSupabaseClient returns nil in demo mode.
func provideSupabaseClient(cfg *config.Config) (*supa.Client, error) {
	if cfg.DemoData {
		return nil, nil
	}
	return supabase.NewClient(cfg.Supabase.URL, cfg.Supabase.Key)
}

// provideSource picks the seeded in-memory source in demo mode and the
// breaker-guarded Supabase source otherwise.
func provideSource(cfg *config.Config, client *supa.Client, collector *observability.Collector, logger *zap.Logger) (repository.Source, error) {
	if cfg.DemoData {
		source := memory.NewSource(logger)
		if err := source.Seed(memory.DefaultSeedSize); err != nil {
			return nil, fmt.Errorf("failed to seed demo data: %w", err)
		}
		logger.Info("Serving seeded demo data")
		return source, nil
	}

	var observer supabase.QueryObserver
	if collector != nil {
		observer = collector
	}
	breaker := supabase.BreakerConfig{
		Name:             "supabase",
		MaxRequests:      cfg.Breaker.MaxRequests,
		Interval:         cfg.Breaker.Interval,
		Timeout:          cfg.Breaker.Timeout,
		FailureThreshold: cfg.Breaker.FailureThreshold,
		MinRequests:      cfg.Breaker.MinRequests,
	}
	logger.Info("Serving Supabase data", zap.String("url", cfg.Supabase.URL))
	return supabase.NewSource(client, breaker, observer, logger), nil
}

// provideTokenVerifier returns nil unless authentication is enabled.
func provideTokenVerifier(cfg *config.Config, client *supa.Client, logger *zap.Logger) middleware.TokenVerifier {
	if !cfg.Features.EnableAuth || client == nil {
		return nil
	}
	return supabase.NewTokenVerifier(client.Auth, logger)
}

// provideRegistry builds the named caches and exports their statistics.
func provideRegistry(cfg *config.Config, collector *observability.Collector, logger *zap.Logger) (*queries.Registry, func(), error) {
	var observer cache.Observer
	if collector != nil {
		observer = collector
	}

	registry := queries.NewRegistry(cfg.CachePolicies(), observer, cfg.Features.SingleFlight, logger)
	if collector != nil {
		if err := collector.RegisterCacheStats(MetricsNamespace, registry.Stats); err != nil {
			registry.Destroy()
			return nil, nil, fmt.Errorf("failed to register cache stats: %w", err)
		}
	}
	return registry, registry.Destroy, nil
}

// provideWatcher hot-reloads cache policies from the configuration file.
// It returns nil when hot reload is off or no file was loaded.
func provideWatcher(cfg *config.Config, registry *queries.Registry, logger *zap.Logger) (*config.Watcher, func()) {
	if !cfg.Features.HotReload || cfg.File == "" {
		return nil, func() {}
	}

	watcher, err := config.NewWatcher(cfg, logger)
	if err != nil {
		logger.Warn("Configuration hot reload disabled", zap.Error(err))
		return nil, func() {}
	}
	watcher.OnChange(func(next *config.Config) {
		registry.Configure(next.CachePolicies())
		logger.Info("Cache policies reloaded")
	})
	return watcher, watcher.Stop
}

func providePaginationHandler(service *queries.PaginationService, logger *zap.Logger) *handlers.PaginationHandler {
	return handlers.NewPaginationHandler(service, logger)
}

func provideChartHandler(service *queries.ChartService, logger *zap.Logger) *handlers.ChartHandler {
	return handlers.NewChartHandler(service, logger)
}

func provideCacheHandler(service *queries.PaginationService, registry *queries.Registry, logger *zap.Logger) *handlers.CacheHandler {
	return handlers.NewCacheHandler(service, registry, logger)
}

func provideHealthHandler(source repository.Source, logger *zap.Logger) *handlers.HealthHandler {
	return handlers.NewHealthHandler(source, Version, logger)
}

// provideRouter builds the HTTP handler tree.
func provideRouter(
	pagination *handlers.PaginationHandler,
	charts *handlers.ChartHandler,
	caches *handlers.CacheHandler,
	health *handlers.HealthHandler,
	verifier middleware.TokenVerifier,
	collector *observability.Collector,
	cfg *config.Config,
	logger *zap.Logger,
) *rest.Router {
	return rest.NewRouter(pagination, charts, caches, health, verifier, collector, cfg, logger)
}
