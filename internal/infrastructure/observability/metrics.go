// Package observability provides the Prometheus metrics and OpenTelemetry
// tracing of the service.
package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"pmadmin-backend/internal/infrastructure/cache"
)

// StatsFunc reports the current statistics of the named caches.
type StatsFunc func() []cache.Stats

// Collector holds all Prometheus metrics for the application
type Collector struct {
	// Registry for this collector instance
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Data source metrics
	SourceQueries  *prometheus.CounterVec
	SourceDuration *prometheus.HistogramVec

	// Cache metrics
	CacheHits      *prometheus.CounterVec
	CacheMisses    *prometheus.CounterVec
	CacheEvictions *prometheus.CounterVec
	CacheExpired   *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace. Each
// collector owns its registry so tests can build as many as they need.
func NewCollector(namespace string) *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		HTTPRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		SourceQueries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "source_queries_total",
				Help:      "Total number of data source queries",
			},
			[]string{"table", "status"},
		),
		SourceDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "source_query_duration_seconds",
				Help:      "Data source query duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"table"},
		),
		CacheHits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_hits_total",
				Help:      "Total number of cache hits",
			},
			[]string{"cache"},
		),
		CacheMisses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_misses_total",
				Help:      "Total number of cache misses",
			},
			[]string{"cache"},
		),
		CacheEvictions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_evictions_total",
				Help:      "Total number of entries evicted at capacity",
			},
			[]string{"cache"},
		),
		CacheExpired: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "cache_expired_total",
				Help:      "Total number of expired entries removed",
			},
			[]string{"cache"},
		),
	}

	registry.MustRegister(
		c.HTTPRequests,
		c.HTTPDuration,
		c.SourceQueries,
		c.SourceDuration,
		c.CacheHits,
		c.CacheMisses,
		c.CacheEvictions,
		c.CacheExpired,
		collectors.NewGoCollector(),
	)

	return c
}

// Registry returns the registry the collector's metrics live in.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler serves the collector's registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// CacheHit implements cache.Observer.
func (c *Collector) CacheHit(name string) {
	c.CacheHits.WithLabelValues(name).Inc()
}

// CacheMiss implements cache.Observer.
func (c *Collector) CacheMiss(name string) {
	c.CacheMisses.WithLabelValues(name).Inc()
}

// CacheEviction implements cache.Observer.
func (c *Collector) CacheEviction(name string) {
	c.CacheEvictions.WithLabelValues(name).Inc()
}

// CacheExpired implements cache.Observer.
func (c *Collector) CacheExpired(name string, count int) {
	c.CacheExpired.WithLabelValues(name).Add(float64(count))
}

// ObserveQuery records one data source query.
func (c *Collector) ObserveQuery(table string, duration time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	c.SourceQueries.WithLabelValues(table, status).Inc()
	c.SourceDuration.WithLabelValues(table).Observe(duration.Seconds())
}

// ObserveHTTP records one served request.
func (c *Collector) ObserveHTTP(method, route string, status int, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RegisterCacheStats exports entry counts and hit rates of the named caches
// as gauges read at scrape time.
func (c *Collector) RegisterCacheStats(namespace string, stats StatsFunc) error {
	return c.registry.Register(&cacheStatsCollector{
		stats: stats,
		entries: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "entries"),
			"Number of entries held by the cache, by validity",
			[]string{"cache", "state"}, nil,
		),
		hitRate: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "cache", "hit_rate"),
			"Share of lookups served from the cache",
			[]string{"cache"}, nil,
		),
	})
}

type cacheStatsCollector struct {
	stats   StatsFunc
	entries *prometheus.Desc
	hitRate *prometheus.Desc
}

func (s *cacheStatsCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- s.entries
	ch <- s.hitRate
}

func (s *cacheStatsCollector) Collect(ch chan<- prometheus.Metric) {
	for _, st := range s.stats() {
		ch <- prometheus.MustNewConstMetric(s.entries, prometheus.GaugeValue, float64(st.Valid), st.Name, "valid")
		ch <- prometheus.MustNewConstMetric(s.entries, prometheus.GaugeValue, float64(st.Expired), st.Name, "expired")
		ch <- prometheus.MustNewConstMetric(s.hitRate, prometheus.GaugeValue, st.HitRate, st.Name)
	}
}
