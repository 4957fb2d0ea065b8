// Package config loads the service configuration: defaults in code, an
// optional YAML file, then environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"

	"pmadmin-backend/internal/infrastructure/cache"
)

// Environment names.
const (
	Development = "development"
	Staging     = "staging"
	Production  = "production"
	Test        = "test"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	ServerAddress   string        `yaml:"server_address" validate:"required"`
	Environment     string        `yaml:"environment" validate:"oneof=development staging production test"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" validate:"gt=0"`

	// Logging
	LogLevel string `yaml:"log_level" validate:"oneof=debug info warn error"`

	// DemoData serves seeded in-memory rows instead of Supabase.
	DemoData bool `yaml:"demo_data"`

	Supabase SupabaseConfig `yaml:"supabase"`
	Breaker  BreakerConfig  `yaml:"breaker"`
	Tracing  TracingConfig  `yaml:"tracing"`
	CORS     CORSConfig     `yaml:"cors"`
	Features Features       `yaml:"features"`

	// Caches overrides the named cache policies by cache name.
	Caches map[string]cache.Config `yaml:"caches" validate:"dive"`

	// File is the YAML file the configuration was read from, if any.
	File string `yaml:"-"`
}

// SupabaseConfig locates the hosted backend.
type SupabaseConfig struct {
	URL string `yaml:"url" validate:"omitempty,url"`
	Key string `yaml:"key"`
}

// BreakerConfig tunes the circuit breaker in front of the data source.
type BreakerConfig struct {
	MaxRequests      uint32        `yaml:"max_requests" validate:"min=1"`
	Interval         time.Duration `yaml:"interval" validate:"gte=0"`
	Timeout          time.Duration `yaml:"timeout" validate:"gt=0"`
	FailureThreshold float64       `yaml:"failure_threshold" validate:"gt=0,lte=1"`
	MinRequests      uint32        `yaml:"min_requests" validate:"min=1"`
}

// TracingConfig configures the OTLP exporter.
type TracingConfig struct {
	Endpoint   string  `yaml:"endpoint"`
	SampleRate float64 `yaml:"sample_rate" validate:"gte=0,lte=1"`
	Insecure   bool    `yaml:"insecure"`
}

// CORSConfig lists the browser origins allowed to call the API.
type CORSConfig struct {
	Enabled        bool     `yaml:"enabled"`
	AllowedOrigins []string `yaml:"allowed_origins" validate:"required_if=Enabled true"`
}

// Features contains feature flags for the application
type Features struct {
	EnableAuth    bool `yaml:"enable_auth"`
	EnableMetrics bool `yaml:"enable_metrics"`
	EnableTracing bool `yaml:"enable_tracing"`
	// SingleFlight coalesces concurrent misses on the same cache key.
	SingleFlight bool `yaml:"single_flight"`
	HotReload    bool `yaml:"hot_reload"`
}

// Default returns the configuration used when nothing overrides it.
func Default() *Config {
	return &Config{
		ServerAddress:   ":8080",
		Environment:     Development,
		ShutdownTimeout: 30 * time.Second,
		LogLevel:        "info",
		Breaker: BreakerConfig{
			MaxRequests:      5,
			Interval:         30 * time.Second,
			Timeout:          60 * time.Second,
			FailureThreshold: 0.8,
			MinRequests:      5,
		},
		Tracing: TracingConfig{
			Endpoint: "localhost:4317",
			Insecure: true,
		},
		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Features: Features{
			EnableMetrics: true,
			HotReload:     true,
		},
		Caches: cache.DefaultPolicies(),
	}
}

// Validate checks if all required configuration is present
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return fmt.Errorf("invalid configuration %s: failed %q (value %v)", fe.Namespace(), fe.Tag(), fe.Value())
		}
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if !c.DemoData {
		if c.Supabase.URL == "" {
			return errors.New("SUPABASE_URL is required unless demo data is enabled")
		}
		if c.Supabase.Key == "" {
			return errors.New("SUPABASE_KEY is required unless demo data is enabled")
		}
	}
	if c.Features.EnableAuth && c.DemoData {
		return errors.New("authentication needs Supabase and cannot be combined with demo data")
	}

	defaults := cache.DefaultPolicies()
	for name := range c.Caches {
		if _, ok := defaults[name]; !ok {
			return fmt.Errorf("unknown cache %q in configuration", name)
		}
	}
	return nil
}

// CachePolicies returns the cache policies keyed by name with every name set.
func (c *Config) CachePolicies() map[string]cache.Config {
	policies := make(map[string]cache.Config, len(c.Caches))
	for name, policy := range c.Caches {
		policy.Name = name
		policies[name] = policy
	}
	return policies
}

// IsDevelopment checks if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == Development
}

// IsProduction checks if running in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == Production
}

// applyEnv overlays environment variables, the highest priority source.
func (c *Config) applyEnv() {
	c.ServerAddress = getEnv("SERVER_ADDRESS", c.ServerAddress)
	c.Environment = getEnv("ENVIRONMENT", c.Environment)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)
	c.LogLevel = strings.ToLower(getEnv("LOG_LEVEL", c.LogLevel))
	c.DemoData = getEnvBool("DEMO_DATA", c.DemoData)

	c.Supabase.URL = getEnv("SUPABASE_URL", c.Supabase.URL)
	c.Supabase.Key = getEnv("SUPABASE_KEY", getEnv("SUPABASE_ANON_KEY", c.Supabase.Key))

	c.Breaker.MaxRequests = uint32(getEnvInt("BREAKER_MAX_REQUESTS", int(c.Breaker.MaxRequests)))
	c.Breaker.Interval = getEnvDuration("BREAKER_INTERVAL", c.Breaker.Interval)
	c.Breaker.Timeout = getEnvDuration("BREAKER_TIMEOUT", c.Breaker.Timeout)
	c.Breaker.FailureThreshold = getEnvFloat("BREAKER_FAILURE_THRESHOLD", c.Breaker.FailureThreshold)
	c.Breaker.MinRequests = uint32(getEnvInt("BREAKER_MIN_REQUESTS", int(c.Breaker.MinRequests)))

	c.Tracing.Endpoint = getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", c.Tracing.Endpoint)
	c.Tracing.SampleRate = getEnvFloat("TRACING_SAMPLE_RATE", c.Tracing.SampleRate)
	c.Tracing.Insecure = getEnvBool("TRACING_INSECURE", c.Tracing.Insecure)

	c.CORS.Enabled = getEnvBool("ENABLE_CORS", c.CORS.Enabled)
	if origins := getEnv("CORS_ALLOWED_ORIGINS", ""); origins != "" {
		c.CORS.AllowedOrigins = strings.Split(origins, ",")
	}

	c.Features.EnableAuth = getEnvBool("ENABLE_AUTH", c.Features.EnableAuth)
	c.Features.EnableMetrics = getEnvBool("ENABLE_METRICS", c.Features.EnableMetrics)
	c.Features.EnableTracing = getEnvBool("ENABLE_TRACING", c.Features.EnableTracing)
	c.Features.SingleFlight = getEnvBool("CACHE_SINGLE_FLIGHT", c.Features.SingleFlight)
	c.Features.HotReload = getEnvBool("CONFIG_HOT_RELOAD", c.Features.HotReload)

	// CACHE_<NAME>_TTL and CACHE_<NAME>_MAX_SIZE, e.g. CACHE_CHART_DATA_TTL=30m.
	for name, policy := range c.Caches {
		prefix := "CACHE_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		policy.DefaultTTL = getEnvDuration(prefix+"_TTL", policy.DefaultTTL)
		policy.MaxSize = getEnvInt(prefix+"_MAX_SIZE", policy.MaxSize)
		c.Caches[name] = policy
	}
}

// fillCacheDefaults completes partially specified cache policies.
func (c *Config) fillCacheDefaults() {
	defaults := cache.DefaultPolicies()
	if c.Caches == nil {
		c.Caches = make(map[string]cache.Config, len(defaults))
	}
	for name, def := range defaults {
		policy, ok := c.Caches[name]
		if !ok {
			c.Caches[name] = def
			continue
		}
		policy.Name = name
		if policy.DefaultTTL == 0 {
			policy.DefaultTTL = def.DefaultTTL
		}
		if policy.MaxSize == 0 {
			policy.MaxSize = def.MaxSize
		}
		if policy.CleanupInterval == 0 {
			policy.CleanupInterval = def.CleanupInterval
		}
		c.Caches[name] = policy
	}
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvBool gets a boolean environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value == "true" || value == "1" || value == "yes"
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// getEnvFloat gets a float environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

// getEnvDuration gets a duration environment variable such as "90s"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
