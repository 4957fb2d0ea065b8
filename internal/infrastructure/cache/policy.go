package cache

import "time"

// Cache names. They double as the Prometheus label for each instance.
const (
	ProjectsCacheName  = "projects"
	UsersCacheName     = "users"
	TicketsCacheName   = "tickets"
	ChartDataCacheName = "chart-data"
)

// Invalidation tags, one per data domain.
const (
	TagProjects  = "projects"
	TagUsers     = "users"
	TagTickets   = "tickets"
	TagChartData = "chart-data"
)

// DefaultCleanupInterval is the sweep period shared by the named caches.
const DefaultCleanupInterval = time.Minute

// Per-domain TTLs. Volatile domains expire sooner.
const (
	ProjectsTTL  = 5 * time.Minute
	UsersTTL     = 10 * time.Minute
	TicketsTTL   = 2 * time.Minute
	ChartDataTTL = 15 * time.Minute
)

// Per-domain capacities. Larger domains get more room.
const (
	ProjectsMaxSize  = 500
	UsersMaxSize     = 200
	TicketsMaxSize   = 1000
	ChartDataMaxSize = 100
)

// ProjectsPolicy is the default policy of the projects cache.
var ProjectsPolicy = Config{
	Name:            ProjectsCacheName,
	DefaultTTL:      ProjectsTTL,
	MaxSize:         ProjectsMaxSize,
	CleanupInterval: DefaultCleanupInterval,
}

// UsersPolicy is the default policy of the users cache.
var UsersPolicy = Config{
	Name:            UsersCacheName,
	DefaultTTL:      UsersTTL,
	MaxSize:         UsersMaxSize,
	CleanupInterval: DefaultCleanupInterval,
}

// TicketsPolicy is the default policy of the tickets cache.
var TicketsPolicy = Config{
	Name:            TicketsCacheName,
	DefaultTTL:      TicketsTTL,
	MaxSize:         TicketsMaxSize,
	CleanupInterval: DefaultCleanupInterval,
}

// ChartDataPolicy is the default policy of the chart data cache.
var ChartDataPolicy = Config{
	Name:            ChartDataCacheName,
	DefaultTTL:      ChartDataTTL,
	MaxSize:         ChartDataMaxSize,
	CleanupInterval: DefaultCleanupInterval,
}

// DefaultPolicies returns the four named policies keyed by cache name.
func DefaultPolicies() map[string]Config {
	return map[string]Config{
		ProjectsCacheName:  ProjectsPolicy,
		UsersCacheName:     UsersPolicy,
		TicketsCacheName:   TicketsPolicy,
		ChartDataCacheName: ChartDataPolicy,
	}
}
