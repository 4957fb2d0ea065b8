package queries

import (
	"sort"

	"go.uber.org/zap"

	"pmadmin-backend/internal/domain"
	"pmadmin-backend/internal/infrastructure/cache"
	"pmadmin-backend/internal/repository"
)

// Registry owns the named caches of the dashboard. It is built once at
// startup and shared by the query services.
type Registry struct {
	Projects  *cache.Cache[repository.PaginatedResult[domain.Project]]
	Users     *cache.Cache[repository.PaginatedResult[domain.User]]
	Tickets   *cache.Cache[repository.PaginatedResult[domain.Ticket]]
	ChartData *cache.Cache[domain.ChartSeries]
}

// lifecycle is the untyped view of a cache used by the aggregate operations.
type lifecycle interface {
	Name() string
	Stats() cache.Stats
	Configure(cache.Config)
	InvalidateByTags(tags ...string) int
	Clear()
	Destroy()
}

// NewRegistry creates the four named caches. Policies missing from policies
// fall back to the defaults in cache.DefaultPolicies.
func NewRegistry(policies map[string]cache.Config, observer cache.Observer, singleFlight bool, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}

	resolved := cache.DefaultPolicies()
	for name, policy := range policies {
		if _, known := resolved[name]; !known {
			logger.Warn("Ignoring policy for unknown cache", zap.String("cache", name))
			continue
		}
		policy.Name = name
		resolved[name] = policy
	}

	opts := []cache.Option{cache.WithLogger(logger)}
	if observer != nil {
		opts = append(opts, cache.WithObserver(observer))
	}
	if singleFlight {
		opts = append(opts, cache.WithSingleFlight())
	}

	r := &Registry{
		Projects:  cache.New[repository.PaginatedResult[domain.Project]](resolved[cache.ProjectsCacheName], opts...),
		Users:     cache.New[repository.PaginatedResult[domain.User]](resolved[cache.UsersCacheName], opts...),
		Tickets:   cache.New[repository.PaginatedResult[domain.Ticket]](resolved[cache.TicketsCacheName], opts...),
		ChartData: cache.New[domain.ChartSeries](resolved[cache.ChartDataCacheName], opts...),
	}

	logger.Info("Cache registry initialized",
		zap.Int("caches", len(resolved)),
		zap.Bool("single_flight", singleFlight),
	)
	return r
}

func (r *Registry) all() []lifecycle {
	return []lifecycle{r.Projects, r.Users, r.Tickets, r.ChartData}
}

// Stats returns the statistics of every cache ordered by name.
func (r *Registry) Stats() []cache.Stats {
	caches := r.all()
	stats := make([]cache.Stats, 0, len(caches))
	for _, c := range caches {
		stats = append(stats, c.Stats())
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats
}

// Configure applies policies to the live caches by name. Unknown names are
// skipped.
func (r *Registry) Configure(policies map[string]cache.Config) {
	for _, c := range r.all() {
		if policy, ok := policies[c.Name()]; ok {
			c.Configure(policy)
		}
	}
}

// InvalidateByTags removes tagged entries from every cache and returns the
// total number removed.
func (r *Registry) InvalidateByTags(tags ...string) int {
	removed := 0
	for _, c := range r.all() {
		removed += c.InvalidateByTags(tags...)
	}
	return removed
}

// Clear empties every cache.
func (r *Registry) Clear() {
	for _, c := range r.all() {
		c.Clear()
	}
}

// Destroy stops every sweep goroutine and empties the caches.
func (r *Registry) Destroy() {
	for _, c := range r.all() {
		c.Destroy()
	}
}
