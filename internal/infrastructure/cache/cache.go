// Package cache provides the in-process TTL cache used by the admin backend.
// This file implements a generic cache with tag-based invalidation, insertion
// ordered eviction and a background expiry sweep.
package cache

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Fetcher loads a value when the cache does not hold a valid one.
type Fetcher[T any] func(ctx context.Context) (T, error)

// Observer receives cache events. It is how the cache reports to metrics
// without depending on a metrics library.
type Observer interface {
	CacheHit(cache string)
	CacheMiss(cache string)
	CacheEviction(cache string)
	CacheExpired(cache string, count int)
}

// NoopObserver discards every event.
type NoopObserver struct{}

func (NoopObserver) CacheHit(string) {}

func (NoopObserver) CacheMiss(string) {}

func (NoopObserver) CacheEviction(string) {}

func (NoopObserver) CacheExpired(string, int) {}

// Config holds the policy of a single cache instance.
type Config struct {
	Name            string        `yaml:"name" json:"name"`
	DefaultTTL      time.Duration `yaml:"default_ttl" json:"default_ttl" validate:"gt=0"`
	MaxSize         int           `yaml:"max_size" json:"max_size" validate:"min=1"`
	CleanupInterval time.Duration `yaml:"cleanup_interval" json:"cleanup_interval" validate:"gt=0"`
}

// Stats is a point-in-time snapshot of a cache.
//
// Total counts every stored entry, including expired ones the sweep has not
// removed yet. Valid and Expired partition Total. HitRate is computed from the
// real Hits and Misses counters and is 0 before the first lookup.
type Stats struct {
	Name      string  `json:"name"`
	Total     int     `json:"total"`
	Valid     int     `json:"valid"`
	Expired   int     `json:"expired"`
	Hits      int64   `json:"hits"`
	Misses    int64   `json:"misses"`
	Evictions int64   `json:"evictions"`
	HitRate   float64 `json:"hit_rate"`
	MaxSize   int     `json:"max_size"`
}

// Cache is a thread-safe, capacity bounded TTL cache.
//
// Key properties:
//   - Lazy expiry: Get never returns an expired entry and removes it on sight
//   - Background sweep: expired entries are removed every CleanupInterval
//   - Eviction: at MaxSize the entry with the oldest Timestamp is dropped (O(n))
//   - Tags: entries can be invalidated in bulk by tag (full scan)
//
// WithCache does not coalesce concurrent misses on the same key unless the
// cache was built WithSingleFlight; each concurrent caller may run its fetcher.
//
// Values are stored and returned as is. Callers must treat a returned value,
// and anything it references such as slices, as read-only.
//
// A Cache must not be used after Destroy.
type Cache[T any] struct {
	mu         sync.Mutex
	name       string
	entries    map[string]*Entry[T]
	defaultTTL time.Duration
	maxSize    int

	hits      int64
	misses    int64
	evictions int64

	now      func() time.Time
	logger   *zap.Logger
	observer Observer
	flight   *singleflight.Group

	interval    time.Duration
	resetSweep  chan time.Duration
	stop        chan struct{}
	done        chan struct{}
	destroyOnce sync.Once
}

// Option configures a Cache at construction time.
type Option func(*options)

type options struct {
	logger       *zap.Logger
	now          func() time.Time
	observer     Observer
	singleFlight bool
}

// WithLogger sets the logger used for sweep and eviction messages.
func WithLogger(logger *zap.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// WithClock replaces time.Now. Intended for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// WithObserver registers an observer for hit, miss, eviction and expiry events.
func WithObserver(observer Observer) Option {
	return func(o *options) { o.observer = observer }
}

// WithSingleFlight makes concurrent WithCache misses on the same key share one
// fetcher call.
func WithSingleFlight() Option {
	return func(o *options) { o.singleFlight = true }
}

// New creates a cache and starts its background sweep when
// cfg.CleanupInterval is positive. The configuration is trusted as is.
func New[T any](cfg Config, opts ...Option) *Cache[T] {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = zap.NewNop()
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.observer == nil {
		o.observer = NoopObserver{}
	}

	c := &Cache[T]{
		name:       cfg.Name,
		entries:    make(map[string]*Entry[T]),
		defaultTTL: cfg.DefaultTTL,
		maxSize:    cfg.MaxSize,
		now:        o.now,
		logger:     o.logger.With(zap.String("cache", cfg.Name)),
		observer:   o.observer,
		interval:   cfg.CleanupInterval,
		resetSweep: make(chan time.Duration, 1),
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
	if o.singleFlight {
		c.flight = &singleflight.Group{}
	}

	if c.interval > 0 {
		go c.sweepLoop(c.interval)
	} else {
		close(c.done)
	}
	return c
}

// Name returns the cache name.
func (c *Cache[T]) Name() string {
	return c.name
}

// Get returns the value stored at key. Expired entries are removed and
// reported as a miss.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lookup(key, true)
}

// lookup must be called with the lock held.
func (c *Cache[T]) lookup(key string, record bool) (T, bool) {
	var zero T

	entry, ok := c.entries[key]
	if !ok {
		if record {
			c.misses++
			c.observer.CacheMiss(c.name)
		}
		return zero, false
	}

	if !entry.Valid(c.now()) {
		delete(c.entries, key)
		c.observer.CacheExpired(c.name, 1)
		if record {
			c.misses++
			c.observer.CacheMiss(c.name)
		}
		return zero, false
	}

	if record {
		c.hits++
		c.observer.CacheHit(c.name)
	}
	return entry.Data, true
}

// SetOption adjusts a single Set call.
type SetOption func(*setOptions)

type setOptions struct {
	ttl  time.Duration
	tags []string
}

// WithTTL overrides the cache's default TTL for one entry. Non-positive
// durations fall back to the default.
func WithTTL(ttl time.Duration) SetOption {
	return func(o *setOptions) { o.ttl = ttl }
}

// WithTags attaches invalidation tags to one entry.
func WithTags(tags ...string) SetOption {
	return func(o *setOptions) { o.tags = append(o.tags, tags...) }
}

// Set stores data at key, replacing any existing entry. When the cache is full
// and key is new, the oldest entry is evicted first.
func (c *Cache[T]) Set(key string, data T, opts ...SetOption) {
	so := setOptions{}
	for _, opt := range opts {
		opt(&so)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	ttl := so.ttl
	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictOldest()
	}

	c.entries[key] = newEntry(key, data, c.now(), ttl, so.tags)
}

// evictOldest drops the entry with the smallest Timestamp. Must be called with
// the lock held.
func (c *Cache[T]) evictOldest() {
	var (
		oldestKey string
		oldest    time.Time
		found     bool
	)
	for key, entry := range c.entries {
		if !found || entry.Timestamp.Before(oldest) {
			oldestKey = key
			oldest = entry.Timestamp
			found = true
		}
	}
	if !found {
		return
	}

	delete(c.entries, oldestKey)
	c.evictions++
	c.observer.CacheEviction(c.name)
	c.logger.Debug("Evicted oldest cache entry", zap.String("key", oldestKey))
}

// Invalidate removes key and reports whether it was present.
func (c *Cache[T]) Invalidate(key string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.entries[key]; !ok {
		return false
	}
	delete(c.entries, key)
	return true
}

// InvalidateByTags removes every entry carrying at least one of tags and
// returns how many were removed.
func (c *Cache[T]) InvalidateByTags(tags ...string) int {
	if len(tags) == 0 {
		return 0
	}
	wanted := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		wanted[tag] = struct{}{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, entry := range c.entries {
		if entry.HasAnyTag(wanted) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.logger.Debug("Invalidated cache entries by tag",
			zap.Strings("tags", tags),
			zap.Int("count", removed),
		)
	}
	return removed
}

// Clear removes all entries. Counters are kept.
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*Entry[T])
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the cache, evaluating expiry at call time.
func (c *Cache[T]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	stats := Stats{
		Name:      c.name,
		Total:     len(c.entries),
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
		MaxSize:   c.maxSize,
	}
	for _, entry := range c.entries {
		if entry.Valid(now) {
			stats.Valid++
		} else {
			stats.Expired++
		}
	}
	if lookups := c.hits + c.misses; lookups > 0 {
		stats.HitRate = float64(c.hits) / float64(lookups)
	}
	return stats
}

// WithCache returns the cached value at key or loads it with fetcher, stores
// it with opts and returns it. A fetcher error is returned unchanged and
// nothing is stored.
//
// With WithSingleFlight, concurrent misses on key share one fetcher call. The
// fetcher then receives a context that carries the first caller's values but
// not its cancellation, and a caller whose ctx ends stops waiting with
// ctx.Err().
func (c *Cache[T]) WithCache(ctx context.Context, key string, fetcher Fetcher[T], opts ...SetOption) (T, error) {
	if value, ok := c.Get(key); ok {
		return value, nil
	}

	if c.flight == nil {
		return c.load(ctx, key, fetcher, opts)
	}

	// The shared load ignores the cancellation of the caller that started it;
	// each caller stops waiting on its own ctx.
	loadCtx := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (any, error) {
		// A flight that finished just before this one may have stored the value.
		c.mu.Lock()
		value, ok := c.lookup(key, false)
		c.mu.Unlock()
		if ok {
			return value, nil
		}
		return c.load(loadCtx, key, fetcher, opts)
	})

	var zero T
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		value, _ := res.Val.(T)
		return value, nil
	}
}

func (c *Cache[T]) load(ctx context.Context, key string, fetcher Fetcher[T], opts []SetOption) (T, error) {
	value, err := fetcher(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	c.Set(key, value, opts...)
	return value, nil
}

// WithCache is the function form of Cache.WithCache.
func WithCache[T any](ctx context.Context, c *Cache[T], key string, fetcher Fetcher[T], opts ...SetOption) (T, error) {
	return c.WithCache(ctx, key, fetcher, opts...)
}

// Configure applies a new policy to a live cache. Shrinking MaxSize evicts the
// oldest entries until the cache fits; a new CleanupInterval takes effect on
// the next sweep tick.
func (c *Cache[T]) Configure(cfg Config) {
	c.mu.Lock()
	if cfg.DefaultTTL > 0 {
		c.defaultTTL = cfg.DefaultTTL
	}
	if cfg.MaxSize > 0 {
		c.maxSize = cfg.MaxSize
	}
	for len(c.entries) > c.maxSize {
		c.evictOldest()
	}
	changed := cfg.CleanupInterval > 0 && cfg.CleanupInterval != c.interval && c.interval > 0
	if changed {
		c.interval = cfg.CleanupInterval
	}
	c.mu.Unlock()

	if changed {
		select {
		case c.resetSweep <- cfg.CleanupInterval:
		default:
			// A pending reset is already queued; the sweep reads c.interval.
		}
	}
	c.logger.Info("Cache policy updated",
		zap.Duration("default_ttl", cfg.DefaultTTL),
		zap.Int("max_size", cfg.MaxSize),
		zap.Duration("cleanup_interval", cfg.CleanupInterval),
	)
}

// Destroy stops the background sweep and clears all entries. Calling it more
// than once is safe.
func (c *Cache[T]) Destroy() {
	c.destroyOnce.Do(func() {
		close(c.stop)
		<-c.done
		c.Clear()
	})
}

func (c *Cache[T]) sweepLoop(interval time.Duration) {
	defer close(c.done)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.stop:
			return
		case <-c.resetSweep:
			c.mu.Lock()
			next := c.interval
			c.mu.Unlock()
			ticker.Reset(next)
		case <-ticker.C:
			c.Sweep()
		}
	}
}

// Sweep removes every expired entry and returns how many were removed. It runs
// on the background ticker and can also be called directly.
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.entries {
		if !entry.Valid(now) {
			delete(c.entries, key)
			removed++
		}
	}

	if removed > 0 {
		c.observer.CacheExpired(c.name, removed)
		c.logger.Debug("Cleaned up expired cache entries", zap.Int("count", removed))
	}
	return removed
}
