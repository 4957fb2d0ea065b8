package cache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

type countingObserver struct {
	hits, misses, evictions, expired atomic.Int64
}

func (o *countingObserver) CacheHit(string)      { o.hits.Add(1) }
func (o *countingObserver) CacheMiss(string)     { o.misses.Add(1) }
func (o *countingObserver) CacheEviction(string) { o.evictions.Add(1) }
func (o *countingObserver) CacheExpired(_ string, n int) {
	o.expired.Add(int64(n))
}

func newTestCache[T any](t *testing.T, maxSize int, clock *fakeClock, opts ...Option) *Cache[T] {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now), WithLogger(zap.NewNop())}, opts...)
	c := New[T](Config{Name: "test", DefaultTTL: time.Minute, MaxSize: maxSize}, opts...)
	t.Cleanup(c.Destroy)
	return c
}

func TestCache_SetThenGet(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[string](t, 10, clock)

	c.Set("a", "alpha", WithTTL(time.Second))

	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "alpha", value)
}

func TestCache_GetMissing(t *testing.T) {
	c := newTestCache[int](t, 10, newFakeClock())

	value, ok := c.Get("nope")
	assert.False(t, ok)
	assert.Zero(t, value)
}

func TestCache_LazyExpiryOnRead(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[string](t, 10, clock)

	c.Set("a", "alpha", WithTTL(time.Second))

	t.Run("valid at exactly the TTL", func(t *testing.T) {
		clock.Advance(time.Second)
		_, ok := c.Get("a")
		assert.True(t, ok)
	})

	t.Run("expired entry is a miss and is removed", func(t *testing.T) {
		clock.Advance(time.Millisecond)
		_, ok := c.Get("a")
		assert.False(t, ok)
		assert.Equal(t, 0, c.Stats().Total)
	})
}

func TestCache_DefaultTTLApplies(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[string](t, 10, clock)

	c.Set("a", "alpha")
	clock.Advance(59 * time.Second)
	_, ok := c.Get("a")
	assert.True(t, ok)

	clock.Advance(2 * time.Second)
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestCache_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[string](t, 2, clock)

	c.Set("a", "one")
	clock.Advance(time.Millisecond)
	c.Set("b", "two")
	clock.Advance(time.Millisecond)
	c.Set("a", "uno")

	value, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "uno", value)
	_, ok = c.Get("b")
	assert.True(t, ok, "overwriting an existing key must not evict")
	assert.Equal(t, 2, c.Len())
}

func TestCache_EvictsOldestInserted(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[int](t, 3, clock)

	for i := 0; i < 3; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Millisecond)
	}

	// Reading k0 must not protect it: eviction is by insertion time.
	_, ok := c.Get("k0")
	require.True(t, ok)

	c.Set("k3", 3)

	assert.Equal(t, 3, c.Len())
	_, ok = c.Get("k0")
	assert.False(t, ok, "oldest entry should have been evicted")
	for _, key := range []string{"k1", "k2", "k3"} {
		_, ok := c.Get(key)
		assert.True(t, ok, key)
	}
	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCache_Invalidate(t *testing.T) {
	c := newTestCache[string](t, 10, newFakeClock())
	c.Set("a", "alpha")

	assert.True(t, c.Invalidate("a"))
	assert.False(t, c.Invalidate("a"))
	assert.False(t, c.Invalidate("never"))
}

func TestCache_InvalidateByTags(t *testing.T) {
	c := newTestCache[string](t, 10, newFakeClock())

	c.Set("p1", "x", WithTags("T"))
	c.Set("p2", "x", WithTags("T", "U"))
	c.Set("p3", "x", WithTags("U"))
	c.Set("p4", "x")

	removed := c.InvalidateByTags("T")

	assert.Equal(t, 2, removed)
	_, ok := c.Get("p1")
	assert.False(t, ok)
	_, ok = c.Get("p2")
	assert.False(t, ok)
	_, ok = c.Get("p3")
	assert.True(t, ok)
	_, ok = c.Get("p4")
	assert.True(t, ok)

	assert.Equal(t, 0, c.InvalidateByTags("missing"))
	assert.Equal(t, 0, c.InvalidateByTags())
}

func TestCache_Clear(t *testing.T) {
	c := newTestCache[string](t, 10, newFakeClock())
	c.Set("a", "alpha")
	c.Set("b", "beta")

	c.Clear()

	assert.Equal(t, 0, c.Len())
}

func TestCache_Stats(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[string](t, 10, clock)

	c.Set("short", "x", WithTTL(time.Second))
	c.Set("long", "y", WithTTL(time.Hour))

	_, _ = c.Get("long")
	_, _ = c.Get("missing")
	clock.Advance(2 * time.Second)

	stats := c.Stats()
	assert.Equal(t, "test", stats.Name)
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Valid)
	assert.Equal(t, 1, stats.Expired)
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.InDelta(t, 0.5, stats.HitRate, 1e-9)
}

func TestCache_StatsHitRateWithoutLookups(t *testing.T) {
	c := newTestCache[string](t, 10, newFakeClock())
	assert.Zero(t, c.Stats().HitRate)
}

func TestCache_Sweep(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[string](t, 10, clock)

	c.Set("short", "x", WithTTL(time.Second))
	c.Set("long", "y", WithTTL(time.Hour))
	clock.Advance(2 * time.Second)

	assert.Equal(t, 1, c.Sweep())
	assert.Equal(t, 1, c.Len())
}

func TestCache_BackgroundSweep(t *testing.T) {
	clock := newFakeClock()
	c := New[string](Config{
		Name:            "sweep",
		DefaultTTL:      time.Second,
		MaxSize:         10,
		CleanupInterval: 5 * time.Millisecond,
	}, WithClock(clock.Now))
	defer c.Destroy()

	c.Set("never-read", "x")
	clock.Advance(2 * time.Second)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}

func TestCache_WithCache(t *testing.T) {
	ctx := context.Background()

	t.Run("miss calls fetcher once and stores the value", func(t *testing.T) {
		c := newTestCache[string](t, 10, newFakeClock())
		calls := 0
		fetch := func(context.Context) (string, error) {
			calls++
			return "fresh", nil
		}

		first, err := c.WithCache(ctx, "k", fetch)
		require.NoError(t, err)
		second, err := c.WithCache(ctx, "k", fetch)
		require.NoError(t, err)

		assert.Equal(t, "fresh", first)
		assert.Equal(t, "fresh", second)
		assert.Equal(t, 1, calls)
	})

	t.Run("failing fetcher caches nothing", func(t *testing.T) {
		c := newTestCache[string](t, 10, newFakeClock())
		boom := errors.New("boom")

		_, err := WithCache(ctx, c, "k", func(context.Context) (string, error) {
			return "", boom
		})

		assert.ErrorIs(t, err, boom)
		_, ok := c.Get("k")
		assert.False(t, ok)
	})

	t.Run("ttl and tags are applied", func(t *testing.T) {
		clock := newFakeClock()
		c := newTestCache[int](t, 10, clock)

		_, err := c.WithCache(ctx, "k", func(context.Context) (int, error) { return 7, nil },
			WithTTL(time.Second), WithTags("T"))
		require.NoError(t, err)

		assert.Equal(t, 1, c.InvalidateByTags("T"))

		_, err = c.WithCache(ctx, "k", func(context.Context) (int, error) { return 8, nil },
			WithTTL(time.Second))
		require.NoError(t, err)
		clock.Advance(2 * time.Second)
		_, ok := c.Get("k")
		assert.False(t, ok)
	})
}

func TestCache_WithCacheSingleFlight(t *testing.T) {
	c := newTestCache[int](t, 10, newFakeClock(), WithSingleFlight())

	var calls atomic.Int32
	release := make(chan struct{})
	fetch := func(context.Context) (int, error) {
		calls.Add(1)
		<-release
		return 42, nil
	}

	const callers = 8
	var wg sync.WaitGroup
	results := make([]int, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, err := c.WithCache(context.Background(), "shared", fetch)
			assert.NoError(t, err)
			results[i] = v
		}(i)
	}

	// Give every caller a chance to join the flight before releasing it.
	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	for _, v := range results {
		assert.Equal(t, 42, v)
	}
}

func TestCache_WithCacheSingleFlightCancelledCaller(t *testing.T) {
	c := newTestCache[int](t, 10, newFakeClock(), WithSingleFlight())

	var calls atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	fetch := func(ctx context.Context) (int, error) {
		if calls.Add(1) == 1 {
			close(started)
		}
		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-release:
			return 42, nil
		}
	}

	firstCtx, cancel := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.WithCache(firstCtx, "shared", fetch)
		firstErr <- err
	}()
	<-started

	type outcome struct {
		value int
		err   error
	}
	second := make(chan outcome, 1)
	go func() {
		v, err := c.WithCache(context.Background(), "shared", fetch)
		second <- outcome{v, err}
	}()

	// Let the second caller join the flight, then drop the first one.
	time.Sleep(20 * time.Millisecond)
	cancel()
	assert.ErrorIs(t, <-firstErr, context.Canceled)

	close(release)
	got := <-second
	require.NoError(t, got.err)
	assert.Equal(t, 42, got.value)
	assert.Equal(t, int32(1), calls.Load())

	value, ok := c.Get("shared")
	require.True(t, ok)
	assert.Equal(t, 42, value)
}

func TestCache_Observer(t *testing.T) {
	clock := newFakeClock()
	obs := &countingObserver{}
	c := newTestCache[string](t, 1, clock, WithObserver(obs))

	c.Set("a", "x", WithTTL(time.Second))
	_, _ = c.Get("a")
	clock.Advance(time.Millisecond)
	c.Set("b", "y", WithTTL(time.Second))
	_, _ = c.Get("a")
	clock.Advance(2 * time.Second)
	_, _ = c.Get("b")

	assert.Equal(t, int64(1), obs.hits.Load())
	assert.Equal(t, int64(2), obs.misses.Load())
	assert.Equal(t, int64(1), obs.evictions.Load())
	assert.Equal(t, int64(1), obs.expired.Load())
}

func TestCache_Configure(t *testing.T) {
	clock := newFakeClock()
	c := newTestCache[int](t, 5, clock)
	for i := 0; i < 5; i++ {
		c.Set(fmt.Sprintf("k%d", i), i)
		clock.Advance(time.Millisecond)
	}

	c.Configure(Config{DefaultTTL: time.Second, MaxSize: 2})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("k4")
	assert.True(t, ok)
	_, ok = c.Get("k3")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Stats().MaxSize)

	c.Set("fresh", 1)
	clock.Advance(2 * time.Second)
	_, ok = c.Get("fresh")
	assert.False(t, ok, "new default TTL should apply")
}

func TestCache_DestroyIsIdempotent(t *testing.T) {
	c := New[string](Config{Name: "d", DefaultTTL: time.Minute, MaxSize: 2, CleanupInterval: time.Millisecond})
	c.Set("a", "x")

	c.Destroy()
	c.Destroy()

	assert.Equal(t, 0, c.Len())
}
