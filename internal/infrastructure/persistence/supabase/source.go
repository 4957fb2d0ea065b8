// Package supabase implements repository.Source on top of the Supabase
// PostgREST API.
package supabase

import (
	"context"
	stderrors "errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"
	"github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
	"go.uber.org/zap"

	apperrors "pmadmin-backend/internal/errors"
	"pmadmin-backend/internal/repository"
)

// TableClient starts a PostgREST query. Both *supabase.Client and
// *postgrest.Client satisfy it.
type TableClient interface {
	From(table string) *postgrest.QueryBuilder
}

// QueryObserver receives the outcome of every query.
type QueryObserver interface {
	ObserveQuery(table string, duration time.Duration, err error)
}

type noopObserver struct{}

func (noopObserver) ObserveQuery(string, time.Duration, error) {}

// BreakerConfig holds configuration for the circuit breaker
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32
	Interval         time.Duration
	Timeout          time.Duration
	FailureThreshold float64
	MinRequests      uint32
}

// DefaultBreakerConfig returns a default configuration for the circuit breaker
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "supabase",
		MaxRequests:      5,
		Interval:         30 * time.Second,
		Timeout:          60 * time.Second,
		FailureThreshold: 0.8,
		MinRequests:      5,
	}
}

// Source runs paged queries against Supabase behind a circuit breaker.
type Source struct {
	client   TableClient
	breaker  *gobreaker.CircuitBreaker
	observer QueryObserver
	logger   *zap.Logger
}

var _ repository.Source = (*Source)(nil)

// NewClient creates the Supabase client for url and key.
func NewClient(url, key string) (*supa.Client, error) {
	client, err := supa.NewClient(url, key, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}
	return client, nil
}

// NewSource wraps client. observer may be nil.
func NewSource(client TableClient, cfg BreakerConfig, observer QueryObserver, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	if observer == nil {
		observer = noopObserver{}
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < cfg.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("Circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return &Source{
		client:   client,
		breaker:  breaker,
		observer: observer,
		logger:   logger,
	}
}

// Select implements repository.Source. PostgREST calls do not take a context,
// so cancellation is only checked before the request is sent.
func (s *Source) Select(ctx context.Context, q repository.Query, dest any) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	start := time.Now()
	result, err := s.breaker.Execute(func() (interface{}, error) {
		count, err := buildQuery(s.client, q).ExecuteTo(dest)
		if err != nil {
			return nil, err
		}
		return int(count), nil
	})
	s.observer.ObserveQuery(q.Table, time.Since(start), err)

	if err != nil {
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			s.logger.Warn("Supabase query rejected by circuit breaker",
				zap.String("table", q.Table),
				zap.Error(err),
			)
			return 0, fmt.Errorf("supabase select %s: %w: %w", q.Table, apperrors.ErrSourceUnavailable, err)
		}
		s.logger.Error("Supabase query failed",
			zap.String("table", q.Table),
			zap.Error(err),
		)
		return 0, fmt.Errorf("supabase select %s: %w", q.Table, err)
	}

	total, _ := result.(int)
	return total, nil
}

// buildQuery translates q into a PostgREST filter chain with an exact count.
func buildQuery(client TableClient, q repository.Query) *postgrest.FilterBuilder {
	fb := client.From(q.Table).Select("*", "exact", false)
	for _, f := range q.Filters {
		switch f.Operator {
		case repository.Equals:
			fb = fb.Eq(f.Column, f.Value)
		case repository.InFilter:
			fb = fb.In(f.Column, f.Values)
		}
	}
	if q.Sort != nil {
		fb = fb.Order(q.Sort.Column, &postgrest.OrderOpts{Ascending: q.Sort.Ascending})
	}
	return fb.Range(q.From, q.To, "")
}
