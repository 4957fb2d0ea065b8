// Package queries contains the read side of the dashboard: paged, filtered
// and sorted queries against the data source, cached per domain.
package queries

import (
	"context"
	"fmt"
	"slices"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"pmadmin-backend/internal/domain"
	apperrors "pmadmin-backend/internal/errors"
	"pmadmin-backend/internal/infrastructure/cache"
	"pmadmin-backend/internal/repository"
)

// InvalidationKind selects which domain InvalidateCache drops.
type InvalidationKind string

const (
	InvalidateProjects InvalidationKind = "projects"
	InvalidateUsers    InvalidationKind = "users"
	InvalidateTickets  InvalidationKind = "tickets"
	InvalidateAll      InvalidationKind = "all"
)

// ParseInvalidationKind validates a kind received from a caller.
func ParseInvalidationKind(s string) (InvalidationKind, error) {
	switch kind := InvalidationKind(s); kind {
	case InvalidateProjects, InvalidateUsers, InvalidateTickets, InvalidateAll:
		return kind, nil
	default:
		return "", apperrors.NewValidationf("unknown cache kind %q: want projects, users, tickets or all", s)
	}
}

// tags returns the invalidation tags a kind covers.
func (k InvalidationKind) tags() []string {
	switch k {
	case InvalidateProjects:
		return []string{cache.TagProjects}
	case InvalidateUsers:
		return []string{cache.TagUsers}
	case InvalidateTickets:
		return []string{cache.TagTickets}
	case InvalidateAll:
		return []string{cache.TagProjects, cache.TagUsers, cache.TagTickets, cache.TagChartData}
	}
	return nil
}

// PaginationService serves paged reads. Projects, users and tickets go through
// their named cache; payments and notifications always hit the source.
//
// Source errors are returned wrapped with the domain and page using %w, so
// errors.Is and errors.As match the original error but == does not. Nothing
// is cached when the source fails. Returned pages own their Data slice.
type PaginationService struct {
	source   repository.Source
	registry *Registry
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewPaginationService creates a new PaginationService
func NewPaginationService(source repository.Source, registry *Registry, logger *zap.Logger) *PaginationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaginationService{
		source:   source,
		registry: registry,
		logger:   logger,
		tracer:   otel.Tracer("pmadmin-backend.queries.pagination_service"),
	}
}

// GetProjects returns one page of projects.
func (s *PaginationService) GetProjects(ctx context.Context, params repository.PaginationParams) (repository.PaginatedResult[domain.Project], error) {
	return cachedPage(ctx, s, s.registry.Projects, domain.TableProjects, cache.TagProjects, params)
}

// GetUsers returns one page of users.
func (s *PaginationService) GetUsers(ctx context.Context, params repository.PaginationParams) (repository.PaginatedResult[domain.User], error) {
	return cachedPage(ctx, s, s.registry.Users, domain.TableUsers, cache.TagUsers, params)
}

// GetTickets returns one page of tickets.
func (s *PaginationService) GetTickets(ctx context.Context, params repository.PaginationParams) (repository.PaginatedResult[domain.Ticket], error) {
	return cachedPage(ctx, s, s.registry.Tickets, domain.TableTickets, cache.TagTickets, params)
}

// GetPayments returns one page of payments. Payments are never cached.
func (s *PaginationService) GetPayments(ctx context.Context, params repository.PaginationParams) (repository.PaginatedResult[domain.Payment], error) {
	return uncachedPage[domain.Payment](ctx, s, domain.TablePayments, params)
}

// GetNotifications returns one page of the notifications of userID. They are
// never cached.
func (s *PaginationService) GetNotifications(ctx context.Context, userID string, params repository.PaginationParams) (repository.PaginatedResult[domain.Notification], error) {
	if userID == "" {
		return repository.PaginatedResult[domain.Notification]{}, apperrors.NewValidation("user id is required")
	}
	filters := make(map[string]string, len(params.Filters)+1)
	for column, value := range params.Filters {
		filters[column] = value
	}
	filters["user_id"] = userID
	params.Filters = filters

	return uncachedPage[domain.Notification](ctx, s, domain.TableNotifications, params)
}

// InvalidateCache drops every cached entry of kind and returns how many were
// removed. Chart data is tagged with the tickets tag as well, so ticket
// invalidation refreshes charts too.
func (s *PaginationService) InvalidateCache(ctx context.Context, kind InvalidationKind) (int, error) {
	_, span := s.tracer.Start(ctx, "PaginationService.InvalidateCache",
		trace.WithAttributes(attribute.String("cache.kind", string(kind))),
	)
	defer span.End()

	tags := kind.tags()
	if tags == nil {
		err := apperrors.NewValidationf("unknown cache kind %q", kind)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return 0, err
	}

	removed := s.registry.InvalidateByTags(tags...)
	span.SetAttributes(attribute.Int("cache.removed", removed))
	s.logger.Info("Cache invalidated",
		zap.String("kind", string(kind)),
		zap.Strings("tags", tags),
		zap.Int("removed", removed),
	)
	return removed, nil
}

// prepare normalizes and validates params and opens the span of one page read.
func (s *PaginationService) prepare(ctx context.Context, table string, params repository.PaginationParams) (context.Context, trace.Span, repository.PaginationParams, error) {
	params = params.Normalize()
	ctx, span := s.tracer.Start(ctx, "PaginationService.Get",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("pagination.domain", table),
			attribute.Int("pagination.page", params.Page),
			attribute.Int("pagination.limit", params.Limit),
		),
	)
	if err := params.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.End()
		return ctx, span, params, err
	}
	return ctx, span, params, nil
}

func cachedPage[T any](
	ctx context.Context,
	s *PaginationService,
	c *cache.Cache[repository.PaginatedResult[T]],
	table, tag string,
	params repository.PaginationParams,
) (repository.PaginatedResult[T], error) {
	ctx, span, params, err := s.prepare(ctx, table, params)
	if err != nil {
		return repository.PaginatedResult[T]{}, err
	}
	defer span.End()

	key := repository.CacheKey(table, params)
	fetched := false
	result, err := c.WithCache(ctx, key, func(ctx context.Context) (repository.PaginatedResult[T], error) {
		fetched = true
		return fetchPage[T](ctx, s.source, table, params)
	}, cache.WithTags(tag))

	span.SetAttributes(
		attribute.String("cache.key", key),
		attribute.Bool("cache.hit", !fetched && err == nil),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("Paged query failed",
			zap.String("domain", table),
			zap.String("cache_key", key),
			zap.Error(err),
		)
		return repository.PaginatedResult[T]{}, err
	}
	// The cached page stays private; callers get their own row slice.
	result.Data = slices.Clone(result.Data)
	return result, nil
}

func uncachedPage[T any](ctx context.Context, s *PaginationService, table string, params repository.PaginationParams) (repository.PaginatedResult[T], error) {
	ctx, span, params, err := s.prepare(ctx, table, params)
	if err != nil {
		return repository.PaginatedResult[T]{}, err
	}
	defer span.End()

	result, err := fetchPage[T](ctx, s.source, table, params)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("Paged query failed",
			zap.String("domain", table),
			zap.Error(err),
		)
		return repository.PaginatedResult[T]{}, err
	}
	return result, nil
}

// fetchPage reads one page with an exact total from source.
func fetchPage[T any](ctx context.Context, source repository.Source, table string, params repository.PaginationParams) (repository.PaginatedResult[T], error) {
	var rows []T
	total, err := source.Select(ctx, params.ToQuery(table), &rows)
	if err != nil {
		return repository.PaginatedResult[T]{}, fmt.Errorf("failed to fetch %s page %d: %w", table, params.Page, err)
	}
	return repository.NewPaginatedResult(rows, params, total), nil
}
