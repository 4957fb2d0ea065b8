package queries

import (
	"context"
	"fmt"
	"slices"
	"time"

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

// TicketStatusSeries is the name of the ticket status breakdown chart.
const TicketStatusSeries = "ticket-status"

// ChartService computes dashboard chart data from count queries.
type ChartService struct {
	source   repository.Source
	registry *Registry
	now      func() time.Time
	logger   *zap.Logger
	tracer   trace.Tracer
}

// NewChartService creates a new ChartService
func NewChartService(source repository.Source, registry *Registry, logger *zap.Logger) *ChartService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartService{
		source:   source,
		registry: registry,
		now:      time.Now,
		logger:   logger,
		tracer:   otel.Tracer("pmadmin-backend.queries.chart_service"),
	}
}

// TicketStatusBreakdown counts the tickets of projectID per status. The result
// is cached and dropped by both chart and ticket invalidation.
func (s *ChartService) TicketStatusBreakdown(ctx context.Context, projectID string) (domain.ChartSeries, error) {
	if projectID == "" {
		return domain.ChartSeries{}, apperrors.NewValidation("project id is required")
	}

	ctx, span := s.tracer.Start(ctx, "ChartService.TicketStatusBreakdown",
		trace.WithAttributes(attribute.String("project.id", projectID)),
	)
	defer span.End()

	key := fmt.Sprintf("%s:%s:%s", cache.ChartDataCacheName, TicketStatusSeries, projectID)
	series, err := s.registry.ChartData.WithCache(ctx, key, func(ctx context.Context) (domain.ChartSeries, error) {
		return s.countByStatus(ctx, projectID)
	}, cache.WithTags(cache.TagChartData, cache.TagTickets))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		s.logger.Error("Failed to build ticket status chart",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		return domain.ChartSeries{}, err
	}
	series.Points = slices.Clone(series.Points)
	return series, nil
}

func (s *ChartService) countByStatus(ctx context.Context, projectID string) (domain.ChartSeries, error) {
	points := make([]domain.ChartPoint, 0, len(domain.TicketStatuses))
	for _, status := range domain.TicketStatuses {
		// A one-row range is enough: only the exact total is used.
		q := repository.Query{
			Table: domain.TableTickets,
			Filters: []repository.Filter{
				{Column: "project_id", Operator: repository.Equals, Value: projectID},
				{Column: "status", Operator: repository.Equals, Value: status},
			},
			From: 0,
			To:   0,
		}
		var rows []domain.Ticket
		total, err := s.source.Select(ctx, q, &rows)
		if err != nil {
			return domain.ChartSeries{}, fmt.Errorf("failed to count %s tickets: %w", status, err)
		}
		points = append(points, domain.ChartPoint{Label: status, Value: total})
	}

	return domain.ChartSeries{
		Name:        TicketStatusSeries,
		Points:      points,
		GeneratedAt: s.now().UTC(),
	}, nil
}
