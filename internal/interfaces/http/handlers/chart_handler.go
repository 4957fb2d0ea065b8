package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/pkg/api"
)

// ChartHandler serves dashboard chart data.
type ChartHandler struct {
	service *queries.ChartService
	logger  *zap.Logger
}

// NewChartHandler creates a new chart handler
func NewChartHandler(service *queries.ChartService, logger *zap.Logger) *ChartHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ChartHandler{service: service, logger: logger}
}

// TicketStatus handles GET /charts/tickets/{projectID}
// @Summary Ticket status breakdown
// @Description Counts a project's tickets per status. Cached in the chart-data cache.
// @Tags charts
// @Produce json
// @Param projectID path string true "Project ID"
// @Success 200 {object} domain.ChartSeries
// @Failure 400 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /charts/tickets/{projectID} [get]
func (h *ChartHandler) TicketStatus(w http.ResponseWriter, r *http.Request) {
	projectID := chi.URLParam(r, "projectID")

	series, err := h.service.TicketStatusBreakdown(r.Context(), projectID)
	if err != nil {
		h.logger.Warn("Chart query failed",
			zap.String("series", queries.TicketStatusSeries),
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		api.FromError(w, err)
		return
	}
	api.Success(w, http.StatusOK, series)
}
