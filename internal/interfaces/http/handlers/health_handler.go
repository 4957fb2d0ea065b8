package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"pmadmin-backend/internal/domain"
	"pmadmin-backend/internal/repository"
	"pmadmin-backend/pkg/api"
)

const readinessTimeout = 2 * time.Second

// HealthResponse is the body of the health endpoints.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

// HealthHandler serves liveness and readiness probes.
type HealthHandler struct {
	source  repository.Source
	version string
	logger  *zap.Logger
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(source repository.Source, version string, logger *zap.Logger) *HealthHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HealthHandler{source: source, version: version, logger: logger}
}

// Health handles GET /health
// @Summary Liveness probe
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse
// @Router /health [get]
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, HealthResponse{Status: "healthy", Version: h.version})
}

// Ready handles GET /ready by reading one project row from the source.
// @Summary Readiness probe
// @Tags health
// @Produce json
// @Success 200 {object} handlers.HealthResponse
// @Failure 503 {object} api.ErrorResponse
// @Router /ready [get]
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	var rows []domain.Project
	if _, err := h.source.Select(ctx, repository.Query{Table: domain.TableProjects, From: 0, To: 0}, &rows); err != nil {
		h.logger.Warn("Readiness check failed", zap.Error(err))
		api.Error(w, http.StatusServiceUnavailable, "Data source unavailable")
		return
	}
	api.Success(w, http.StatusOK, HealthResponse{Status: "ready", Version: h.version})
}
