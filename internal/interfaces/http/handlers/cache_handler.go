package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/internal/infrastructure/cache"
	"pmadmin-backend/internal/interfaces/http/middleware"
	"pmadmin-backend/pkg/api"
)

// CacheStatsResponse lists the statistics of every named cache.
type CacheStatsResponse struct {
	Caches []cache.Stats `json:"caches"`
}

// InvalidateResponse reports an invalidation.
type InvalidateResponse struct {
	Kind    string `json:"kind"`
	Removed int    `json:"removed"`
}

// CacheHandler exposes cache statistics and invalidation.
type CacheHandler struct {
	service  *queries.PaginationService
	registry *queries.Registry
	logger   *zap.Logger
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(service *queries.PaginationService, registry *queries.Registry, logger *zap.Logger) *CacheHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CacheHandler{service: service, registry: registry, logger: logger}
}

// Stats handles GET /cache/stats
// @Summary Cache statistics
// @Tags cache
// @Produce json
// @Success 200 {object} handlers.CacheStatsResponse
// @Security BearerAuth
// @Router /cache/stats [get]
func (h *CacheHandler) Stats(w http.ResponseWriter, r *http.Request) {
	api.Success(w, http.StatusOK, CacheStatsResponse{Caches: h.registry.Stats()})
}

// Invalidate handles POST /cache/invalidate/{kind}
// @Summary Invalidate cached pages
// @Description Drops every cached entry tagged with the kind. "all" also drops chart data.
// @Tags cache
// @Produce json
// @Param kind path string true "Cache kind" Enums(projects, users, tickets, all)
// @Success 200 {object} handlers.InvalidateResponse
// @Failure 400 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /cache/invalidate/{kind} [post]
func (h *CacheHandler) Invalidate(w http.ResponseWriter, r *http.Request) {
	kind, err := queries.ParseInvalidationKind(chi.URLParam(r, "kind"))
	if err != nil {
		api.FromError(w, err)
		return
	}

	removed, err := h.service.InvalidateCache(r.Context(), kind)
	if err != nil {
		api.FromError(w, err)
		return
	}

	h.logger.Info("Cache invalidated via API",
		zap.String("kind", string(kind)),
		zap.Int("removed", removed),
		zap.String("user_id", middleware.GetUserID(r.Context())),
	)
	api.Success(w, http.StatusOK, InvalidateResponse{Kind: string(kind), Removed: removed})
}
