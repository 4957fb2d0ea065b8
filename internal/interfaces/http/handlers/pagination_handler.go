package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/internal/interfaces/http/middleware"
	"pmadmin-backend/internal/repository"
	"pmadmin-backend/pkg/api"
)

// PaginationHandler serves the paged list endpoints.
type PaginationHandler struct {
	service *queries.PaginationService
	logger  *zap.Logger
}

// NewPaginationHandler creates a new pagination handler
func NewPaginationHandler(service *queries.PaginationService, logger *zap.Logger) *PaginationHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaginationHandler{
		service: service,
		logger:  logger,
	}
}

// ListProjects handles GET /projects
// @Summary List projects
// @Description Returns one page of projects. Unreserved query parameters filter by column; comma-separated values match any.
// @Tags projects
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} repository.PaginatedResult[domain.Project]
// @Failure 400 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /projects [get]
func (h *PaginationHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetProjects(r.Context(), params)
	h.respond(w, r, "projects", result, err)
}

// ListUsers handles GET /users
// @Summary List users
// @Tags users
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} repository.PaginatedResult[domain.User]
// @Failure 400 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /users [get]
func (h *PaginationHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetUsers(r.Context(), params)
	h.respond(w, r, "users", result, err)
}

// ListTickets handles GET /tickets
// @Summary List tickets
// @Tags tickets
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "Sort direction" Enums(asc, desc)
// @Param status query string false "Comma-separated ticket statuses"
// @Param project_id query string false "Project ID"
// @Success 200 {object} repository.PaginatedResult[domain.Ticket]
// @Failure 400 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /tickets [get]
func (h *PaginationHandler) ListTickets(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetTickets(r.Context(), params)
	h.respond(w, r, "tickets", result, err)
}

// ListPayments handles GET /payments
// @Summary List payments
// @Description Payments are never cached.
// @Tags payments
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param sortBy query string false "Sort column"
// @Param sortOrder query string false "Sort direction" Enums(asc, desc)
// @Success 200 {object} repository.PaginatedResult[domain.Payment]
// @Failure 400 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /payments [get]
func (h *PaginationHandler) ListPayments(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetPayments(r.Context(), params)
	h.respond(w, r, "payments", result, err)
}

// ListNotifications handles GET /users/{userID}/notifications
// @Summary List a user's notifications
// @Description Notifications are never cached.
// @Tags notifications
// @Produce json
// @Param userID path string true "User ID"
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(10)
// @Param read query bool false "Read flag"
// @Success 200 {object} repository.PaginatedResult[domain.Notification]
// @Failure 400 {object} api.ErrorResponse
// @Failure 503 {object} api.ErrorResponse
// @Security BearerAuth
// @Router /users/{userID}/notifications [get]
func (h *PaginationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	params, ok := h.params(w, r)
	if !ok {
		return
	}
	result, err := h.service.GetNotifications(r.Context(), chi.URLParam(r, "userID"), params)
	h.respond(w, r, "notifications", result, err)
}

func (h *PaginationHandler) params(w http.ResponseWriter, r *http.Request) (repository.PaginationParams, bool) {
	params, err := parsePaginationParams(r)
	if err != nil {
		api.FromError(w, err)
		return params, false
	}
	return params, true
}

func (h *PaginationHandler) respond(w http.ResponseWriter, r *http.Request, domain string, result any, err error) {
	if err != nil {
		h.logger.Warn("Page query failed",
			zap.String("domain", domain),
			zap.String("request_id", middleware.GetRequestID(r.Context())),
			zap.Error(err),
		)
		api.FromError(w, err)
		return
	}
	api.Success(w, http.StatusOK, result)
}
