package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"pmadmin-backend/internal/application/queries"
	"pmadmin-backend/internal/config"
	"pmadmin-backend/internal/domain"
	"pmadmin-backend/internal/infrastructure/observability"
	"pmadmin-backend/internal/infrastructure/persistence/memory"
	"pmadmin-backend/internal/interfaces/http/handlers"
	"pmadmin-backend/internal/interfaces/http/middleware"
	"pmadmin-backend/internal/repository"
	"pmadmin-backend/pkg/api"
)

type mockVerifier struct {
	mock.Mock
}

func (m *mockVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	args := m.Called(ctx, token)
	return args.String(0), args.Error(1)
}

type testServer struct {
	handler   http.Handler
	source    *memory.Source
	collector *observability.Collector
}

func newTestServer(t *testing.T, cfg *config.Config, verifier *mockVerifier) testServer {
	t.Helper()
	logger := zap.NewNop()

	source := memory.NewSource(logger)
	require.NoError(t, source.Seed(memory.DefaultSeedSize))

	collector := observability.NewCollector("test")
	registry := queries.NewRegistry(cfg.CachePolicies(), collector, false, logger)
	t.Cleanup(registry.Destroy)

	pagination := queries.NewPaginationService(source, registry, logger)
	charts := queries.NewChartService(source, registry, logger)

	var tokenVerifier middleware.TokenVerifier
	if verifier != nil {
		tokenVerifier = verifier
	}

	router := NewRouter(
		handlers.NewPaginationHandler(pagination, logger),
		handlers.NewChartHandler(charts, logger),
		handlers.NewCacheHandler(pagination, registry, logger),
		handlers.NewHealthHandler(source, "test", logger),
		tokenVerifier,
		collector,
		cfg,
		logger,
	)
	return testServer{handler: router.Setup(), source: source, collector: collector}
}

func demoConfig() *config.Config {
	cfg := config.Default()
	cfg.DemoData = true
	return cfg
}

func (s testServer) do(t *testing.T, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func TestRouter_Projects(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)

	t.Run("Should return a page with metadata", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects?page=3&limit=10", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[repository.PaginatedResult[domain.Project]](t, rec)
		assert.Len(t, page.Data, 3)
		assert.Equal(t, 23, page.Pagination.Total)
		assert.False(t, page.Pagination.HasNext)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("Should filter on a comma-separated list", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects?status=active,released&limit=100", nil)

		require.Equal(t, http.StatusOK, rec.Code)
		page := decode[repository.PaginatedResult[domain.Project]](t, rec)
		assert.Equal(t, 11, page.Pagination.Total)
		for _, p := range page.Data {
			assert.Contains(t, []string{"active", "released"}, p.Status)
		}
	})

	t.Run("Should reject an invalid sort order", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects?sortBy=name&sortOrder=sideways", nil)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		body := decode[api.ErrorResponse](t, rec)
		assert.Contains(t, body.Error, "SortOrder")
	})

	t.Run("Should reject a non-numeric limit", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects?limit=ten", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestRouter_CachesAndInvalidates(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)

	srv.do(t, http.MethodGet, "/api/v1/users?page=1", nil)
	srv.do(t, http.MethodGet, "/api/v1/users?page=1", nil)
	assert.Equal(t, 1, srv.source.QueryCount(), "second read should be served from cache")

	rec := srv.do(t, http.MethodGet, "/api/v1/cache/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decode[handlers.CacheStatsResponse](t, rec)
	require.Len(t, stats.Caches, 4)
	for _, s := range stats.Caches {
		if s.Name == "users" {
			assert.Equal(t, 1, s.Valid)
			assert.Equal(t, int64(1), s.Hits)
		}
	}

	rec = srv.do(t, http.MethodPost, "/api/v1/cache/invalidate/users", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, handlers.InvalidateResponse{Kind: "users", Removed: 1}, decode[handlers.InvalidateResponse](t, rec))

	srv.do(t, http.MethodGet, "/api/v1/users?page=1", nil)
	assert.Equal(t, 2, srv.source.QueryCount())

	rec = srv.do(t, http.MethodPost, "/api/v1/cache/invalidate/everything", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRouter_Notifications(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/users/"+memory.SeedUserID(0)+"/notifications", nil)

	require.Equal(t, http.StatusOK, rec.Code)
	page := decode[repository.PaginatedResult[domain.Notification]](t, rec)
	assert.Equal(t, 4, page.Pagination.Total)
	for _, n := range page.Data {
		assert.Equal(t, memory.SeedUserID(0), n.UserID)
	}
}

func TestRouter_TicketChart(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)

	rec := srv.do(t, http.MethodGet, "/api/v1/charts/tickets/"+memory.SeedProjectID(0), nil)

	require.Equal(t, http.StatusOK, rec.Code)
	series := decode[domain.ChartSeries](t, rec)
	require.Len(t, series.Points, len(domain.TicketStatuses))
	for _, p := range series.Points {
		assert.Equal(t, 2, p.Value, p.Label)
	}
}

func TestRouter_SourceFailure(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)
	srv.source.FailWith(errors.New("connection reset"))

	rec := srv.do(t, http.MethodGet, "/api/v1/payments", nil)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "Internal server error", decode[api.ErrorResponse](t, rec).Error)

	rec = srv.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRouter_Health(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)

	rec := srv.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", decode[handlers.HealthResponse](t, rec).Status)

	rec = srv.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRouter_MetricsAndDocs(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)
	srv.do(t, http.MethodGet, "/api/v1/projects", nil)

	rec := srv.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `test_http_requests_total{method="GET",route="/api/v1/projects",status="200"} 1`)

	rec = srv.do(t, http.MethodGet, "/swagger/doc.json", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var doc map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "/api/v1", doc["basePath"])
}

func TestRouter_MetricsDisabled(t *testing.T) {
	cfg := demoConfig()
	cfg.Features.EnableMetrics = false
	srv := newTestServer(t, cfg, nil)

	rec := srv.do(t, http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRouter_Authentication(t *testing.T) {
	cfg := demoConfig()
	cfg.Features.EnableAuth = true
	verifier := new(mockVerifier)
	verifier.On("VerifyToken", mock.Anything, "good").Return("user-1", nil)
	verifier.On("VerifyToken", mock.Anything, "bad").Return("", errors.New("expired"))
	srv := newTestServer(t, cfg, verifier)

	t.Run("Should reject a missing token", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should reject an invalid token", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects", http.Header{"Authorization": {"Bearer bad"}})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("Should accept a valid token", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/api/v1/projects", http.Header{"Authorization": {"Bearer good"}})
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("Should keep health public", func(t *testing.T) {
		rec := srv.do(t, http.MethodGet, "/health", nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	verifier.AssertExpectations(t)
}

func TestRouter_CORSPreflight(t *testing.T) {
	srv := newTestServer(t, demoConfig(), nil)

	rec := srv.do(t, http.MethodOptions, "/api/v1/projects", http.Header{
		"Origin":                        {"http://localhost:3000"},
		"Access-Control-Request-Method": {"GET"},
	})

	assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Vary"), "Origin"))
}
