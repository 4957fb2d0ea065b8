package observability

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestMetricsMiddleware_UsesRoutePattern(t *testing.T) {
	collector := NewCollector("test")
	router := chi.NewRouter()
	router.Use(MetricsMiddleware(collector))
	router.Get("/api/v1/users/{userID}/notifications", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/u-1/notifications", nil))
	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/users/u-2/notifications", nil))

	counter := collector.HTTPRequests.WithLabelValues(http.MethodGet, "/api/v1/users/{userID}/notifications", "200")
	assert.Equal(t, 2.0, counterValue(t, counter))
}

func TestTracingMiddleware_PassesThrough(t *testing.T) {
	handler := TracingMiddleware("test")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusAccepted)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusAccepted, rec.Code)
}
