package cli

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pmadmin-backend/internal/infrastructure/cache"
	"pmadmin-backend/internal/interfaces/http/handlers"
	"pmadmin-backend/pkg/api"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	// --demo sets DEMO_DATA; t.Setenv restores it afterwards.
	t.Setenv("DEMO_DATA", "true")
	t.Setenv("CONFIG_FILE", "")

	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestPageCommand(t *testing.T) {
	t.Run("Should print a page of projects", func(t *testing.T) {
		out, err := run(t, "page", "projects", "--demo", "--limit", "5", "--sort-by", "name")

		require.NoError(t, err)
		assert.Contains(t, out, "Project 00")
		assert.Contains(t, out, "Project 04")
		assert.NotContains(t, out, "Project 05")
		assert.Contains(t, out, "Page 1 of 5 (23 rows, 5 per page)")
	})

	t.Run("Should apply filters", func(t *testing.T) {
		out, err := run(t, "page", "tickets", "--demo", "--filter", "status=open", "--limit", "100")

		require.NoError(t, err)
		assert.Contains(t, out, "(46 rows, 100 per page)")
		assert.NotContains(t, out, "in_progress")
	})

	t.Run("Should reject a malformed filter", func(t *testing.T) {
		_, err := run(t, "page", "projects", "--demo", "--filter", "status")
		assert.ErrorContains(t, err, "want column=value")
	})

	t.Run("Should require a user for notifications", func(t *testing.T) {
		_, err := run(t, "page", "notifications", "--demo")
		assert.Error(t, err)
	})
}

func TestStatsCommand(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/cache/stats", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		api.Success(w, http.StatusOK, handlers.CacheStatsResponse{Caches: []cache.Stats{
			{Name: "projects", Valid: 3, MaxSize: 100, Hits: 12345, Misses: 5, HitRate: 0.75},
		}})
	}))
	defer server.Close()

	out, err := run(t, "stats", "--addr", server.URL, "--token", "secret")

	require.NoError(t, err)
	assert.Contains(t, out, "projects")
	assert.Contains(t, out, "12,345")
	assert.Contains(t, out, "75.0%")
}

func TestInvalidateCommand(t *testing.T) {
	t.Run("Should report removed entries", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodPost, r.Method)
			assert.Equal(t, "/api/v1/cache/invalidate/tickets", r.URL.Path)
			api.Success(w, http.StatusOK, handlers.InvalidateResponse{Kind: "tickets", Removed: 4})
		}))
		defer server.Close()

		out, err := run(t, "invalidate", "tickets", "--addr", server.URL)

		require.NoError(t, err)
		assert.Equal(t, "Invalidated tickets: removed 4 entries\n", out)
	})

	t.Run("Should surface API errors", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			api.Error(w, http.StatusUnauthorized, "Authentication required")
		}))
		defer server.Close()

		_, err := run(t, "invalidate", "all", "--addr", server.URL)

		assert.ErrorContains(t, err, "Authentication required (401)")
	})

	t.Run("Should reject an unknown kind before calling the API", func(t *testing.T) {
		_, err := run(t, "invalidate", "everything", "--addr", "http://127.0.0.1:1")
		assert.ErrorContains(t, err, "unknown cache kind")
	})
}
