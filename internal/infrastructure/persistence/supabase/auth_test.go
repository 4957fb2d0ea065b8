package supabase

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/supabase-community/gotrue-go"
	"go.uber.org/zap"
)

func TestTokenVerifier_VerifyToken(t *testing.T) {
	const userID = "6f1c2c1e-5d5a-4f5e-9c43-6f43c1f3a001"

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/user" || r.Header.Get("Authorization") != "Bearer good-token" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"msg":"invalid JWT"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":"` + userID + `","email":"admin@example.com"}`))
	}))
	t.Cleanup(server.Close)

	auth := gotrue.New("project", "anon-key").WithCustomGoTrueURL(server.URL)
	verifier := NewTokenVerifier(auth, zap.NewNop())

	t.Run("Should resolve a valid token to its user", func(t *testing.T) {
		id, err := verifier.VerifyToken(context.Background(), "good-token")
		require.NoError(t, err)
		assert.Equal(t, userID, id)
	})

	t.Run("Should reject an invalid token", func(t *testing.T) {
		_, err := verifier.VerifyToken(context.Background(), "bad-token")
		assert.Error(t, err)
	})
}
