package middleware

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"pmadmin-backend/pkg/api"
)

// TokenVerifier resolves a bearer token to a user ID.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// Authenticate rejects requests without a valid bearer token and stores the
// user ID in the request context.
func Authenticate(verifier TokenVerifier, logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				api.Error(w, http.StatusUnauthorized, "Authentication required")
				return
			}

			userID, err := verifier.VerifyToken(r.Context(), strings.TrimSpace(token))
			if err != nil {
				logger.Debug("Authentication failed",
					zap.String("requestID", GetRequestID(r.Context())),
					zap.Error(err),
				)
				api.Error(w, http.StatusUnauthorized, "Invalid authentication")
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
