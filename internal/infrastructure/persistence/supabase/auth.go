package supabase

import (
	"context"
	"fmt"

	"github.com/supabase-community/gotrue-go"
	"go.uber.org/zap"
)

// TokenVerifier resolves Supabase access tokens to user IDs through the
// GoTrue user endpoint.
type TokenVerifier struct {
	auth   gotrue.Client
	logger *zap.Logger
}

// NewTokenVerifier wraps an auth client, usually supabase.Client.Auth.
func NewTokenVerifier(auth gotrue.Client, logger *zap.Logger) *TokenVerifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenVerifier{auth: auth, logger: logger}
}

// VerifyToken returns the ID of the user owning token. The GoTrue client does
// not take a context, so ctx is only checked before the call.
func (v *TokenVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	user, err := v.auth.WithToken(token).GetUser()
	if err != nil {
		v.logger.Debug("Token rejected", zap.Error(err))
		return "", fmt.Errorf("invalid token: %w", err)
	}
	return user.ID.String(), nil
}
