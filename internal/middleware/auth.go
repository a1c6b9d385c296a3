package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/httpx"
	"github.com/ayush/socialnet/backend/internal/logging"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
)

// TokenVerifier decodes the session cookie.
type TokenVerifier interface {
	CookieName() string
	Verify(raw string) (*auth.Claims, error)
}

// UserLookup resolves the identity bound to a token.
type UserLookup interface {
	UserByID(ctx context.Context, id string) (*models.User, error)
}

// RequireAuth validates the session cookie, resolves the user and injects
// the sanitized record into the request context. Every credential failure
// produces the same 401 body.
func RequireAuth(tokens TokenVerifier, users UserLookup, revocations auth.RevocationList) func(http.Handler) http.Handler {
	if revocations == nil {
		revocations = auth.NoRevocation{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			logger := logging.FromContext(ctx)

			cookie, err := r.Cookie(tokens.CookieName())
			if err != nil || cookie.Value == "" {
				unauthorized(ctx, w)
				return
			}

			claims, err := tokens.Verify(cookie.Value)
			if err != nil {
				logger.Debug("session token rejected", "error", err)
				unauthorized(ctx, w)
				return
			}

			revoked, err := revocations.IsRevoked(ctx, claims.ID)
			if err != nil {
				httpx.Internal(ctx, w, "revocation lookup failed", err)
				return
			}
			if revoked {
				unauthorized(ctx, w)
				return
			}

			user, err := users.UserByID(ctx, claims.UserID)
			if errors.Is(err, store.ErrNotFound) {
				logger.Debug("session bound to missing user", "userId", claims.UserID)
				unauthorized(ctx, w)
				return
			}
			if err != nil {
				httpx.Internal(ctx, w, "session user lookup failed", err)
				return
			}

			sanitized := user.Sanitized()
			ctx = auth.WithUser(ctx, &sanitized)
			ctx = logging.WithLogger(ctx, logger.With("userId", user.ID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(ctx context.Context, w http.ResponseWriter) {
	httpx.Error(ctx, w, http.StatusUnauthorized, "unauthorized")
}
