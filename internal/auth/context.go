package auth

import (
	"context"

	"github.com/ayush/socialnet/backend/internal/models"
)

type ctxKey int

const userKey ctxKey = 0

// WithUser attaches the authenticated, sanitized user to ctx.
func WithUser(ctx context.Context, u *models.User) context.Context {
	return context.WithValue(ctx, userKey, u)
}

// UserFromContext returns the user attached by the access guard.
func UserFromContext(ctx context.Context) (*models.User, bool) {
	u, ok := ctx.Value(userKey).(*models.User)
	return u, ok && u != nil
}
