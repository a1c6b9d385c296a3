package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/config"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
)

type failingUsers struct{}

func (failingUsers) UserByID(context.Context, string) (*models.User, error) {
	return nil, errors.New("mongo unavailable")
}

type revokeAll struct{}

func (revokeAll) Revoke(context.Context, string, time.Time) error { return nil }
func (revokeAll) IsRevoked(context.Context, string) (bool, error) { return true, nil }

func newIssuer(secret string) *auth.Issuer {
	return auth.NewIssuer(&config.Config{
		Environment: "development",
		JWTSecret:   secret,
		TokenTTL:    time.Hour,
		CookieName:  "jwt",
	})
}

func guarded(t *testing.T, issuer *auth.Issuer, users UserLookup, revocations auth.RevocationList, cookie string) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()
	var seen *models.User
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u, ok := auth.UserFromContext(r.Context())
		require.True(t, ok)
		seen = u
		w.WriteHeader(http.StatusNoContent)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if cookie != "" {
		req.AddCookie(&http.Cookie{Name: "jwt", Value: cookie})
	}
	rec := httptest.NewRecorder()
	RequireAuth(issuer, users, revocations)(next).ServeHTTP(rec, req)
	return rec, seen
}

func TestRequireAuth(t *testing.T) {
	users := store.NewMemoryStore()
	require.NoError(t, users.CreateUser(context.Background(),
		models.NewUser("u1", "alice", "alice@x.com", "digest", "", time.Now())))

	issuer := newIssuer("secret")
	valid, err := issuer.Issue("u1")
	require.NoError(t, err)
	ghost, err := issuer.Issue("deleted-user")
	require.NoError(t, err)
	foreign, err := newIssuer("other").Issue("u1")
	require.NoError(t, err)

	t.Run("valid cookie attaches sanitized user", func(t *testing.T) {
		rec, user := guarded(t, issuer, users, nil, valid.Value)
		require.Equal(t, http.StatusNoContent, rec.Code)
		require.NotNil(t, user)
		assert.Equal(t, "alice", user.Username)
		assert.Empty(t, user.Password)
	})

	unauthorizedCases := map[string]struct {
		cookie      string
		revocations auth.RevocationList
	}{
		"missing cookie": {cookie: ""},
		"garbage token":  {cookie: "garbage"},
		"wrong secret":   {cookie: foreign.Value},
		"missing user":   {cookie: ghost.Value},
		"revoked token":  {cookie: valid.Value, revocations: revokeAll{}},
	}
	var bodies []string
	for name, tc := range unauthorizedCases {
		t.Run(name, func(t *testing.T) {
			rec, user := guarded(t, issuer, users, tc.revocations, tc.cookie)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Nil(t, user)
			bodies = append(bodies, rec.Body.String())
		})
	}
	for _, b := range bodies {
		assert.Equal(t, bodies[0], b, "credential failures must be indistinguishable")
	}

	t.Run("store failure is a server error", func(t *testing.T) {
		rec, _ := guarded(t, issuer, failingUsers{}, nil, valid.Value)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
		assert.NotContains(t, rec.Body.String(), "mongo")
	})
}
