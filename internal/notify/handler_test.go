package notify

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
)

func asUser(r *http.Request, u *models.User) *http.Request {
	return r.WithContext(auth.WithUser(r.Context(), u))
}

func TestListResolvesSendersAndMarksRead(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	alice := models.NewUser("a", "alice", "a@x.com", "digest-a", "", time.Now())
	bob := models.NewUser("b", "bob", "b@x.com", "digest-b", "", time.Now())
	require.NoError(t, mem.CreateUser(ctx, alice))
	require.NoError(t, mem.CreateUser(ctx, bob))

	e := NewEmitter(mem)
	require.NoError(t, e.Emit(ctx, "a", "b", models.NotificationFollow))
	require.NoError(t, e.Emit(ctx, "a", "b", models.NotificationLike))

	h := NewHandler(mem, mem)
	rec := httptest.NewRecorder()
	h.List(rec, asUser(httptest.NewRequest(http.MethodGet, "/api/notifications", nil), bob))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "digest")

	var views []models.NotificationView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &views))
	require.Len(t, views, 2)
	assert.Equal(t, models.NotificationLike, views[0].Type)
	require.NotNil(t, views[0].From)
	assert.Equal(t, "alice", views[0].From.Username)
	assert.False(t, views[0].Read, "response shows the state before this read")

	stored, err := mem.ListNotifications(ctx, "b")
	require.NoError(t, err)
	for _, n := range stored {
		assert.True(t, n.Read)
	}
}

func TestDeleteAll(t *testing.T) {
	ctx := context.Background()
	mem := store.NewMemoryStore()
	e := NewEmitter(mem)
	require.NoError(t, e.Emit(ctx, "a", "b", models.NotificationFollow))

	h := NewHandler(mem, mem)
	rec := httptest.NewRecorder()
	h.DeleteAll(rec, asUser(httptest.NewRequest(http.MethodDelete, "/api/notifications", nil), &models.User{ID: "b"}))
	require.Equal(t, http.StatusOK, rec.Code)

	left, err := mem.ListNotifications(ctx, "b")
	require.NoError(t, err)
	assert.Empty(t, left)
}

func TestHandlersRequireUser(t *testing.T) {
	mem := store.NewMemoryStore()
	h := NewHandler(mem, mem)

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = httptest.NewRecorder()
	h.DeleteAll(rec, httptest.NewRequest(http.MethodDelete, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
