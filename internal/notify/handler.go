package notify

import (
	"context"
	"net/http"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/httpx"
	"github.com/ayush/socialnet/backend/internal/models"
)

// UserResolver loads the senders shown alongside notifications.
type UserResolver interface {
	UsersByIDs(ctx context.Context, ids []string) (map[string]*models.User, error)
}

// Handler serves the recipient's notification inbox.
type Handler struct {
	store Store
	users UserResolver
}

func NewHandler(store Store, users UserResolver) *Handler {
	return &Handler{store: store, users: users}
}

// List returns the caller's notifications newest first and marks them read.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, ok := auth.UserFromContext(ctx)
	if !ok {
		httpx.Error(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.store.ListNotifications(ctx, me.ID)
	if err != nil {
		httpx.Internal(ctx, w, "list notifications failed", err)
		return
	}

	ids := make([]string, 0, len(list))
	for _, n := range list {
		ids = append(ids, n.From)
	}
	senders, err := h.users.UsersByIDs(ctx, ids)
	if err != nil {
		httpx.Internal(ctx, w, "resolve notification senders failed", err)
		return
	}

	views := make([]models.NotificationView, 0, len(list))
	for _, n := range list {
		v := models.NotificationView{ID: n.ID, Type: n.Type, Read: n.Read, CreatedAt: n.CreatedAt}
		if u, ok := senders[n.From]; ok {
			s := u.Sanitized()
			v.From = &s
		}
		views = append(views, v)
	}

	if err := h.store.MarkNotificationsRead(ctx, me.ID); err != nil {
		httpx.Internal(ctx, w, "mark notifications read failed", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, views)
}

// DeleteAll clears the caller's notifications.
func (h *Handler) DeleteAll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, ok := auth.UserFromContext(ctx)
	if !ok {
		httpx.Error(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err := h.store.DeleteNotifications(ctx, me.ID); err != nil {
		httpx.Internal(ctx, w, "delete notifications failed", err)
		return
	}
	httpx.Message(ctx, w, http.StatusOK, "notifications deleted")
}
