package social

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/httpx"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
	"github.com/ayush/socialnet/backend/internal/validate"
)

// Handler holds the user-facing social graph endpoints.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Profile handles GET /api/users/profile/{username}.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	u, err := h.svc.Profile(ctx, chi.URLParam(r, "username"))
	if err != nil {
		writeErr(ctx, w, "get profile", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, u)
}

// Suggested handles GET /api/users/suggested.
func (h *Handler) Suggested(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)
	users, err := h.svc.Suggested(ctx, me.ID)
	if err != nil {
		writeErr(ctx, w, "suggested users", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, users)
}

// Follow handles POST /api/users/follow/{id}.
func (h *Handler) Follow(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)
	res, err := h.svc.ToggleFollow(ctx, me.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(ctx, w, "follow toggle", err)
		return
	}
	msg := "user unfollowed successfully"
	if res.Following {
		msg = "user followed successfully"
	}
	httpx.JSON(ctx, w, http.StatusOK, map[string]any{"message": msg, "following": res.Following})
}

// Update handles POST /api/users/update.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)

	var req models.UpdateProfileRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	u, err := h.svc.UpdateProfile(ctx, me.ID, req)
	if err != nil {
		writeErr(ctx, w, "update profile", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, u)
}

func writeErr(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrUserNotFound):
		httpx.Error(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrSelfFollow),
		errors.Is(err, ErrPasswordPairRequired),
		errors.Is(err, ErrCurrentPasswordMismatch),
		errors.Is(err, validate.ErrPasswordTooShort),
		errors.Is(err, validate.ErrInvalidEmail),
		errors.Is(err, store.ErrInvalidImage):
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, store.ErrUsernameTaken):
		httpx.Error(ctx, w, http.StatusConflict, "username is already taken")
	case errors.Is(err, store.ErrEmailTaken):
		httpx.Error(ctx, w, http.StatusConflict, "email is already registered")
	default:
		httpx.Internal(ctx, w, op+" failed", err)
	}
}
