package posts

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ayush/socialnet/backend/internal/auth"
	"github.com/ayush/socialnet/backend/internal/httpx"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
)

// Handler holds the post and feed endpoints. Every route sits behind the
// auth guard, so the caller is always present in the context.
type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// Create handles POST /api/posts/create.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)

	var req models.CreatePostRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Create(ctx, me.ID, req)
	if err != nil {
		writeErr(ctx, w, "create post", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusCreated, p)
}

// Delete handles DELETE /api/posts/{id}.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)
	if err := h.svc.Delete(ctx, me.ID, chi.URLParam(r, "id")); err != nil {
		writeErr(ctx, w, "delete post", err)
		return
	}
	httpx.Message(ctx, w, http.StatusOK, "post deleted successfully")
}

// Like handles POST /api/posts/like/{id}.
func (h *Handler) Like(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)
	res, err := h.svc.ToggleLike(ctx, me.ID, chi.URLParam(r, "id"))
	if err != nil {
		writeErr(ctx, w, "like toggle", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, res)
}

// Comment handles POST /api/posts/comment/{id}.
func (h *Handler) Comment(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	me, _ := auth.UserFromContext(ctx)

	var req models.CommentRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	p, err := h.svc.Comment(ctx, me.ID, chi.URLParam(r, "id"), req.Text)
	if err != nil {
		writeErr(ctx, w, "comment", err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, p)
}

// All handles GET /api/posts/all.
func (h *Handler) All(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.All(r.Context())
	h.writeFeed(w, r, "all posts", views, err)
}

// Following handles GET /api/posts/following.
func (h *Handler) Following(w http.ResponseWriter, r *http.Request) {
	me, _ := auth.UserFromContext(r.Context())
	views, err := h.svc.Following(r.Context(), me.ID)
	h.writeFeed(w, r, "following feed", views, err)
}

// Liked handles GET /api/posts/likes/{id}.
func (h *Handler) Liked(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.LikedBy(r.Context(), chi.URLParam(r, "id"))
	h.writeFeed(w, r, "liked posts", views, err)
}

// ByUser handles GET /api/posts/user/{username}.
func (h *Handler) ByUser(w http.ResponseWriter, r *http.Request) {
	views, err := h.svc.ByUser(r.Context(), chi.URLParam(r, "username"))
	h.writeFeed(w, r, "user posts", views, err)
}

func (h *Handler) writeFeed(w http.ResponseWriter, r *http.Request, op string, views []models.PostView, err error) {
	ctx := r.Context()
	if err != nil {
		writeErr(ctx, w, op, err)
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, views)
}

func writeErr(ctx context.Context, w http.ResponseWriter, op string, err error) {
	switch {
	case errors.Is(err, ErrPostNotFound), errors.Is(err, ErrUserNotFound):
		httpx.Error(ctx, w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrNotOwner):
		httpx.Error(ctx, w, http.StatusForbidden, err.Error())
	case errors.Is(err, ErrEmptyPost), errors.Is(err, ErrEmptyComment), errors.Is(err, store.ErrInvalidImage):
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
	default:
		httpx.Internal(ctx, w, op+" failed", err)
	}
}
