package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/ayush/socialnet/backend/internal/httpx"
	"github.com/ayush/socialnet/backend/internal/logging"
	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
	"github.com/ayush/socialnet/backend/internal/validate"
)

// UserStore defines the user persistence the auth handlers need.
type UserStore interface {
	CreateUser(ctx context.Context, u *models.User) error
	UserByID(ctx context.Context, id string) (*models.User, error)
	UserByUsername(ctx context.Context, username string) (*models.User, error)
	UserByEmail(ctx context.Context, email string) (*models.User, error)
}

// Handler holds auth-related HTTP handlers.
type Handler struct {
	users       UserStore
	issuer      *Issuer
	revocations RevocationList
	bcryptCost  int
	now         func() time.Time
}

func NewHandler(users UserStore, issuer *Issuer, revocations RevocationList, bcryptCost int) *Handler {
	if revocations == nil {
		revocations = NoRevocation{}
	}
	return &Handler{
		users:       users,
		issuer:      issuer,
		revocations: revocations,
		bcryptCost:  bcryptCost,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Signup creates an account and logs it in.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := logging.FromContext(ctx)

	var req models.SignupRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.TrimSpace(req.Email)
	if err := validate.Struct(req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, "username, email, and password are required")
		return
	}
	if err := validate.Email(req.Email); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	// Username is checked before email so the two conflicts stay distinguishable.
	if taken, err := h.exists(ctx, h.users.UserByUsername, req.Username); err != nil {
		httpx.Internal(ctx, w, "signup username lookup failed", err)
		return
	} else if taken {
		httpx.Error(ctx, w, http.StatusConflict, "username is already taken")
		return
	}
	if taken, err := h.exists(ctx, h.users.UserByEmail, req.Email); err != nil {
		httpx.Internal(ctx, w, "signup email lookup failed", err)
		return
	} else if taken {
		httpx.Error(ctx, w, http.StatusConflict, "email is already registered")
		return
	}

	if err := validate.Password(req.Password); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}

	hashed, err := HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		httpx.Internal(ctx, w, "signup hash failed", err)
		return
	}

	user := models.NewUser(store.NewID(), req.Username, req.Email, hashed, req.FullName, h.now())
	tok, err := h.issuer.Issue(user.ID)
	if err != nil {
		httpx.Internal(ctx, w, "signup token issue failed", err)
		return
	}

	if err := h.users.CreateUser(ctx, user); err != nil {
		switch {
		case errors.Is(err, store.ErrUsernameTaken):
			httpx.Error(ctx, w, http.StatusConflict, "username is already taken")
		case errors.Is(err, store.ErrEmailTaken):
			httpx.Error(ctx, w, http.StatusConflict, "email is already registered")
		default:
			httpx.Internal(ctx, w, "signup create failed", err)
		}
		return
	}

	h.issuer.SetCookie(w, tok)
	logger.Info("user signed up", "userId", user.ID)
	httpx.JSON(ctx, w, http.StatusCreated, user.Sanitized())
}

// Login authenticates by username and password and sets a fresh session cookie.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req models.LoginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, err.Error())
		return
	}
	if err := validate.Struct(req); err != nil {
		httpx.Error(ctx, w, http.StatusBadRequest, "username and password are required")
		return
	}

	user, err := h.users.UserByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, store.ErrNotFound) {
		httpx.Error(ctx, w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		httpx.Internal(ctx, w, "login lookup failed", err)
		return
	}

	if !CheckPassword(req.Password, user.Password) {
		httpx.Error(ctx, w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, err := h.issuer.Issue(user.ID)
	if err != nil {
		httpx.Internal(ctx, w, "login token issue failed", err)
		return
	}
	h.issuer.SetCookie(w, tok)
	httpx.JSON(ctx, w, http.StatusOK, user.Sanitized())
}

// Logout clears the session cookie. The token itself is revoked only when
// a revocation list is configured.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if cookie, err := r.Cookie(h.issuer.CookieName()); err == nil {
		if claims, err := h.issuer.Verify(cookie.Value); err == nil && claims.ExpiresAt != nil {
			if err := h.revocations.Revoke(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
				httpx.Internal(ctx, w, "logout revoke failed", err)
				return
			}
		}
	}

	h.issuer.ClearCookie(w)
	httpx.Message(ctx, w, http.StatusOK, "logged out successfully")
}

// Me returns the currently authenticated user.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user, ok := UserFromContext(ctx)
	if !ok {
		httpx.Error(ctx, w, http.StatusUnauthorized, "unauthorized")
		return
	}
	httpx.JSON(ctx, w, http.StatusOK, user.Sanitized())
}

func (h *Handler) exists(ctx context.Context, find func(context.Context, string) (*models.User, error), key string) (bool, error) {
	_, err := find(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, store.ErrNotFound):
		return false, nil
	default:
		return false, err
	}
}
