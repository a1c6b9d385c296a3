package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/socialnet/backend/internal/models"
	"github.com/ayush/socialnet/backend/internal/store"
)

// lookupRecorder wraps the memory store to record lookup order.
type lookupRecorder struct {
	*store.MemoryStore
	calls []string
}

func (l *lookupRecorder) UserByUsername(ctx context.Context, username string) (*models.User, error) {
	l.calls = append(l.calls, "username")
	return l.MemoryStore.UserByUsername(ctx, username)
}

func (l *lookupRecorder) UserByEmail(ctx context.Context, email string) (*models.User, error) {
	l.calls = append(l.calls, "email")
	return l.MemoryStore.UserByEmail(ctx, email)
}

func newTestHandler(t *testing.T) (*Handler, *lookupRecorder) {
	t.Helper()
	users := &lookupRecorder{MemoryStore: store.NewMemoryStore()}
	return NewHandler(users, NewIssuer(testConfig()), nil, 4), users
}

func postJSON(t *testing.T, fn http.HandlerFunc, body any) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(raw))
	rec := httptest.NewRecorder()
	fn(rec, req)
	return rec
}

func signupBody(username, email, password string) models.SignupRequest {
	return models.SignupRequest{FullName: "Test User", Username: username, Email: email, Password: password}
}

func TestSignupReturnsSanitizedRecordAndCookie(t *testing.T) {
	h, users := newTestHandler(t)

	rec := postJSON(t, h.Signup, signupBody("a", "a@x.com", "secret1"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body, "password")
	assert.Equal(t, "a", body["username"])
	assert.Equal(t, "a@x.com", body["email"])
	assert.Equal(t, []any{}, body["followers"])

	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	claims, err := h.issuer.Verify(cookies[0].Value)
	require.NoError(t, err)
	assert.Equal(t, body["id"], claims.UserID)

	stored, err := users.UserByUsername(context.Background(), "a")
	require.NoError(t, err)
	assert.True(t, CheckPassword("secret1", stored.Password), "stored password must be a digest of the secret")
}

func TestSignupConflictsCheckUsernameFirst(t *testing.T) {
	h, users := newTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, h.Signup, signupBody("a", "a@x.com", "secret1")).Code)

	users.calls = nil
	rec := postJSON(t, h.Signup, signupBody("a", "a@x.com", "secret1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "username is already taken")
	assert.Equal(t, []string{"username"}, users.calls, "email uniqueness must not be checked after a username conflict")

	users.calls = nil
	rec = postJSON(t, h.Signup, signupBody("b", "a@x.com", "secret1"))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is already registered")
	assert.Equal(t, []string{"username", "email"}, users.calls)
}

func TestSignupValidation(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := postJSON(t, h.Signup, signupBody("a", "not-an-email", "secret1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "email is not valid")

	rec = postJSON(t, h.Signup, signupBody("a", "a@x.com", "12345"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "at least 6 characters")
	assert.Empty(t, rec.Result().Cookies())

	rec = postJSON(t, h.Signup, signupBody("a", "a@x.com", "123456"))
	assert.Equal(t, http.StatusCreated, rec.Code, "exactly six characters is accepted")

	rec = postJSON(t, h.Signup, signupBody("", "b@x.com", "secret1"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader([]byte("{not json")))
	raw := httptest.NewRecorder()
	h.Signup(raw, req)
	assert.Equal(t, http.StatusBadRequest, raw.Code)
}

func TestLogin(t *testing.T) {
	h, _ := newTestHandler(t)
	require.Equal(t, http.StatusCreated, postJSON(t, h.Signup, signupBody("a", "a@x.com", "secret1")).Code)

	rec := postJSON(t, h.Login, models.LoginRequest{Username: "a", Password: "wrong"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	rec = postJSON(t, h.Login, models.LoginRequest{Username: "nobody", Password: "secret1"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = postJSON(t, h.Login, models.LoginRequest{Username: "a", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "password")
	require.Len(t, rec.Result().Cookies(), 1)
	_, err := h.issuer.Verify(rec.Result().Cookies()[0].Value)
	assert.NoError(t, err)
}

type fakeRevocations struct {
	revoked map[string]time.Time
	err     error
}

func (f *fakeRevocations) Revoke(_ context.Context, id string, until time.Time) error {
	if f.err != nil {
		return f.err
	}
	f.revoked[id] = until
	return nil
}

func (f *fakeRevocations) IsRevoked(_ context.Context, id string) (bool, error) {
	_, ok := f.revoked[id]
	return ok, nil
}

func TestLogoutClearsCookie(t *testing.T) {
	h, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Empty(t, cookies[0].Value)
}

func TestLogoutRevokesWhenConfigured(t *testing.T) {
	revocations := &fakeRevocations{revoked: map[string]time.Time{}}
	issuer := NewIssuer(testConfig())
	h := NewHandler(store.NewMemoryStore(), issuer, revocations, 4)

	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.AddCookie(&http.Cookie{Name: "jwt", Value: tok.Value})
	rec := httptest.NewRecorder()
	h.Logout(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, revocations.revoked, tok.ID)

	revocations.err = errors.New("redis down")
	rec = httptest.NewRecorder()
	h.Logout(rec, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "redis")
}

func TestMeRequiresGuardUser(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Me(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	u := models.NewUser("id-1", "a", "a@x.com", "digest", "", time.Now())
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(WithUser(req.Context(), u))
	rec = httptest.NewRecorder()
	h.Me(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "digest")
}
