package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayush/socialnet/backend/internal/config"
)

func testConfig() *config.Config {
	return &config.Config{
		Environment: "development",
		JWTSecret:   "test-secret",
		TokenTTL:    time.Hour,
		CookieName:  "jwt",
		BcryptCost:  4,
	}
}

func TestIssueVerifyRoundTrip(t *testing.T) {
	issuer := NewIssuer(testConfig())

	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)
	require.NotEmpty(t, tok.Value)
	require.NotEmpty(t, tok.ID)

	claims, err := issuer.Verify(tok.Value)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, tok.ID, claims.ID)
}

func TestVerifyRejectsUniformly(t *testing.T) {
	issuer := NewIssuer(testConfig())
	good, err := issuer.Issue("user-1")
	require.NoError(t, err)

	otherCfg := testConfig()
	otherCfg.JWTSecret = "different-secret"
	foreign, err := NewIssuer(otherCfg).Issue("user-1")
	require.NoError(t, err)

	expiredIssuer := NewIssuer(testConfig())
	expiredIssuer.WithNowFunc(func() time.Time { return time.Now().Add(-2 * time.Hour) })
	expired, err := expiredIssuer.Issue("user-1")
	require.NoError(t, err)

	noneAlg, err := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "user-1"}).
		SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	parts := strings.Split(good.Value, ".")
	tampered := parts[0] + "." + parts[1] + "x." + parts[2]

	cases := map[string]string{
		"wrong secret": foreign.Value,
		"expired":      expired.Value,
		"malformed":    "not-a-token",
		"empty":        "",
		"alg none":     noneAlg,
		"tampered":     tampered,
	}
	for name, raw := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := issuer.Verify(raw)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestVerifyRequiresExpiry(t *testing.T) {
	issuer := NewIssuer(testConfig())
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{UserID: "user-1"}).SignedString([]byte("test-secret"))
	require.NoError(t, err)

	_, err = issuer.Verify(raw)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestCookies(t *testing.T) {
	issuer := NewIssuer(testConfig())
	tok, err := issuer.Issue("user-1")
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	issuer.SetCookie(rec, tok)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "jwt", cookies[0].Name)
	assert.Equal(t, tok.Value, cookies[0].Value)
	assert.True(t, cookies[0].HttpOnly)
	assert.Equal(t, http.SameSiteStrictMode, cookies[0].SameSite)
	assert.Equal(t, 3600, cookies[0].MaxAge)

	rec = httptest.NewRecorder()
	issuer.ClearCookie(rec)
	cookies = rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Empty(t, cookies[0].Value)
	assert.Negative(t, cookies[0].MaxAge)
}

func TestPasswordHashing(t *testing.T) {
	digest, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, "secret1", digest)

	again, err := HashPassword("secret1", 4)
	require.NoError(t, err)
	assert.NotEqual(t, digest, again, "digests are salted")

	assert.True(t, CheckPassword("secret1", digest))
	assert.False(t, CheckPassword("wrong", digest))
	assert.False(t, CheckPassword("secret1", ""))
}
