package auth

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/ayush/socialnet/backend/internal/config"
)

// ErrInvalidToken covers every verification failure: bad signature, wrong
// algorithm, expiry and malformed input are not distinguished.
var ErrInvalidToken = errors.New("invalid session token")

// Claims is the signed payload of a session token.
type Claims struct {
	UserID string `json:"userId"`
	jwt.RegisteredClaims
}

// Token is a freshly minted session credential.
type Token struct {
	Value     string
	ID        string
	ExpiresAt time.Time
}

// Issuer mints and verifies HS256 session tokens and manages the cookie
// that carries them.
type Issuer struct {
	secret     []byte
	ttl        time.Duration
	cookieName string
	secure     bool
	now        func() time.Time
}

func NewIssuer(cfg *config.Config) *Issuer {
	return &Issuer{
		secret:     []byte(cfg.JWTSecret),
		ttl:        cfg.TokenTTL,
		cookieName: cfg.CookieName,
		secure:     cfg.Production(),
		now:        time.Now,
	}
}

// WithNowFunc allows tests to override the time source.
func (i *Issuer) WithNowFunc(now func() time.Time) {
	i.now = now
}

func (i *Issuer) CookieName() string { return i.cookieName }

// Issue signs a token binding userID for the configured TTL.
func (i *Issuer) Issue(userID string) (Token, error) {
	if userID == "" {
		return Token{}, errors.New("user id must be provided")
	}
	now := i.now()
	tok := Token{ID: uuid.NewString(), ExpiresAt: now.Add(i.ttl)}
	claims := Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tok.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(tok.ExpiresAt),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.secret)
	if err != nil {
		return Token{}, fmt.Errorf("sign token: %w", err)
	}
	tok.Value = signed
	return tok, nil
}

// Verify checks signature and expiry and returns the claims.
func (i *Issuer) Verify(raw string) (*Claims, error) {
	if raw == "" {
		return nil, ErrInvalidToken
	}
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return i.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// SetCookie attaches tok as an HttpOnly cookie.
func (i *Issuer) SetCookie(w http.ResponseWriter, tok Token) {
	http.SetCookie(w, &http.Cookie{
		Name:     i.cookieName,
		Value:    tok.Value,
		Path:     "/",
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   int(i.ttl / time.Second),
	})
}

// ClearCookie attaches an immediately-expiring replacement.
func (i *Issuer) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     i.cookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   i.secure,
		SameSite: http.SameSiteStrictMode,
		MaxAge:   -1,
	})
}
