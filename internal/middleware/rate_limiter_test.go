package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLimiterBurstAndRefill(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(LimiterConfig{Requests: 1, Window: time.Second, Burst: 2, Idle: time.Minute})
	l.WithNowFunc(func() time.Time { return now })

	assert.True(t, l.Allow("1.2.3.4"))
	assert.True(t, l.Allow("1.2.3.4"))
	assert.False(t, l.Allow("1.2.3.4"), "burst exhausted")
	assert.True(t, l.Allow("5.6.7.8"), "keys are independent")

	now = now.Add(time.Second)
	assert.True(t, l.Allow("1.2.3.4"), "one token refilled")
}

func TestLimiterSweepsIdleBuckets(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	l := NewLimiter(LimiterConfig{Requests: 1, Window: time.Hour, Burst: 1, Idle: time.Minute})
	l.WithNowFunc(func() time.Time { return now })

	l.Allow("a")
	now = now.Add(30 * time.Second)
	l.Allow("b")
	assert.Equal(t, 2, l.Len(), "no sweep before the idle interval")

	now = now.Add(45 * time.Second)
	l.Allow("c")
	assert.Equal(t, 2, l.Len(), "a swept, b still fresh")
}

func TestRateLimitMiddleware(t *testing.T) {
	l := NewLimiter(LimiterConfig{Requests: 1, Window: time.Hour, Burst: 1})
	h := RateLimit(l, ClientAddr)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", nil)
	req.RemoteAddr = "10.0.0.1:1234"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	req.Header.Set("X-Forwarded-For", "203.0.113.9")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code, "forwarded headers do not change the key")
}
