package middleware

import (
	"net"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/ayush/socialnet/backend/internal/httpx"
)

// RateLimiter decides whether the caller identified by key may proceed.
type RateLimiter interface {
	Allow(key string) bool
}

// LimiterConfig sizes a Limiter: Requests per Window refill each bucket,
// Burst caps it, and buckets unused for Idle are dropped.
type LimiterConfig struct {
	Requests int
	Window   time.Duration
	Burst    int
	Idle     time.Duration
}

type bucket struct {
	tokens *rate.Limiter
	used   time.Time
}

// Limiter keeps one token bucket per key. Idle buckets are swept at most
// once per Idle interval.
type Limiter struct {
	mu        sync.Mutex
	buckets   map[string]*bucket
	every     rate.Limit
	burst     int
	idle      time.Duration
	lastSweep time.Time
	now       func() time.Time
}

func NewLimiter(cfg LimiterConfig) *Limiter {
	if cfg.Requests <= 0 {
		cfg.Requests = 1
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Second
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 1
	}
	if cfg.Idle <= 0 {
		cfg.Idle = 5 * time.Minute
	}
	return &Limiter{
		buckets: make(map[string]*bucket),
		every:   rate.Every(cfg.Window / time.Duration(cfg.Requests)),
		burst:   cfg.Burst,
		idle:    cfg.Idle,
		now:     time.Now,
	}
}

// WithNowFunc overrides the clock.
func (l *Limiter) WithNowFunc(now func() time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.now = now
	l.lastSweep = now()
}

func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	now := l.now()
	if now.Sub(l.lastSweep) >= l.idle {
		l.sweep(now)
	}
	b, ok := l.buckets[key]
	if !ok {
		b = &bucket{tokens: rate.NewLimiter(l.every, l.burst)}
		l.buckets[key] = b
	}
	b.used = now
	l.mu.Unlock()

	return b.tokens.AllowN(now, 1)
}

// Len reports how many buckets are held.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

func (l *Limiter) sweep(now time.Time) {
	for key, b := range l.buckets {
		if now.Sub(b.used) >= l.idle {
			delete(l.buckets, key)
		}
	}
	l.lastSweep = now
}

// RateLimit rejects callers over their budget with 429. key picks the
// bucket for a request.
func RateLimit(limiter RateLimiter, key func(*http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow(key(r)) {
				httpx.Error(r.Context(), w, http.StatusTooManyRequests, "too many requests")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// ClientAddr keys on the connection's host. RemoteAddr reflects forwarded
// headers only when the router installs chi's RealIP.
func ClientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
