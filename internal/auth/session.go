package auth

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records tokens invalidated by logout before their expiry.
type RevocationList interface {
	Revoke(ctx context.Context, tokenID string, until time.Time) error
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// RedisRevocationList wraps Redis for server-side logout.
type RedisRevocationList struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisRevocationList(rdb *redis.Client) *RedisRevocationList {
	return &RedisRevocationList{rdb: rdb, now: time.Now}
}

// Revoke marks tokenID as revoked until the token would have expired anyway.
func (l *RedisRevocationList) Revoke(ctx context.Context, tokenID string, until time.Time) error {
	ttl := until.Sub(l.now())
	if ttl <= 0 {
		return nil
	}
	return l.rdb.Set(ctx, "revoked:"+tokenID, 1, ttl).Err()
}

func (l *RedisRevocationList) IsRevoked(ctx context.Context, tokenID string) (bool, error) {
	err := l.rdb.Get(ctx, "revoked:"+tokenID).Err()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// NoRevocation is used when REVOKE_ON_LOGOUT is off: logout only clears the
// cookie and a replayed token stays valid until it expires.
type NoRevocation struct{}

func (NoRevocation) Revoke(context.Context, string, time.Time) error  { return nil }
func (NoRevocation) IsRevoked(context.Context, string) (bool, error) { return false, nil }
