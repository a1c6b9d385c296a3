package store

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/ayush/socialnet/backend/internal/config"
)

// NewRedisClient creates and pings the Redis client backing the token
// revocation list.
func NewRedisClient(ctx context.Context, cfg *config.Config) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.RedisAddr, err)
	}
	return rdb, nil
}
