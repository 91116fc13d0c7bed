package app

import (
	"context"
	"devfolio/portfolio-api/config"
	"fmt"
	"time"

	"github.com/chenyahui/gin-cache/persist"
	"github.com/go-redis/redis/v8"
)

// NewCacheStore returns a redis backed response cache when cache.redis_addr
// is set and an in-memory one otherwise
func NewCacheStore(ctx context.Context, cfg config.CacheConfig) (persist.CacheStore, error) {
	if cfg.RedisAddr == "" {
		return persist.NewMemoryStore(time.Minute), nil
	}

	client := redis.NewClient(&redis.Options{
		Addr: cfg.RedisAddr,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s, %w", cfg.RedisAddr, err)
	}

	return persist.NewRedisStore(client), nil
}
