package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"storefront-backend/pkg/cache"

	"github.com/redis/go-redis/v9"
)

type redisCache struct {
	c *redis.Client
}

// NewRedisCache shares cached settings snapshots across API instances.
func NewRedisCache(addr string) cache.CacheService {
	return &redisCache{
		c: redis.NewClient(&redis.Options{
			Addr: addr,
		}),
	}
}

func (r *redisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.c.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}
	return val, true, nil
}

func (r *redisCache) Set(ctx context.Context, key string, value []byte, duration time.Duration) error {
	if err := r.c.Set(ctx, key, value, duration).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

func (r *redisCache) Delete(ctx context.Context, key string) error {
	if err := r.c.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}
