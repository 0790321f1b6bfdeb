package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Limiter counts hits per key inside a fixed window.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RedisLimiter keeps its window counters in Redis so limits hold across restarts.
type RedisLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
}

func NewRedisLimiter(client *redis.Client, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		client: client,
		limit:  int64(limit),
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s", key)

	pipe := l.client.TxPipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.ExpireNX(ctx, redisKey, l.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return false, err
	}

	return incr.Val() <= l.limit, nil
}

// MemLimiter is the single-process fallback used when Redis is not configured.
type MemLimiter struct {
	cache  *MemCache
	limit  int64
	window time.Duration
}

func NewMemLimiter(cache *MemCache, limit int, window time.Duration) *MemLimiter {
	return &MemLimiter{
		cache:  cache,
		limit:  int64(limit),
		window: window,
	}
}

func (l *MemLimiter) Allow(_ context.Context, key string) (bool, error) {
	return l.cache.Increment("ratelimit:"+key, 1, l.window) <= l.limit, nil
}
