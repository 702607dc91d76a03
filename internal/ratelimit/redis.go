package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type redisLimiter struct {
	client *redis.Client
	prefix string
	rpm    int
	now    func() time.Time
}

func NewRedis(client *redis.Client, prefix string, rpm int) Limiter {
	return &redisLimiter{
		client: client,
		prefix: prefix,
		rpm:    rpm,
		now:    time.Now,
	}
}

func (l *redisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if l.rpm <= 0 {
		return true, nil
	}

	bucket := l.now().Unix() / int64(window/time.Second)
	k := fmt.Sprintf("%sratelimit:%s:%d", l.prefix, key, bucket)

	n, err := l.client.Incr(ctx, k).Result()
	if err != nil {
		return false, fmt.Errorf("failed to count request: %w", err)
	}
	if n == 1 {
		if err := l.client.Expire(ctx, k, 2*window).Err(); err != nil {
			return false, fmt.Errorf("failed to set window expiry: %w", err)
		}
	}

	return n <= int64(l.rpm), nil
}

func (l *redisLimiter) Close() error {
	return l.client.Close()
}
