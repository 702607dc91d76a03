package ratelimit

import (
	"context"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

type counter struct {
	start time.Time
	count int
}

type memoryLimiter struct {
	mu      sync.Mutex
	rpm     int
	windows *ttlcache.Cache[string, *counter]
	now     func() time.Time
}

func NewMemory(rpm int) Limiter {
	cache := ttlcache.New(
		ttlcache.WithTTL[string, *counter](window),
		ttlcache.WithDisableTouchOnHit[string, *counter](),
	)
	go cache.Start()

	return &memoryLimiter{
		rpm:     rpm,
		windows: cache,
		now:     time.Now,
	}
}

func (l *memoryLimiter) Allow(_ context.Context, key string) (bool, error) {
	if l.rpm <= 0 {
		return true, nil
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	item := l.windows.Get(key)
	if item == nil || now.Sub(item.Value().start) >= window {
		l.windows.Set(key, &counter{start: now, count: 1}, ttlcache.DefaultTTL)
		return true, nil
	}

	c := item.Value()
	c.count++
	return c.count <= l.rpm, nil
}

func (l *memoryLimiter) Close() error {
	l.windows.Stop()
	return nil
}
