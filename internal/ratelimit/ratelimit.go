package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	BackendMemory = "memory"
	window        = time.Minute
)

var ErrUnsupportedBackend = errors.New("unsupported rate limit backend")

// Limiter counts requests per key in fixed one-minute windows.
type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
	Close() error
}

// New picks a backend from its description: "memory" (or empty) keeps
// windows in process, a redis:// or rediss:// URL shares them through Redis.
func New(backend string, rpm int) (Limiter, error) {
	backend = strings.TrimSpace(backend)

	switch {
	case backend == "" || strings.EqualFold(backend, BackendMemory):
		return NewMemory(rpm), nil
	case strings.HasPrefix(backend, "redis://") || strings.HasPrefix(backend, "rediss://"):
		opts, err := redis.ParseURL(backend)
		if err != nil {
			return nil, fmt.Errorf("invalid redis url: %w", err)
		}
		return NewRedis(redis.NewClient(opts), "buildcheck:engine:", rpm), nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedBackend, backend)
	}
}
