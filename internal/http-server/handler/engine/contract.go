package engine

import (
	"context"

	"buildcheck/internal/usecase/inspector"
)

type inspectUsecase interface {
	Inspect(ctx context.Context, requestID string, paths []string) ([]inspector.Result, error)
}

type rateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}
