package analyze

import (
	"context"

	"buildcheck/internal/client/engine"
	"buildcheck/internal/domain"
	"buildcheck/internal/repository/staging"
)

type stagingStore interface {
	Begin(requestID string) *staging.Batch
}

type engineClient interface {
	Analyze(ctx context.Context, req domain.BatchRequest) (*engine.Response, error)
}

type eventPublisher interface {
	Publish(ctx context.Context, event domain.AnalysisEvent) error
}

type sampleArchiver interface {
	Archive(ctx context.Context, sample domain.ArchivedSample) error
}
