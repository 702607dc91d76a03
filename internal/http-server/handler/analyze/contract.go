package analyze

import (
	"context"

	"buildcheck/internal/domain"
)

type analyzeUsecase interface {
	Analyze(ctx context.Context, requestID, rateLimitKey string, images []domain.UploadedImage) (*domain.BatchResponse, error)
	MaxFiles() int
}
