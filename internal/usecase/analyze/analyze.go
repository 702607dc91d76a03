package analyze

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"buildcheck/internal/domain"
	"buildcheck/internal/repository/staging"

	"github.com/wb-go/wbf/zlog"
)

const sideChannelTimeout = 30 * time.Second

type AnalyzeUsecase struct {
	staging  stagingStore
	engine   engineClient
	events   eventPublisher
	archive  sampleArchiver
	logger   *zlog.Zerolog
	maxFiles int

	wg sync.WaitGroup
}

// NewAnalyzeUsecase wires the pipeline. events and archive may be nil.
func NewAnalyzeUsecase(store stagingStore, client engineClient, events eventPublisher, archive sampleArchiver, logger *zlog.Zerolog, maxFiles int) *AnalyzeUsecase {
	if maxFiles <= 0 || maxFiles > domain.MaxFilesHardCap {
		maxFiles = domain.DefaultMaxFiles
	}
	return &AnalyzeUsecase{
		staging:  store,
		engine:   client,
		events:   events,
		archive:  archive,
		logger:   logger,
		maxFiles: maxFiles,
	}
}

func (u *AnalyzeUsecase) MaxFiles() int {
	return u.maxFiles
}

// Analyze validates and stages every image, sends the staged set to the
// engine in one call and returns one result per upload in upload order.
// Staged files are removed before it returns, whatever the outcome.
func (u *AnalyzeUsecase) Analyze(ctx context.Context, requestID, rateLimitKey string, images []domain.UploadedImage) (*domain.BatchResponse, error) {
	if len(images) == 0 {
		return nil, ErrNoImages
	}
	if len(images) > u.maxFiles {
		return nil, fmt.Errorf("%w: %d files, limit %d", ErrTooManyFiles, len(images), u.maxFiles)
	}

	start := time.Now()
	batch := u.staging.Begin(requestID)
	defer func() {
		removed := batch.Release()
		u.logger.Debug().Str("request_id", requestID).Int("removed", removed).Msg("Staged files released")
	}()

	results := make([]domain.ImageResult, len(images))
	staged := make([]domain.StagedFile, 0, len(images))
	for i, img := range images {
		results[i] = domain.ImageResult{Filename: img.Filename}

		outcome := u.stage(batch, requestID, i, img)
		if !outcome.Accepted {
			results[i].Error = string(outcome.Reason)
			continue
		}
		staged = append(staged, outcome.Staged)
	}

	if len(staged) == 0 {
		u.logger.Info().Str("request_id", requestID).Int("files", len(images)).Msg("No valid images in batch")
		u.publish(domain.AnalysisEvent{
			RequestID: requestID,
			Status:    domain.EventStatusNoValid,
			Files:     len(images),
		}, start)
		return &domain.BatchResponse{OK: false, RequestID: requestID, Results: results}, nil
	}

	paths := make([]string, len(staged))
	for i, sf := range staged {
		paths[i] = sf.Path
	}

	resp, err := u.engine.Analyze(ctx, domain.BatchRequest{
		RequestID:    requestID,
		Paths:        paths,
		RateLimitKey: rateLimitKey,
	})
	if err != nil {
		u.logger.Error().Err(err).Str("request_id", requestID).Int("staged", len(staged)).Msg("Engine dispatch failed")
		u.publish(domain.AnalysisEvent{
			RequestID: requestID,
			Status:    domain.EventStatusEngineError,
			Files:     len(images),
			Staged:    len(staged),
		}, start)
		return nil, fmt.Errorf("engine dispatch failed: %w", err)
	}

	Reconcile(results, staged, resp)

	out := &domain.BatchResponse{OK: anyOK(results), RequestID: requestID, Results: results}

	succeeded := 0
	for _, r := range results {
		if r.OK {
			succeeded++
		}
	}

	u.logger.Info().
		Str("request_id", requestID).
		Int("files", len(images)).
		Int("staged", len(staged)).
		Int("succeeded", succeeded).
		Dur("duration", time.Since(start)).
		Msg("Batch analyzed")

	u.publish(domain.AnalysisEvent{
		RequestID: requestID,
		OK:        out.OK,
		Status:    domain.EventStatusCompleted,
		Files:     len(images),
		Staged:    len(staged),
		Succeeded: succeeded,
	}, start)
	u.archiveSamples(requestID, images, staged, results)

	return out, nil
}

func (u *AnalyzeUsecase) stage(batch *staging.Batch, requestID string, seq int, img domain.UploadedImage) domain.Outcome {
	if reason, ok := ValidateImage(img); !ok {
		return domain.Rejected(reason)
	}

	sf, err := batch.Stage(seq, img.Filename, img.Data)
	if err != nil {
		u.logger.Warn().Err(err).Str("request_id", requestID).Int("seq", seq).Msg("Failed to stage image")
		return domain.Rejected(stagingReason(err))
	}
	return domain.Accepted(sf)
}

func stagingReason(err error) domain.RejectReason {
	switch {
	case errors.Is(err, staging.ErrWrite):
		return domain.ReasonWriteFailed
	case errors.Is(err, staging.ErrFlush):
		return domain.ReasonFlushFailed
	case errors.Is(err, staging.ErrSizeMismatch):
		return domain.ReasonSizeMismatch
	default:
		return domain.ReasonOpenFailed
	}
}

func (u *AnalyzeUsecase) publish(event domain.AnalysisEvent, start time.Time) {
	if u.events == nil {
		return
	}

	event.DurationMS = time.Since(start).Milliseconds()
	event.FinishedAt = time.Now().UTC()

	u.goSide(func(ctx context.Context) {
		if err := u.events.Publish(ctx, event); err != nil {
			u.logger.Warn().Err(err).Str("request_id", event.RequestID).Msg("Failed to publish analysis event")
		}
	})
}

func (u *AnalyzeUsecase) archiveSamples(requestID string, images []domain.UploadedImage, staged []domain.StagedFile, results []domain.ImageResult) {
	if u.archive == nil {
		return
	}

	samples := make([]domain.ArchivedSample, 0, len(staged))
	for _, sf := range staged {
		img := images[sf.Seq]
		res := results[sf.Seq]
		samples = append(samples, domain.ArchivedSample{
			RequestID:   requestID,
			Seq:         sf.Seq,
			Filename:    img.Filename,
			ContentType: img.ContentType,
			Data:        img.Data,
			OK:          res.OK,
			DamageTypes: res.DamageTypes,
		})
	}

	u.goSide(func(ctx context.Context) {
		for _, s := range samples {
			if err := u.archive.Archive(ctx, s); err != nil {
				u.logger.Warn().Err(err).Str("request_id", requestID).Int("seq", s.Seq).Msg("Failed to archive sample")
			}
		}
	})
}

// goSide runs best-effort work off the request path.
func (u *AnalyzeUsecase) goSide(fn func(ctx context.Context)) {
	u.wg.Add(1)
	go func() {
		defer u.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sideChannelTimeout)
		defer cancel()
		fn(ctx)
	}()
}

// Wait blocks until pending side-channel work has finished.
func (u *AnalyzeUsecase) Wait() {
	u.wg.Wait()
}
