package minio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strconv"
	"strings"
	"time"

	"buildcheck/internal/domain"
	"buildcheck/internal/repository/archive"
	"buildcheck/internal/repository/staging"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/wb-go/wbf/retry"
)

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

type previewRenderer interface {
	Render(data []byte, caption string) ([]byte, error)
}

const (
	previewSuffix      = ".preview.jpg"
	captionNotAssessed = "not assessed"
)

type SampleRepository struct {
	client   objectStore
	bucket   string
	retries  retry.Strategy
	previews previewRenderer
	now      func() time.Time
}

func NewSampleRepository(client objectStore, bucket string, retries retry.Strategy) *SampleRepository {
	return &SampleRepository{
		client:  client,
		bucket:  bucket,
		retries: retries,
		now:     time.Now,
	}
}

// WithPreviews makes Archive store a captioned preview next to every sample.
func (r *SampleRepository) WithPreviews(renderer previewRenderer) *SampleRepository {
	r.previews = renderer
	return r
}

// NewClient connects to MinIO and makes sure the archive bucket exists,
// creating it when missing.
func NewClient(ctx context.Context, endpoint, accessKey, secretKey, bucket string, useSSL bool) (*minio.Client, error) {
	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create minio client: %w", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket %s: %w", bucket, err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", archive.ErrBucketMissing, bucket, err)
		}
	}

	return client, nil
}

func (r *SampleRepository) Archive(ctx context.Context, sample domain.ArchivedSample) error {
	key := ObjectKey(sample, r.now())

	contentType := sample.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	meta := map[string]string{
		"request-id":   sample.RequestID,
		"ok":           strconv.FormatBool(sample.OK),
		"damage-types": strings.Join(sample.DamageTypes, ","),
	}

	if err := r.put(ctx, key, sample.Data, minio.PutObjectOptions{ContentType: contentType, UserMetadata: meta}); err != nil {
		return err
	}

	if r.previews == nil {
		return nil
	}

	preview, err := r.previews.Render(sample.Data, Caption(sample))
	if err != nil {
		return fmt.Errorf("%w %s: %v", archive.ErrPreview, key, err)
	}
	return r.put(ctx, key+previewSuffix, preview, minio.PutObjectOptions{ContentType: "image/jpeg", UserMetadata: meta})
}

func (r *SampleRepository) put(ctx context.Context, key string, data []byte, opts minio.PutObjectOptions) error {
	attempts := r.retries.Attempts
	if attempts < 1 {
		attempts = 1
	}
	delay := r.retries.Delay

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		_, lastErr = r.client.PutObject(ctx, r.bucket, key, bytes.NewReader(data), int64(len(data)), opts)
		if lastErr == nil {
			return nil
		}
		if attempt == attempts {
			break
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("%w %s: %v", archive.ErrUpload, key, ctx.Err())
		case <-time.After(delay):
		}
		if r.retries.Backoff > 1 {
			delay = time.Duration(float64(delay) * r.retries.Backoff)
		}
	}

	return fmt.Errorf("%w %s: %v", archive.ErrUpload, key, lastErr)
}

// Caption is the verdict printed on a sample's preview.
func Caption(sample domain.ArchivedSample) string {
	if !sample.OK {
		return captionNotAssessed
	}
	return strings.Join(sample.DamageTypes, ", ")
}

// ObjectKey lays samples out by day, then request.
func ObjectKey(sample domain.ArchivedSample, at time.Time) string {
	at = at.UTC()
	return path.Join(
		"samples",
		at.Format("2006"),
		at.Format("01"),
		at.Format("02"),
		staging.SanitizeFilename(sample.RequestID),
		fmt.Sprintf("%d_%s", sample.Seq, staging.SanitizeFilename(sample.Filename)),
	)
}
