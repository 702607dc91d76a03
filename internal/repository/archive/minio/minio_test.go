package minio

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"buildcheck/internal/domain"
	"buildcheck/internal/repository/archive"

	"github.com/minio/minio-go/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/retry"
)

type putCall struct {
	bucket, key string
	body        []byte
	size        int64
	opts        minio.PutObjectOptions
}

type fakeObjectStore struct {
	failures int
	calls    []putCall
}

func (f *fakeObjectStore) PutObject(_ context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	body, _ := io.ReadAll(reader)
	f.calls = append(f.calls, putCall{bucket: bucket, key: key, body: body, size: size, opts: opts})
	if len(f.calls) <= f.failures {
		return minio.UploadInfo{}, errors.New("connection reset")
	}
	return minio.UploadInfo{Bucket: bucket, Key: key, Size: size}, nil
}

var fixedNow = func() time.Time { return time.Date(2026, 3, 7, 23, 59, 0, 0, time.UTC) }

func TestObjectKey(t *testing.T) {
	key := ObjectKey(domain.ArchivedSample{
		RequestID: "0f8fad5b-d9cb-469f-a165-70867728950e",
		Seq:       3,
		Filename:  `..\roof/leak.jpg`,
	}, fixedNow())

	assert.Equal(t, "samples/2026/03/07/0f8fad5b-d9cb-469f-a165-70867728950e/3_.._roof_leak.jpg", key)
}

func TestArchiveUploadsWithMetadata(t *testing.T) {
	store := &fakeObjectStore{}
	repo := NewSampleRepository(store, "samples-bucket", retry.Strategy{Attempts: 1})
	repo.now = fixedNow

	err := repo.Archive(context.Background(), domain.ArchivedSample{
		RequestID:   "rid",
		Seq:         0,
		Filename:    "wall.png",
		ContentType: "image/png",
		Data:        []byte("png-bytes"),
		OK:          true,
		DamageTypes: []string{"crack", "moisture"},
	})
	require.NoError(t, err)

	require.Len(t, store.calls, 1)
	call := store.calls[0]
	assert.Equal(t, "samples-bucket", call.bucket)
	assert.Equal(t, "samples/2026/03/07/rid/0_wall.png", call.key)
	assert.Equal(t, []byte("png-bytes"), call.body)
	assert.Equal(t, int64(9), call.size)
	assert.Equal(t, "image/png", call.opts.ContentType)
	assert.Equal(t, map[string]string{
		"request-id":   "rid",
		"ok":           "true",
		"damage-types": "crack,moisture",
	}, call.opts.UserMetadata)
}

func TestArchiveRetriesThenSucceeds(t *testing.T) {
	store := &fakeObjectStore{failures: 2}
	repo := NewSampleRepository(store, "b", retry.Strategy{Attempts: 3, Delay: time.Millisecond, Backoff: 2})

	err := repo.Archive(context.Background(), domain.ArchivedSample{RequestID: "rid", Filename: "a.jpg", Data: []byte("x")})
	require.NoError(t, err)
	assert.Len(t, store.calls, 3)
	assert.Equal(t, "application/octet-stream", store.calls[0].opts.ContentType)
}

func TestArchiveGivesUpAfterAttempts(t *testing.T) {
	store := &fakeObjectStore{failures: 10}
	repo := NewSampleRepository(store, "b", retry.Strategy{Attempts: 2, Delay: time.Millisecond})

	err := repo.Archive(context.Background(), domain.ArchivedSample{RequestID: "rid", Filename: "a.jpg", Data: []byte("x")})
	require.ErrorIs(t, err, archive.ErrUpload)
	assert.Len(t, store.calls, 2)
}

type fakeRenderer struct {
	captions []string
	err      error
}

func (f *fakeRenderer) Render(data []byte, caption string) ([]byte, error) {
	f.captions = append(f.captions, caption)
	if f.err != nil {
		return nil, f.err
	}
	return append([]byte("preview:"), data...), nil
}

func TestArchiveStoresPreview(t *testing.T) {
	store := &fakeObjectStore{}
	renderer := &fakeRenderer{}
	repo := NewSampleRepository(store, "b", retry.Strategy{Attempts: 1}).WithPreviews(renderer)
	repo.now = fixedNow

	err := repo.Archive(context.Background(), domain.ArchivedSample{
		RequestID:   "rid",
		Seq:         1,
		Filename:    "wall.jpg",
		Data:        []byte("jpg"),
		OK:          true,
		DamageTypes: []string{"crack", "breakage"},
	})
	require.NoError(t, err)

	require.Len(t, store.calls, 2)
	assert.Equal(t, "samples/2026/03/07/rid/1_wall.jpg.preview.jpg", store.calls[1].key)
	assert.Equal(t, "image/jpeg", store.calls[1].opts.ContentType)
	assert.Equal(t, []byte("preview:jpg"), store.calls[1].body)
	assert.Equal(t, []string{"crack, breakage"}, renderer.captions)
}

func TestArchivePreviewFailureKeepsOriginal(t *testing.T) {
	store := &fakeObjectStore{}
	repo := NewSampleRepository(store, "b", retry.Strategy{Attempts: 1}).WithPreviews(&fakeRenderer{err: errors.New("bad image")})

	err := repo.Archive(context.Background(), domain.ArchivedSample{RequestID: "rid", Filename: "a.jpg", Data: []byte("x")})
	require.ErrorIs(t, err, archive.ErrPreview)
	assert.Len(t, store.calls, 1)
}

func TestCaption(t *testing.T) {
	assert.Equal(t, "not assessed", Caption(domain.ArchivedSample{OK: false, DamageTypes: []string{"crack"}}))
	assert.Equal(t, "moisture", Caption(domain.ArchivedSample{OK: true, DamageTypes: []string{"moisture"}}))
}
