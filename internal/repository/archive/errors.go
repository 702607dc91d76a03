package archive

import "errors"

var (
	ErrBucketMissing = errors.New("archive bucket does not exist")
	ErrUpload        = errors.New("failed to upload sample")
	ErrPreview       = errors.New("failed to render sample preview")
)
