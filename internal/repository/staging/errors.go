package staging

import "errors"

var (
	ErrDirUnavailable = errors.New("staging directory unavailable")
	ErrOpen           = errors.New("failed to open temp file")
	ErrWrite          = errors.New("failed to write temp file")
	ErrFlush          = errors.New("failed to flush temp file")
	ErrSizeMismatch   = errors.New("temp file size mismatch")
)
