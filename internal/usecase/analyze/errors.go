package analyze

import "errors"

var (
	ErrNoImages     = errors.New("no images provided")
	ErrTooManyFiles = errors.New("too many files")
)
