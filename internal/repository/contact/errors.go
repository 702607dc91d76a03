package contact

import "errors"

var (
	ErrPersist = errors.New("failed to persist contact submissions")
	ErrLoad    = errors.New("failed to load contact submissions")
)
