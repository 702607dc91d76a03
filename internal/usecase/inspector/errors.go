package inspector

import "errors"

var (
	ErrMissingPaths = errors.New("missing paths array")
	ErrTooManyPaths = errors.New("too many paths")
)

const (
	msgOutsideShared = "path outside shared directory"
	msgNotFound      = "file not found"
	msgUnreadable    = "unreadable image"
	msgNoDamage      = "no damage detected"
)
