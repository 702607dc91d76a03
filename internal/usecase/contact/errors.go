package contact

import "errors"

var (
	ErrInvalidContact     = errors.New("invalid contact submission")
	ErrPersistence        = errors.New("persistence error")
	ErrAdminNotConfigured = errors.New("admin auth is not configured")
	ErrUnauthorized       = errors.New("unauthorized")
)

// ValidationError carries the message of the first rule a submission broke.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidContact
}
