package preview

import "errors"

var (
	ErrDecode = errors.New("failed to decode image")
	ErrEncode = errors.New("failed to encode preview")
	ErrFont   = errors.New("failed to load caption font")
)
