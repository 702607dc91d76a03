package engine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var (
	ErrUnreachable = errors.New("engine unreachable")
	ErrBadStatus   = errors.New("engine bad status")
)

type ErrorKind int

const (
	KindUnreachable ErrorKind = iota + 1
	KindBadStatus
)

func (k ErrorKind) String() string {
	switch k {
	case KindUnreachable:
		return "ENGINE_UNREACHABLE"
	case KindBadStatus:
		return "ENGINE_BAD_STATUS"
	default:
		return "ENGINE_UNKNOWN"
	}
}

// DispatchError is returned by Client.Analyze when no usable answer came back.
type DispatchError struct {
	Kind       ErrorKind
	StatusCode int
	Body       []byte
	Err        error
}

func (e *DispatchError) Error() string {
	switch e.Kind {
	case KindBadStatus:
		return fmt.Sprintf("%s status=%d body=%s", e.Kind, e.StatusCode, truncateBody(e.Body))
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s: %v", e.Kind, e.Err)
		}
		return e.Kind.String()
	}
}

func (e *DispatchError) Unwrap() error {
	return e.Err
}

func (e *DispatchError) Is(target error) bool {
	switch target {
	case ErrUnreachable:
		return e.Kind == KindUnreachable
	case ErrBadStatus:
		return e.Kind == KindBadStatus
	}
	return false
}

// Message is safe to show to API clients: it comes from the engine's own
// error payload, or is a fixed fallback.
func (e *DispatchError) Message() string {
	if e.Kind == KindBadStatus {
		if msg := extractMessage(e.Body); msg != "" {
			return msg
		}
		return fmt.Sprintf("Analysis engine returned status %d", e.StatusCode)
	}
	return "Analysis engine unavailable"
}

func extractMessage(body []byte) string {
	var payload map[string]any
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	for _, key := range []string{"message", "error", "detail"} {
		switch v := payload[key].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case map[string]any:
			if s, ok := v["message"].(string); ok && strings.TrimSpace(s) != "" {
				return strings.TrimSpace(s)
			}
		}
	}
	return ""
}

func truncateBody(body []byte) string {
	const limit = 512
	if len(body) > limit {
		return string(body[:limit]) + "..."
	}
	return string(body)
}
