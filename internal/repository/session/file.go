package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	"buildcheck/internal/domain"
	"buildcheck/internal/repository/jsonfile"

	"github.com/wb-go/wbf/zlog"
)

// fileStore maps session ids to unix expiry seconds and persists the map as
// a JSON object. Expired entries are pruned whenever the map is touched.
type fileStore struct {
	mu       sync.Mutex
	path     string
	sessions map[string]int64
	now      func() time.Time
	logger   *zlog.Zerolog
}

func NewFile(path string, logger *zlog.Zerolog) (Store, error) {
	if path == "" {
		return nil, fmt.Errorf("session file path required")
	}

	s := &fileStore{
		path:     path,
		sessions: make(map[string]int64),
		now:      time.Now,
		logger:   logger,
	}
	s.load()
	return s, nil
}

func (s *fileStore) load() {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		return
	}

	var payload map[string]any
	if err := json.Unmarshal(raw, &payload); err != nil {
		s.logger.Warn().Err(err).Str("path", s.path).Msg("Session database is not a JSON object, starting empty")
		return
	}

	for id, v := range payload {
		if f, ok := v.(float64); ok && f == float64(int64(f)) {
			s.sessions[id] = int64(f)
		}
	}
}

func (s *fileStore) Create(_ context.Context, sess domain.AdminSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pruneLocked()
	s.sessions[sess.ID] = sess.ExpiresAt.Unix()
	if err := jsonfile.Write(s.path, s.sessions); err != nil {
		delete(s.sessions, sess.ID)
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *fileStore) Valid(_ context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.pruneLocked() {
		if err := jsonfile.Write(s.path, s.sessions); err != nil {
			s.logger.Warn().Err(err).Str("path", s.path).Msg("Failed to persist pruned sessions")
		}
	}

	_, ok := s.sessions[id]
	return ok, nil
}

func (s *fileStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, id)
	if err := jsonfile.Write(s.path, s.sessions); err != nil {
		return fmt.Errorf("%w: %v", ErrPersist, err)
	}
	return nil
}

func (s *fileStore) Close() error {
	return nil
}

func (s *fileStore) pruneLocked() bool {
	now := s.now().Unix()
	removed := false
	for id, exp := range s.sessions {
		if exp <= now {
			delete(s.sessions, id)
			removed = true
		}
	}
	return removed
}
