package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sync"

	"buildcheck/internal/domain"
	"buildcheck/internal/repository/contact"
	"buildcheck/internal/repository/jsonfile"

	"github.com/wb-go/wbf/zlog"
)

// ContactRepository keeps submissions in memory, oldest first, and mirrors
// them to a JSON array on disk after every change.
type ContactRepository struct {
	mu      sync.Mutex
	path    string
	limit   int
	entries []domain.ContactEntry
	logger  *zlog.Zerolog
}

func NewContactRepository(path string, limit int, logger *zlog.Zerolog) (*ContactRepository, error) {
	if limit <= 0 {
		limit = domain.MaxContactEntries
	}

	r := &ContactRepository{path: path, limit: limit, logger: logger}
	if err := r.load(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *ContactRepository) load() error {
	raw, err := os.ReadFile(r.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("%w: %v", contact.ErrLoad, err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		r.logger.Warn().Err(err).Str("path", r.path).Msg("Contact database is not a JSON array, starting empty")
		return nil
	}

	for _, item := range items {
		var e domain.ContactEntry
		if err := json.Unmarshal(item, &e); err != nil {
			continue
		}
		r.entries = append(r.entries, e)
		if len(r.entries) >= r.limit {
			break
		}
	}
	return nil
}

// Add appends entry, dropping the oldest submission when the mailbox is full.
// The in-memory state is rolled back if the file cannot be written.
func (r *ContactRepository) Add(_ context.Context, entry domain.ContactEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	prev := r.entries
	next := make([]domain.ContactEntry, 0, len(prev)+1)
	if len(prev) >= r.limit {
		next = append(next, prev[len(prev)-r.limit+1:]...)
	} else {
		next = append(next, prev...)
	}
	next = append(next, entry)

	if err := jsonfile.Write(r.path, next); err != nil {
		return fmt.Errorf("%w: %v", contact.ErrPersist, err)
	}
	r.entries = next
	return nil
}

// List returns submissions newest first.
func (r *ContactRepository) List(_ context.Context) ([]domain.ContactEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]domain.ContactEntry, 0, len(r.entries))
	for i := len(r.entries) - 1; i >= 0; i-- {
		out = append(out, r.entries[i])
	}
	return out, nil
}

func (r *ContactRepository) Close() error {
	return nil
}
