package staging

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"buildcheck/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const maxNameLen = 120

var stagedNamePattern = regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{4}-[0-9a-f]{12}_[0-9]+_`)

// Store hands out request-scoped batches of temp files inside a directory
// shared with the analysis engine.
type Store struct {
	dir    string
	logger *zlog.Zerolog
}

func NewStore(dir string, logger *zlog.Zerolog) (*Store, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirUnavailable, err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDirUnavailable, err)
	}

	return &Store{dir: abs, logger: logger}, nil
}

func (s *Store) Dir() string {
	return s.dir
}

// Ready checks that the shared directory still exists and is a directory.
func (s *Store) Ready() error {
	info, err := os.Stat(s.dir)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDirUnavailable, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrDirUnavailable, s.dir)
	}
	return nil
}

func (s *Store) Begin(requestID string) *Batch {
	return &Batch{
		store:     s,
		requestID: SanitizeFilename(requestID),
	}
}

// Sweep removes staged files older than maxAge. Only names produced by
// FileName are considered, so other files in the shared directory survive.
func (s *Store) Sweep(maxAge time.Duration, now time.Time) (int, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrDirUnavailable, err)
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !IsStagedName(entry.Name()) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			continue
		}
		if now.Sub(info.ModTime()) < maxAge {
			continue
		}

		path := filepath.Join(s.dir, entry.Name())
		if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove stale staged file")
			continue
		}
		removed++
	}

	return removed, nil
}

// Batch owns the temp files staged for one request.
type Batch struct {
	store     *Store
	requestID string
	paths     []string
}

// Stage writes data to a fresh file and verifies its size on disk. On any
// failure the partial file is removed before returning.
func (b *Batch) Stage(seq int, filename string, data []byte) (domain.StagedFile, error) {
	path := filepath.Join(b.store.dir, FileName(b.requestID, seq, filename))

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return domain.StagedFile{}, fmt.Errorf("%w: %v", ErrOpen, err)
	}
	b.paths = append(b.paths, path)

	n, err := f.Write(data)
	if err == nil && n != len(data) {
		err = fmt.Errorf("short write %d of %d bytes", n, len(data))
	}
	if err != nil {
		_ = f.Close()
		b.discard(path)
		return domain.StagedFile{}, fmt.Errorf("%w: %v", ErrWrite, err)
	}

	if err := f.Sync(); err != nil {
		_ = f.Close()
		b.discard(path)
		return domain.StagedFile{}, fmt.Errorf("%w: %v", ErrFlush, err)
	}

	if err := f.Close(); err != nil {
		b.discard(path)
		return domain.StagedFile{}, fmt.Errorf("%w: %v", ErrFlush, err)
	}

	info, err := os.Stat(path)
	if err != nil || info.Size() != int64(len(data)) {
		b.discard(path)
		return domain.StagedFile{}, fmt.Errorf("%w: expected %d bytes", ErrSizeMismatch, len(data))
	}

	return domain.StagedFile{
		Path:      path,
		RequestID: b.requestID,
		Seq:       seq,
		Filename:  filename,
	}, nil
}

func (b *Batch) Paths() []string {
	out := make([]string, len(b.paths))
	copy(out, b.paths)
	return out
}

// Release removes every file this batch staged. Missing files are not an
// error; it is safe to call more than once.
func (b *Batch) Release() int {
	removed := 0
	for _, path := range b.paths {
		if err := os.Remove(path); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				b.store.logger.Warn().
					Err(err).
					Str("request_id", b.requestID).
					Str("path", path).
					Msg("Failed to remove staged file")
			}
			continue
		}
		removed++
	}
	b.paths = nil
	return removed
}

func (b *Batch) discard(path string) {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		b.store.logger.Warn().Err(err).Str("path", path).Msg("Failed to remove partial staged file")
	}
	for i, p := range b.paths {
		if p == path {
			b.paths = append(b.paths[:i], b.paths[i+1:]...)
			break
		}
	}
}

func FileName(requestID string, seq int, filename string) string {
	return fmt.Sprintf("%s_%d_%s", requestID, seq, SanitizeFilename(filename))
}

func IsStagedName(name string) bool {
	return stagedNamePattern.MatchString(name)
}

// SanitizeFilename replaces path-hostile and control characters with '_'
// and caps the length, keeping the extension when possible.
func SanitizeFilename(name string) string {
	name = strings.Map(func(r rune) rune {
		switch r {
		case '/', '\\', ':', '*', '?', '"', '<', '>', '|':
			return '_'
		}
		if r < 0x20 || r == 0x7f {
			return '_'
		}
		return r
	}, name)

	if name == "" {
		return "upload"
	}
	if len(name) <= maxNameLen {
		return name
	}

	ext := filepath.Ext(name)
	if len(ext) >= maxNameLen/2 {
		ext = ""
	}
	return truncate(name[:len(name)-len(ext)], maxNameLen-len(ext)) + ext
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	s = s[:n]
	for len(s) > 0 && !utf8.ValidString(s) {
		s = s[:len(s)-1]
	}
	return s
}
