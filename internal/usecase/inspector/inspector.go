package inspector

import (
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"buildcheck/internal/domain"

	"github.com/wb-go/wbf/zlog"
	_ "golang.org/x/image/webp"
)

// Picker is the randomness the inspector needs; *rand.Rand satisfies it.
type Picker interface {
	Intn(n int) int
}

type Result struct {
	OK          bool     `json:"ok"`
	Path        string   `json:"path"`
	DamageTypes []string `json:"damage_types"`
	Error       string   `json:"error,omitempty"`
}

// Inspector stands in for the real model: it checks that every path is a
// decodable image inside the shared directory and makes up damage labels.
type Inspector struct {
	sharedDir string
	rawDir    string
	maxPaths  int
	logger    *zlog.Zerolog

	mu  sync.Mutex
	rng Picker
}

func NewInspector(sharedDir string, maxPaths int, rng Picker, logger *zlog.Zerolog) (*Inspector, error) {
	abs, err := filepath.Abs(sharedDir)
	if err != nil {
		return nil, fmt.Errorf("invalid shared directory: %w", err)
	}
	resolved := abs
	if r, err := filepath.EvalSymlinks(abs); err == nil {
		resolved = r
	}
	if maxPaths <= 0 {
		maxPaths = domain.MaxFilesHardCap
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Inspector{
		sharedDir: resolved,
		rawDir:    abs,
		maxPaths:  maxPaths,
		logger:    logger,
		rng:       rng,
	}, nil
}

func (i *Inspector) Inspect(ctx context.Context, requestID string, paths []string) ([]Result, error) {
	if len(paths) == 0 {
		return nil, ErrMissingPaths
	}
	if len(paths) > i.maxPaths {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyPaths, len(paths), i.maxPaths)
	}

	results := make([]Result, 0, len(paths))
	for _, p := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		results = append(results, i.inspect(p))
	}

	i.logger.Info().Str("request_id", requestID).Int("paths", len(paths)).Msg("Inspection completed")
	return results, nil
}

func (i *Inspector) inspect(raw string) Result {
	res := Result{Path: raw, DamageTypes: []string{}}

	clean := filepath.Clean(raw)
	if !filepath.IsAbs(clean) || !i.within(clean) {
		res.Error = msgOutsideShared
		return res
	}

	resolved, err := filepath.EvalSymlinks(clean)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			res.Error = msgNotFound
		} else {
			res.Error = msgUnreadable
		}
		return res
	}
	if !i.within(resolved) {
		res.Error = msgOutsideShared
		return res
	}

	if err := decodable(resolved); err != nil {
		i.logger.Debug().Err(err).Str("path", clean).Msg("Unreadable image")
		res.Error = msgUnreadable
		return res
	}

	res.DamageTypes = i.pickLabels()
	if len(res.DamageTypes) == 0 {
		res.Error = msgNoDamage
		return res
	}

	res.OK = true
	return res
}

// within accepts paths under the shared directory as configured or under its
// symlink-free form.
func (i *Inspector) within(path string) bool {
	return under(i.sharedDir, path) || under(i.rawDir, path)
}

func under(root, path string) bool {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

func decodable(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	_, _, err = image.DecodeConfig(f)
	return err
}

// pickLabels draws each known label independently with even odds.
func (i *Inspector) pickLabels() []string {
	i.mu.Lock()
	defer i.mu.Unlock()

	labels := []string{}
	for _, l := range domain.DamageLabels {
		if i.rng.Intn(2) == 1 {
			labels = append(labels, l)
		}
	}
	return labels
}
