package session

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"buildcheck/internal/domain"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func testLogger() *zlog.Zerolog {
	zlog.Init()
	return &zlog.Logger
}

func TestFactoryFile(t *testing.T) {
	store, err := New(Config{Driver: DriverFile, Path: filepath.Join(t.TempDir(), "s.json")}, testLogger())
	require.NoError(t, err)
	defer store.Close()
}

func TestFactoryRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	store, err := New(Config{Driver: DriverRedis, Redis: RedisConfig{Addr: mr.Addr(), Prefix: "bc:"}}, testLogger())
	require.NoError(t, err)
	defer store.Close()
}

func TestFactoryUnsupported(t *testing.T) {
	_, err := New(Config{Driver: "memcached"}, testLogger())
	require.ErrorIs(t, err, ErrUnsupportedDriver)
}

func TestFileStoreLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	store, err := NewFile(path, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.AdminSession{ID: "abc", ExpiresAt: time.Now().Add(time.Hour)}))

	ok, err := store.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Valid(ctx, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	reopened, err := NewFile(path, testLogger())
	require.NoError(t, err)
	ok, err = reopened.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok, "sessions survive a restart")

	require.NoError(t, reopened.Delete(ctx, "abc"))
	ok, err = reopened.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFileStoreExpiry(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	store, err := NewFile(path, testLogger())
	require.NoError(t, err)
	fs := store.(*fileStore)

	now := time.Unix(1_700_000_000, 0)
	fs.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.AdminSession{ID: "abc", ExpiresAt: now.Add(domain.AdminSessionTTL)}))

	now = now.Add(domain.AdminSessionTTL - time.Second)
	ok, err := store.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(time.Second)
	ok, err = store.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `{}`, string(raw))
}

func TestFileStoreIgnoresNonIntegerEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.json")
	far := time.Now().Add(time.Hour).Unix()
	require.NoError(t, os.WriteFile(path, []byte(fmt.Sprintf(`{"good":%d,"bad":"x","frac":1.5}`, far)), 0o600))

	store, err := NewFile(path, testLogger())
	require.NoError(t, err)
	ctx := context.Background()

	ok, _ := store.Valid(ctx, "good")
	assert.True(t, ok)
	ok, _ = store.Valid(ctx, "bad")
	assert.False(t, ok)
	ok, _ = store.Valid(ctx, "frac")
	assert.False(t, ok)
}

func TestRedisStoreLifecycle(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := NewRedis(RedisConfig{Addr: mr.Addr(), Prefix: "bc:"})
	require.NoError(t, err)
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Create(ctx, domain.AdminSession{ID: "abc", ExpiresAt: time.Now().Add(time.Hour)}))
	assert.True(t, mr.Exists("bc:admin_session:abc"))

	ok, err := store.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.True(t, ok)

	mr.FastForward(2 * time.Hour)
	ok, err = store.Valid(ctx, "abc")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Create(ctx, domain.AdminSession{ID: "def", ExpiresAt: time.Now().Add(time.Hour)}))
	require.NoError(t, store.Delete(ctx, "def"))
	ok, err = store.Valid(ctx, "def")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestRedisUnavailable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := NewRedis(RedisConfig{Addr: addr})
	require.Error(t, err)
}
