package engine

import (
	"testing"

	"buildcheck/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wb-go/wbf/zlog"
)

func TestNewAppRefusesWithoutOptIn(t *testing.T) {
	zlog.Init()
	_, err := NewApp(&config.EngineConfig{SharedTmp: t.TempDir(), MaxPaths: 10}, &zlog.Logger)
	assert.ErrorIs(t, err, ErrStubDisabled)
}

func TestNewAppRejectsUnknownRateLimitBackend(t *testing.T) {
	zlog.Init()
	_, err := NewApp(&config.EngineConfig{
		AllowStub:        true,
		SharedTmp:        t.TempDir(),
		MaxPaths:         10,
		RateLimitRPM:     5,
		RateLimitBackend: "memcached://localhost",
	}, &zlog.Logger)
	require.Error(t, err)
}

func TestNewAppWithMemoryLimiter(t *testing.T) {
	zlog.Init()
	a, err := NewApp(&config.EngineConfig{
		Addr:             "0",
		AllowStub:        true,
		SharedTmp:        t.TempDir(),
		MaxPaths:         10,
		RateLimitRPM:     5,
		RateLimitBackend: "memory",
		Seed:             7,
	}, &zlog.Logger)
	require.NoError(t, err)
	require.NotNil(t, a.limiter)
	a.closeLimiter()
}
