package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMustLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("BUILDCHECK_SHARED_TMP", "")

	cfg, err := MustLoad()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Server.Addr)
	assert.Equal(t, "http://127.0.0.1:9090", cfg.EngineBaseURL())
	assert.Equal(t, 60*time.Second, cfg.Engine.Timeout)
	assert.Equal(t, 20, cfg.Upload.MaxFiles)
	assert.Equal(t, filepath.Join(os.TempDir(), "buildcheck"), cfg.Staging.Dir)
	assert.Equal(t, filepath.Join(cfg.Staging.Dir, "contact_submissions.json"), cfg.Contact.DBPath)
	assert.Equal(t, cfg.Contact.DBPath+".sessions.json", cfg.Session.DBPath)
	assert.Len(t, cfg.Admin.AllowedOrigins, 4)
	assert.False(t, cfg.AdminCredentialsConfigured())
	assert.False(t, cfg.Archive.Enabled)
	assert.True(t, cfg.Archive.Previews)
	assert.Equal(t, 256, cfg.Archive.PreviewSize)
}

func TestMustLoadFromEnv(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("API_PORT", "8181")
	t.Setenv("BUILDCHECK_SHARED_TMP", dir)
	t.Setenv("BUILDCHECK_MAX_FILES", "50")
	t.Setenv("BUILDCHECK_ADMIN_USERNAME", "  admin ")
	t.Setenv("BUILDCHECK_ADMIN_PASSWORD", "secret-password")
	t.Setenv("BUILDCHECK_ADMIN_ALLOWED_ORIGINS", "https://a.example,https://b.example")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := MustLoad()
	require.NoError(t, err)

	assert.Equal(t, "8181", cfg.Server.Addr)
	assert.Equal(t, dir, cfg.Staging.Dir)
	assert.Equal(t, 50, cfg.Upload.MaxFiles)
	assert.Equal(t, "admin", cfg.Admin.Username)
	assert.True(t, cfg.AdminCredentialsConfigured())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Admin.AllowedOrigins)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestMustLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name string
		key  string
		val  string
	}{
		{name: "file ceiling above hard cap", key: "BUILDCHECK_MAX_FILES", val: "101"},
		{name: "weak engine key", key: "ENGINE_API_KEY", val: "short"},
		{name: "unknown contact driver", key: "CONTACT_STORE_DRIVER", val: "mongo"},
		{name: "unknown session driver", key: "SESSION_STORE_DRIVER", val: "memcached"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("CONFIG_PATH", "")
			t.Setenv(tt.key, tt.val)

			_, err := MustLoad()
			assert.Error(t, err)
		})
	}
}

func TestMustLoadEngine(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Setenv("ENGINE_RATE_LIMIT_BACKEND", "redis://localhost:6379/0")
	t.Setenv("ENGINE_ALLOW_STUB", "true")

	cfg, err := MustLoadEngine()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Addr)
	assert.True(t, cfg.AllowStub)
	assert.Equal(t, 60, cfg.RateLimitRPM)
	assert.Equal(t, "redis://localhost:6379/0", cfg.RateLimitBackend)
	assert.NotEmpty(t, cfg.SharedTmp)
}
