package config

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// EngineConfig configures the stub analysis engine used for end-to-end runs.
type EngineConfig struct {
	Addr             string        `yaml:"addr" env:"ENGINE_PORT" env-default:"9090" validate:"required,numeric"`
	APIKey           string        `yaml:"api_key" env:"ENGINE_API_KEY" validate:"omitempty,min=16"`
	AllowStub        bool          `yaml:"allow_stub" env:"ENGINE_ALLOW_STUB" env-default:"false"`
	MaxPaths         int           `yaml:"max_paths" env:"ENGINE_MAX_PATHS" env-default:"100" validate:"min=1"`
	RateLimitRPM     int           `yaml:"rate_limit_rpm" env:"ENGINE_RATE_LIMIT_RPM" env-default:"60" validate:"min=0"`
	RateLimitBackend string        `yaml:"rate_limit_backend" env:"ENGINE_RATE_LIMIT_BACKEND" env-default:"memory"`
	SharedTmp        string        `yaml:"shared_tmp" env:"BUILDCHECK_SHARED_TMP"`
	Seed             int64         `yaml:"seed" env:"ENGINE_STUB_SEED" env-default:"0"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout" env:"SERVER_SHUTDOWN_TIMEOUT" env-default:"10s"`
}

func MustLoadEngine() (*EngineConfig, error) {
	var cfg EngineConfig
	if err := read(&cfg); err != nil {
		return nil, err
	}

	cfg.SharedTmp = sharedTmpDir(cfg.SharedTmp)

	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("invalid engine config: %w", err)
	}

	return &cfg, nil
}
