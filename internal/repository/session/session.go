package session

import (
	"context"
	"errors"
	"fmt"

	"buildcheck/internal/domain"

	"github.com/wb-go/wbf/zlog"
)

const (
	DriverFile  = "file"
	DriverRedis = "redis"
)

var (
	ErrPersist           = errors.New("failed to persist admin session")
	ErrUnsupportedDriver = errors.New("unsupported session store driver")
)

type Store interface {
	Create(ctx context.Context, s domain.AdminSession) error
	Valid(ctx context.Context, id string) (bool, error)
	Delete(ctx context.Context, id string) error
	Close() error
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

type Config struct {
	Driver string
	Path   string
	Redis  RedisConfig
}

func New(cfg Config, logger *zlog.Zerolog) (Store, error) {
	driver := cfg.Driver
	if driver == "" {
		driver = DriverFile
	}

	switch driver {
	case DriverFile:
		return NewFile(cfg.Path, logger)
	case DriverRedis:
		return NewRedis(cfg.Redis)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedDriver, driver)
	}
}
