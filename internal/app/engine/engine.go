package engine

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"buildcheck/internal/config"
	engine_h "buildcheck/internal/http-server/handler/engine"
	"buildcheck/internal/http-server/router"
	"buildcheck/internal/ratelimit"
	"buildcheck/internal/usecase/inspector"

	"github.com/wb-go/wbf/zlog"
)

var ErrStubDisabled = errors.New("stub runtime is disabled by default; set ENGINE_ALLOW_STUB=true to run it")

type App struct {
	cfg     *config.EngineConfig
	server  *http.Server
	limiter ratelimit.Limiter
	logger  *zlog.Zerolog
}

func NewApp(cfg *config.EngineConfig, logger *zlog.Zerolog) (*App, error) {
	if !cfg.AllowStub {
		return nil, ErrStubDisabled
	}

	if err := os.MkdirAll(cfg.SharedTmp, 0o755); err != nil {
		return nil, fmt.Errorf("failed to prepare shared directory: %w", err)
	}

	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	insp, err := inspector.NewInspector(cfg.SharedTmp, cfg.MaxPaths, rand.New(rand.NewSource(seed)), logger)
	if err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, logger: logger}

	if cfg.RateLimitRPM > 0 {
		limiter, err := ratelimit.New(cfg.RateLimitBackend, cfg.RateLimitRPM)
		if err != nil {
			return nil, fmt.Errorf("failed to create rate limiter: %w", err)
		}
		a.limiter = limiter
	}

	// A nil Limiter converts to a nil interface, which disables limiting.
	handler := engine_h.NewEngineHandler(insp, a.limiter, cfg.APIKey, logger)

	a.server = &http.Server{
		Addr:              ":" + cfg.Addr,
		Handler:           router.SetupEngineRouter(handler),
		ReadHeaderTimeout: 10 * time.Second,
	}

	if cfg.APIKey == "" {
		logger.Warn().Msg("ENGINE_API_KEY is not set; analyze requests are not authenticated")
	}

	return a, nil
}

func (a *App) Run() error {
	a.logger.Info().
		Str("addr", a.cfg.Addr).
		Str("shared_tmp", a.cfg.SharedTmp).
		Int("max_paths", a.cfg.MaxPaths).
		Int("rate_limit_rpm", a.cfg.RateLimitRPM).
		Msg("Starting stub engine")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	serverErr := make(chan error, 1)
	go func() {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		a.logger.Error().Err(err).Msg("Server error")
		a.closeLimiter()
		return err
	case <-ctx.Done():
		a.logger.Info().Msg("Shutting down stub engine")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}
		a.closeLimiter()

		a.logger.Info().Msg("Stub engine stopped gracefully")
		return nil
	}
}

func (a *App) closeLimiter() {
	if a.limiter == nil {
		return
	}
	if err := a.limiter.Close(); err != nil {
		a.logger.Warn().Err(err).Msg("Failed to close rate limiter")
	}
}
