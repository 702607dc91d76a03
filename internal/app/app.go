package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"buildcheck/internal/broker"
	kafka_impl "buildcheck/internal/broker/kafka"
	"buildcheck/internal/client/engine"
	"buildcheck/internal/config"
	"buildcheck/internal/domain"
	analyze_h "buildcheck/internal/http-server/handler/analyze"
	contact_h "buildcheck/internal/http-server/handler/contact"
	"buildcheck/internal/http-server/router"
	minio_repo "buildcheck/internal/repository/archive/minio"
	contact_file "buildcheck/internal/repository/contact/file"
	contact_pg "buildcheck/internal/repository/contact/postgres"
	"buildcheck/internal/repository/session"
	"buildcheck/internal/repository/staging"
	analyze_uc "buildcheck/internal/usecase/analyze"
	contact_uc "buildcheck/internal/usecase/contact"
	"buildcheck/internal/usecase/preview"
	"buildcheck/internal/worker"

	"github.com/wb-go/wbf/dbpg"
	"github.com/wb-go/wbf/zlog"
	"golang.org/x/sync/errgroup"
)

type contactStore interface {
	Add(ctx context.Context, entry domain.ContactEntry) error
	List(ctx context.Context) ([]domain.ContactEntry, error)
	Close() error
}

type closer struct {
	name  string
	close func() error
}

type App struct {
	cfg     *config.Config
	server  *http.Server
	logger  *zlog.Zerolog
	analyze *analyze_uc.AnalyzeUsecase
	janitor *worker.Janitor
	closers []closer
}

func NewApp(cfg *config.Config, logger *zlog.Zerolog) (*App, error) {
	a := &App{cfg: cfg, logger: logger}
	retries := cfg.DefaultRetryStrategy()

	store, err := staging.NewStore(cfg.Staging.Dir, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare staging directory: %w", err)
	}

	client := engine.NewClient(cfg.EngineBaseURL(), cfg.Engine.APIKey, cfg.Engine.Timeout)

	var events *broker.EventPublisher
	if len(cfg.Kafka.Brokers) > 0 {
		events = broker.NewEventPublisher(kafka_impl.NewProducerClient(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic), retries)
		a.closers = append(a.closers, closer{name: "kafka producer", close: events.Close})
		logger.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.EventsTopic).Msg("Analysis events enabled")
	}

	var archive *minio_repo.SampleRepository
	if cfg.Archive.Enabled {
		mc, err := minio_repo.NewClient(context.Background(), cfg.Archive.Endpoint, cfg.Archive.AccessKey,
			cfg.Archive.SecretKey, cfg.Archive.Bucket, cfg.Archive.UseSSL)
		if err != nil {
			a.close()
			return nil, fmt.Errorf("failed to create sample archive: %w", err)
		}
		archive = minio_repo.NewSampleRepository(mc, cfg.Archive.Bucket, retries)
		if cfg.Archive.Previews {
			renderer, err := preview.NewRenderer(cfg.Archive.PreviewSize, preview.DefaultQuality)
			if err != nil {
				a.close()
				return nil, fmt.Errorf("failed to create preview renderer: %w", err)
			}
			archive.WithPreviews(renderer)
		}
		logger.Info().Str("bucket", cfg.Archive.Bucket).Bool("previews", cfg.Archive.Previews).Msg("Sample archive enabled")
	}

	a.analyze = newAnalyzeUsecase(store, client, events, archive, logger, cfg.Upload.MaxFiles)
	a.janitor = worker.NewJanitor(store, cfg.Staging.MaxAge, cfg.Staging.SweepInterval, logger)

	contacts, err := a.newContactStore()
	if err != nil {
		a.close()
		return nil, err
	}
	a.closers = append(a.closers, closer{name: "contact store", close: contacts.Close})

	sessions, err := session.New(session.Config{
		Driver: cfg.Session.Driver,
		Path:   cfg.Session.DBPath,
		Redis: session.RedisConfig{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		},
	}, logger)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("failed to create session store: %w", err)
	}
	a.closers = append(a.closers, closer{name: "session store", close: sessions.Close})

	contactUsecase := contact_uc.NewContactUsecase(contacts, logger)
	adminAuth := contact_uc.NewAdminAuth(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.Token, sessions, logger)

	h := &router.Handler{
		AnalyzeHandler: analyze_h.NewAnalyzeHandler(a.analyze, logger, analyze_h.Options{
			PayloadMaxBytes:    cfg.Upload.PayloadMaxBytes,
			MultipartMaxMemory: cfg.Upload.MultipartMaxMemory,
			TrustProxyHeaders:  cfg.Upload.TrustProxyHeaders,
		}),
		ContactHandler: contact_h.NewContactHandler(contactUsecase, logger),
		AdminHandler: contact_h.NewAdminHandler(contactUsecase, adminAuth, logger, contact_h.AdminOptions{
			AllowedOrigins: cfg.Admin.AllowedOrigins,
			CookieSecure:   cfg.Admin.CookieSecure,
		}),
	}

	a.server = &http.Server{
		Addr:         ":" + cfg.Server.Addr,
		Handler:      router.SetupRouter(h),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	if !adminAuth.Configured() {
		logger.Warn().Msg("Admin access is not configured; admin endpoints will answer 503")
	}

	return a, nil
}

// newAnalyzeUsecase keeps typed nil side channels from turning into non-nil
// interfaces.
func newAnalyzeUsecase(store *staging.Store, client *engine.Client, events *broker.EventPublisher,
	archive *minio_repo.SampleRepository, logger *zlog.Zerolog, maxFiles int) *analyze_uc.AnalyzeUsecase {
	switch {
	case events != nil && archive != nil:
		return analyze_uc.NewAnalyzeUsecase(store, client, events, archive, logger, maxFiles)
	case events != nil:
		return analyze_uc.NewAnalyzeUsecase(store, client, events, nil, logger, maxFiles)
	case archive != nil:
		return analyze_uc.NewAnalyzeUsecase(store, client, nil, archive, logger, maxFiles)
	default:
		return analyze_uc.NewAnalyzeUsecase(store, client, nil, nil, logger, maxFiles)
	}
}

func (a *App) newContactStore() (contactStore, error) {
	switch a.cfg.Contact.Driver {
	case "postgres":
		db, err := dbpg.New(a.cfg.DBDSN(), []string{}, &dbpg.Options{
			MaxOpenConns:    a.cfg.DB.MaxOpenConns,
			MaxIdleConns:    a.cfg.DB.MaxIdleConns,
			ConnMaxLifetime: a.cfg.DB.ConnMaxLifetime,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to connect to database: %w", err)
		}

		repo := contact_pg.NewContactRepository(db, a.cfg.DefaultRetryStrategy(), domain.MaxContactEntries)
		if err := repo.Migrate(context.Background()); err != nil {
			_ = repo.Close()
			return nil, fmt.Errorf("failed to migrate contact table: %w", err)
		}
		return repo, nil
	default:
		repo, err := contact_file.NewContactRepository(a.cfg.Contact.DBPath, domain.MaxContactEntries, a.logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open contact store: %w", err)
		}
		return repo, nil
	}
}

func (a *App) Run() error {
	a.logger.Info().
		Str("addr", a.cfg.Server.Addr).
		Str("engine", a.cfg.EngineBaseURL()).
		Str("shared_tmp", a.cfg.Staging.Dir).
		Msg("Starting server")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return a.janitor.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info().Msg("Shutting down server")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error().Err(err).Msg("Server shutdown failed")
		}
		return nil
	})

	err := g.Wait()

	a.analyze.Wait()
	a.close()

	if err != nil {
		a.logger.Error().Err(err).Msg("Server stopped with error")
		return err
	}
	a.logger.Info().Msg("Server stopped gracefully")
	return nil
}

func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		c := a.closers[i]
		if err := c.close(); err != nil {
			a.logger.Warn().Err(err).Str("component", c.name).Msg("Failed to close")
		}
	}
	a.closers = nil
}
