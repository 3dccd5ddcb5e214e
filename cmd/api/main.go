package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"formatwave/internal/adapters/codec"
	"formatwave/internal/adapters/eventbroker/nats"
	"formatwave/internal/adapters/handlers/http/chi"
	"formatwave/internal/adapters/handlers/http/chi/v1/conversion"
	"formatwave/internal/adapters/repository/memory"
	"formatwave/internal/adapters/repository/postgres"
	"formatwave/internal/adapters/storage/local"
	"formatwave/internal/adapters/storage/minio"
	"formatwave/internal/config"
	"formatwave/internal/core/port"
	"formatwave/internal/core/service/cleanup"
	conversionservice "formatwave/internal/core/service/conversion"
	"formatwave/internal/core/service/dispatch"
	"formatwave/internal/core/service/intake"
	"formatwave/internal/core/service/packager"
	"formatwave/internal/core/service/registry"
	"formatwave/internal/core/service/session"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"sync"
	"syscall"
	"time"

	_ "github.com/joho/godotenv/autoload"
	_ "github.com/lib/pq"
)

// multipartOverhead covers boundaries and form fields on top of the file bytes of a batch
const multipartOverhead = 1 << 20

const (
	readHeaderTimeout = 10 * time.Second
	// writeTimeoutMargin leaves the router timeout room to answer before the connection is cut
	writeTimeoutMargin = 5 * time.Second
)

func main() {

	ctx, stop := signal.NotifyContext(
		context.Background(),
		os.Interrupt,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := newLogger(cfg.Env.Env)

	//storage
	storage, err := initStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to init storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}

	//repositories
	var repo port.SessionRepository = memory.NewSessionRepository()
	if cfg.Database.Enabled {
		db, err := initDB(cfg.Database)
		if err != nil {
			logger.Error("failed to init database", "error", err)
			os.Exit(1)
		}
		defer func(db *sql.DB) {
			if err := db.Close(); err != nil {
				logger.Error("failed to close database", "error", err)
			}
		}(db)
		logger.Info("db connection established")
		repo = postgres.NewSQLSessionRepository(db)
	}

	//events
	var publisher port.EventPublisher
	if cfg.NATS.Enabled {
		natsPublisher, err := nats.NewNATSPublisher(ctx, cfg.NATS, logger)
		if err != nil {
			logger.Error("failed to init nats", "error", err)
			os.Exit(1)
		}
		defer func() {
			if err := natsPublisher.Close(); err != nil {
				logger.Error("failed to close nats", "error", err)
			}
		}()
		publisher = natsPublisher
	}

	workers := cfg.Conversion.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if budget := cfg.Conversion.WorstCaseBatch(workers); budget > cfg.Server.RequestTimeout {
		logger.Warn("a full batch of slow files can outlive the request timeout",
			"worst_case_batch", budget,
			"request_timeout", cfg.Server.RequestTimeout,
			"workers", workers,
		)
	}

	//services
	binding := codec.NewDefaultBinding(codec.Options{PDFDPI: cfg.Conversion.PDFDPI})
	conversionRegistry, err := registry.New(registry.DefaultCatalog(), binding)
	if err != nil {
		logger.Error("failed to build conversion registry", "error", err)
		os.Exit(1)
	}

	intakeService := intake.NewIntakeService(conversionRegistry, cfg.Conversion.WorkDir, intake.Limits{
		MaxFiles:      cfg.Conversion.MaxFiles,
		MaxFileBytes:  cfg.Conversion.MaxFileBytes,
		MaxBatchBytes: cfg.Conversion.MaxBatchBytes,
	}, logger)
	dispatcher := dispatch.NewDispatcher(conversionRegistry, storage, dispatch.Options{
		Workers:     workers,
		FileTimeout: cfg.Conversion.FileTimeout,
	}, logger)
	sessionService := session.NewSessionService(repo, storage, publisher, cfg.Conversion.SessionTTL, logger)
	packagerService := packager.NewPackagerService(sessionService, storage, logger)
	conversionService := conversionservice.NewConversionService(conversionRegistry, intakeService, dispatcher, sessionService, storage, logger)
	cleanupService := cleanup.NewCleanupService(repo, sessionService, cleanup.Options{
		PurgeGrace:         cfg.Conversion.PurgeGrace,
		TombstoneRetention: cfg.Conversion.TombstoneRetention,
	}, logger)

	//http
	conversionHandler := conversion.NewConversionHandlerV1(conversionService, packagerService, logger)

	router := chi.NewRouter(logger, conversionHandler, cfg.Env.Env, chi.Options{
		RequestTimeout:  cfg.Server.RequestTimeout,
		MaxRequestBytes: cfg.Conversion.MaxBatchBytes + multipartOverhead,
	})
	server := &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: readHeaderTimeout,
		ReadTimeout:       cfg.Server.RequestTimeout,
		WriteTimeout:      cfg.Server.RequestTimeout + writeTimeoutMargin,
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		logger.Info("starting server", "host", cfg.Server.Host, "port", cfg.Server.Port)
		servErr := server.ListenAndServe()
		if servErr != nil && !errors.Is(servErr, http.ErrServerClosed) {
			logger.Error("failed to start server", "error", servErr)
			stop()
		}
	}()

	// init cleanup task
	wg.Add(1)
	go func() {
		defer wg.Done()
		initCleanupTask(ctx, cleanupService, cfg.Conversion.CleanupEvery, logger)
	}()

	//wait for context cancel
	<-ctx.Done()
	logger.Info("gracefully shutting down app")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("failed to shutdown server", "error", err)
	} else {
		logger.Info("server gracefully shutdown complete")
	}

	wg.Wait()
	logger.Info("app shutdown complete")

}

func newLogger(env string) *slog.Logger {
	if env == "prod" {
		return slog.New(slog.NewJSONHandler(os.Stdout, nil))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

func initStorage(ctx context.Context, cfg *config.Config, logger *slog.Logger) (port.ArtifactStorage, error) {
	switch cfg.Storage.Backend {
	case "local":
		return local.NewAdapter(cfg.Storage.LocalDir, logger)
	case "minio":
		return minio.NewAdapter(ctx, cfg.Minio, logger)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

func initDB(cfg config.DatabaseConfig) (*sql.DB, error) {

	dsn := fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host,
		cfg.Port,
		cfg.User,
		cfg.Password,
		cfg.Name,
		cfg.SSLMode,
	)
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxOpenCons)
	db.SetMaxIdleConns(cfg.MaxIdleCons)
	db.SetConnMaxLifetime(cfg.ConMaxLifeTime)

	return db, nil
}

func initCleanupTask(ctx context.Context, service port.CleanupService, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	logger.Info("cleanup task initialized", "interval", every)

	for {
		select {
		case <-ticker.C:
			err := service.CleanupExpiredSessions(ctx, time.Now())
			if err != nil {
				logger.Error("failed to cleanup expired sessions", "error", err)
			} else {
				logger.Debug("cleanup task completed")
			}
		case <-ctx.Done():
			logger.Info("cleanup task stopped")
			return
		}
	}

}
