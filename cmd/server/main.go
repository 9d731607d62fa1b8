package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"golang.org/x/sync/errgroup"

	"Pfrastro/internal/api/routes"
	"Pfrastro/internal/config"
	"Pfrastro/internal/core/content"
	"Pfrastro/internal/core/objectstore"
	"Pfrastro/internal/core/releases"
	"Pfrastro/internal/core/signedurl"
	"Pfrastro/internal/core/ttlcache"
	"Pfrastro/internal/db/migrations"
	postgresRepo "Pfrastro/internal/db/postgres"
)

const shutdownTimeout = 15 * time.Second

func main() {
	bootstrap := slog.New(slog.NewJSONHandler(os.Stderr, nil))

	cfg, err := config.Load(bootstrap)
	if err != nil {
		bootstrap.Error("[SERVER] failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := cfg.Logging.NewLogger(os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("[SERVER] exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.RequireDatabase(); err != nil {
		return err
	}
	if err := cfg.RequireStorage(); err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()
	logger.Info("[SERVER] connected to database")

	if err := migrations.Up(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	logger.Info("[SERVER] migrations completed")

	store, err := objectstore.NewClient(objectstore.Config{
		AccessKeyID:     cfg.Storage.AccessKeyID,
		SecretAccessKey: cfg.Storage.SecretAccessKey,
		Region:          cfg.Storage.Region,
		Endpoint:        cfg.Storage.Endpoint,
		Bucket:          cfg.Storage.Bucket,
	}, objectstore.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("failed to create object store client: %w", err)
	}

	// Caches live for the lifetime of the process and are shared by every request.
	// Release entries are never purged so they stay available as stale data.
	signedURLCache := ttlcache.New[string]("signed_url",
		ttlcache.WithSweepEvery(cfg.Cache.SweepEvery),
		ttlcache.WithLogger(logger),
	)
	releaseCache := releases.NewCache(ttlcache.WithLogger(logger))

	if interval := cfg.Cache.SweepInterval(); interval > 0 {
		stopSweep := signedURLCache.StartSweeper(interval)
		defer stopSweep()
	}

	signer, err := signedurl.NewService(store, signedURLCache, store.Bucket(), cfg.Storage.SignedURLExpiry(),
		signedurl.WithLogger(logger))
	if err != nil {
		return err
	}

	programRepo := postgresRepo.NewProgramRepository(db)
	postRepo := postgresRepo.NewPostRepository(db)
	portfolioRepo := postgresRepo.NewPortfolioRepository(db)

	github := releases.NewGitHubClient(
		releases.WithBaseURL(cfg.GitHub.APIURL),
		releases.WithToken(cfg.GitHub.Token),
		releases.WithTimeout(cfg.GitHub.Timeout()),
		releases.WithClientLogger(logger),
	)
	releaseService, err := releases.NewService(github, releaseCache,
		releases.WithOwner(cfg.GitHub.Owner),
		releases.WithCacheTTL(cfg.GitHub.CacheTTL()),
		releases.WithProgramSyncer(releases.NewProgramSyncer(programRepo, cfg.GitHub.PrimaryAssetExt, logger)),
		releases.WithLogger(logger),
	)
	if err != nil {
		return err
	}

	counterService := content.NewCounterService(programRepo, postRepo, portfolioRepo, logger)
	programService := content.NewProgramService(programRepo,
		content.WithReleaseSyncer(releaseService),
		content.WithProgramLogger(logger),
	)

	router := routes.NewRouter(routes.RouterConfig{
		CORSOrigins:              cfg.Server.CORSOrigins,
		RateLimitRequests:        cfg.Server.RateLimitRequests,
		RateLimitWindow:          cfg.Server.RateLimitWindow(),
		CounterRateLimitRequests: cfg.Server.CounterRateLimitRequests,
	}, routes.Services{
		Releases:  releaseService,
		SignedURL: signer,
		Counters:  counterService,
		Programs:  programService,
	})

	server := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("[SERVER] listening",
			"port", cfg.Server.Port,
			"bucket", store.Bucket(),
			"github_owner", releaseService.Owner(),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("[SERVER] shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func openDatabase(ctx context.Context, cfg config.DatabaseConfig) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxOpenConns)
	db.SetConnMaxIdleTime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
