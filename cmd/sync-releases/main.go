// Command sync-releases fetches the latest GitHub release of every program
// that references a repository and writes the version and download link back
// to the program. It is the batch counterpart of GET /api/programs?syncGithub=true.
//
// Usage:
//
//	go run ./cmd/sync-releases [-repo AstroStack] [-dry-run]
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	_ "github.com/lib/pq"

	"Pfrastro/internal/config"
	"Pfrastro/internal/core/content"
	"Pfrastro/internal/core/releases"
	"Pfrastro/internal/core/ttlcache"
	"Pfrastro/internal/db/migrations"
	postgresRepo "Pfrastro/internal/db/postgres"
)

// summary counts what a sync run did
type summary struct {
	checked int
	updated int
	skipped int
	failed  int
}

func main() {
	repoFilter := flag.String("repo", "", "only sync the program referencing this repository")
	dryRun := flag.Bool("dry-run", false, "fetch releases without writing to the database")
	flag.Parse()

	cfg, err := config.Load(nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logger := cfg.Logging.NewLogger(os.Stderr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sum, err := run(ctx, cfg, logger, *repoFilter, *dryRun)
	if err != nil {
		logger.Error("[SYNC-RELEASES] failed", "error", err)
		os.Exit(1)
	}

	logger.Info("[SYNC-RELEASES] done",
		"checked", sum.checked,
		"updated", sum.updated,
		"skipped", sum.skipped,
		"failed", sum.failed,
	)
	if sum.failed > 0 {
		os.Exit(2)
	}
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger, repoFilter string, dryRun bool) (summary, error) {
	if err := cfg.RequireDatabase(); err != nil {
		return summary{}, err
	}

	db, err := sql.Open("postgres", cfg.Database.DSN())
	if err != nil {
		return summary{}, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()
	db.SetMaxOpenConns(cfg.Database.MaxOpenConns)

	if err := migrations.Up(db); err != nil {
		return summary{}, fmt.Errorf("failed to run migrations: %w", err)
	}

	programs := postgresRepo.NewProgramRepository(db)

	opts := []releases.ServiceOption{
		releases.WithOwner(cfg.GitHub.Owner),
		releases.WithCacheTTL(cfg.GitHub.CacheTTL()),
		releases.WithLogger(logger),
	}
	if !dryRun {
		opts = append(opts, releases.WithProgramSyncer(
			releases.NewProgramSyncer(programs, cfg.GitHub.PrimaryAssetExt, logger)))
	}

	github := releases.NewGitHubClient(
		releases.WithBaseURL(cfg.GitHub.APIURL),
		releases.WithToken(cfg.GitHub.Token),
		releases.WithTimeout(cfg.GitHub.Timeout()),
		releases.WithClientLogger(logger),
	)
	service, err := releases.NewService(github, ttlcache.New[*releases.Release]("github_release"), opts...)
	if err != nil {
		return summary{}, err
	}

	list, err := programs.List(ctx)
	if err != nil {
		return summary{}, err
	}

	return syncPrograms(ctx, service, list, repoFilter, cfg.GitHub.PrimaryAssetExt, logger), nil
}

// releaseFetcher is the part of releases.Service the sync loop needs
type releaseFetcher interface {
	Latest(ctx context.Context, repo string) (*releases.Result, error)
}

func syncPrograms(ctx context.Context, service releaseFetcher, programs []*content.Program, repoFilter, primaryExt string, logger *slog.Logger) summary {
	var sum summary
	seen := make(map[string]bool)

	for _, p := range programs {
		if ctx.Err() != nil {
			break
		}

		repo := strings.TrimSpace(p.GitHubRepo)
		if repo == "" {
			continue
		}
		if repoFilter != "" && !strings.EqualFold(repo, repoFilter) {
			continue
		}
		// Several programs may share a repository; the sync only ever updates the first
		key := strings.ToLower(repo)
		if seen[key] {
			sum.skipped++
			continue
		}
		seen[key] = true
		sum.checked++

		result, err := service.Latest(ctx, repo)
		if err != nil {
			sum.failed++
			level := slog.LevelError
			if errors.Is(err, releases.ErrReleaseNotFound) {
				level = slog.LevelWarn
			}
			logger.Log(ctx, level, "[SYNC-RELEASES] failed to fetch release",
				"program", p.Name,
				"repo", repo,
				"error", err,
			)
			continue
		}

		if result.Sync.Updated {
			sum.updated++
		}
		logger.Info("[SYNC-RELEASES] checked program",
			"program", p.Name,
			"repo", repo,
			"stored_version", p.LatestVersion,
			"latest_version", result.Release.TagName,
			"download_link", result.Release.PrimaryDownloadURL(primaryExt),
			"updated", result.Sync.Updated,
		)
	}

	return sum
}
