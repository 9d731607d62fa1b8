package releases

import (
	"context"
	"fmt"
	"log/slog"

	"Pfrastro/internal/core/content"
	"Pfrastro/internal/metrics"
)

// DefaultPrimaryAssetExt picks the Windows installer as a program's download link
const DefaultPrimaryAssetExt = ".exe"

type programSyncer struct {
	programs   content.ProgramRepository
	logger     *slog.Logger
	primaryExt string
}

// NewProgramSyncer creates a syncer that writes release data into programs.
// primaryExt selects the primary asset; "" uses DefaultPrimaryAssetExt.
func NewProgramSyncer(programs content.ProgramRepository, primaryExt string, logger *slog.Logger) ProgramSyncer {
	if primaryExt == "" {
		primaryExt = DefaultPrimaryAssetExt
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &programSyncer{
		programs:   programs,
		primaryExt: primaryExt,
		logger:     logger,
	}
}

// Sync updates latest_version and download_link of the program whose
// github_repo matches repo case-insensitively, only when either differs.
// Counters are never written here.
func (s *programSyncer) Sync(ctx context.Context, repo string, release *Release) (SyncOutcome, error) {
	if release == nil {
		return SyncOutcome{}, nil
	}

	program, err := s.programs.FindByGitHubRepo(ctx, repo)
	if err != nil {
		if content.IsNotFound(err) {
			s.logger.Debug("[GITHUB-RELEASE] no program references repository", "repo", repo)
			return SyncOutcome{}, nil
		}
		return SyncOutcome{}, fmt.Errorf("failed to find program for %s: %w", repo, err)
	}

	downloadLink := release.PrimaryDownloadURL(s.primaryExt)

	if program.LatestVersion == release.TagName && program.DownloadLink == downloadLink {
		s.logger.Debug("[GITHUB-RELEASE] program already up to date",
			"program", program.Name,
			"tag", release.TagName,
		)
		return SyncOutcome{Matched: true}, nil
	}

	if _, err := s.programs.UpdateRelease(ctx, program.DocumentID, release.TagName, downloadLink); err != nil {
		return SyncOutcome{Matched: true}, fmt.Errorf("failed to update program %s: %w", program.DocumentID, err)
	}

	metrics.ProgramSyncWrites.Inc()
	s.logger.Info("[GITHUB-RELEASE] updated program with release",
		"program", program.Name,
		"previous_version", program.LatestVersion,
		"tag", release.TagName,
	)

	return SyncOutcome{Matched: true, Updated: true}, nil
}
