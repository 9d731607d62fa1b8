// Package releases serves the latest GitHub release of the site's programs
// from a TTL cache, falls back to stale data when GitHub fails, and keeps the
// matching program record's version and download link in step with fresh
// releases.
package releases

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"Pfrastro/internal/core/ttlcache"
	"Pfrastro/internal/metrics"
)

const (
	// DefaultOwner owns every repository the site links to
	DefaultOwner = "englishfox90"

	// DefaultCacheTTL is how long a fetched release is served without refetching
	DefaultCacheTTL = time.Hour
)

// SyncOutcome reports what a program sync did.
type SyncOutcome struct {
	// Matched is true when a program references the repository
	Matched bool
	// Updated is true when the program's version or download link was written
	Updated bool
}

// ProgramSyncer propagates a freshly fetched release into the program that
// references the repository.
type ProgramSyncer interface {
	Sync(ctx context.Context, repo string, release *Release) (SyncOutcome, error)
}

// Result is a release together with how it was obtained
type Result struct {
	CachedAt  time.Time
	ExpiresAt time.Time
	Release   *Release
	Repo      string
	Warning   string // set when Stale
	Sync      SyncOutcome
	FromCache bool
	Stale     bool
}

// Service fetches and caches releases. Sync runs only after a fresh fetch, so
// a repository's program is written at most once per cache TTL window.
type Service struct {
	fetcher Fetcher
	cache   *ttlcache.Cache[*Release]
	syncer  ProgramSyncer
	logger  *slog.Logger
	owner   string
	ttl     time.Duration
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithOwner sets the GitHub account that owns the repositories
func WithOwner(owner string) ServiceOption {
	return func(s *Service) {
		if owner != "" {
			s.owner = owner
		}
	}
}

// WithCacheTTL sets how long fetched releases are cached
func WithCacheTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithProgramSyncer enables program sync after fresh fetches
func WithProgramSyncer(syncer ProgramSyncer) ServiceOption {
	return func(s *Service) {
		s.syncer = syncer
	}
}

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// NewCache creates the release cache. Expired releases are the stale fallback
// when GitHub fails, so put-triggered sweeps are disabled and entries are only
// ever replaced. Run no background sweeper against it either.
func NewCache(opts ...ttlcache.Option) *ttlcache.Cache[*Release] {
	opts = append(opts[:len(opts):len(opts)], ttlcache.WithSweepEvery(0))
	return ttlcache.New[*Release]("github_release", opts...)
}

// NewService creates a release service
func NewService(fetcher Fetcher, cache *ttlcache.Cache[*Release], opts ...ServiceOption) (*Service, error) {
	if fetcher == nil {
		return nil, fmt.Errorf("%w: fetcher", ErrNilDependency)
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: cache", ErrNilDependency)
	}

	s := &Service{
		fetcher: fetcher,
		cache:   cache,
		logger:  slog.Default(),
		owner:   DefaultOwner,
		ttl:     DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Owner returns the GitHub account releases are fetched from.
func (s *Service) Owner() string {
	return s.owner
}

// Latest returns the latest release of repo.
//
// Errors:
//   - ErrInvalidRepo when repo sanitises to ""
//   - ErrReleaseNotFound on a GitHub 404; never cached and never served stale
//   - ErrRateLimited when GitHub rate limits and nothing is cached
//   - ErrUpstreamFailure for any other failure when nothing is cached
//
// When GitHub fails with anything but a 404 and an expired entry exists, that
// entry is returned with Stale set instead of an error.
func (s *Service) Latest(ctx context.Context, repo string) (*Result, error) {
	repo = SanitizeRepo(repo)
	if repo == "" {
		return nil, ErrInvalidRepo
	}

	if entry, ok := s.cache.Get(repo); ok {
		s.logger.Debug("[GITHUB-RELEASE] cache hit", "repo", repo)
		return &Result{
			Repo:      repo,
			Release:   entry.Value,
			CachedAt:  entry.CachedAt,
			ExpiresAt: entry.ExpiresAt,
			FromCache: true,
		}, nil
	}

	s.logger.Info("[GITHUB-RELEASE] fetching release", "owner", s.owner, "repo", repo)

	release, err := s.fetcher.FetchLatest(ctx, s.owner, repo)
	if err != nil {
		return s.handleFetchError(repo, err)
	}

	entry, err := s.cache.Put(repo, release, s.ttl)
	if err != nil {
		return nil, fmt.Errorf("failed to cache release: %w", err)
	}

	s.logger.Info("[GITHUB-RELEASE] cached release",
		"repo", repo,
		"tag", release.TagName,
		"expires_at", entry.ExpiresAt,
	)

	result := &Result{
		Repo:      repo,
		Release:   release,
		CachedAt:  entry.CachedAt,
		ExpiresAt: entry.ExpiresAt,
	}

	if s.syncer != nil {
		outcome, syncErr := s.syncer.Sync(ctx, repo, release)
		if syncErr != nil {
			s.logger.Error("[GITHUB-RELEASE] failed to sync program with release",
				"repo", repo,
				"tag", release.TagName,
				"error", syncErr,
			)
		} else {
			result.Sync = outcome
		}
	}

	return result, nil
}

func (s *Service) handleFetchError(repo string, err error) (*Result, error) {
	if errors.Is(err, ErrReleaseNotFound) {
		s.logger.Info("[GITHUB-RELEASE] release not found", "owner", s.owner, "repo", repo)
		return nil, err
	}

	stale, ok := s.cache.Peek(repo)
	if !ok {
		s.logger.Error("[GITHUB-RELEASE] fetch failed with no cached data",
			"repo", repo,
			"error", err,
		)
		if errors.Is(err, ErrRateLimited) {
			return nil, err
		}
		if errors.Is(err, ErrUpstreamFailure) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}

	warning := err.Error()
	if errors.Is(err, ErrRateLimited) {
		warning = staleRateLimitWarning
	}

	metrics.CacheLookups.WithLabelValues(s.cache.Name(), metrics.LookupStale).Inc()
	s.logger.Warn("[GITHUB-RELEASE] serving stale release",
		"repo", repo,
		"cached_at", stale.CachedAt,
		"error", err,
	)

	return &Result{
		Repo:      repo,
		Release:   stale.Value,
		CachedAt:  stale.CachedAt,
		ExpiresAt: stale.ExpiresAt,
		FromCache: true,
		Stale:     true,
		Warning:   warning,
	}, nil
}

// SyncRelease refreshes repo and reports whether fresh data was fetched (and
// therefore synced into its program). It lets program reads trigger a sync.
func (s *Service) SyncRelease(ctx context.Context, repo string) (bool, error) {
	result, err := s.Latest(ctx, repo)
	if err != nil {
		return false, err
	}
	return !result.FromCache, nil
}
