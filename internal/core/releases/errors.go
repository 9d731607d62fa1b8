package releases

import "errors"

var (
	// ErrInvalidRepo indicates the repository name is empty after sanitising
	ErrInvalidRepo = errors.New("repository name is required")

	// ErrReleaseNotFound indicates GitHub has no such repository or it has no published release
	ErrReleaseNotFound = errors.New("repository or release not found")

	// ErrRateLimited indicates GitHub refused the request due to rate limiting
	ErrRateLimited = errors.New("GitHub API rate limit exceeded")

	// ErrUpstreamFailure indicates a network, decode, or unexpected status error from GitHub
	ErrUpstreamFailure = errors.New("failed to fetch release data from GitHub")

	// ErrNilDependency is returned when a required dependency is nil
	ErrNilDependency = errors.New("required dependency is nil")
)

// staleRateLimitWarning is reported alongside stale data served after a rate limit
const staleRateLimitWarning = "GitHub rate limit exceeded, serving stale data"
