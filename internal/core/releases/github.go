package releases

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	gobreaker "github.com/sony/gobreaker/v2"

	"Pfrastro/internal/metrics"
)

const (
	// DefaultGitHubAPIURL is the public GitHub REST endpoint
	DefaultGitHubAPIURL = "https://api.github.com"

	defaultUserAgent = "Pfrastro-Release-Sync/1.0"
	defaultTimeout   = 10 * time.Second

	// maxReleaseBodyBytes bounds how much of a release payload is read
	maxReleaseBodyBytes = 5 * 1024 * 1024

	breakerName = "github-api"
)

// Fetcher retrieves the latest published release of a repository.
type Fetcher interface {
	// FetchLatest returns:
	//   - ErrReleaseNotFound on a 404
	//   - ErrRateLimited on a 403 or 429
	//   - ErrUpstreamFailure for any other failure
	FetchLatest(ctx context.Context, owner, repo string) (*Release, error)
}

// GitHubClient fetches releases from the GitHub REST API behind a circuit breaker.
type GitHubClient struct {
	httpClient *http.Client
	breaker    *gobreaker.CircuitBreaker[*Release]
	logger     *slog.Logger
	baseURL    string
	token      string
	userAgent  string
}

// GitHubClientOption configures the GitHub client
type GitHubClientOption func(*GitHubClient)

// WithBaseURL points the client at a different API root (GitHub Enterprise or tests)
func WithBaseURL(baseURL string) GitHubClientOption {
	return func(c *GitHubClient) {
		if baseURL != "" {
			c.baseURL = strings.TrimRight(baseURL, "/")
		}
	}
}

// WithToken authenticates requests, which raises GitHub's rate limit
func WithToken(token string) GitHubClientOption {
	return func(c *GitHubClient) {
		c.token = token
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(timeout time.Duration) GitHubClientOption {
	return func(c *GitHubClient) {
		if timeout > 0 {
			c.httpClient.Timeout = timeout
		}
	}
}

// WithHTTPClient replaces the underlying HTTP client
func WithHTTPClient(client *http.Client) GitHubClientOption {
	return func(c *GitHubClient) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithClientLogger sets the logger
func WithClientLogger(logger *slog.Logger) GitHubClientOption {
	return func(c *GitHubClient) {
		c.logger = logger
	}
}

// NewGitHubClient creates a GitHub release client.
//
// The breaker opens after 3 consecutive failures and stays open for 5 minutes.
// A 404 is a valid answer, not a failure, so missing releases never trip it.
// Rate limits keep their own error and never trip it either, and a request
// abandoned by its caller says nothing about GitHub's health.
func NewGitHubClient(opts ...GitHubClientOption) *GitHubClient {
	c := &GitHubClient{
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     slog.Default(),
		baseURL:    DefaultGitHubAPIURL,
		userAgent:  defaultUserAgent,
	}
	for _, opt := range opts {
		opt(c)
	}

	metrics.CircuitBreakerState.WithLabelValues(breakerName).Set(0)

	c.breaker = gobreaker.NewCircuitBreaker[*Release](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     5 * time.Minute,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		IsSuccessful: countsAsHealthy,
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn("[GITHUB-RELEASE] circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
			metrics.CircuitBreakerState.WithLabelValues(name).Set(breakerStateValue(to))
			metrics.CircuitBreakerTransitions.WithLabelValues(name, from.String(), to.String()).Inc()
		},
	})

	return c
}

// FetchLatest implements Fetcher.
func (c *GitHubClient) FetchLatest(ctx context.Context, owner, repo string) (*Release, error) {
	release, err := c.breaker.Execute(func() (*Release, error) {
		release, err := c.fetchLatest(ctx, owner, repo)
		if err != nil && ctx.Err() != nil {
			return nil, fmt.Errorf("%w: %w", ErrUpstreamFailure, ctx.Err())
		}
		return release, err
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.RecordUpstream("github", "rejected")
			return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
		}
		return nil, err
	}
	return release, nil
}

func (c *GitHubClient) fetchLatest(ctx context.Context, owner, repo string) (*Release, error) {
	endpoint := fmt.Sprintf("%s/repos/%s/%s/releases/latest", c.baseURL, url.PathEscape(owner), url.PathEscape(repo))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create request: %v", ErrUpstreamFailure, err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")
	req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
	req.Header.Set("User-Agent", c.userAgent)
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		metrics.RecordUpstream("github", "error")
		return nil, fmt.Errorf("%w: %v", ErrUpstreamFailure, err)
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		// handled below
	case http.StatusNotFound:
		metrics.RecordUpstream("github", "not_found")
		return nil, ErrReleaseNotFound
	case http.StatusForbidden, http.StatusTooManyRequests:
		metrics.RecordUpstream("github", "rate_limited")
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	default:
		metrics.RecordUpstream("github", "error")
		return nil, fmt.Errorf("%w: GitHub API error: %d", ErrUpstreamFailure, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxReleaseBodyBytes))
	if err != nil {
		metrics.RecordUpstream("github", "error")
		return nil, fmt.Errorf("%w: failed to read response body: %v", ErrUpstreamFailure, err)
	}

	var payload githubRelease
	if err := json.Unmarshal(body, &payload); err != nil {
		metrics.RecordUpstream("github", "error")
		return nil, fmt.Errorf("%w: failed to decode release: %v", ErrUpstreamFailure, err)
	}

	metrics.RecordUpstream("github", "ok")
	return payload.toRelease(), nil
}

// countsAsHealthy reports whether err leaves the breaker's failure count alone.
func countsAsHealthy(err error) bool {
	switch {
	case err == nil,
		errors.Is(err, ErrReleaseNotFound),
		errors.Is(err, ErrRateLimited),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return true
	default:
		return false
	}
}

func breakerStateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
