// Package signedurl issues time-limited access URLs for objects in the private
// storage bucket and caches them so repeated requests for the same object
// return the same URL until shortly before it expires.
package signedurl

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"Pfrastro/internal/core/ttlcache"
	"Pfrastro/internal/metrics"
)

const (
	// DefaultExpiry is the validity window requested from the storage provider.
	DefaultExpiry = 7 * 24 * time.Hour

	// cacheTTLFactor keeps a cached URL strictly inside its own validity window
	// so it is never handed out when it could expire mid-use.
	cacheTTLFactor = 0.95

	defaultBatchConcurrency = 16
)

// Presigner generates time-limited GET URLs for object keys.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// SignedURL is an issued URL together with the moment the cache stops serving it.
type SignedURL struct {
	ExpiresAt time.Time
	Key       string
	URL       string
}

// BatchResult is the per-reference outcome of IssueMany. Exactly one of
// SignedURL and Err is set.
type BatchResult struct {
	Err       error
	Original  string
	SignedURL string
}

// Service issues and caches signed URLs.
type Service struct {
	presigner   Presigner
	cache       *ttlcache.Cache[string]
	logger      *slog.Logger
	bucket      string
	expiry      time.Duration
	concurrency int
}

// ServiceOption configures the service
type ServiceOption func(*Service)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithBatchConcurrency caps the number of concurrent presign calls in IssueMany
func WithBatchConcurrency(n int) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// NewService creates a signed-URL service. expiry <= 0 uses DefaultExpiry.
func NewService(presigner Presigner, cache *ttlcache.Cache[string], bucket string, expiry time.Duration, opts ...ServiceOption) (*Service, error) {
	if presigner == nil {
		return nil, fmt.Errorf("%w: presigner", ErrNilDependency)
	}
	if cache == nil {
		return nil, fmt.Errorf("%w: cache", ErrNilDependency)
	}
	if expiry <= 0 {
		expiry = DefaultExpiry
	}

	s := &Service{
		presigner:   presigner,
		cache:       cache,
		bucket:      bucket,
		expiry:      expiry,
		concurrency: defaultBatchConcurrency,
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}

	return s, nil
}

// ExpiresIn returns the validity window requested for every URL.
func (s *Service) ExpiresIn() time.Duration {
	return s.expiry
}

// CacheTTL returns how long an issued URL is served from the cache.
func (s *Service) CacheTTL() time.Duration {
	return time.Duration(float64(s.expiry) * cacheTTLFactor)
}

// ExtractKey normalizes a reference using the configured bucket.
func (s *Service) ExtractKey(reference string) string {
	return ExtractKey(reference, s.bucket)
}

// Issue returns a signed URL for key, from the cache when possible.
func (s *Service) Issue(ctx context.Context, key string) (SignedURL, error) {
	if key == "" {
		return SignedURL{}, ErrInvalidReference
	}

	if entry, ok := s.cache.Get(key); ok {
		return SignedURL{Key: key, URL: entry.Value, ExpiresAt: entry.ExpiresAt}, nil
	}

	signed, err := s.presigner.PresignGet(ctx, key, s.expiry)
	if err != nil {
		metrics.RecordUpstream("s3", "error")
		s.logger.Error("[SIGNED-URL] presign failed",
			"key", key,
			"error", err,
		)
		return SignedURL{}, fmt.Errorf("%w: %v", ErrPresignFailed, err)
	}
	metrics.RecordUpstream("s3", "ok")

	entry, err := s.cache.Put(key, signed, s.CacheTTL())
	if err != nil {
		// Only reachable with a sub-nanosecond expiry; serve the URL uncached.
		s.logger.Warn("[SIGNED-URL] failed to cache signed URL",
			"key", key,
			"error", err,
		)
		return SignedURL{Key: key, URL: signed, ExpiresAt: s.cache.Now().Add(s.expiry)}, nil
	}

	s.logger.Debug("[SIGNED-URL] issued signed URL",
		"key", key,
		"cache_expires_at", entry.ExpiresAt,
	)

	return SignedURL{Key: key, URL: signed, ExpiresAt: entry.ExpiresAt}, nil
}

// IssueReference extracts the key from a bare key or storage URL and issues it.
func (s *Service) IssueReference(ctx context.Context, reference string) (SignedURL, error) {
	if reference == "" {
		return SignedURL{}, ErrEmptyReference
	}

	key := s.ExtractKey(reference)
	if key == "" {
		return SignedURL{}, ErrInvalidReference
	}

	return s.Issue(ctx, key)
}

// IssueMany issues every reference independently and concurrently. Results keep
// the input order; a failure is recorded on its own item and never aborts the
// rest of the batch.
func (s *Service) IssueMany(ctx context.Context, references []string) []BatchResult {
	results := make([]BatchResult, len(references))

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, reference := range references {
		g.Go(func() error {
			results[i].Original = reference

			signed, err := s.IssueReference(ctx, reference)
			if err != nil {
				results[i].Err = err
				return nil
			}

			results[i].SignedURL = signed.URL
			return nil
		})
	}

	// Workers never return errors; per-item failures live in results.
	_ = g.Wait()

	return results
}
