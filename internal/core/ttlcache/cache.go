// Package ttlcache provides an in-memory read-through cache with per-entry
// expiry. It backs the signed-URL issuer and the GitHub release cache.
//
// Expiry is lazy: Get never returns an expired entry, but expired entries stay
// in the map until a sweep removes them. Sweeps run opportunistically after
// every Nth Put and, optionally, from a background ticker.
//
// There is no size bound or LRU eviction. Memory grows with the number of
// distinct keys seen within a sweep window, which is fine for a few hundred
// storage objects or repositories but is the scaling limit of this design.
package ttlcache

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"Pfrastro/internal/metrics"
)

// DefaultSweepEvery is how many puts happen between opportunistic sweeps.
const DefaultSweepEvery = 100

// Entry is an immutable cached value. A refresh replaces the entry, it is never
// mutated in place.
type Entry[T any] struct {
	CachedAt  time.Time
	ExpiresAt time.Time
	Value     T
	Key       string
}

// Expired reports whether the entry must no longer be served at now.
func (e Entry[T]) Expired(now time.Time) bool {
	return !now.Before(e.ExpiresAt)
}

// Remaining returns the time left before expiry, or 0 if already expired.
func (e Entry[T]) Remaining(now time.Time) time.Duration {
	d := e.ExpiresAt.Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

type options struct {
	clock      func() time.Time
	logger     *slog.Logger
	sweepEvery int
}

// Option configures a Cache.
type Option func(*options)

// WithClock overrides the time source (tests use a fake clock).
func WithClock(clock func() time.Time) Option {
	return func(o *options) {
		o.clock = clock
	}
}

// WithSweepEvery sets how many puts happen between sweeps. n <= 0 disables
// put-triggered sweeping.
func WithSweepEvery(n int) Option {
	return func(o *options) {
		o.sweepEvery = n
	}
}

// WithLogger sets the logger used for sweep activity.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Cache is a concurrency-safe map of keys to expiring entries.
type Cache[T any] struct {
	entries    map[string]Entry[T]
	clock      func() time.Time
	logger     *slog.Logger
	name       string
	sweepEvery int
	puts       int
	mu         sync.RWMutex
}

// New creates an empty cache. name labels the cache in logs and metrics.
func New[T any](name string, opts ...Option) *Cache[T] {
	o := options{
		clock:      time.Now,
		sweepEvery: DefaultSweepEvery,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Cache[T]{
		entries:    make(map[string]Entry[T]),
		clock:      o.clock,
		logger:     o.logger,
		name:       name,
		sweepEvery: o.sweepEvery,
	}
}

// Name returns the cache label.
func (c *Cache[T]) Name() string {
	return c.name
}

// Now returns the cache's notion of the current time.
func (c *Cache[T]) Now() time.Time {
	return c.clock()
}

// Get returns the entry for key only if it has not expired.
func (c *Cache[T]) Get(key string) (Entry[T], bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || entry.Expired(c.clock()) {
		metrics.CacheLookups.WithLabelValues(c.name, metrics.LookupMiss).Inc()
		return Entry[T]{}, false
	}

	metrics.CacheLookups.WithLabelValues(c.name, metrics.LookupHit).Inc()
	return entry, true
}

// Peek returns the entry for key whether or not it has expired. Callers use it
// to serve stale data when a refresh fails.
func (c *Cache[T]) Peek(key string) (Entry[T], bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	return entry, ok
}

// Put stores value under key for ttl, replacing any prior entry.
func (c *Cache[T]) Put(key string, value T, ttl time.Duration) (Entry[T], error) {
	if ttl <= 0 {
		return Entry[T]{}, ErrInvalidTTL
	}

	now := c.clock()
	entry := Entry[T]{
		Key:       key,
		Value:     value,
		CachedAt:  now,
		ExpiresAt: now.Add(ttl),
	}

	c.mu.Lock()
	c.entries[key] = entry
	c.puts++
	sweepDue := c.sweepEvery > 0 && c.puts%c.sweepEvery == 0
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))

	if sweepDue {
		c.Sweep()
	}

	return entry, nil
}

// Delete removes key from the cache.
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
}

// Len returns the number of stored entries, expired ones included.
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Sweep removes every entry with ExpiresAt <= now and returns how many were removed.
func (c *Cache[T]) Sweep() int {
	now := c.clock()

	c.mu.Lock()
	removed := 0
	for key, entry := range c.entries {
		if entry.Expired(now) {
			delete(c.entries, key)
			removed++
		}
	}
	size := len(c.entries)
	c.mu.Unlock()

	metrics.CacheEntries.WithLabelValues(c.name).Set(float64(size))
	if removed > 0 {
		metrics.CacheSweptEntries.WithLabelValues(c.name).Add(float64(removed))
		c.logger.Debug("[TTL-CACHE] swept expired entries",
			"cache", c.name,
			"removed", removed,
			"remaining", size,
		)
	}

	return removed
}

// StartSweeper starts a background goroutine that sweeps every interval.
// Returns a cancel function to call during shutdown. If interval is 0 or
// negative no goroutine is started and the cancel function is a no-op.
func (c *Cache[T]) StartSweeper(interval time.Duration) context.CancelFunc {
	if interval <= 0 {
		return func() {}
	}

	ctx, cancel := context.WithCancel(context.Background())

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		c.logger.Info("[TTL-CACHE] background sweeper started",
			"cache", c.name,
			"interval", interval,
		)

		for {
			select {
			case <-ctx.Done():
				c.logger.Info("[TTL-CACHE] background sweeper stopped", "cache", c.name)
				return
			case <-ticker.C:
				c.Sweep()
			}
		}
	}()

	return cancel
}
