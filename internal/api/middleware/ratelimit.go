package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-chi/httprate"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"

	"Pfrastro/internal/api/handlers"
)

// defaultMaxClients bounds the number of per-client limiters kept in memory.
// The least recently seen client is evicted first.
const defaultMaxClients = 10000

// RateLimiter implements per-client token bucket rate limiting.
// A client may burst up to requests and then refills at requests per window.
type RateLimiter struct {
	clients  *lru.Cache[string, *rate.Limiter]
	limit    rate.Limit
	requests int
	mu       sync.Mutex
}

// NewRateLimiter creates a new rate limiter
// requests: maximum number of requests allowed per window
// window: time window duration (e.g., 1 minute)
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return newRateLimiter(requests, window, defaultMaxClients)
}

func newRateLimiter(requests int, window time.Duration, maxClients int) *RateLimiter {
	if requests < 1 {
		requests = 1
	}
	clients, err := lru.New[string, *rate.Limiter](maxClients)
	if err != nil {
		// Only fails for a non-positive size
		clients, _ = lru.New[string, *rate.Limiter](defaultMaxClients)
	}

	return &RateLimiter{
		clients:  clients,
		limit:    rate.Every(window / time.Duration(requests)),
		requests: requests,
	}
}

// Middleware returns a rate limiting middleware
func (rl *RateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(getClientIP(r)) {
			writeRateLimited(w)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// allow checks if a client is allowed to make a request
func (rl *RateLimiter) allow(clientID string) bool {
	rl.mu.Lock()
	limiter, ok := rl.clients.Get(clientID)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.requests)
		rl.clients.Add(clientID, limiter)
	}
	rl.mu.Unlock()

	return limiter.Allow()
}

// CounterRateLimit limits counter increments per client IP. Counters are
// unauthenticated writes, so they get a tighter budget than reads.
func CounterRateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(func(r *http.Request) (string, error) {
			return getClientIP(r), nil
		}),
		httprate.WithLimitHandler(func(w http.ResponseWriter, _ *http.Request) {
			writeRateLimited(w)
		}),
	)
}

func writeRateLimited(w http.ResponseWriter) {
	handlers.WriteError(w, http.StatusTooManyRequests, "RateLimited", "Rate limit exceeded. Please try again later.")
}

// getClientIP extracts the client IP from the request
func getClientIP(r *http.Request) string {
	// X-Forwarded-For may hold a chain; the first entry is the original client
	if forwarded := r.Header.Get("X-Forwarded-For"); forwarded != "" {
		first, _, _ := strings.Cut(forwarded, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	if realIP := strings.TrimSpace(r.Header.Get("X-Real-IP")); realIP != "" {
		return realIP
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
