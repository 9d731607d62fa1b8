package routes

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pfrastro/internal/core/content"
	"Pfrastro/internal/core/releases"
	"Pfrastro/internal/core/signedurl"
)

type stubReleases struct{}

func (stubReleases) Latest(_ context.Context, repo string) (*releases.Result, error) {
	if repo == "Missing" {
		return nil, releases.ErrReleaseNotFound
	}
	return &releases.Result{Repo: repo, Release: &releases.Release{TagName: "v1.0.0"}}, nil
}

func (stubReleases) Owner() string { return "englishfox90" }

type stubSigner struct{}

func (stubSigner) IssueReference(_ context.Context, reference string) (signedurl.SignedURL, error) {
	return signedurl.SignedURL{
		Key:       reference,
		URL:       "https://storage.example/" + reference,
		ExpiresAt: time.Now().Add(time.Hour),
	}, nil
}

func (stubSigner) IssueMany(_ context.Context, references []string) []signedurl.BatchResult {
	return make([]signedurl.BatchResult, len(references))
}

func (stubSigner) ExpiresIn() time.Duration { return time.Hour }

type stubCounters struct{}

func (stubCounters) increment(documentID string) (*content.CounterResult, error) {
	return &content.CounterResult{
		Record:        content.CounterRecord{DocumentID: documentID, Count: 1},
		PreviousCount: 0,
		NewCount:      1,
	}, nil
}

func (s stubCounters) IncrementPostView(_ context.Context, id string) (*content.CounterResult, error) {
	return s.increment(id)
}

func (s stubCounters) IncrementPortfolioView(_ context.Context, id string) (*content.CounterResult, error) {
	return s.increment(id)
}

func (s stubCounters) IncrementProgramDownload(_ context.Context, id string) (*content.CounterResult, error) {
	return s.increment(id)
}

type stubPrograms struct{}

func (stubPrograms) List(context.Context, bool) ([]*content.Program, error) {
	return []*content.Program{{DocumentID: "doc-1", Name: "AstroStack"}}, nil
}

func (stubPrograms) Get(_ context.Context, id string, _ bool) (*content.Program, error) {
	return &content.Program{DocumentID: id, Name: "AstroStack"}, nil
}

func newTestRouter(counterLimit int) http.Handler {
	return NewRouter(RouterConfig{
		CORSOrigins:              []string{"https://pfrastro.com"},
		RateLimitRequests:        100,
		RateLimitWindow:          time.Minute,
		CounterRateLimitRequests: counterLimit,
	}, Services{
		Releases:  stubReleases{},
		SignedURL: stubSigner{},
		Counters:  stubCounters{},
		Programs:  stubPrograms{},
	})
}

func serve(h http.Handler, method, path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(method, path, nil))
	return w
}

func TestRouter_Health(t *testing.T) {
	w := serve(newTestRouter(10), http.MethodGet, "/health")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "OK", w.Body.String())
}

func TestRouter_Metrics(t *testing.T) {
	router := newTestRouter(10)
	serve(router, http.MethodGet, "/api/programs")

	w := serve(router, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "pfrastro_api_request_duration_seconds")
}

func TestRouter_APIRoutes(t *testing.T) {
	router := newTestRouter(10)

	tests := []struct {
		method string
		path   string
		want   int
	}{
		{http.MethodGet, "/api/github-release/AstroStack", http.StatusOK},
		{http.MethodGet, "/api/github-release/Missing", http.StatusNotFound},
		{http.MethodGet, "/api/programs", http.StatusOK},
		{http.MethodGet, "/api/programs/doc-1", http.StatusOK},
		{http.MethodPost, "/api/programs/doc-1/download", http.StatusOK},
		{http.MethodPost, "/api/posts/doc-1/view", http.StatusOK},
		{http.MethodPost, "/api/portfolio-entries/doc-1/view", http.StatusOK},
		{http.MethodGet, "/api/signed-url/astro/m31.jpg", http.StatusOK},
		{http.MethodGet, "/api/image/astro/m31.jpg", http.StatusFound},
		{http.MethodGet, "/api/posts/doc-1/view", http.StatusMethodNotAllowed},
		{http.MethodGet, "/api/unknown", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			w := serve(router, tt.method, tt.path)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
		})
	}
}

func TestRouter_CounterRoutesAreLimited(t *testing.T) {
	router := newTestRouter(2)

	for i := 0; i < 2; i++ {
		w := serve(router, http.MethodPost, "/api/posts/doc-1/view")
		require.Equal(t, http.StatusOK, w.Code)
	}

	w := serve(router, http.MethodPost, "/api/posts/doc-1/view")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)

	// Reads are not subject to the counter limit
	w = serve(router, http.MethodGet, "/api/programs")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_CORSPreflight(t *testing.T) {
	router := newTestRouter(10)

	req := httptest.NewRequest(http.MethodOptions, "/api/signed-url", nil)
	req.Header.Set("Origin", "https://pfrastro.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, "https://pfrastro.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodPost))
}
