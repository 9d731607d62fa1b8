package signedurl

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"Pfrastro/internal/core/signedurl"
	"Pfrastro/internal/core/ttlcache"
)

// stubPresigner signs every key except the ones listed in fail
type stubPresigner struct {
	fail  map[string]bool
	calls int
	mu    sync.Mutex
}

func (s *stubPresigner) PresignGet(_ context.Context, key string, _ time.Duration) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.fail[key] {
		return "", errors.New("bucket unavailable")
	}
	return fmt.Sprintf("https://storage.example/bucket/%s?X-Amz-Signature=%d", key, s.calls), nil
}

func newTestRouter(t *testing.T, presigner signedurl.Presigner) http.Handler {
	t.Helper()
	cache := ttlcache.New[string]("handler-test-" + t.Name())
	svc, err := signedurl.NewService(presigner, cache, "bucket", time.Hour)
	require.NoError(t, err)

	h := NewHandler(svc)
	r := chi.NewRouter()
	r.Post("/api/signed-url", h.HandleCreate)
	r.Post("/api/signed-urls", h.HandleCreateBatch)
	r.Get("/api/signed-url/*", h.HandleGet)
	r.Get("/api/image/*", h.HandleRedirect)
	return r
}

func doRequest(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func maxAge(t *testing.T, header string) int {
	t.Helper()
	require.True(t, strings.HasPrefix(header, "public, max-age="), "Cache-Control = %q", header)
	n, err := strconv.Atoi(strings.TrimPrefix(header, "public, max-age="))
	require.NoError(t, err)
	return n
}

func TestHandleCreate_Success(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{})

	w := doRequest(router, http.MethodPost, "/api/signed-url", `{"url":"https://host/bucket/astro/m31.jpg"}`)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SignedURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, strings.HasPrefix(resp.URL, "https://storage.example/bucket/astro/m31.jpg"))
	assert.Equal(t, int64(3600), resp.ExpiresIn)
}

func TestHandleCreate_ReturnsSameURLFromCache(t *testing.T) {
	presigner := &stubPresigner{}
	router := newTestRouter(t, presigner)

	first := doRequest(router, http.MethodPost, "/api/signed-url", `{"url":"foo.png"}`)
	second := doRequest(router, http.MethodPost, "/api/signed-url", `{"url":"/foo.png"}`)
	require.Equal(t, http.StatusOK, first.Code)
	require.Equal(t, http.StatusOK, second.Code)

	assert.JSONEq(t, first.Body.String(), second.Body.String())
	assert.Equal(t, 1, presigner.calls)
}

func TestHandleCreate_Validation(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{})

	tests := []struct {
		name    string
		body    string
		message string
	}{
		{name: "missing url", body: `{}`, message: "url is required"},
		{name: "empty url", body: `{"url":""}`, message: "url is required"},
		{name: "wrong type", body: `{"url":5}`, message: "invalid request body"},
		{name: "no key in url", body: `{"url":"https://host/bucket/"}`, message: "Could not extract file key from URL"},
		{name: "slash only", body: `{"url":"/"}`, message: "Could not extract file key from URL"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(router, http.MethodPost, "/api/signed-url", tt.body)
			assert.Equal(t, http.StatusBadRequest, w.Code)

			var errResp map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &errResp))
			assert.Equal(t, "ValidationError", errResp["error"])
			assert.Equal(t, tt.message, errResp["message"])
		})
	}
}

func TestHandleCreate_PresignFailure(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{fail: map[string]bool{"foo.png": true}})

	w := doRequest(router, http.MethodPost, "/api/signed-url", `{"url":"foo.png"}`)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "Failed to generate signed URL")
	assert.NotContains(t, w.Body.String(), "bucket unavailable")
}

func TestHandleCreateBatch(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{fail: map[string]bool{"broken.png": true}})

	body := `{"urls":["a.png","https://host/bucket/broken.png","/","https://host/bucket/c.png"]}`
	w := doRequest(router, http.MethodPost, "/api/signed-urls", body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp BatchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, int64(3600), resp.ExpiresIn)
	require.Len(t, resp.URLs, 4)

	assert.Equal(t, "a.png", resp.URLs[0].Original)
	assert.Contains(t, resp.URLs[0].SignedURL, "/bucket/a.png")
	assert.Empty(t, resp.URLs[0].Error)

	assert.Equal(t, "https://host/bucket/broken.png", resp.URLs[1].Original)
	assert.Empty(t, resp.URLs[1].SignedURL)
	assert.Contains(t, resp.URLs[1].Error, "bucket unavailable")

	assert.Equal(t, "/", resp.URLs[2].Original)
	assert.NotEmpty(t, resp.URLs[2].Error)

	assert.Contains(t, resp.URLs[3].SignedURL, "/bucket/c.png")
}

func TestHandleCreateBatch_ItemsOmitUnsetFields(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{fail: map[string]bool{"bad.png": true}})

	w := doRequest(router, http.MethodPost, "/api/signed-urls", `{"urls":["ok.png","bad.png"]}`)
	require.Equal(t, http.StatusOK, w.Code)

	var raw struct {
		URLs []map[string]any `json:"urls"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &raw))
	require.Len(t, raw.URLs, 2)
	assert.NotContains(t, raw.URLs[0], "error")
	assert.NotContains(t, raw.URLs[1], "signedUrl")
}

func TestHandleCreateBatch_Validation(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{})

	for _, body := range []string{`{}`, `{"urls":"a.png"}`, ``} {
		w := doRequest(router, http.MethodPost, "/api/signed-urls", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "body %q", body)
	}

	w := doRequest(router, http.MethodPost, "/api/signed-urls", `{"urls":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"urls":[],"expiresIn":3600}`, w.Body.String())
}

func TestHandleGet_SetsCacheControl(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{})

	w := doRequest(router, http.MethodGet, "/api/signed-url/astro/m31.jpg", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp SignedURLResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.URL, "/bucket/astro/m31.jpg")

	// Cached for 95% of the one hour expiry
	age := maxAge(t, w.Header().Get("Cache-Control"))
	assert.InDelta(t, 3420, age, 2)
}

func TestHandleGet_MissingKey(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{})

	w := doRequest(router, http.MethodGet, "/api/signed-url/", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "file key is required")
}

func TestHandleRedirect(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{})

	w := doRequest(router, http.MethodGet, "/api/image/foo.png", "")
	require.Equal(t, http.StatusFound, w.Code)

	location := w.Header().Get("Location")
	assert.True(t, strings.HasPrefix(location, "https://storage.example/bucket/foo.png"), location)
	assert.InDelta(t, 3420, maxAge(t, w.Header().Get("Cache-Control")), 2)
}

func TestHandleRedirect_PresignFailure(t *testing.T) {
	router := newTestRouter(t, &stubPresigner{fail: map[string]bool{"foo.png": true}})

	w := doRequest(router, http.MethodGet, "/api/image/foo.png", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Header().Get("Location"))
}

func TestSetCacheControl_NeverNegative(t *testing.T) {
	h := NewHandler(nil)
	h.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC) }

	w := httptest.NewRecorder()
	h.setCacheControl(w, signedurl.SignedURL{ExpiresAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)})
	assert.Equal(t, "public, max-age=0", w.Header().Get("Cache-Control"))

	w = httptest.NewRecorder()
	h.setCacheControl(w, signedurl.SignedURL{ExpiresAt: time.Date(2026, 1, 1, 0, 1, 10, 500, time.UTC)})
	assert.Equal(t, "public, max-age=60", w.Header().Get("Cache-Control"))
}
