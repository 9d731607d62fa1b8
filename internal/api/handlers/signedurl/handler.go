// Package signedurl provides HTTP handlers that hand out time-limited URLs for
// objects in the private storage bucket.
package signedurl

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/signedurl"
)

// Service defines the signing operations the handlers need.
// Implemented by *signedurl.Service.
type Service interface {
	IssueReference(ctx context.Context, reference string) (signedurl.SignedURL, error)
	IssueMany(ctx context.Context, references []string) []signedurl.BatchResult
	ExpiresIn() time.Duration
}

// Handler serves the signed-URL endpoints
type Handler struct {
	service Service
	now     func() time.Time
}

// NewHandler creates a new signed-URL handler
func NewHandler(service Service) *Handler {
	return &Handler{
		service: service,
		now:     time.Now,
	}
}

// signedURLRequest is the body of POST /api/signed-url
type signedURLRequest struct {
	URL string `json:"url" validate:"required"`
}

// signedURLsRequest is the body of POST /api/signed-urls
type signedURLsRequest struct {
	URLs []string `json:"urls" validate:"required"`
}

// SignedURLResponse is returned for a single signed URL
type SignedURLResponse struct {
	URL       string `json:"url"`
	ExpiresIn int64  `json:"expiresIn"`
}

// BatchItem is one entry of a batch response; exactly one of SignedURL and Error is set
type BatchItem struct {
	Original  string `json:"original"`
	SignedURL string `json:"signedUrl,omitempty"`
	Error     string `json:"error,omitempty"`
}

// BatchResponse is returned for POST /api/signed-urls
type BatchResponse struct {
	URLs      []BatchItem `json:"urls"`
	ExpiresIn int64       `json:"expiresIn"`
}

// HandleCreate signs a single reference
// POST /api/signed-url
//
// Request body: { "url": "foo.png" | "https://host/bucket/foo.png" }
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req signedURLRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	signed, err := h.service.IssueReference(r.Context(), req.URL)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, SignedURLResponse{
		URL:       signed.URL,
		ExpiresIn: h.expiresInSeconds(),
	})
}

// HandleCreateBatch signs every reference independently
// POST /api/signed-urls
//
// Request body: { "urls": ["a.png", "https://host/bucket/b.png"] }
func (h *Handler) HandleCreateBatch(w http.ResponseWriter, r *http.Request) {
	var req signedURLsRequest
	if err := handlers.DecodeJSON(w, r, &req); err != nil {
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", err.Error())
		return
	}

	results := h.service.IssueMany(r.Context(), req.URLs)

	items := make([]BatchItem, len(results))
	for i, res := range results {
		items[i] = BatchItem{Original: res.Original, SignedURL: res.SignedURL}
		if res.Err != nil {
			items[i].Error = res.Err.Error()
		}
	}

	handlers.WriteJSON(w, http.StatusOK, BatchResponse{
		URLs:      items,
		ExpiresIn: h.expiresInSeconds(),
	})
}

// HandleGet signs the key in the path and returns it with CDN cache headers
// GET /api/signed-url/*
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	signed, ok := h.issueFromPath(w, r)
	if !ok {
		return
	}

	h.setCacheControl(w, signed)
	handlers.WriteJSON(w, http.StatusOK, SignedURLResponse{
		URL:       signed.URL,
		ExpiresIn: h.expiresInSeconds(),
	})
}

// HandleRedirect redirects to the signed URL of the key in the path so it can
// be used directly as an <img src>.
// GET /api/image/*
func (h *Handler) HandleRedirect(w http.ResponseWriter, r *http.Request) {
	signed, ok := h.issueFromPath(w, r)
	if !ok {
		return
	}

	h.setCacheControl(w, signed)
	http.Redirect(w, r, signed.URL, http.StatusFound)
}

func (h *Handler) issueFromPath(w http.ResponseWriter, r *http.Request) (signedurl.SignedURL, bool) {
	key := chi.URLParam(r, "*")
	if key == "" {
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", "file key is required")
		return signedurl.SignedURL{}, false
	}

	signed, err := h.service.IssueReference(r.Context(), key)
	if err != nil {
		handleServiceError(w, err)
		return signedurl.SignedURL{}, false
	}
	return signed, true
}

// setCacheControl lets CDNs keep the response for as long as the cached URL is served
func (h *Handler) setCacheControl(w http.ResponseWriter, signed signedurl.SignedURL) {
	maxAge := int64(math.Floor(signed.ExpiresAt.Sub(h.now()).Seconds()))
	if maxAge < 0 {
		maxAge = 0
	}
	w.Header().Set("Cache-Control", "public, max-age="+strconv.FormatInt(maxAge, 10))
}

func (h *Handler) expiresInSeconds() int64 {
	return int64(h.service.ExpiresIn() / time.Second)
}

// handleServiceError converts service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, signedurl.ErrEmptyReference):
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", "url is required")
	case errors.Is(err, signedurl.ErrInvalidReference):
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", "Could not extract file key from URL")
	case errors.Is(err, signedurl.ErrPresignFailed):
		slog.Error("[SIGNED-URL] failed to generate signed URL", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "UpstreamFailure", "Failed to generate signed URL")
	default:
		slog.Error("[SIGNED-URL] unhandled service error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
