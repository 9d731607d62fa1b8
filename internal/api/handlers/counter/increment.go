// Package counter serves the view and download counter endpoints.
package counter

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/content"
)

// Handler handles counter increments
type Handler struct {
	service content.CounterService
}

// NewHandler creates a new counter handler
func NewHandler(service content.CounterService) *Handler {
	return &Handler{service: service}
}

// CountMeta reports the counter value before and after the increment
type CountMeta struct {
	PreviousCount int64 `json:"previousCount"`
	NewCount      int64 `json:"newCount"`
}

// ViewData is the trimmed post or portfolio entry returned after a view
type ViewData struct {
	DocumentID string `json:"documentId"`
	Title      string `json:"title"`
	ID         int64  `json:"id"`
	Views      int64  `json:"views"`
}

// DownloadData is the trimmed program returned after a download
type DownloadData struct {
	DocumentID string `json:"documentId"`
	Name       string `json:"name"`
	ID         int64  `json:"id"`
	Downloads  int64  `json:"downloads"`
}

// ViewResponse is the body of a view increment
type ViewResponse struct {
	Data ViewData  `json:"data"`
	Meta CountMeta `json:"meta"`
}

// DownloadResponse is the body of a download increment
type DownloadResponse struct {
	Data DownloadData `json:"data"`
	Meta CountMeta    `json:"meta"`
}

type incrementFunc func(ctx context.Context, documentID string) (*content.CounterResult, error)

// HandlePostView increments a post's view counter
// POST /api/posts/{id}/view
func (h *Handler) HandlePostView(w http.ResponseWriter, r *http.Request) {
	h.handleView(w, r, "Post", h.service.IncrementPostView)
}

// HandlePortfolioView increments a portfolio entry's view counter
// POST /api/portfolio-entries/{id}/view
func (h *Handler) HandlePortfolioView(w http.ResponseWriter, r *http.Request) {
	h.handleView(w, r, "Portfolio entry", h.service.IncrementPortfolioView)
}

func (h *Handler) handleView(w http.ResponseWriter, r *http.Request, subject string, increment incrementFunc) {
	result, err := increment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, subject, "Failed to increment view count", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, ViewResponse{
		Data: ViewData{
			ID:         result.Record.ID,
			DocumentID: result.Record.DocumentID,
			Title:      result.Record.Label,
			Views:      result.Record.Count,
		},
		Meta: CountMeta{PreviousCount: result.PreviousCount, NewCount: result.NewCount},
	})
}

// HandleProgramDownload increments a program's download counter
// POST /api/programs/{id}/download
func (h *Handler) HandleProgramDownload(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.IncrementProgramDownload(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, "Program", "Failed to increment download count", err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, DownloadResponse{
		Data: DownloadData{
			ID:         result.Record.ID,
			DocumentID: result.Record.DocumentID,
			Name:       result.Record.Label,
			Downloads:  result.Record.Count,
		},
		Meta: CountMeta{PreviousCount: result.PreviousCount, NewCount: result.NewCount},
	})
}
