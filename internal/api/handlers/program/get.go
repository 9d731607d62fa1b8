// Package program serves program reads with optional GitHub release refresh.
package program

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/content"
)

// Handler handles program reads
type Handler struct {
	service content.ProgramService
}

// NewHandler creates a new program handler
func NewHandler(service content.ProgramService) *Handler {
	return &Handler{service: service}
}

// ListResponse is the body of GET /api/programs
type ListResponse struct {
	Data []*content.Program `json:"data"`
}

// GetResponse is the body of GET /api/programs/{id}
type GetResponse struct {
	Data *content.Program `json:"data"`
}

// HandleList lists programs
// GET /api/programs?syncGithub=true
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	programs, err := h.service.List(r.Context(), syncRequested(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if programs == nil {
		programs = []*content.Program{}
	}
	handlers.WriteJSON(w, http.StatusOK, ListResponse{Data: programs})
}

// HandleGet returns a single program
// GET /api/programs/{id}?syncGithub=true
func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	p, err := h.service.Get(r.Context(), chi.URLParam(r, "id"), syncRequested(r))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, GetResponse{Data: p})
}

// syncRequested reports whether the caller asked for a GitHub refresh.
// Only the literal "true" counts.
func syncRequested(r *http.Request) bool {
	return r.URL.Query().Get("syncGithub") == "true"
}
