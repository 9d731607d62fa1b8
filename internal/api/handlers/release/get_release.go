// Package release serves the latest GitHub release of a repository.
package release

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/releases"
)

// isoMillis matches the timestamp format the site frontend parses
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// Service defines the release operations the handler needs.
// Implemented by *releases.Service.
type Service interface {
	Latest(ctx context.Context, repo string) (*releases.Result, error)
	Owner() string
}

// GetReleaseHandler handles release lookups
type GetReleaseHandler struct {
	service Service
}

// NewGetReleaseHandler creates a new release handler
func NewGetReleaseHandler(service Service) *GetReleaseHandler {
	return &GetReleaseHandler{service: service}
}

// Meta describes where the release data came from
type Meta struct {
	ProgramSynced  *bool  `json:"programSynced,omitempty"`
	ProgramUpdated *bool  `json:"programUpdated,omitempty"`
	CachedAt       string `json:"cachedAt"`
	ExpiresAt      string `json:"expiresAt"`
	Error          string `json:"error,omitempty"`
	Cached         bool   `json:"cached"`
	Stale          bool   `json:"stale,omitempty"`
}

// Response is the body of a successful lookup
type Response struct {
	Data *releases.Release `json:"data"`
	Meta Meta              `json:"meta"`
}

// HandleGetRelease returns the latest release of a repository
// GET /api/github-release/{repo}
func (h *GetReleaseHandler) HandleGetRelease(w http.ResponseWriter, r *http.Request) {
	repo := chi.URLParam(r, "repo")
	if repo == "" {
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", "Repository name is required")
		return
	}

	result, err := h.service.Latest(r.Context(), repo)
	if err != nil {
		handleServiceError(w, h.service.Owner(), releases.SanitizeRepo(repo), err)
		return
	}

	handlers.WriteJSON(w, http.StatusOK, Response{
		Data: result.Release,
		Meta: buildMeta(result),
	})
}

func buildMeta(result *releases.Result) Meta {
	meta := Meta{
		Cached:    result.FromCache,
		CachedAt:  formatTime(result.CachedAt),
		ExpiresAt: formatTime(result.ExpiresAt),
	}

	if result.Stale {
		meta.Stale = true
		meta.Error = result.Warning
		return meta
	}

	synced := result.Sync.Matched
	updated := result.Sync.Updated
	meta.ProgramSynced = &synced
	meta.ProgramUpdated = &updated
	return meta
}

func formatTime(t time.Time) string {
	return t.UTC().Format(isoMillis)
}
