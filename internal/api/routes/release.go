package routes

import (
	"github.com/go-chi/chi/v5"

	releasehandlers "Pfrastro/internal/api/handlers/release"
)

// RegisterReleaseRoutes registers the GitHub release endpoint on the router.
//
// Route: GET /github-release/{repo}
func RegisterReleaseRoutes(r chi.Router, service releasehandlers.Service) {
	handler := releasehandlers.NewGetReleaseHandler(service)
	r.Get("/github-release/{repo}", handler.HandleGetRelease)
}
