package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	counterhandlers "Pfrastro/internal/api/handlers/counter"
	"Pfrastro/internal/core/content"
)

// RegisterCounterRoutes registers the view and download counter endpoints.
// limit wraps every counter route; pass nil for no extra limiting.
func RegisterCounterRoutes(r chi.Router, service content.CounterService, limit func(http.Handler) http.Handler) {
	handler := counterhandlers.NewHandler(service)

	r.Group(func(r chi.Router) {
		if limit != nil {
			r.Use(limit)
		}
		r.Post("/posts/{id}/view", handler.HandlePostView)
		r.Post("/portfolio-entries/{id}/view", handler.HandlePortfolioView)
		r.Post("/programs/{id}/download", handler.HandleProgramDownload)
	})
}
