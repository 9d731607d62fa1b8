package routes

import (
	"github.com/go-chi/chi/v5"

	programhandlers "Pfrastro/internal/api/handlers/program"
	"Pfrastro/internal/core/content"
)

// RegisterProgramRoutes registers program reads.
// Both routes accept ?syncGithub=true to refresh release data first.
func RegisterProgramRoutes(r chi.Router, service content.ProgramService) {
	handler := programhandlers.NewHandler(service)
	r.Get("/programs", handler.HandleList)
	r.Get("/programs/{id}", handler.HandleGet)
}
