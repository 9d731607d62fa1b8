package program

import (
	"errors"
	"log/slog"
	"net/http"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/content"
)

// handleServiceError converts program service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, content.ErrInvalidID):
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", "Program ID is required")
	case errors.Is(err, content.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", "Program not found")
	default:
		slog.Error("[PROGRAMS] handler error", "error", err)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
