package counter

import (
	"errors"
	"log/slog"
	"net/http"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/content"
)

// handleServiceError converts counter service errors to appropriate HTTP responses.
// subject names the record type in messages ("Post", "Portfolio entry", "Program").
func handleServiceError(w http.ResponseWriter, subject, failure string, err error) {
	switch {
	case errors.Is(err, content.ErrInvalidID):
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", subject+" ID is required")
	case errors.Is(err, content.ErrNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound", subject+" not found")
	default:
		slog.Error("[COUNTERS] failed to increment counter",
			"subject", subject,
			"error", err,
		)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", failure)
	}
}
