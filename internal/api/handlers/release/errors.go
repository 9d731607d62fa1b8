package release

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"Pfrastro/internal/api/handlers"
	"Pfrastro/internal/core/releases"
)

// handleServiceError converts release service errors to appropriate HTTP responses
func handleServiceError(w http.ResponseWriter, owner, repo string, err error) {
	switch {
	case errors.Is(err, releases.ErrInvalidRepo):
		handlers.WriteError(w, http.StatusBadRequest, "ValidationError", "Repository name is required")
	case errors.Is(err, releases.ErrReleaseNotFound):
		handlers.WriteError(w, http.StatusNotFound, "NotFound",
			fmt.Sprintf("Repository or release not found: %s/%s", owner, repo))
	case errors.Is(err, releases.ErrRateLimited):
		handlers.WriteError(w, http.StatusTooManyRequests, "RateLimited", "GitHub API rate limit exceeded")
	case errors.Is(err, releases.ErrUpstreamFailure):
		handlers.WriteError(w, http.StatusInternalServerError, "UpstreamFailure", "Failed to fetch release data from GitHub")
	default:
		slog.Error("[GITHUB-RELEASE] unhandled service error",
			"repo", repo,
			"error", err,
		)
		handlers.WriteError(w, http.StatusInternalServerError, "InternalServerError", "An internal error occurred")
	}
}
