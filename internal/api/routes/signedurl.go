package routes

import (
	"github.com/go-chi/chi/v5"

	signedurlhandlers "Pfrastro/internal/api/handlers/signedurl"
)

// RegisterSignedURLRoutes registers the signed-URL endpoints.
//
// Routes:
//   - POST /signed-url       sign one reference
//   - POST /signed-urls      sign a batch of references
//   - GET  /signed-url/*     sign the key in the path, CDN cacheable
//   - GET  /image/*          302 to the signed URL, for use as <img src>
func RegisterSignedURLRoutes(r chi.Router, service signedurlhandlers.Service) {
	handler := signedurlhandlers.NewHandler(service)
	r.Post("/signed-url", handler.HandleCreate)
	r.Post("/signed-urls", handler.HandleCreateBatch)
	r.Get("/signed-url/*", handler.HandleGet)
	r.Get("/image/*", handler.HandleRedirect)
}
