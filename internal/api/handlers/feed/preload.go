package feed

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	coreFeed "skyview/internal/core/feed"
)

// PreloadHandler triggers background preloading of the next feed page,
// called by the UI when the scroll position nears the end of loaded
// content.
type PreloadHandler struct {
	service coreFeed.Service
}

// NewPreloadHandler creates a new preload handler
func NewPreloadHandler(service coreFeed.Service) *PreloadHandler {
	return &PreloadHandler{service: service}
}

// HandlePreload kicks off a detached next-page fetch and returns
// immediately. The operation is best-effort; the caller observes no
// result, and a preload already in flight makes this a no-op.
// POST /api/feed/{handle}/preload
func (h *PreloadHandler) HandlePreload(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "InvalidHandle", "handle is required")
		return
	}

	h.service.PreloadNextBatch(r.Context(), handle)
	w.WriteHeader(http.StatusAccepted)
}
