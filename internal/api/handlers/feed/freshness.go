package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	coreFeed "skyview/internal/core/feed"
)

// FreshnessHandler exposes cache introspection for the UI, which uses it
// to decide whether to show cached content immediately or block on a
// fresh fetch.
type FreshnessHandler struct {
	service coreFeed.Service
}

// NewFreshnessHandler creates a new freshness handler
func NewFreshnessHandler(service coreFeed.Service) *FreshnessHandler {
	return &FreshnessHandler{service: service}
}

// freshnessResponse reports age in whole seconds for the browser client.
type freshnessResponse struct {
	IsFresh    bool    `json:"isFresh"`
	AgeSeconds float64 `json:"ageSeconds"`
}

// HandleFreshness reports the age of the cached feed snapshot.
// GET /api/feed/{handle}/freshness
func (h *FreshnessHandler) HandleFreshness(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "InvalidHandle", "handle is required")
		return
	}

	freshness := h.service.Freshness(r.Context(), handle)
	if freshness == nil {
		writeError(w, http.StatusNotFound, "NotCached", "No cached feed for this handle")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	resp := freshnessResponse{
		IsFresh:    freshness.IsFresh,
		AgeSeconds: freshness.Age.Seconds(),
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode freshness response", "handle", handle, "error", err)
	}
}
