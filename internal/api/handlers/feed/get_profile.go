package feed

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	coreFeed "skyview/internal/core/feed"
)

var errInvalidLimit = errors.New("limit must be a positive integer")

// GetProfileHandler handles profile retrieval
type GetProfileHandler struct {
	service coreFeed.Service
}

// NewGetProfileHandler creates a new profile handler
func NewGetProfileHandler(service coreFeed.Service) *GetProfileHandler {
	return &GetProfileHandler{service: service}
}

// HandleGetProfile returns the account profile, cache-first.
// GET /api/profile/{handle}
// The service absorbs lookup failures, so the only failure mode here is
// "no profile", reported as 404.
func (h *GetProfileHandler) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "InvalidHandle", "handle is required")
		return
	}

	profile := h.service.FetchProfile(r.Context(), handle)
	if profile == nil {
		writeError(w, http.StatusNotFound, "ProfileNotFound", "Profile could not be resolved")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(profile); err != nil {
		slog.Error("failed to encode profile response", "handle", handle, "error", err)
	}
}
