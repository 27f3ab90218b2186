package feed

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"skyview/internal/appview"
	coreFeed "skyview/internal/core/feed"
	"skyview/internal/atproto/identity"
)

// APIError is the JSON error envelope returned to the UI.
type APIError struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, errorType, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := APIError{
		Error:   errorType,
		Message: message,
	}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// handleServiceError maps service errors to HTTP responses. These are the
// errors the UI is expected to render with a retry affordance; retrying is
// a caller decision, never automatic.
func handleServiceError(w http.ResponseWriter, err error) {
	var notFound *identity.ErrNotFound
	var invalid *identity.ErrInvalidIdentifier

	switch {
	case errors.Is(err, coreFeed.ErrInvalidHandle), errors.As(err, &invalid):
		writeError(w, http.StatusBadRequest, "InvalidHandle", err.Error())
	case errors.As(err, &notFound), errors.Is(err, appview.ErrNotFound):
		writeError(w, http.StatusNotFound, "NotFound", err.Error())
	case errors.Is(err, appview.ErrCircuitOpen):
		writeError(w, http.StatusServiceUnavailable, "UpstreamUnavailable",
			"The Bluesky AppView is temporarily unavailable")
	default:
		slog.Error("feed service error", "error", err)
		writeError(w, http.StatusBadGateway, "UpstreamError",
			"An error occurred while fetching the feed")
	}
}
