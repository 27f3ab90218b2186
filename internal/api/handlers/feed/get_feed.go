package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	coreFeed "skyview/internal/core/feed"
)

// maxPageSize caps the limit parameter so a single request cannot ask the
// AppView for an oversized page.
const maxPageSize = 100

// GetFeedHandler handles thread-reconstructed feed retrieval
type GetFeedHandler struct {
	service coreFeed.Service
}

// NewGetFeedHandler creates a new feed handler
func NewGetFeedHandler(service coreFeed.Service) *GetFeedHandler {
	return &GetFeedHandler{service: service}
}

// HandleGetFeed returns one page of an account's feed as ordered threads.
// GET /api/feed/{handle}?cursor=...&limit=25&fresh=1
func (h *GetFeedHandler) HandleGetFeed(w http.ResponseWriter, r *http.Request) {
	handle := chi.URLParam(r, "handle")
	if handle == "" {
		writeError(w, http.StatusBadRequest, "InvalidHandle", "handle is required")
		return
	}

	req, err := h.parseRequest(r, handle)
	if err != nil {
		writeError(w, http.StatusBadRequest, "InvalidRequest", err.Error())
		return
	}

	response, err := h.service.FetchPosts(r.Context(), req)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		// Headers already sent, can only log
		slog.Error("failed to encode feed response", "handle", handle, "error", err)
	}
}

// parseRequest parses query parameters into a FetchPostsRequest
func (h *GetFeedHandler) parseRequest(r *http.Request, handle string) (coreFeed.FetchPostsRequest, error) {
	req := coreFeed.FetchPostsRequest{
		Handle:   handle,
		Cursor:   r.URL.Query().Get("cursor"),
		UseCache: r.URL.Query().Get("fresh") != "1",
	}

	if rawLimit := r.URL.Query().Get("limit"); rawLimit != "" {
		limit, err := strconv.Atoi(rawLimit)
		if err != nil || limit < 1 {
			return req, errInvalidLimit
		}
		if limit > maxPageSize {
			limit = maxPageSize
		}
		req.Limit = limit
	}

	return req, nil
}
