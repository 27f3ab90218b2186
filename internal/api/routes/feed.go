package routes

import (
	"github.com/go-chi/chi/v5"

	feedHandlers "skyview/internal/api/handlers/feed"
	"skyview/internal/core/feed"
)

// RegisterFeedRoutes registers the read-only viewer endpoints
func RegisterFeedRoutes(r chi.Router, feedService feed.Service) {
	getFeedHandler := feedHandlers.NewGetFeedHandler(feedService)
	getProfileHandler := feedHandlers.NewGetProfileHandler(feedService)
	freshnessHandler := feedHandlers.NewFreshnessHandler(feedService)
	preloadHandler := feedHandlers.NewPreloadHandler(feedService)

	// GET /api/feed/{handle}: one page of reconstructed threads
	r.Get("/api/feed/{handle}", getFeedHandler.HandleGetFeed)

	// GET /api/feed/{handle}/freshness: cache introspection
	r.Get("/api/feed/{handle}/freshness", freshnessHandler.HandleFreshness)

	// POST /api/feed/{handle}/preload: fire-and-forget next-page preload
	r.Post("/api/feed/{handle}/preload", preloadHandler.HandlePreload)

	// GET /api/profile/{handle}: profile snapshot
	r.Get("/api/profile/{handle}", getProfileHandler.HandleGetProfile)
}
