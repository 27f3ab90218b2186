package feed

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"
)

// DefaultPageSize is the feed page size when the caller does not specify one.
const DefaultPageSize = 25

// preloadTimeout bounds a detached background preload so an unresponsive
// AppView cannot pin the in-flight flag forever.
const preloadTimeout = 30 * time.Second

// service implements the Service interface: it orchestrates handle
// resolution, feed retrieval, filtering, thread assembly, avatar
// enrichment and cache merging.
type service struct {
	client     Client
	resolver   HandleResolver
	cache      *Cache
	enricher   *avatarEnricher
	logger     *slog.Logger
	pageSize   int
	preloading atomic.Bool
}

// NewService creates the feed service.
func NewService(client Client, resolver HandleResolver, cache *Cache, opts ...ServiceOption) Service {
	if client == nil {
		panic("feed: client cannot be nil")
	}
	if resolver == nil {
		panic("feed: resolver cannot be nil")
	}
	if cache == nil {
		panic("feed: cache cannot be nil")
	}

	s := &service{
		client:   client,
		resolver: resolver,
		cache:    cache,
		logger:   slog.Default().With("component", "feed-service"),
		pageSize: DefaultPageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.enricher = &avatarEnricher{lookup: s.resolveProfileQuiet}
	return s
}

// ServiceOption configures the service
type ServiceOption func(*service)

// WithLogger sets the structured logger
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *service) {
		s.logger = logger.With("component", "feed-service")
	}
}

// WithPageSize sets the default feed page size
func WithPageSize(size int) ServiceOption {
	return func(s *service) {
		s.pageSize = size
	}
}

// FetchPosts returns one page of the account's feed as an ordered thread
// forest. Only the first page (no cursor) is ever cache-served; paginated
// requests always hit the network and append into the cache.
func (s *service) FetchPosts(ctx context.Context, req FetchPostsRequest) (*FetchPostsResponse, error) {
	if req.Handle == "" {
		return nil, fmt.Errorf("%w: handle cannot be empty", ErrInvalidHandle)
	}
	limit := req.Limit
	if limit <= 0 {
		limit = s.pageSize
	}

	isInitial := req.Cursor == ""
	if isInitial && req.UseCache {
		if snap := s.cache.GetPosts(ctx, req.Handle); snap != nil {
			s.logger.Debug("serving feed from cache", "handle", req.Handle, "threads", len(snap.Threads))
			return &FetchPostsResponse{Threads: snap.Threads, Cursor: snap.Cursor}, nil
		}
	}

	did, err := s.resolver.ResolveHandle(ctx, req.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve handle %q: %w", req.Handle, err)
	}

	page, err := s.client.GetAuthorFeed(ctx, did, limit, req.Cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed for %q: %w", req.Handle, err)
	}

	threads := s.assemble(ctx, did, page.Entries)

	if isInitial {
		s.cache.ReplacePosts(ctx, req.Handle, threads, page.Cursor)
	} else {
		s.cache.AppendPage(ctx, req.Handle, threads, page.Cursor)
	}

	s.logger.Info("fetched feed page",
		"handle", req.Handle, "entries", len(page.Entries), "threads", len(threads), "initial", isInitial)

	return &FetchPostsResponse{Threads: threads, Cursor: page.Cursor}, nil
}

// assemble runs the filter, builder and enricher over one raw page.
func (s *service) assemble(ctx context.Context, did string, entries []*FeedEntry) []*ThreadNode {
	filter := newThreadFilter(s.client, did, s.logger)
	kept := filter.filter(ctx, entries)
	threads := buildThreads(kept)
	return s.enricher.enrich(ctx, threads)
}

// FetchProfile returns the account profile, cache-first. It never errors
// outward: the profile is cosmetic, and a failed lookup returns nil.
func (s *service) FetchProfile(ctx context.Context, handle string) *Profile {
	return s.resolveProfileQuiet(ctx, handle)
}

// resolveProfileQuiet resolves a profile by handle or DID, cache-first,
// absorbing all failures into a nil result.
func (s *service) resolveProfileQuiet(ctx context.Context, actor string) *Profile {
	if cached := s.cache.GetProfile(ctx, actor); cached != nil {
		return cached
	}
	profile, err := s.client.GetProfile(ctx, actor)
	if err != nil {
		s.logger.Warn("profile lookup failed", "actor", actor, "error", err)
		return nil
	}
	s.cache.SetProfile(ctx, actor, profile)
	return profile
}

// Freshness reports the age of the cached feed snapshot for a handle.
func (s *service) Freshness(ctx context.Context, handle string) *CacheFreshness {
	return s.cache.PostsFreshness(ctx, handle)
}

// PreloadNextBatch fetches the page behind the cached cursor and appends
// it to the cache, detached from the caller. Re-entrancy is guarded by an
// in-flight flag: at most one preload runs at a time, and a second call
// while one is running is a no-op. Failures are logged and discarded.
func (s *service) PreloadNextBatch(ctx context.Context, handle string) {
	if !s.preloading.CompareAndSwap(false, true) {
		s.logger.Debug("preload already in flight, skipping", "handle", handle)
		return
	}

	go func() {
		defer s.preloading.Store(false)

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), preloadTimeout)
		defer cancel()

		snap := s.cache.GetPosts(ctx, handle)
		if snap == nil || snap.Cursor == nil || *snap.Cursor == "" {
			s.logger.Debug("no cached cursor to preload from", "handle", handle)
			return
		}

		did, err := s.resolver.ResolveHandle(ctx, handle)
		if err != nil {
			s.logger.Warn("preload handle resolution failed", "handle", handle, "error", err)
			return
		}

		page, err := s.client.GetAuthorFeed(ctx, did, s.pageSize, *snap.Cursor)
		if err != nil {
			s.logger.Warn("preload fetch failed", "handle", handle, "error", err)
			return
		}

		threads := s.assemble(ctx, did, page.Entries)
		s.cache.AppendPosts(ctx, handle, threads, page.Cursor)
		s.logger.Info("preloaded next feed page", "handle", handle, "threads", len(threads))
	}()
}
