package feed

import (
	"context"
	"time"
)

// Service defines the read-only feed surface exposed to the HTTP layer.
type Service interface {
	// FetchPosts returns one page of the account's feed, reconstructed into
	// threads and merged into the cache. Errors surface only from the
	// first-page transport or handle resolution; ancestor and profile
	// lookups are absorbed internally.
	FetchPosts(ctx context.Context, req FetchPostsRequest) (*FetchPostsResponse, error)

	// FetchProfile returns the account profile, cache-first.
	// Returns nil on any failure; the profile is cosmetic, not critical.
	FetchProfile(ctx context.Context, handle string) *Profile

	// Freshness reports the age of the cached feed snapshot for a handle,
	// or nil when nothing is cached.
	Freshness(ctx context.Context, handle string) *CacheFreshness

	// PreloadNextBatch fetches the next page behind the cached cursor in the
	// background and appends it to the cache. Best-effort: failures are
	// logged and discarded, and at most one preload runs at a time.
	PreloadNextBatch(ctx context.Context, handle string)
}

// Client is the remote AppView surface the service depends on.
// Implemented by internal/appview against public.api.bsky.app.
type Client interface {
	// GetAuthorFeed retrieves one page of an author's feed by DID.
	GetAuthorFeed(ctx context.Context, did string, limit int, cursor string) (*FeedPage, error)

	// GetPost fetches a single post by AT-URI with no thread expansion.
	// Used by the filter's ancestor walk; callers treat any error as the
	// post being unreachable.
	GetPost(ctx context.Context, atURI string) (*Post, error)

	// GetProfile fetches a profile by handle or DID.
	GetProfile(ctx context.Context, actor string) (*Profile, error)
}

// HandleResolver resolves a handle to its stable DID.
// Satisfied by internal/atproto/identity.Resolver.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// CacheStore is the durable namespaced key/value store backing the cache
// layer. Get returns ErrCacheMiss when the key is absent or expired; an
// expired read evicts the row. Store failures are never fatal to callers.
type CacheStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error

	// DeletePrefix removes every key under the given prefix. Used by Clear
	// so third-party rows in a shared table are never touched.
	DeletePrefix(ctx context.Context, prefix string) error

	// Freshness returns the write time and TTL of a key without evicting.
	Freshness(ctx context.Context, key string) (storedAt time.Time, ttl time.Duration, err error)
}
