package identity

import (
	"context"
	"time"
)

// Resolver provides methods for resolving atProto identities
type Resolver interface {
	// Resolve resolves a handle or DID to complete identity information
	// The identifier can be either:
	// - A handle (e.g., "alice.bsky.social")
	// - A DID (e.g., "did:plc:abc123")
	Resolve(ctx context.Context, identifier string) (*Identity, error)

	// ResolveHandle specifically resolves a handle to its stable DID
	// This is a convenience method for handle-only resolution
	ResolveHandle(ctx context.Context, handle string) (string, error)

	// Purge removes an identifier from the cache
	Purge(ctx context.Context, identifier string) error
}

// Store is the durable key/value cache identities are kept in. Satisfied
// by the postgres cache repository. Get returns an error on miss; callers
// treat any Get error as a miss.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// NewResolver creates the default resolver: indigo-backed resolution
// wrapped with caching over the given store. With a nil store the base
// resolver is returned uncached.
func NewResolver(plcURL string, store Store, ttl time.Duration) Resolver {
	base := newBaseResolver(plcURL)
	if store == nil {
		return base
	}
	return newCachingResolver(base, store, ttl)
}
