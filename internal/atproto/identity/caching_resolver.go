package identity

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"
)

// keyPrefix namespaces identity entries in the shared cache store.
const keyPrefix = "skyview:ident:"

// cachingResolver wraps a base resolver with caching over a durable store.
// Identities are cached bidirectionally, by handle and by DID.
type cachingResolver struct {
	base  Resolver
	store Store
	ttl   time.Duration
}

func newCachingResolver(base Resolver, store Store, ttl time.Duration) Resolver {
	return &cachingResolver{base: base, store: store, ttl: ttl}
}

// Resolve resolves a handle or DID, cache-first. Store failures are
// logged and treated as misses; resolution never fails because of the
// cache.
func (r *cachingResolver) Resolve(ctx context.Context, identifier string) (*Identity, error) {
	key := cacheKey(identifier)

	if raw, err := r.store.Get(ctx, key); err == nil {
		var cached Identity
		if err := json.Unmarshal(raw, &cached); err == nil {
			cached.Method = MethodCache
			return &cached, nil
		}
		// Corrupt entry: evict and fall through to the base resolver.
		if delErr := r.store.Delete(ctx, key); delErr != nil {
			slog.Warn("failed to evict corrupt identity cache entry", "key", key, "error", delErr)
		}
	}

	ident, err := r.base.Resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}

	r.cache(ctx, ident)
	return ident, nil
}

// ResolveHandle specifically resolves a handle to its stable DID
func (r *cachingResolver) ResolveHandle(ctx context.Context, handle string) (string, error) {
	ident, err := r.Resolve(ctx, handle)
	if err != nil {
		return "", err
	}
	return ident.DID, nil
}

// Purge removes both cache entries for an identifier's identity.
func (r *cachingResolver) Purge(ctx context.Context, identifier string) error {
	ident, err := r.Resolve(ctx, identifier)
	if err == nil {
		if ident.Handle != "" {
			_ = r.store.Delete(ctx, cacheKey(ident.Handle))
		}
		_ = r.store.Delete(ctx, cacheKey(ident.DID))
		return nil
	}
	return r.store.Delete(ctx, cacheKey(identifier))
}

// cache writes the identity under both its handle and its DID. Failures
// are logged only; the cache is best-effort.
func (r *cachingResolver) cache(ctx context.Context, ident *Identity) {
	raw, err := json.Marshal(ident)
	if err != nil {
		slog.Warn("failed to encode identity for cache", "did", ident.DID, "error", err)
		return
	}
	if ident.Handle != "" {
		if err := r.store.Set(ctx, cacheKey(ident.Handle), raw, r.ttl); err != nil {
			slog.Warn("failed to cache identity by handle", "handle", ident.Handle, "error", err)
		}
	}
	if err := r.store.Set(ctx, cacheKey(ident.DID), raw, r.ttl); err != nil {
		slog.Warn("failed to cache identity by DID", "did", ident.DID, "error", err)
	}
}

// cacheKey normalizes handles to lowercase; DIDs are case-sensitive and
// pass through unchanged.
func cacheKey(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if !strings.HasPrefix(identifier, "did:") {
		identifier = strings.ToLower(identifier)
	}
	return keyPrefix + identifier
}
