package feed

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Default TTLs per logical resource. Profiles churn rarely; feed pages need
// low staleness given the infinite-scroll UX.
const (
	ProfileTTL = 30 * time.Minute
	PostsTTL   = 2 * time.Minute
	DefaultTTL = 5 * time.Minute
)

// keyPrefix namespaces every row this system writes into a shared store.
const keyPrefix = "skyview:"

func postsKey(handle string) string {
	return keyPrefix + "posts:" + normalizeHandle(handle)
}

func profileKey(actor string) string {
	return keyPrefix + "profile:" + normalizeHandle(actor)
}

// normalizeHandle lowercases handles so cache keys are case-insensitive.
// DIDs are case-sensitive and pass through unchanged.
func normalizeHandle(identifier string) string {
	identifier = strings.TrimSpace(identifier)
	if strings.HasPrefix(identifier, "did:") {
		return identifier
	}
	return strings.ToLower(identifier)
}

// postsSnapshot is the cached value for one account's feed: the accumulated
// thread forest across pagination calls plus the latest server cursor.
type postsSnapshot struct {
	Threads []*ThreadNode `json:"threads"`
	Cursor  *string       `json:"cursor,omitempty"`
}

// Cache is the typed layer over the raw key/value store. Every method
// degrades gracefully: store failures and corrupt payloads are logged and
// treated as an empty cache, never propagated.
type Cache struct {
	store  CacheStore
	logger *slog.Logger
}

// NewCache creates the typed cache over a durable store.
func NewCache(store CacheStore, logger *slog.Logger) *Cache {
	if store == nil {
		panic("feed: store cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{store: store, logger: logger.With("component", "feed-cache")}
}

// GetPosts returns the cached feed snapshot for a handle, or nil on miss.
func (c *Cache) GetPosts(ctx context.Context, handle string) *postsSnapshot {
	snap := &postsSnapshot{}
	if !c.getJSON(ctx, postsKey(handle), snap) {
		return nil
	}
	return snap
}

// ReplacePosts stores a fresh initial snapshot, discarding whatever was
// cached for the handle before.
func (c *Cache) ReplacePosts(ctx context.Context, handle string, threads []*ThreadNode, cursor *string) {
	c.setJSON(ctx, postsKey(handle), &postsSnapshot{Threads: threads, Cursor: cursor}, PostsTTL)
}

// AppendPage merges a foreground pagination result into the cached
// snapshot: new threads (deduplicated by root post URI) are concatenated
// after the existing ones and the cursor is replaced. With no prior entry
// the page is treated as a fresh initial set. The write always happens so
// the cursor keeps advancing even when every entry was already cached.
func (c *Cache) AppendPage(ctx context.Context, handle string, threads []*ThreadNode, cursor *string) {
	existing := c.GetPosts(ctx, handle)
	if existing == nil {
		c.ReplacePosts(ctx, handle, threads, cursor)
		return
	}
	merged := append(existing.Threads, dedupeThreads(existing.Threads, threads)...)
	c.setJSON(ctx, postsKey(handle), &postsSnapshot{Threads: merged, Cursor: cursor}, PostsTTL)
}

// AppendPosts is the idempotent variant used by background preloading: it
// only writes when at least one incoming thread is not already cached, so a
// preload that returns nothing new causes no cache churn and no TTL reset.
func (c *Cache) AppendPosts(ctx context.Context, handle string, threads []*ThreadNode, cursor *string) {
	existing := c.GetPosts(ctx, handle)
	if existing == nil {
		c.ReplacePosts(ctx, handle, threads, cursor)
		return
	}
	fresh := dedupeThreads(existing.Threads, threads)
	if len(fresh) == 0 {
		c.logger.Debug("preload returned no new posts, skipping cache write", "handle", handle)
		return
	}
	merged := append(existing.Threads, fresh...)
	c.setJSON(ctx, postsKey(handle), &postsSnapshot{Threads: merged, Cursor: cursor}, PostsTTL)
}

// GetProfile returns the cached profile for an actor, or nil on miss.
func (c *Cache) GetProfile(ctx context.Context, actor string) *Profile {
	profile := &Profile{}
	if !c.getJSON(ctx, profileKey(actor), profile) {
		return nil
	}
	return profile
}

// SetProfile caches a profile snapshot under the actor it was looked up by.
func (c *Cache) SetProfile(ctx context.Context, actor string, profile *Profile) {
	c.setJSON(ctx, profileKey(actor), profile, ProfileTTL)
}

// PostsFreshness reports the age of the cached feed snapshot without
// evicting it. Returns nil when nothing is cached.
func (c *Cache) PostsFreshness(ctx context.Context, handle string) *CacheFreshness {
	storedAt, _, err := c.store.Freshness(ctx, postsKey(handle))
	if err != nil {
		return nil
	}
	age := time.Since(storedAt)
	return &CacheFreshness{IsFresh: age <= PostsTTL, Age: age}
}

// Clear removes every entry this system wrote. Rows outside the skyview
// namespace are never touched.
func (c *Cache) Clear(ctx context.Context) {
	if err := c.store.DeletePrefix(ctx, keyPrefix); err != nil {
		c.logger.Warn("failed to clear cache", "error", err)
	}
}

// getJSON reads and decodes a cache entry. A corrupt payload is treated as
// a miss and the offending row is evicted.
func (c *Cache) getJSON(ctx context.Context, key string, out any) bool {
	raw, err := c.store.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			c.logger.Warn("cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("evicting corrupt cache entry", "key", key, "error", err)
		if delErr := c.store.Delete(ctx, key); delErr != nil {
			c.logger.Warn("failed to evict corrupt cache entry", "key", key, "error", delErr)
		}
		return false
	}
	return true
}

// setJSON encodes and writes a cache entry. Never fails: persistence
// errors are swallowed and logged, leaving prior state unaffected.
func (c *Cache) setJSON(ctx context.Context, key string, value any, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Warn("cache write failed", "key", key, "error", err)
	}
}

// dedupeThreads returns the incoming threads whose root post URI is not
// already present among the existing ones, preserving incoming order.
func dedupeThreads(existing, incoming []*ThreadNode) []*ThreadNode {
	seen := make(map[string]struct{}, len(existing))
	for _, node := range existing {
		if uri := rootURI(node); uri != "" {
			seen[uri] = struct{}{}
		}
	}
	var fresh []*ThreadNode
	for _, node := range incoming {
		uri := rootURI(node)
		if uri == "" {
			continue
		}
		if _, dup := seen[uri]; dup {
			continue
		}
		seen[uri] = struct{}{}
		fresh = append(fresh, node)
	}
	return fresh
}

func rootURI(node *ThreadNode) string {
	if node == nil || node.Entry == nil || node.Entry.Post == nil {
		return ""
	}
	return node.Entry.Post.URI
}
