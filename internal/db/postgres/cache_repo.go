package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"skyview/internal/core/feed"
)

// CacheRepo is a namespaced key/value store with per-entry TTL, backed by
// the cache_entries table. It implements feed.CacheStore and the narrower
// identity.Store.
type CacheRepo struct {
	db *sql.DB
}

// NewCacheRepo creates the postgres-backed cache store
func NewCacheRepo(db *sql.DB) *CacheRepo {
	if db == nil {
		panic("postgres: db cannot be nil")
	}
	return &CacheRepo{db: db}
}

// Get returns the stored value for a key. An absent or expired row reads
// as feed.ErrCacheMiss; an expired read evicts the row so the next read is
// an identical miss.
func (r *CacheRepo) Get(ctx context.Context, key string) ([]byte, error) {
	query := `
		SELECT value, expires_at
		FROM cache_entries
		WHERE key = $1
	`

	var value []byte
	var expiresAt time.Time
	err := r.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, feed.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if time.Now().After(expiresAt) {
		if err := r.Delete(ctx, key); err != nil {
			return nil, fmt.Errorf("failed to evict expired cache entry: %w", err)
		}
		return nil, feed.ErrCacheMiss
	}

	return value, nil
}

// Set upserts a value with the given TTL, resetting the stored-at time.
func (r *CacheRepo) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	query := `
		INSERT INTO cache_entries (key, value, stored_at, expires_at)
		VALUES ($1, $2, NOW(), NOW() + $3::interval)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value,
		    stored_at = EXCLUDED.stored_at,
		    expires_at = EXCLUDED.expires_at
	`

	_, err := r.db.ExecContext(ctx, query, key, value, formatInterval(ttl))
	if err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// Delete removes a single key. Deleting an absent key is not an error.
func (r *CacheRepo) Delete(ctx context.Context, key string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = $1`, key)
	if err != nil {
		return fmt.Errorf("failed to delete cache entry: %w", err)
	}
	return nil
}

// DeletePrefix removes every key under a prefix. Callers pass their own
// namespace prefix, so rows written by anything else are never touched.
func (r *CacheRepo) DeletePrefix(ctx context.Context, prefix string) error {
	query := `DELETE FROM cache_entries WHERE key LIKE $1 || '%'`
	_, err := r.db.ExecContext(ctx, query, prefix)
	if err != nil {
		return fmt.Errorf("failed to delete cache entries under %q: %w", prefix, err)
	}
	return nil
}

// Freshness returns the write time and TTL of a key without evicting it,
// even when the entry has already expired.
func (r *CacheRepo) Freshness(ctx context.Context, key string) (time.Time, time.Duration, error) {
	query := `
		SELECT stored_at, expires_at
		FROM cache_entries
		WHERE key = $1
	`

	var storedAt, expiresAt time.Time
	err := r.db.QueryRowContext(ctx, query, key).Scan(&storedAt, &expiresAt)
	if err == sql.ErrNoRows {
		return time.Time{}, 0, feed.ErrCacheMiss
	}
	if err != nil {
		return time.Time{}, 0, fmt.Errorf("failed to read cache entry freshness: %w", err)
	}

	return storedAt, expiresAt.Sub(storedAt), nil
}

// DeleteExpired reaps rows whose TTL has passed. Run periodically so
// abandoned accounts do not accumulate.
func (r *CacheRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE expires_at <= NOW()`)
	if err != nil {
		return 0, fmt.Errorf("failed to reap expired cache entries: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, nil
	}
	return rows, nil
}

// formatInterval converts a Go duration to a PostgreSQL interval string
func formatInterval(d time.Duration) string {
	seconds := int64(d.Seconds())

	switch {
	case seconds >= 86400:
		return fmt.Sprintf("%d days", seconds/86400)
	case seconds >= 3600:
		return fmt.Sprintf("%d hours", seconds/3600)
	case seconds >= 60:
		return fmt.Sprintf("%d minutes", seconds/60)
	default:
		return fmt.Sprintf("%d seconds", seconds)
	}
}
