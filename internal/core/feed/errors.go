package feed

import "errors"

// Sentinel errors for typed error checking
var (
	// ErrCacheMiss is returned by a CacheStore when a key is absent or expired
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidHandle is returned when the requested handle cannot be resolved
	ErrInvalidHandle = errors.New("invalid handle")
)
