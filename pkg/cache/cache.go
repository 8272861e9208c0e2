// Package cache provides the shared TTL key/value store behind rate limiting
// and the health-check cache probe.
//
// Entries expire on their own; nothing in the request path deletes keys
// explicitly. Incr is atomic per key so concurrent requests from the same
// identity cannot undercount.
package cache

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned by helpers that require a key to exist.
	ErrNotFound = errors.New("cache: key not found")

	// ErrClosed is returned after Close.
	ErrClosed = errors.New("cache: closed")

	// ErrNotCounter is returned by Incr when the stored value is not an integer.
	ErrNotCounter = errors.New("cache: value is not a counter")
)

// Counter is the result of an atomic increment.
type Counter struct {
	// Value is the count after the increment.
	Value int64

	// ExpiresAt is when the counter disappears. It is fixed when the counter
	// is created and never extended by later increments.
	ExpiresAt time.Time
}

// Cache is a TTL key/value store safe for concurrent use.
type Cache interface {
	// Get returns the value for key. ok is false when the key is absent or expired.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key for ttl. A ttl <= 0 stores without expiry.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Add stores value only if key is absent or expired. It reports whether
	// the value was stored.
	Add(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)

	// Incr atomically increments the integer under key. An absent key starts
	// at 1 and expires after ttl.
	Incr(ctx context.Context, key string, ttl time.Duration) (Counter, error)

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Ping reports whether the backend is usable.
	Ping(ctx context.Context) error

	// Close releases resources held by the backend.
	Close() error
}

// expiry converts a ttl into an absolute deadline. The zero time means never.
func expiry(now time.Time, ttl time.Duration) time.Time {
	if ttl <= 0 {
		return time.Time{}
	}
	return now.Add(ttl)
}
