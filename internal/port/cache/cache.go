// Package cache defines the byte cache port used for fetched page text.
package cache

import (
	"context"
	"time"
)

// Cache is a keyed byte cache with per-entry TTL.
type Cache interface {
	// Get retrieves a value. ok is false on miss.
	Get(ctx context.Context, key string) (data []byte, ok bool, err error)

	// Set stores a value with the given TTL.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes a value. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}
