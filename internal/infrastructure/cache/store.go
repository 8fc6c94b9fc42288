package cache

import (
	"context"
	"time"
)

// Store is the key-value interface backing the customer cache. A ttl of 0
// means the entry never expires.
type Store interface {
	// Get returns the value for key and whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores value under key with the given ttl (0 = no expiry)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting an absent key is a no-op, not an error.
	Delete(ctx context.Context, key string) error
}

// Incrementer is an optional Store capability: an atomic counter increment.
// Stores that implement it can back the strict version-bump mode.
type Incrementer interface {
	// Increment atomically increments the integer at key and returns the
	// new value, initializing to 1 if the key is absent
	Increment(ctx context.Context, key string) (int64, error)
}
