package cache

import (
	"context"
	"time"
)

// Store keeps raw lookup payloads for a bounded time.
type Store interface {
	// Get returns the cached value and whether it was found.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
