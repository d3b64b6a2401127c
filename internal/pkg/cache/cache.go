// Package cache defines the read-through cache port used by the catalog
// search path. Implementations must be safe for concurrent use.
package cache

import (
	"context"
	"time"
)

type Cache interface {
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	// Get returns the cached value, or "" on a miss.
	Get(ctx context.Context, key string) (string, error)
	GenerateKey(operation, key string) string
}
