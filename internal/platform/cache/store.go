// Package cache provides the key/value stores behind read-through lookups.
package cache

import (
	"context"
	"time"
)

// Store is a byte-oriented cache with per-entry expiry. Get reports a miss
// with ok=false and a nil error; errors are reserved for backend failures.
type Store interface {
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
}
