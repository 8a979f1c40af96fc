package ports

import (
	"context"
	"time"
)

// Cache is a key-value side store for status snapshots and relay cursors.
// It is never the source of truth for record state.
type Cache interface {
	Get(ctx context.Context, key string) (value string, found bool, err error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}
