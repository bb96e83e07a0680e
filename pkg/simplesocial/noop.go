package simplesocial

import (
	"context"
)

// NoopQueryCache is a no-operation implementation of QueryCache.
// Every read misses, so every call goes to the document store.
type NoopQueryCache struct{}

// NewNoopQueryCache creates a new no-operation query cache
func NewNoopQueryCache() QueryCache {
	return &NoopQueryCache{}
}

// Get always reports a miss
func (n *NoopQueryCache) Get(ctx context.Context, key string, dest any) (bool, error) {
	return false, nil
}

// Set does nothing and returns nil
func (n *NoopQueryCache) Set(ctx context.Context, key string, value any, tags ...QueryKey) error {
	return nil
}

// Generation always returns zero
func (n *NoopQueryCache) Generation(keys ...QueryKey) uint64 {
	return 0
}

// SetIfUnchanged does nothing and reports that nothing was stored
func (n *NoopQueryCache) SetIfUnchanged(ctx context.Context, key string, value any, generation uint64, tags ...QueryKey) (bool, error) {
	return false, nil
}

// Invalidate does nothing and returns nil
func (n *NoopQueryCache) Invalidate(ctx context.Context, keys ...QueryKey) error {
	return nil
}
