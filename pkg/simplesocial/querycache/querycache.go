// Package querycache is the read cache of the social service. Entries are
// msgpack-encoded by a gocache marshaler over a ristretto store and tagged
// with the query keys they depend on, so a mutation can drop every entry
// derived from the data it changed.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/marshaler"
	"github.com/eko/gocache/lib/v4/store"
	ristretto_store "github.com/eko/gocache/store/ristretto/v4"

	"github.com/tendant/simple-social/pkg/simplesocial"
)

// DefaultTTL bounds how long an entry may outlive a missed invalidation.
const DefaultTTL = 5 * time.Minute

// Cache implements simplesocial.QueryCache.
type Cache struct {
	// mu serializes writes: the ristretto store keeps tag indexes as regular
	// entries, updated read-modify-write.
	mu      sync.Mutex
	client  *ristretto.Cache
	marshal *marshaler.Marshaler
	ttl     time.Duration
	maxCost int64

	// generations counts invalidations per tag; epoch counts clears
	generations map[string]uint64
	epoch       uint64
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL sets the expiration of cached reads.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithMaxCost sets the ristretto cost budget.
func WithMaxCost(maxCost int64) Option {
	return func(c *Cache) {
		if maxCost > 0 {
			c.maxCost = maxCost
		}
	}
}

// New creates an in-process query cache.
func New(options ...Option) (*Cache, error) {
	c := &Cache{
		ttl:         DefaultTTL,
		maxCost:     1 << 30,
		generations: make(map[string]uint64),
	}
	for _, option := range options {
		option(c)
	}

	client, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,
		MaxCost:     c.maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("create ristretto cache: %w", err)
	}

	c.client = client
	c.marshal = marshaler.New(cache.New[any](ristretto_store.NewRistretto(client)))
	return c, nil
}

// Get decodes the entry under key into dest. A missing entry is reported as
// (false, nil).
func (c *Cache) Get(ctx context.Context, key string, dest any) (bool, error) {
	if _, err := c.marshal.Get(ctx, key, dest); err != nil {
		var notFound *store.NotFound
		if errors.As(err, &notFound) {
			return false, nil
		}
		return false, fmt.Errorf("query cache get %s: %w", key, err)
	}
	return true, nil
}

// Set stores value under key, tagged with tags.
func (c *Cache) Set(ctx context.Context, key string, value any, tags ...simplesocial.QueryKey) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.set(ctx, key, value, tags)
}

// Generation returns the sum of the invalidation counters of keys and of
// Clear. Counters only grow, so the sum changes whenever one of them does.
func (c *Cache) Generation(keys ...simplesocial.QueryKey) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.generation(keys)
}

// SetIfUnchanged stores value unless one of tags was invalidated, or the
// cache cleared, after generation was taken. It reports whether the value
// was stored.
func (c *Cache) SetIfUnchanged(ctx context.Context, key string, value any, generation uint64, tags ...simplesocial.QueryKey) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.generation(tags) != generation {
		return false, nil
	}
	if err := c.set(ctx, key, value, tags); err != nil {
		return false, err
	}
	return true, nil
}

func (c *Cache) generation(keys []simplesocial.QueryKey) uint64 {
	sum := c.epoch
	for _, k := range keys {
		sum += c.generations[string(k)]
	}
	return sum
}

func (c *Cache) set(ctx context.Context, key string, value any, tags []simplesocial.QueryKey) error {
	err := c.marshal.Set(ctx, key, value,
		store.WithExpiration(c.ttl),
		store.WithTags(tagStrings(tags)),
	)
	if err != nil {
		return fmt.Errorf("query cache set %s: %w", key, err)
	}
	// ristretto applies writes asynchronously
	c.client.Wait()
	return nil
}

// Invalidate drops every entry tagged with any of keys.
func (c *Cache) Invalidate(ctx context.Context, keys ...simplesocial.QueryKey) error {
	if len(keys) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	for _, k := range keys {
		c.generations[string(k)]++
	}
	if err := c.marshal.Invalidate(ctx, store.WithInvalidateTags(tagStrings(keys))); err != nil {
		return fmt.Errorf("query cache invalidate %v: %w", keys, err)
	}
	c.client.Wait()
	return nil
}

// Clear drops every entry.
func (c *Cache) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.epoch++
	if err := c.marshal.Clear(ctx); err != nil {
		return fmt.Errorf("query cache clear: %w", err)
	}
	c.client.Wait()
	return nil
}

// Close stops the ristretto background goroutines.
func (c *Cache) Close() {
	c.client.Close()
}

func tagStrings(keys []simplesocial.QueryKey) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = string(k)
	}
	return out
}

var _ simplesocial.QueryCache = (*Cache)(nil)
