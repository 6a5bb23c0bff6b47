package cachemanager

import (
	"context"
	"sort"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/stagehand/internal/log"
)

// NoExpiration keeps entries for the life of the process.
const NoExpiration = gocache.NoExpiration

// NoCleanup disables the go-cache janitor goroutine.
const NoCleanup time.Duration = 0

// NewInMemoryCacheManager creates a cache whose entries never expire.
// useCase names the cache in log output.
func NewInMemoryCacheManager[K ~string, V any](useCase string) *InMemoryCacheManager[K, V] {
	return &InMemoryCacheManager[K, V]{
		useCase: useCase,
		cache:   gocache.New(NoExpiration, NoCleanup),
	}
}

// InMemoryCacheManager is the go-cache backed implementation of CacheManager.
type InMemoryCacheManager[K ~string, V any] struct {
	useCase string
	cache   *gocache.Cache
}

// Get retrieves an item from the cache by its key
func (c *InMemoryCacheManager[K, V]) Get(ctx context.Context, key K) (V, bool) {
	var zeroValue V
	value, found := c.cache.Get(string(key))
	if !found {
		return zeroValue, false
	}

	v, ok := value.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type assertion when getting value", "cache", c.useCase, "key", key)
		return zeroValue, false
	}

	return v, true
}

// Add stores value under key unless the key is already present. It returns
// the resident value and whether this call inserted it.
func (c *InMemoryCacheManager[K, V]) Add(ctx context.Context, key K, value V) (V, bool) {
	if err := c.cache.Add(string(key), value, NoExpiration); err == nil {
		log.Debug(log.CatCache, "cache add", "cache", c.useCase, "key", key)
		return value, true
	}

	resident, ok := c.Get(ctx, key)
	if !ok {
		// Present under go-cache but holding a foreign type; the first
		// writer still wins, so report the new value as not inserted.
		return value, false
	}
	log.Debug(log.CatCache, "cache add ignored, key present", "cache", c.useCase, "key", key)
	return resident, false
}

// Keys returns the stored keys in sorted order.
func (c *InMemoryCacheManager[K, V]) Keys(ctx context.Context) []K {
	items := c.cache.Items()
	keys := make([]K, 0, len(items))
	for k := range items {
		keys = append(keys, K(k))
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Len returns the number of stored entries.
func (c *InMemoryCacheManager[K, V]) Len(ctx context.Context) int {
	return c.cache.ItemCount()
}

// Flush removes every entry.
func (c *InMemoryCacheManager[K, V]) Flush(ctx context.Context) error {
	c.cache.Flush()
	log.Debug(log.CatCache, "cache flushed", "cache", c.useCase)
	return nil
}
