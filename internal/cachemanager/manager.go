package cachemanager

import (
	"context"
)

// CacheManager is a named store with add-if-absent semantics. Entries are
// never replaced by Add; Flush is the only way to clear them.
type CacheManager[K comparable, V any] interface {
	Get(ctx context.Context, key K) (V, bool)
	Add(ctx context.Context, key K, value V) (V, bool)
	Keys(ctx context.Context) []K
	Len(ctx context.Context) int
	Flush(ctx context.Context) error
}
