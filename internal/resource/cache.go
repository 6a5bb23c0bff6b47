// Package resource implements the load-once, reuse-by-name cache for views,
// fragments and stylesheets.
package resource

import (
	"context"
	"fmt"

	"github.com/zjrosen/stagehand/internal/cachemanager"
	"github.com/zjrosen/stagehand/internal/loader"
	"github.com/zjrosen/stagehand/internal/log"
)

// Entry is a cached artifact and the loader result that produced it.
// Loader is nil for artifacts registered directly.
type Entry[A any] struct {
	Artifact A
	Loader   *loader.Result
}

// Binder is a display surface that can take an artifact as its content.
type Binder[A any] interface {
	SetContent(artifact A)
	Show()
}

// Cache maps names to artifacts. The first artifact added under a name
// stays resident; later adds return it unchanged.
type Cache[A any] struct {
	namespace string
	entries   cachemanager.CacheManager[string, Entry[A]]
	loads     *cachemanager.ReadThroughCache[string, Entry[A], LoadFunc[A]]
}

// LoadFunc produces an entry on a cache miss.
type LoadFunc[A any] func(ctx context.Context) (Entry[A], error)

// NewCache creates an empty cache. namespace only labels log output.
func NewCache[A any](namespace string) *Cache[A] {
	c := &Cache[A]{
		namespace: namespace,
		entries:   cachemanager.NewInMemoryCacheManager[string, Entry[A]](namespace),
	}
	c.loads = cachemanager.NewReadThroughCache(c.entries, c.load)
	return c
}

func (c *Cache[A]) load(ctx context.Context, fn LoadFunc[A]) (Entry[A], error) {
	e, err := fn(ctx)
	if err != nil {
		return Entry[A]{}, err
	}
	if isNil(e.Artifact) {
		return Entry[A]{}, fmt.Errorf("%w: loader produced no artifact", ErrInvalidArgument)
	}
	return e, nil
}

// Add stores artifact under name together with the loader result that
// produced it. It returns the resident artifact and whether this call
// inserted it.
func (c *Cache[A]) Add(name string, artifact A, res *loader.Result) (A, bool, error) {
	var zero A
	if name == "" {
		return zero, false, fmt.Errorf("%s add: %w: name is required", c.namespace, ErrInvalidArgument)
	}
	if isNil(artifact) {
		return zero, false, fmt.Errorf("%s add %q: %w: artifact is required", c.namespace, name, ErrInvalidArgument)
	}

	resident, inserted := c.entries.Add(context.Background(), name, Entry[A]{Artifact: artifact, Loader: res})
	if !inserted {
		log.Debug(log.CatRegistry, "name already registered, keeping first", "namespace", c.namespace, "name", name)
	}
	return resident.Artifact, inserted, nil
}

// AddResult stores a loader result whose root is the artifact. It only
// suits caches whose artifact type is the loaded root type, such as
// Cache[ui.Element]; any other root fails with ErrInvalidArgument.
func (c *Cache[A]) AddResult(name string, res *loader.Result) (A, bool, error) {
	var zero A
	if res == nil {
		return zero, false, fmt.Errorf("%s add %q: %w: loader result is required", c.namespace, name, ErrInvalidArgument)
	}
	artifact, ok := res.Root.(A)
	if !ok {
		return zero, false, fmt.Errorf("%s add %q: %w: root is %T", c.namespace, name, ErrInvalidArgument, res.Root)
	}
	return c.Add(name, artifact, res)
}

// Ensure returns the artifact under name, calling load only when the name is
// not registered yet. Errors from load are returned unchanged.
func (c *Cache[A]) Ensure(ctx context.Context, name string, load LoadFunc[A]) (A, error) {
	var zero A
	if name == "" {
		return zero, fmt.Errorf("%s ensure: %w: name is required", c.namespace, ErrInvalidArgument)
	}
	if load == nil {
		return zero, fmt.Errorf("%s ensure %q: %w: load func is required", c.namespace, name, ErrInvalidArgument)
	}
	e, err := c.loads.Get(ctx, name, load)
	if err != nil {
		return zero, err
	}
	return e.Artifact, nil
}

// Get returns the artifact for name. It never loads.
func (c *Cache[A]) Get(name string) (A, bool) {
	e, ok := c.entries.Get(context.Background(), name)
	return e.Artifact, ok
}

// Loader returns the loader result paired with name, if it has one.
func (c *Cache[A]) Loader(name string) (*loader.Result, bool) {
	e, ok := c.entries.Get(context.Background(), name)
	if !ok || e.Loader == nil {
		return nil, false
	}
	return e.Loader, true
}

// Has reports whether name is registered.
func (c *Cache[A]) Has(name string) bool {
	_, ok := c.entries.Get(context.Background(), name)
	return ok
}

// Names returns the registered names in sorted order.
func (c *Cache[A]) Names() []string {
	return c.entries.Keys(context.Background())
}

// Len returns the number of registered names.
func (c *Cache[A]) Len() int {
	return c.entries.Len(context.Background())
}

// Bind shows the artifact registered under name on win. Binding the same
// name again simply shows it again.
func (c *Cache[A]) Bind(win Binder[A], name string) error {
	if isNil(win) {
		return fmt.Errorf("%s bind %q: %w: window is required", c.namespace, name, ErrInvalidArgument)
	}
	artifact, ok := c.Get(name)
	if !ok {
		return fmt.Errorf("%s bind %q: %w", c.namespace, name, ErrNotFound)
	}
	win.SetContent(artifact)
	win.Show()
	log.Debug(log.CatRegistry, "bound artifact", "namespace", c.namespace, "name", name)
	return nil
}

// Reset drops every entry.
func (c *Cache[A]) Reset() {
	_ = c.entries.Flush(context.Background())
	log.Info(log.CatRegistry, "cache reset", "namespace", c.namespace)
}
