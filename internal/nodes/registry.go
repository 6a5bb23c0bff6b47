// Package nodes keeps reusable fragments keyed by their concrete type and a
// name, so two kinds of fragment can use the same name independently.
package nodes

import (
	"cmp"
	"fmt"
	"maps"
	"reflect"
	"slices"

	"github.com/zjrosen/stagehand/internal/log"
	"github.com/zjrosen/stagehand/internal/resource"
	"github.com/zjrosen/stagehand/internal/ui"
)

// Registry maps runtime type to name to fragment.
type Registry struct {
	buckets map[reflect.Type]map[string]ui.Element
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{buckets: make(map[reflect.Type]map[string]ui.Element)}
}

// Add stores node under name in the bucket for its concrete type. The first
// node added under a name stays; Add returns the resident node and whether
// this call inserted it.
func (r *Registry) Add(name string, node ui.Element) (ui.Element, bool, error) {
	if name == "" {
		return nil, false, fmt.Errorf("add node: %w: name is required", resource.ErrInvalidArgument)
	}
	if node == nil {
		return nil, false, fmt.Errorf("add node %q: %w: node is required", name, resource.ErrInvalidArgument)
	}
	typ := reflect.TypeOf(node)
	if typ.Kind() == reflect.Pointer && reflect.ValueOf(node).IsNil() {
		return nil, false, fmt.Errorf("add node %q: %w: node is a nil %s", name, resource.ErrInvalidArgument, typ)
	}

	bucket, ok := r.buckets[typ]
	if !ok {
		bucket = make(map[string]ui.Element)
		r.buckets[typ] = bucket
	}
	if resident, ok := bucket[name]; ok {
		log.Debug(log.CatRegistry, "node already registered, keeping first", "type", typ, "name", name)
		return resident, false, nil
	}
	bucket[name] = node
	log.Debug(log.CatRegistry, "node added", "type", typ, "name", name)
	return node, true, nil
}

// Get returns the node registered under name for type T. A missing bucket,
// a missing name or an entry that is not a T all report false.
func Get[T ui.Element](r *Registry, name string) (T, bool) {
	var zero T
	bucket, ok := r.buckets[reflect.TypeFor[T]()]
	if !ok {
		return zero, false
	}
	el, ok := bucket[name]
	if !ok {
		return zero, false
	}
	node, ok := el.(T)
	if !ok {
		log.Warn(log.CatRegistry, "node type drift", "name", name, "want", reflect.TypeFor[T](), "got", reflect.TypeOf(el))
		return zero, false
	}
	return node, true
}

// SetVisible looks up a T named name and sets its visibility. It reports
// whether the node was found; a miss is not an error.
func SetVisible[T ui.Element](r *Registry, name string, visible bool) bool {
	node, ok := Get[T](r, name)
	if !ok {
		return false
	}
	node.SetVisible(visible)
	return true
}

// Lookup is the untyped form of Get for callers that hold a reflect.Type.
func (r *Registry) Lookup(typ reflect.Type, name string) (ui.Element, bool) {
	el, ok := r.buckets[typ][name]
	return el, ok
}

// Types returns the registered fragment types ordered by name.
func (r *Registry) Types() []reflect.Type {
	types := slices.Collect(maps.Keys(r.buckets))
	slices.SortFunc(types, func(a, b reflect.Type) int {
		return cmp.Compare(a.String(), b.String())
	})
	return types
}

// Names returns the names registered for typ in sorted order.
func (r *Registry) Names(typ reflect.Type) []string {
	return slices.Sorted(maps.Keys(r.buckets[typ]))
}

// Len returns the number of registered nodes across all types.
func (r *Registry) Len() int {
	n := 0
	for _, b := range r.buckets {
		n += len(b)
	}
	return n
}

// Reset drops every node.
func (r *Registry) Reset() {
	clear(r.buckets)
}
