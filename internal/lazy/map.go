package lazy

import (
	"context"
	"sync"
)

// Map lazily creates one Value per key, all backed by the same compute
// function. It suits per-node facts where each node's value may depend on
// other keys' values.
type Map[K comparable, V any] struct {
	compute func(ctx context.Context, key K) (V, error)
	opts    []Option[V]
	values  sync.Map // K -> *Value[V]
}

// NewMap returns an empty Map.
func NewMap[K comparable, V any](compute func(ctx context.Context, key K) (V, error), opts ...Option[V]) *Map[K, V] {
	return &Map[K, V]{compute: compute, opts: opts}
}

// Value returns the Value for key, creating it on first use.
func (m *Map[K, V]) Value(key K) *Value[V] {
	if v, ok := m.values.Load(key); ok {
		return v.(*Value[V])
	}
	fresh := New(func(ctx context.Context) (V, error) {
		return m.compute(ctx, key)
	}, m.opts...)
	v, _ := m.values.LoadOrStore(key, fresh)
	return v.(*Value[V])
}

// Get is shorthand for m.Value(key).Get(ctx).
func (m *Map[K, V]) Get(ctx context.Context, key K) (V, error) {
	return m.Value(key).Get(ctx)
}

// Clear drops every per-key Value.
func (m *Map[K, V]) Clear() {
	m.values.Range(func(k, _ any) bool {
		m.values.Delete(k)
		return true
	})
}
