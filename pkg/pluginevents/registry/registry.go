package registry

import (
	"sync"
	"sync/atomic"
)

// Registry is a concurrent, append-only index of values by key.
type Registry[K comparable, V any] struct {
	entries sync.Map // K -> V
	size    atomic.Int64

	// createMu serializes first-time creation only; Get never touches it.
	createMu sync.Mutex
}

// New creates an empty registry.
func New[K comparable, V any]() *Registry[K, V] {
	return &Registry[K, V]{}
}

// Get returns the value for a key and whether it exists.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	v, ok := r.entries.Load(key)
	if !ok {
		var zero V
		return zero, false
	}
	return v.(V), true
}

// GetOrCreate returns the value for a key, creating it with factory if it
// doesn't exist. The factory is called at most once per key, even under
// concurrent access.
func (r *Registry[K, V]) GetOrCreate(key K, factory func() V) V {
	if v, ok := r.entries.Load(key); ok {
		return v.(V)
	}

	r.createMu.Lock()
	defer r.createMu.Unlock()

	if v, ok := r.entries.Load(key); ok {
		return v.(V)
	}

	v := factory()
	r.entries.Store(key, v)
	r.size.Add(1)
	return v
}

// Keys returns all keys in the registry in no particular order.
func (r *Registry[K, V]) Keys() []K {
	keys := make([]K, 0, r.Len())
	r.entries.Range(func(k, _ any) bool {
		keys = append(keys, k.(K))
		return true
	})
	return keys
}

// Len returns the number of entries in the registry.
func (r *Registry[K, V]) Len() int {
	return int(r.size.Load())
}
