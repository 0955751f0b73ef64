// Package memo provides compute-once caches for values derived from immutable data.
package memo

import "sync"

// Value lazily computes a single value and caches it.
// The zero Value is ready to use. Concurrent first callers block until the
// winning computation finishes and all observe the same result.
type Value[T any] struct {
	mu    sync.Mutex
	done  bool
	value T
}

// Get returns the cached value, computing it with fn on first use.
// If fn panics the value stays uncomputed and the next caller retries.
func (m *Value[T]) Get(fn func() T) T {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.done {
		m.value = fn()
		m.done = true
	}
	return m.value
}

// Keyed lazily computes one value per key.
type Keyed[K comparable, V any] struct {
	mu      sync.Mutex
	entries map[K]*Value[V]
}

// Get returns the cached value for key, computing it with fn on first use.
// Computations for different keys run independently; a computation for one key
// may call Get for another key on the same Keyed without deadlocking.
func (m *Keyed[K, V]) Get(key K, fn func() V) V {
	m.mu.Lock()
	if m.entries == nil {
		m.entries = make(map[K]*Value[V])
	}
	entry, ok := m.entries[key]
	if !ok {
		entry = &Value[V]{}
		m.entries[key] = entry
	}
	m.mu.Unlock()

	return entry.Get(fn)
}

// Len reports how many keys have an entry.
func (m *Keyed[K, V]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
