package syncutil

import (
	"iter"
	"maps"
	"sync"
)

// RWMap is a map guarded by a single [sync.RWMutex] for read-mostly data.
// The zero value is ready to use, a nil *RWMap reads as empty.
type RWMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// Load returns the value stored under key.
func (rm *RWMap[K, V]) Load(key K) (val V, ok bool) {
	if rm == nil {
		return val, false
	}
	rm.mu.RLock()
	val, ok = rm.m[key]
	rm.mu.RUnlock()
	return val, ok
}

// Store sets the value under key and returns the replaced one.
func (rm *RWMap[K, V]) Store(key K, val V) (prev V, replaced bool) {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	if rm.m == nil {
		rm.m = make(map[K]V)
	}
	prev, replaced = rm.m[key]
	rm.m[key] = val
	return prev, replaced
}

// Delete removes key and reports whether it was present.
func (rm *RWMap[K, V]) Delete(key K) bool {
	rm.mu.Lock()
	defer rm.mu.Unlock()
	_, ok := rm.m[key]
	delete(rm.m, key)
	return ok
}

// Len returns the number of entries.
func (rm *RWMap[K, V]) Len() int {
	if rm == nil {
		return 0
	}
	rm.mu.RLock()
	defer rm.mu.RUnlock()
	return len(rm.m)
}

// All iterates over a copy of the entries taken at the call.
func (rm *RWMap[K, V]) All() iter.Seq2[K, V] {
	if rm == nil {
		return func(func(K, V) bool) {}
	}
	rm.mu.RLock()
	snap := maps.Clone(rm.m)
	rm.mu.RUnlock()
	return maps.All(snap)
}
