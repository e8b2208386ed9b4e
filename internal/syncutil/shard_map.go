// Package syncutil contains concurrent maps used by the SIP server core.
package syncutil

import (
	"hash/maphash"
	"iter"
	"maps"
	"sync"
)

// DefaultShards is the number of shards used when zero is passed to [NewShardMap].
const DefaultShards uint = 32

// ShardMap is a concurrent map split into independently locked shards.
// Keys are spread over the shards by [maphash.Comparable].
type ShardMap[K comparable, V any] struct {
	seed   maphash.Seed
	shards []shard[K, V]
}

type shard[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewShardMap creates an empty map with the given number of shards.
// If shards is zero, [DefaultShards] is used.
func NewShardMap[K comparable, V any](shards uint) *ShardMap[K, V] {
	if shards == 0 {
		shards = DefaultShards
	}
	sm := &ShardMap[K, V]{
		seed:   maphash.MakeSeed(),
		shards: make([]shard[K, V], shards),
	}
	for i := range sm.shards {
		sm.shards[i].m = make(map[K]V)
	}
	return sm
}

func (sm *ShardMap[K, V]) shardOf(key K) *shard[K, V] {
	h := maphash.Comparable(sm.seed, key)
	return &sm.shards[h%uint64(len(sm.shards))]
}

// Get returns the value stored under key.
func (sm *ShardMap[K, V]) Get(key K) (val V, ok bool) {
	s := sm.shardOf(key)
	s.mu.RLock()
	val, ok = s.m[key]
	s.mu.RUnlock()
	return val, ok
}

// GetOrSet returns the value stored under key, or stores the one made by newVal.
// newVal runs under the shard lock, at most once per call.
// The loaded result reports whether the value was already present.
func (sm *ShardMap[K, V]) GetOrSet(key K, newVal func() V) (val V, loaded bool) {
	s := sm.shardOf(key)
	s.mu.Lock()
	defer s.mu.Unlock()
	if val, loaded = s.m[key]; loaded {
		return val, true
	}
	val = newVal()
	s.m[key] = val
	return val, false
}

// Delete removes key and returns the removed value.
func (sm *ShardMap[K, V]) Delete(key K) (val V, ok bool) {
	s := sm.shardOf(key)
	s.mu.Lock()
	val, ok = s.m[key]
	delete(s.m, key)
	s.mu.Unlock()
	return val, ok
}

// DeleteFunc removes every entry for which del returns true and returns their count.
// del runs under the shard lock and must not call back into the map.
func (sm *ShardMap[K, V]) DeleteFunc(del func(K, V) bool) (n int) {
	for i := range sm.shards {
		s := &sm.shards[i]
		s.mu.Lock()
		before := len(s.m)
		maps.DeleteFunc(s.m, del)
		n += before - len(s.m)
		s.mu.Unlock()
	}
	return n
}

// Size returns the number of entries.
func (sm *ShardMap[K, V]) Size() (n int) {
	for i := range sm.shards {
		s := &sm.shards[i]
		s.mu.RLock()
		n += len(s.m)
		s.mu.RUnlock()
	}
	return n
}

// Items iterates over the entries, each shard is copied before it is yielded.
func (sm *ShardMap[K, V]) Items() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for i := range sm.shards {
			s := &sm.shards[i]
			s.mu.RLock()
			snap := maps.Clone(s.m)
			s.mu.RUnlock()
			for k, v := range snap {
				if !yield(k, v) {
					return
				}
			}
		}
	}
}
