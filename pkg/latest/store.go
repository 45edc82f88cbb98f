// Package latest provides a keyed store that only accepts records newer
// than the one it already holds. Both bulk snapshots and push events are
// funneled through the same store, so arrival order between the two
// sources never matters for the final state.
package latest

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	updatedAt time.Time
	deleted   bool
}

// Store keeps at most one record per key together with the record's
// update instant. It is safe for concurrent use.
type Store[K comparable, V any] struct {
	mu      sync.RWMutex
	entries map[K]entry[V]
}

// NewStore returns an empty store.
func NewStore[K comparable, V any]() *Store[K, V] {
	return &Store[K, V]{entries: make(map[K]entry[V])}
}

// Upsert stores value under key if no record exists yet or the stored
// record is strictly older than updatedAt. Equal instants are rejected.
// It reports whether the value was accepted.
func (s *Store[K, V]) Upsert(key K, updatedAt time.Time, value V) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if cur, ok := s.entries[key]; ok && !cur.updatedAt.Before(updatedAt) {
		return false
	}

	s.entries[key] = entry[V]{value: value, updatedAt: updatedAt}
	return true
}

// Get returns the record stored under key. Tombstoned keys read as
// absent.
func (s *Store[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[key]
	if !ok || e.deleted {
		var zero V
		return zero, false
	}
	return e.value, true
}

// List returns a copy of all stored records. Mutating the returned slice
// never affects the store.
func (s *Store[K, V]) List() []V {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]V, 0, len(s.entries))
	for _, e := range s.entries {
		if e.deleted {
			continue
		}
		out = append(out, e.value)
	}
	return out
}

// Delete removes the record and its timestamp watermark, so a later
// record for the same key is judged as if the key was never seen.
func (s *Store[K, V]) Delete(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, key)
}

// Tombstone removes the record but keeps its timestamp watermark, so a
// stale record for the same key keeps losing the freshness race until
// Clear. A fresher record revives the key as usual.
func (s *Store[K, V]) Tombstone(key K) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		return
	}
	var zero V
	e.value = zero
	e.deleted = true
	s.entries[key] = e
}

// Clear drops every record.
func (s *Store[K, V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[K]entry[V])
}

// Len returns the number of stored records, tombstones excluded.
func (s *Store[K, V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, e := range s.entries {
		if !e.deleted {
			n++
		}
	}
	return n
}
