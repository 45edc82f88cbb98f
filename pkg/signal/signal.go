// Package signal implements a minimal typed publish/subscribe primitive.
// Listeners are invoked synchronously in the emitting goroutine;
// registration returns an explicit unsubscribe handle.
package signal

import "sync"

// Signal fans a value out to registered listeners. The zero value is
// ready to use.
type Signal[T any] struct {
	mu        sync.Mutex
	nextID    int
	listeners map[int]func(T)
}

// Listen registers fn and returns a handle that removes it. Unsubscribing
// twice is harmless.
func (s *Signal[T]) Listen(fn func(T)) (unsubscribe func()) {
	s.mu.Lock()
	if s.listeners == nil {
		s.listeners = make(map[int]func(T))
	}
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.listeners, id)
		s.mu.Unlock()
	}
}

// Emit calls every registered listener with v synchronously. Call order
// across listeners is not guaranteed.
func (s *Signal[T]) Emit(v T) {
	s.mu.Lock()
	fns := make([]func(T), 0, len(s.listeners))
	for _, fn := range s.listeners {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(v)
	}
}

// Reset drops every listener.
func (s *Signal[T]) Reset() {
	s.mu.Lock()
	s.listeners = nil
	s.mu.Unlock()
}

// Len returns the number of registered listeners.
func (s *Signal[T]) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.listeners)
}
