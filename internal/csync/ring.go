package csync

import (
	"sync"
)

// Ring is a thread-safe, fixed-size history. Once full, every Push
// overwrites the oldest element.
type Ring[T any] struct {
	data  []T
	next  int
	full  bool
	total int
	mu    sync.RWMutex
}

// NewRing creates a ring holding at most size elements.
// A size below one is treated as one.
func NewRing[T any](size int) *Ring[T] {
	if size < 1 {
		size = 1
	}
	return &Ring[T]{
		data: make([]T, size),
	}
}

// Push appends v, evicting the oldest element when the ring is full
func (r *Ring[T]) Push(v T) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.data[r.next] = v
	r.next = (r.next + 1) % len(r.data)
	if r.next == 0 {
		r.full = true
	}
	r.total++
}

// Len returns the number of retained elements
func (r *Ring[T]) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.full {
		return len(r.data)
	}
	return r.next
}

// Total returns how many elements were ever pushed, evicted ones included
func (r *Ring[T]) Total() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.total
}

// Items returns the retained elements, oldest first.
// The returned slice is a copy and safe to keep.
func (r *Ring[T]) Items() []T {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if !r.full {
		result := make([]T, r.next)
		copy(result, r.data[:r.next])
		return result
	}

	result := make([]T, 0, len(r.data))
	result = append(result, r.data[r.next:]...)
	result = append(result, r.data[:r.next]...)
	return result
}
