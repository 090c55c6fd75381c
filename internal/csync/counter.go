package csync

import (
	"sync"
)

// Counter is a thread-safe tally keyed by K.
// It uses a RWMutex so snapshots can be taken while workers keep counting.
type Counter[K comparable] struct {
	counts map[K]int64
	mu     sync.RWMutex
}

// NewCounter creates an empty counter
func NewCounter[K comparable]() *Counter[K] {
	return &Counter[K]{
		counts: make(map[K]int64),
	}
}

// Add adds delta to the count for key and returns the new count
func (c *Counter[K]) Add(key K, delta int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counts[key] += delta
	return c.counts[key]
}

// Get returns the count for key, zero if it was never counted
func (c *Counter[K]) Get(key K) int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.counts[key]
}

// Total returns the sum over all keys
func (c *Counter[K]) Total() int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var total int64
	for _, n := range c.counts {
		total += n
	}
	return total
}

// Snapshot returns a copy of all counts
func (c *Counter[K]) Snapshot() map[K]int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := make(map[K]int64, len(c.counts))
	for key, n := range c.counts {
		result[key] = n
	}
	return result
}
