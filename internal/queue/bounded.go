package queue

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/billie-coop/labsync/internal/csync"
)

// Stamper is implemented by items that record when they were inserted.
// The channel calls MarkEnqueued under its lock, once per successful Put.
type Stamper interface {
	MarkEnqueued(at time.Time)
}

// ConfigError reports a channel constructed with an unusable capacity.
type ConfigError struct {
	Capacity int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid channel capacity %d: must be positive", e.Capacity)
}

// BoundedChannel is a thread-safe FIFO buffer holding at most Cap items.
// All methods are safe for concurrent use.
type BoundedChannel[T any] struct {
	mutex    sync.Mutex
	notFull  *csync.Cond
	notEmpty *csync.Cond

	// ring buffer: size items starting at first
	buffer []T
	first  int
	size   int

	now func() time.Time
}

// New creates an empty channel. It fails with a *ConfigError when
// capacity is not positive.
func New[T any](capacity int) (*BoundedChannel[T], error) {
	if capacity <= 0 {
		return nil, &ConfigError{Capacity: capacity}
	}

	c := &BoundedChannel[T]{
		buffer: make([]T, capacity),
		now:    time.Now,
	}
	c.notFull = csync.NewCond(&c.mutex)
	c.notEmpty = csync.NewCond(&c.mutex)
	return c, nil
}

// Put appends item at the back, blocking while the channel is full.
// If ctx ends first the item is not inserted and the returned error
// matches csync.ErrCancelled.
func (c *BoundedChannel[T]) Put(ctx context.Context, item T) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for c.size == len(c.buffer) {
		if err := c.notFull.Wait(ctx); err != nil {
			return err
		}
	}

	c.push(item)
	c.notEmpty.Signal()
	return nil
}

// Take removes and returns the front item, blocking while the channel is
// empty. If ctx ends first the returned error matches csync.ErrCancelled.
func (c *BoundedChannel[T]) Take(ctx context.Context) (T, error) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	for c.size == 0 {
		if err := c.notEmpty.Wait(ctx); err != nil {
			var zero T
			return zero, err
		}
	}

	item := c.pop()
	c.notFull.Signal()
	return item, nil
}

// TryPut is like Put but returns false immediately if the channel is full.
func (c *BoundedChannel[T]) TryPut(item T) bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.size == len(c.buffer) {
		return false
	}
	c.push(item)
	c.notEmpty.Signal()
	return true
}

// TryTake is like Take but returns false immediately if the channel is empty.
func (c *BoundedChannel[T]) TryTake() (T, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.size == 0 {
		var zero T
		return zero, false
	}
	item := c.pop()
	c.notFull.Signal()
	return item, true
}

// Len returns the number of queued items at the time of the call.
func (c *BoundedChannel[T]) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.size
}

// Cap returns the fixed capacity.
func (c *BoundedChannel[T]) Cap() int {
	return len(c.buffer)
}

// push and pop require c.mutex.

func (c *BoundedChannel[T]) push(item T) {
	c.buffer[(c.first+c.size)%len(c.buffer)] = item
	c.size++
	if s, ok := any(item).(Stamper); ok {
		s.MarkEnqueued(c.now())
	}
}

func (c *BoundedChannel[T]) pop() T {
	var zero T
	item := c.buffer[c.first]
	c.buffer[c.first] = zero
	c.first = (c.first + 1) % len(c.buffer)
	c.size--
	return item
}
