package csync

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ErrCancelled is returned when a blocked wait is abandoned because its
// context ended before the awaited condition was signalled.
var ErrCancelled = errors.New("wait cancelled")

// IsCancelled reports whether err stems from an abandoned wait.
func IsCancelled(err error) bool {
	return errors.Is(err, ErrCancelled)
}

// Cancelled returns the error reported by a wait abandoned because ctx is
// done. It matches ErrCancelled and the context's cause.
func Cancelled(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrCancelled, context.Cause(ctx))
}

// Cond is a condition variable bound to a Locker. Unlike sync.Cond a waiter
// can give up when its context is done, and waiters are woken in the order
// in which they started waiting.
//
// L must be held when calling Wait, Signal, Broadcast and Waiting.
type Cond struct {
	L sync.Locker

	waiters []chan struct{}
}

// NewCond returns a Cond bound to l.
func NewCond(l sync.Locker) *Cond {
	return &Cond{L: l}
}

// Wait atomically unlocks c.L and suspends the calling goroutine until it is
// woken by Signal or Broadcast, or until ctx is done. c.L is locked again
// before Wait returns, in both cases.
//
// A nil error does not mean the caller's predicate holds; it must be checked
// again. A non-nil error wraps ErrCancelled and the context's cause. If a
// wake-up raced with the cancellation it is handed to the next waiter, so a
// cancelled goroutine never swallows a Signal.
func (c *Cond) Wait(ctx context.Context) error {
	if ctx.Err() != nil {
		return Cancelled(ctx)
	}

	ch := make(chan struct{})
	c.waiters = append(c.waiters, ch)
	c.L.Unlock()

	select {
	case <-ch:
		c.L.Lock()
		return nil
	case <-ctx.Done():
	}

	c.L.Lock()
	if !c.remove(ch) {
		c.Signal()
	}
	return Cancelled(ctx)
}

// Signal wakes the longest waiting goroutine, if there is one.
func (c *Cond) Signal() {
	if len(c.waiters) == 0 {
		return
	}
	close(c.waiters[0])
	c.waiters[0] = nil
	c.waiters = c.waiters[1:]
}

// Broadcast wakes all waiting goroutines.
func (c *Cond) Broadcast() {
	for _, ch := range c.waiters {
		close(ch)
	}
	c.waiters = nil
}

// Waiting returns the number of goroutines currently suspended in Wait.
func (c *Cond) Waiting() int {
	return len(c.waiters)
}

// remove drops ch from the wait list. It reports false if ch was no longer
// listed, which means it has already been signalled.
func (c *Cond) remove(ch chan struct{}) bool {
	for i, w := range c.waiters {
		if w == ch {
			c.waiters = append(c.waiters[:i], c.waiters[i+1:]...)
			return true
		}
	}
	return false
}
