// Package queue provides BoundedChannel, a fixed-capacity FIFO monitor that
// coordinates producers and consumers.
//
// # Overview
//
// Producers call Put and block while the channel is full; consumers call
// Take and block while it is empty. Contention is never an error, it only
// costs waiting time. The only failures are:
//   - a ConfigError from New when the capacity is not positive
//   - a cancellation error (errors.Is(err, csync.ErrCancelled)) when the
//     caller's context ends before Put or Take could proceed
//
// # Ordering
//
// Items leave in exactly the order they were inserted. Concurrent Put calls
// are serialized by the channel's lock; whichever acquires it first is
// inserted first. Any priority carried by an item is ignored.
//
// # Waking
//
// The channel keeps two wait lists, "not full" for producers and "not empty"
// for consumers. An insertion wakes one consumer and a removal wakes one
// producer, so only a goroutine that can make progress is woken.
//
// # Example
//
//	ch, err := queue.New[*order.TestOrder](5)
//	if err != nil {
//		return err
//	}
//	go func() {
//		_ = ch.Put(ctx, order.New("ER"))
//	}()
//	o, err := ch.Take(ctx)
package queue
