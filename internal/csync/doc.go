// Package csync provides the concurrency building blocks shared by the
// monitors and the simulation driver.
//
// Cond is a condition variable in the spirit of sync.Cond whose Wait can be
// abandoned through a context.Context. Every blocking monitor operation in
// labsync is written as the classic "wait in a loop" around a Cond:
//
//	mu.Lock()
//	defer mu.Unlock()
//	for !predicate() {
//		if err := cond.Wait(ctx); err != nil {
//			return err // errors.Is(err, csync.ErrCancelled)
//		}
//	}
//
// Counter and Ring are small thread-safe collections used to aggregate
// what many worker goroutines observe:
//
//	produced := csync.NewCounter[string]()
//	produced.Add("ER", 1)
//
//	recent := csync.NewRing[string](64)
//	recent.Push("ER queued order 17")
//	for _, line := range recent.Items() {
//		fmt.Println(line)
//	}
//
// All exported operations are safe for concurrent use, except where a method
// states that the caller must hold the associated lock.
package csync
