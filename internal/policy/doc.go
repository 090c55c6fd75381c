// Package policy provides Store, a reader-writer monitor around a single
// shared value such as the lab's current operating policy.
//
// Readers bracket their access with Read and EndRead, writers with Write
// and EndWrite:
//
//	p, err := store.Read(ctx)
//	if err != nil {
//		return err
//	}
//	defer store.EndRead()
//
// Many readers may be admitted together, a writer is always admitted alone.
// How competing requests are ordered depends on the Mode fixed by New:
//
//   - WriterPriority: a reader that arrives while any writer waits is held
//     back, even when no writer is active yet. When a writer leaves it hands
//     over to the next writer if there is one and otherwise releases all
//     held readers. When the last reader leaves it wakes one writer.
//   - StrictFair: requests are served in arrival order. A writer at the head
//     of the line waits for the store to become idle; readers at the head
//     are admitted together up to the next queued writer.
//
// Contention never produces an error. Read and Write fail only when the
// context ends before admission, with an error matching csync.ErrCancelled;
// a cancelled request leaves the store exactly as if it had never arrived.
package policy
