package policy

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/billie-coop/labsync/internal/csync"
)

// holder records which goroutines have been admitted, in order.
type holder struct {
	mu    sync.Mutex
	order []string
}

func (h *holder) add(name string) {
	h.mu.Lock()
	h.order = append(h.order, name)
	h.mu.Unlock()
}

func (h *holder) get() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.order...)
}

func equal(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestStore_ReadersShare(t *testing.T) {
	for _, mode := range []Mode{WriterPriority, StrictFair} {
		t.Run(mode.String(), func(t *testing.T) {
			s := New("NORMAL", mode)
			ctx := context.Background()

			for range 3 {
				v, err := s.Read(ctx)
				if err != nil {
					t.Fatal(err)
				}
				if v != "NORMAL" {
					t.Errorf("Read = %q, want NORMAL", v)
				}
			}
			if st := s.Stats(); st.ActiveReaders != 3 || st.WriterActive {
				t.Fatalf("Stats = %+v, want 3 active readers", st)
			}
			for range 3 {
				s.EndRead()
			}
			if st := s.Stats(); st.ActiveReaders != 0 {
				t.Errorf("ActiveReaders = %d after EndRead", st.ActiveReaders)
			}
		})
	}
}

func TestStore_WriteInstallsValue(t *testing.T) {
	s := New("NORMAL", WriterPriority)
	ctx := context.Background()

	if err := s.Write(ctx, "MAINTENANCE"); err != nil {
		t.Fatal(err)
	}
	if st := s.Stats(); !st.WriterActive || st.WritersWaiting != 0 {
		t.Fatalf("Stats = %+v, want an active writer and none waiting", st)
	}
	s.EndWrite()

	got, err := s.Get(ctx)
	if err != nil || got != "MAINTENANCE" {
		t.Fatalf("Get = %q, %v; want MAINTENANCE, nil", got, err)
	}
}

func TestStore_Update(t *testing.T) {
	s := New(1, StrictFair)
	ctx := context.Background()

	var wg sync.WaitGroup
	for range 20 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.Update(ctx, func(v int) int { return v + 1 }); err != nil {
				t.Errorf("Update: %v", err)
			}
		}()
	}
	wg.Wait()

	if got, _ := s.Get(ctx); got != 21 {
		t.Errorf("value = %d, want 21", got)
	}
	if st := s.Stats(); st.WriterActive || st.ActiveReaders != 0 {
		t.Errorf("Stats = %+v, want idle", st)
	}
}

func TestStore_UnmatchedEndPanics(t *testing.T) {
	tests := map[string]func(*Store[string]){
		"EndRead":  func(s *Store[string]) { s.EndRead() },
		"EndWrite": func(s *Store[string]) { s.EndWrite() },
	}
	for name, call := range tests {
		t.Run(name, func(t *testing.T) {
			defer func() {
				if recover() == nil {
					t.Errorf("%s on an idle store did not panic", name)
				}
			}()
			call(New("NORMAL", WriterPriority))
		})
	}
}

func TestStore_WriterPriorityHoldsBackNewReaders(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New("NORMAL", WriterPriority)
		ctx := context.Background()
		var h holder

		if _, err := s.Read(ctx); err != nil {
			t.Fatal(err)
		}

		go func() {
			if err := s.Write(ctx, "URGENT_PRIORITY"); err != nil {
				t.Errorf("Write: %v", err)
				return
			}
			h.add("W")
		}()
		synctest.Wait()

		if st := s.Stats(); st.WritersWaiting != 1 || st.WriterActive {
			t.Fatalf("Stats = %+v, want one waiting writer", st)
		}

		var late string
		go func() {
			v, err := s.Read(ctx)
			if err != nil {
				t.Errorf("Read: %v", err)
				return
			}
			late = v
			h.add("R2")
			s.EndRead()
		}()
		synctest.Wait()

		if got := h.get(); len(got) != 0 {
			t.Fatalf("admitted %v while the first reader still holds", got)
		}
		if st := s.Stats(); st.ActiveReaders != 1 || st.Queued != 2 {
			t.Fatalf("Stats = %+v, want 1 active reader and 2 queued", st)
		}

		s.EndRead()
		synctest.Wait()
		if got := h.get(); !equal(got, []string{"W"}) {
			t.Fatalf("admitted %v after EndRead, want [W]", got)
		}

		s.EndWrite()
		synctest.Wait()
		if got := h.get(); !equal(got, []string{"W", "R2"}) {
			t.Fatalf("admitted %v, want [W R2]", got)
		}
		if late != "URGENT_PRIORITY" {
			t.Errorf("late reader saw %q, want URGENT_PRIORITY", late)
		}
	})
}

func TestStore_WriterPriorityHandsOverToWriters(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(0, WriterPriority)
		ctx := context.Background()
		var h holder

		if err := s.Write(ctx, 1); err != nil {
			t.Fatal(err)
		}

		go func() {
			if _, err := s.Read(ctx); err == nil {
				h.add("R")
				s.EndRead()
			}
		}()
		synctest.Wait()
		go func() {
			if err := s.Write(ctx, 2); err == nil {
				h.add("W2")
				s.EndWrite()
			}
		}()
		synctest.Wait()

		s.EndWrite()
		synctest.Wait()

		if got := h.get(); !equal(got, []string{"W2", "R"}) {
			t.Fatalf("admission order %v, want [W2 R]", got)
		}
	})
}

func TestStore_WriterNotStarvedByReaderStream(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New("NORMAL", WriterPriority)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		var wg sync.WaitGroup
		for i := range 4 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				time.Sleep(time.Duration(i) * 3 * time.Millisecond)
				for ctx.Err() == nil {
					if _, err := s.Read(ctx); err != nil {
						return
					}
					time.Sleep(10 * time.Millisecond)
					s.EndRead()
					time.Sleep(time.Millisecond)
				}
			}()
		}

		time.Sleep(50 * time.Millisecond)
		wctx, wcancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer wcancel()
		if err := s.Write(wctx, "MAINTENANCE"); err != nil {
			t.Fatalf("writer starved: %v", err)
		}
		s.EndWrite()

		cancel()
		wg.Wait()
	})
}

func TestStore_CancelledWriterReleasesReaders(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New("NORMAL", WriterPriority)
		bg := context.Background()

		if _, err := s.Read(bg); err != nil {
			t.Fatal(err)
		}

		wctx, cancel := context.WithCancel(bg)
		werr := make(chan error, 1)
		go func() { werr <- s.Write(wctx, "MAINTENANCE") }()
		synctest.Wait()

		var admitted atomic.Bool
		go func() {
			if _, err := s.Read(bg); err == nil {
				admitted.Store(true)
				s.EndRead()
			}
		}()
		synctest.Wait()
		if admitted.Load() {
			t.Fatal("reader admitted while a writer was waiting")
		}

		cancel()
		if err := <-werr; !errors.Is(err, csync.ErrCancelled) {
			t.Fatalf("Write err = %v, want ErrCancelled", err)
		}
		synctest.Wait()

		if !admitted.Load() {
			t.Fatal("reader still blocked after the only writer gave up")
		}
		st := s.Stats()
		if st.WritersWaiting != 0 || st.WriterActive {
			t.Errorf("Stats = %+v, want no writer waiting or active", st)
		}
		s.EndRead()

		if v, _ := s.Get(bg); v != "NORMAL" {
			t.Errorf("value = %q, cancelled write must not install", v)
		}
	})
}

func TestStore_CancelledWriterPassesWakeUpOn(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(0, WriterPriority)
		bg := context.Background()
		if _, err := s.Read(bg); err != nil {
			t.Fatal(err)
		}

		ctx1, cancel1 := context.WithCancel(bg)
		err1 := make(chan error, 1)
		go func() { err1 <- s.Write(ctx1, 1) }()
		synctest.Wait()

		var second atomic.Bool
		go func() {
			if err := s.Write(bg, 2); err == nil {
				second.Store(true)
				s.EndWrite()
			}
		}()
		synctest.Wait()

		cancel1()
		s.EndRead()
		if err := <-err1; err == nil {
			// the first writer won admission before seeing the cancel
			s.EndWrite()
		}
		synctest.Wait()

		if !second.Load() {
			t.Fatal("second writer never admitted")
		}
	})
}

func TestStore_StrictFairArrivalOrder(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New("NORMAL", StrictFair)
		ctx := context.Background()
		var h holder

		if err := s.Write(ctx, "W1"); err != nil {
			t.Fatal(err)
		}

		release := map[string]chan struct{}{}
		spawn := func(name string, writer bool) {
			ch := make(chan struct{})
			release[name] = ch
			go func() {
				if writer {
					if err := s.Write(ctx, name); err != nil {
						t.Errorf("%s: %v", name, err)
						return
					}
					h.add(name)
					<-ch
					s.EndWrite()
					return
				}
				if _, err := s.Read(ctx); err != nil {
					t.Errorf("%s: %v", name, err)
					return
				}
				h.add(name)
				<-ch
				s.EndRead()
			}()
			synctest.Wait()
		}

		spawn("R1", false)
		spawn("R2", false)
		spawn("W2", true)
		spawn("R3", false)

		if st := s.Stats(); st.Queued != 4 || st.WritersWaiting != 1 {
			t.Fatalf("Stats = %+v, want 4 queued, 1 writer waiting", st)
		}

		s.EndWrite()
		synctest.Wait()
		got := h.get()
		if len(got) != 2 || !(equal(got, []string{"R1", "R2"}) || equal(got, []string{"R2", "R1"})) {
			t.Fatalf("after EndWrite admitted %v, want R1 and R2 together", got)
		}
		if st := s.Stats(); st.ActiveReaders != 2 {
			t.Fatalf("ActiveReaders = %d, want 2", st.ActiveReaders)
		}

		close(release["R1"])
		synctest.Wait()
		if n := len(h.get()); n != 2 {
			t.Fatalf("admitted %v while R2 still reads", h.get())
		}

		close(release["R2"])
		synctest.Wait()
		if got := h.get(); len(got) != 3 || got[2] != "W2" {
			t.Fatalf("admitted %v, want W2 third", got)
		}

		close(release["W2"])
		synctest.Wait()
		if got := h.get(); len(got) != 4 || got[3] != "R3" {
			t.Fatalf("admitted %v, want R3 last", got)
		}
		close(release["R3"])
		synctest.Wait()

		if st := s.Stats(); st.ActiveReaders != 0 || st.WriterActive || st.Queued != 0 {
			t.Errorf("Stats = %+v, want idle", st)
		}
	})
}

func TestStore_StrictFairReaderBeforeQueuedWriter(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New(0, StrictFair)
		ctx := context.Background()
		var h holder

		if _, err := s.Read(ctx); err != nil {
			t.Fatal(err)
		}
		go func() {
			if err := s.Write(ctx, 1); err == nil {
				h.add("W")
				s.EndWrite()
			}
		}()
		synctest.Wait()

		// a reader arriving after a queued writer waits behind it
		go func() {
			if _, err := s.Read(ctx); err == nil {
				h.add("R2")
				s.EndRead()
			}
		}()
		synctest.Wait()
		if got := h.get(); len(got) != 0 {
			t.Fatalf("admitted %v while the first reader holds", got)
		}

		s.EndRead()
		synctest.Wait()
		if got := h.get(); !equal(got, []string{"W", "R2"}) {
			t.Fatalf("admission order %v, want [W R2]", got)
		}
	})
}

func TestStore_StrictFairCancelledTicketRedispatches(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		s := New("NORMAL", StrictFair)
		bg := context.Background()

		if _, err := s.Read(bg); err != nil {
			t.Fatal(err)
		}

		wctx, cancel := context.WithCancel(bg)
		werr := make(chan error, 1)
		go func() { werr <- s.Write(wctx, "MAINTENANCE") }()
		synctest.Wait()

		var admitted atomic.Bool
		go func() {
			if _, err := s.Read(bg); err == nil {
				admitted.Store(true)
			}
		}()
		synctest.Wait()
		if admitted.Load() {
			t.Fatal("reader jumped a queued writer")
		}

		cancel()
		if err := <-werr; !csync.IsCancelled(err) {
			t.Fatalf("Write err = %v, want cancelled", err)
		}
		synctest.Wait()
		if !admitted.Load() {
			t.Fatal("reader behind the cancelled writer was not admitted")
		}
		st := s.Stats()
		if st.ActiveReaders != 2 || st.WritersWaiting != 0 || st.Queued != 0 {
			t.Errorf("Stats = %+v, want 2 readers and an empty line", st)
		}
		s.EndRead()
		s.EndRead()
	})
}

func TestStore_CancelledReader(t *testing.T) {
	for _, mode := range []Mode{WriterPriority, StrictFair} {
		t.Run(mode.String(), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				s := New(0, mode)
				bg := context.Background()
				if err := s.Write(bg, 1); err != nil {
					t.Fatal(err)
				}

				ctx, cancel := context.WithTimeout(bg, time.Second)
				defer cancel()
				_, err := s.Read(ctx)
				if !errors.Is(err, csync.ErrCancelled) || !errors.Is(err, context.DeadlineExceeded) {
					t.Fatalf("Read err = %v, want ErrCancelled wrapping DeadlineExceeded", err)
				}
				st := s.Stats()
				if st.ActiveReaders != 0 || st.Queued != 0 {
					t.Fatalf("Stats = %+v, cancelled reader left a trace", st)
				}

				s.EndWrite()
				if v, err := s.Get(bg); err != nil || v != 1 {
					t.Errorf("Get = %d, %v; want 1, nil", v, err)
				}
			})
		})
	}
}

func TestStore_MutualExclusion(t *testing.T) {
	for _, mode := range []Mode{WriterPriority, StrictFair} {
		t.Run(mode.String(), func(t *testing.T) {
			synctest.Test(t, func(t *testing.T) {
				s := New(0, mode)
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()

				var (
					readers  atomic.Int32
					writers  atomic.Int32
					violated atomic.Bool
					reads    atomic.Int64
					writes   atomic.Int64
					wg       sync.WaitGroup
				)

				check := func() {
					st := s.Stats()
					if st.WriterActive && st.ActiveReaders != 0 {
						violated.Store(true)
					}
					if (readers.Load() > 0 && writers.Load() > 0) || writers.Load() > 1 {
						violated.Store(true)
					}
				}

				for i := range 6 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						rng := rand.New(rand.NewPCG(uint64(i), 1))
						for ctx.Err() == nil {
							if _, err := s.Read(ctx); err != nil {
								return
							}
							readers.Add(1)
							check()
							time.Sleep(time.Duration(rng.IntN(5)) * time.Millisecond)
							readers.Add(-1)
							s.EndRead()
							reads.Add(1)
							time.Sleep(time.Duration(rng.IntN(3)) * time.Millisecond)
						}
					}()
				}
				for i := range 2 {
					wg.Add(1)
					go func() {
						defer wg.Done()
						rng := rand.New(rand.NewPCG(uint64(i), 2))
						for ctx.Err() == nil {
							time.Sleep(time.Duration(1+rng.IntN(10)) * time.Millisecond)
							if err := s.Update(ctx, func(v int) int {
								writers.Add(1)
								check()
								writers.Add(-1)
								return v + 1
							}); err != nil {
								return
							}
							writes.Add(1)
						}
					}()
				}

				wg.Wait()

				if violated.Load() {
					t.Fatal("a writer overlapped with another holder")
				}
				if reads.Load() == 0 || writes.Load() == 0 {
					t.Fatalf("reads=%d writes=%d, want progress on both sides", reads.Load(), writes.Load())
				}
				if got, _ := s.Get(context.Background()); int64(got) != writes.Load() {
					t.Errorf("value = %d, want %d completed writes", got, writes.Load())
				}
				st := s.Stats()
				if st.ActiveReaders != 0 || st.WriterActive || st.WritersWaiting != 0 || st.Queued != 0 {
					t.Errorf("Stats = %+v, want idle after all workers stopped", st)
				}
			})
		})
	}
}
