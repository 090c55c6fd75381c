package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"testing/synctest"
	"time"

	"github.com/billie-coop/labsync/internal/csync"
)

func TestNew_RejectsNonPositiveCapacity(t *testing.T) {
	for _, capacity := range []int{0, -1, -100} {
		ch, err := New[int](capacity)
		if ch != nil {
			t.Errorf("New(%d) returned a channel", capacity)
		}
		var cfgErr *ConfigError
		if !errors.As(err, &cfgErr) {
			t.Fatalf("New(%d) err = %v, want *ConfigError", capacity, err)
		}
		if cfgErr.Capacity != capacity {
			t.Errorf("ConfigError.Capacity = %d, want %d", cfgErr.Capacity, capacity)
		}
	}
}

func TestBoundedChannel_FIFO(t *testing.T) {
	ch, err := New[string](3)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	for _, s := range []string{"A", "B", "C"} {
		if err := ch.Put(ctx, s); err != nil {
			t.Fatalf("Put(%s): %v", s, err)
		}
	}
	if ch.Len() != 3 || ch.Cap() != 3 {
		t.Fatalf("Len/Cap = %d/%d, want 3/3", ch.Len(), ch.Cap())
	}

	for _, want := range []string{"A", "B", "C"} {
		got, err := ch.Take(ctx)
		if err != nil {
			t.Fatalf("Take: %v", err)
		}
		if got != want {
			t.Errorf("Take = %s, want %s", got, want)
		}
	}
	if ch.Len() != 0 {
		t.Errorf("Len = %d after draining", ch.Len())
	}
}

func TestBoundedChannel_WrapsAround(t *testing.T) {
	ch, _ := New[int](2)
	ctx := context.Background()

	next := 0
	for round := range 5 {
		_ = ch.Put(ctx, round*2)
		_ = ch.Put(ctx, round*2+1)
		for range 2 {
			got, _ := ch.Take(ctx)
			if got != next {
				t.Fatalf("round %d: Take = %d, want %d", round, got, next)
			}
			next++
		}
	}
}

func TestBoundedChannel_PutBlocksWhenFull(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ch, _ := New[int](5)
		ctx := context.Background()
		for i := range 5 {
			if err := ch.Put(ctx, i); err != nil {
				t.Fatal(err)
			}
		}

		var sixth atomic.Bool
		go func() {
			if err := ch.Put(ctx, 5); err != nil {
				t.Errorf("sixth Put: %v", err)
			}
			sixth.Store(true)
		}()
		synctest.Wait()
		if sixth.Load() {
			t.Fatal("sixth Put completed on a full channel")
		}
		if ch.Len() != 5 {
			t.Fatalf("Len = %d, want 5", ch.Len())
		}

		got, err := ch.Take(ctx)
		if err != nil || got != 0 {
			t.Fatalf("Take = %d, %v; want 0, nil", got, err)
		}
		synctest.Wait()
		if !sixth.Load() {
			t.Fatal("sixth Put still blocked after a Take")
		}
		if ch.Len() != 5 {
			t.Errorf("Len = %d, want 5", ch.Len())
		}
	})
}

func TestBoundedChannel_TakeWakesExactlyOneProducer(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ch, _ := New[int](1)
		ctx := context.Background()
		_ = ch.Put(ctx, 0)

		var done atomic.Int32
		for i := 1; i <= 3; i++ {
			go func() {
				if err := ch.Put(ctx, i); err == nil {
					done.Add(1)
				}
			}()
			synctest.Wait()
		}

		_, _ = ch.Take(ctx)
		synctest.Wait()
		if got := done.Load(); got != 1 {
			t.Fatalf("%d producers admitted after one Take, want 1", got)
		}

		// drain so the remaining producers finish inside the bubble
		for range 3 {
			_, _ = ch.Take(ctx)
		}
		synctest.Wait()
		if got := done.Load(); got != 3 {
			t.Errorf("%d producers admitted, want 3", got)
		}
	})
}

func TestBoundedChannel_TakeBlocksUntilPut(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ch, _ := New[string](2)
		ctx := context.Background()

		result := make(chan string, 1)
		go func() {
			s, err := ch.Take(ctx)
			if err != nil {
				t.Errorf("Take: %v", err)
			}
			result <- s
		}()
		synctest.Wait()
		select {
		case s := <-result:
			t.Fatalf("Take returned %q from an empty channel", s)
		default:
		}

		_ = ch.Put(ctx, "X")
		if got := <-result; got != "X" {
			t.Errorf("Take = %q, want X", got)
		}
	})
}

func TestBoundedChannel_CancelledPutDoesNotInsert(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ch, _ := New[int](1)
		_ = ch.Put(context.Background(), 1)

		ctx, cancel := context.WithCancel(context.Background())
		errc := make(chan error, 1)
		go func() { errc <- ch.Put(ctx, 2) }()
		synctest.Wait()

		cancel()
		err := <-errc
		if !errors.Is(err, csync.ErrCancelled) {
			t.Fatalf("Put err = %v, want ErrCancelled", err)
		}
		if ch.Len() != 1 {
			t.Fatalf("Len = %d, want 1", ch.Len())
		}
		got, _ := ch.TryTake()
		if got != 1 {
			t.Errorf("remaining item = %d, want 1", got)
		}
		if _, ok := ch.TryTake(); ok {
			t.Error("cancelled item was inserted")
		}
	})
}

func TestBoundedChannel_CancelledTake(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ch, _ := New[int](1)
		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		_, err := ch.Take(ctx)
		if !errors.Is(err, csync.ErrCancelled) {
			t.Fatalf("Take err = %v, want ErrCancelled", err)
		}
		if !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Take err = %v, want it to carry DeadlineExceeded", err)
		}
	})
}

func TestBoundedChannel_DoneContextStillAdmitsWithoutWaiting(t *testing.T) {
	ch, _ := New[int](1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if err := ch.Put(ctx, 7); err != nil {
		t.Fatalf("Put with room: %v", err)
	}
	if err := ch.Put(ctx, 8); !csync.IsCancelled(err) {
		t.Fatalf("Put on full channel err = %v, want cancelled", err)
	}
	if got, err := ch.Take(ctx); err != nil || got != 7 {
		t.Fatalf("Take = %d, %v; want 7, nil", got, err)
	}
}

func TestBoundedChannel_TryPutTryTake(t *testing.T) {
	ch, _ := New[int](1)
	if _, ok := ch.TryTake(); ok {
		t.Fatal("TryTake succeeded on empty channel")
	}
	if !ch.TryPut(1) {
		t.Fatal("TryPut failed on empty channel")
	}
	if ch.TryPut(2) {
		t.Fatal("TryPut succeeded on full channel")
	}
	if got, ok := ch.TryTake(); !ok || got != 1 {
		t.Fatalf("TryTake = %d, %v; want 1, true", got, ok)
	}
}

type stamped struct {
	at    time.Time
	calls int
}

func (s *stamped) MarkEnqueued(at time.Time) {
	s.at = at
	s.calls++
}

func TestBoundedChannel_StampsOnInsert(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		ch, _ := New[*stamped](2)
		item := &stamped{}

		time.Sleep(3 * time.Second)
		want := time.Now()
		_ = ch.Put(context.Background(), item)

		if item.calls != 1 {
			t.Fatalf("MarkEnqueued called %d times, want 1", item.calls)
		}
		if !item.at.Equal(want) {
			t.Errorf("stamped at %v, want %v", item.at, want)
		}
	})
}

func TestBoundedChannel_ExactlyOnceDelivery(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		const (
			producers = 4
			consumers = 3
			perProd   = 50
		)
		type item struct{ producer, seq int }

		ch, _ := New[item](5)
		ctx := context.Background()

		var (
			mu      sync.Mutex
			seen    = make(map[item]int)
			maxLen  int
			wg      sync.WaitGroup
			taken   atomic.Int32
			ordered = true
		)

		for p := range producers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for s := range perProd {
					if err := ch.Put(ctx, item{p, s}); err != nil {
						t.Errorf("Put: %v", err)
						return
					}
					time.Sleep(time.Millisecond)
				}
			}()
		}

		var cwg sync.WaitGroup
		for range consumers {
			cwg.Add(1)
			go func() {
				defer cwg.Done()
				last := make([]int, producers)
				for i := range last {
					last[i] = -1
				}
				for taken.Add(1) <= producers*perProd {
					it, err := ch.Take(ctx)
					if err != nil {
						t.Errorf("Take: %v", err)
						return
					}
					mu.Lock()
					seen[it]++
					if it.seq <= last[it.producer] {
						ordered = false
					}
					last[it.producer] = it.seq
					maxLen = max(maxLen, ch.Len())
					mu.Unlock()
					time.Sleep(2 * time.Millisecond)
				}
			}()
		}

		wg.Wait()
		cwg.Wait()

		if len(seen) != producers*perProd {
			t.Fatalf("delivered %d distinct items, want %d", len(seen), producers*perProd)
		}
		for it, n := range seen {
			if n != 1 {
				t.Errorf("item %v delivered %d times", it, n)
			}
		}
		if !ordered {
			t.Error("a consumer saw a producer's items out of order")
		}
		if maxLen > ch.Cap() {
			t.Errorf("observed Len %d above capacity %d", maxLen, ch.Cap())
		}
		if ch.Len() != 0 {
			t.Errorf("Len = %d after run, want 0", ch.Len())
		}
	})
}
