package order

import (
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSequence_ConcurrentNextIsUnique(t *testing.T) {
	var seq Sequence
	if seq.Last() != 0 {
		t.Fatalf("Last() of a fresh sequence = %d, want 0", seq.Last())
	}

	const workers, perWorker = 8, 500
	results := make(chan int64, workers*perWorker)
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range perWorker {
				results <- seq.Next()
			}
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int64]bool)
	for id := range results {
		if seen[id] {
			t.Fatalf("duplicate id %d", id)
		}
		seen[id] = true
	}
	if len(seen) != workers*perWorker {
		t.Fatalf("got %d ids, want %d", len(seen), workers*perWorker)
	}
	if seq.Last() != workers*perWorker {
		t.Fatalf("Last() = %d, want %d", seq.Last(), workers*perWorker)
	}
}

func TestNew_Defaults(t *testing.T) {
	before := LastID()
	o := New("ClinicA")

	if o.ID <= before {
		t.Errorf("ID = %d, want greater than %d", o.ID, before)
	}
	if o.Kind != BloodTest || o.Priority != 2 {
		t.Errorf("defaults = (%v, %d), want (BloodTest, 2)", o.Kind, o.Priority)
	}
	if !strings.HasPrefix(o.Patient, "ClinicA-P") {
		t.Errorf("Patient = %q, want ClinicA-P prefix", o.Patient)
	}
	if o.CreatedAt.IsZero() {
		t.Error("CreatedAt not set")
	}
	if !o.EnqueuedAt().IsZero() {
		t.Error("EnqueuedAt set before queueing")
	}
}

func TestWithPriority_Clamps(t *testing.T) {
	tests := map[string]struct {
		in, want int
	}{
		"below range": {in: -4, want: MinPriority},
		"in range":    {in: 2, want: 2},
		"above range": {in: 9, want: MaxPriority},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := New("x", WithPriority(tt.in)).Priority; got != tt.want {
				t.Errorf("Priority = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestMarkEnqueued_OnlyFirstCallCounts(t *testing.T) {
	o := New("ER")
	first := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	o.MarkEnqueued(first)
	o.MarkEnqueued(first.Add(time.Hour))

	if !o.EnqueuedAt().Equal(first) {
		t.Fatalf("EnqueuedAt() = %v, want %v", o.EnqueuedAt(), first)
	}
	if got := o.QueueTime(first.Add(3 * time.Second)); got != 3*time.Second {
		t.Fatalf("QueueTime() = %v, want 3s", got)
	}
}

func TestGenerator(t *testing.T) {
	g := NewGenerator("WardA", 42)
	for i := 1; i <= 200; i++ {
		o := g.Next()
		if o.Origin != "WardA" {
			t.Fatalf("Origin = %q", o.Origin)
		}
		if !o.Kind.IsValid() {
			t.Fatalf("invalid kind %v", o.Kind)
		}
		if o.Priority < MinPriority || o.Priority > MaxPriority {
			t.Fatalf("priority %d out of range", o.Priority)
		}
		if want := "WardA-P" + strconv.Itoa(i); o.Patient != want {
			t.Fatalf("Patient = %q, want %q", o.Patient, want)
		}
	}
	if g.Count() != 200 {
		t.Fatalf("Count() = %d, want 200", g.Count())
	}
}

func TestGenerator_SameSeedSameSequence(t *testing.T) {
	a, b := NewGenerator("ICU", 7), NewGenerator("ICU", 7)
	for range 20 {
		x, y := a.Next(), b.Next()
		if x.Kind != y.Kind || x.Priority != y.Priority {
			t.Fatalf("generators diverged: %v vs %v", x, y)
		}
	}
}

func TestKind_TextRoundTrip(t *testing.T) {
	for _, k := range Kinds() {
		b, err := k.MarshalText()
		if err != nil {
			t.Fatal(err)
		}
		var got Kind
		if err := got.UnmarshalText(b); err != nil {
			t.Fatal(err)
		}
		if got != k {
			t.Errorf("round trip of %v gave %v", k, got)
		}
	}

	if _, err := ParseKind("Ultrasound"); err == nil {
		t.Error("ParseKind accepted an unknown kind")
	}
	if got := Kind(42).String(); got != "Kind(42)" {
		t.Errorf("String() = %q", got)
	}
}
