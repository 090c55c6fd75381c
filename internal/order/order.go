package order

import (
	"fmt"
	"sync/atomic"
	"time"
)

// Priority bounds. 1 is the most urgent.
const (
	MinPriority = 1
	MaxPriority = 3
)

// Sequence hands out monotonically increasing IDs, starting at one.
// The zero value is ready to use and safe for concurrent use.
type Sequence struct {
	last atomic.Int64
}

// Next returns the next ID.
func (s *Sequence) Next() int64 {
	return s.last.Add(1)
}

// Last returns the most recently issued ID, zero if none was issued.
func (s *Sequence) Last() int64 {
	return s.last.Load()
}

// ids numbers every TestOrder created by this process.
var ids Sequence

// LastID returns the ID of the most recently created order.
func LastID() int64 {
	return ids.Last()
}

// TestOrder is a request for a diagnostic test.
type TestOrder struct {
	// ID is unique for the lifetime of the process
	ID int64

	// Origin names the producing clinic or ward
	Origin string

	// Patient identifies the patient, e.g. "ER-P3"
	Patient string

	Kind Kind

	// Priority is carried as data; it never affects queue order
	Priority int

	CreatedAt time.Time

	enqueuedAt time.Time
}

// Option configures a TestOrder when creating it.
type Option func(*TestOrder)

// WithPatient sets the patient identifier.
func WithPatient(patient string) Option {
	return func(o *TestOrder) {
		o.Patient = patient
	}
}

// WithKind sets the test category.
func WithKind(k Kind) Option {
	return func(o *TestOrder) {
		o.Kind = k
	}
}

// WithPriority sets the priority, clamped to [MinPriority, MaxPriority].
func WithPriority(p int) Option {
	return func(o *TestOrder) {
		o.Priority = min(max(p, MinPriority), MaxPriority)
	}
}

// New creates an order for origin with the next process-wide ID.
// Without options the order is a BloodTest of middle priority.
func New(origin string, opts ...Option) *TestOrder {
	o := &TestOrder{
		ID:        ids.Next(),
		Origin:    origin,
		Kind:      BloodTest,
		Priority:  2,
		CreatedAt: time.Now(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.Patient == "" {
		o.Patient = fmt.Sprintf("%s-P%d", origin, o.ID)
	}
	return o
}

// MarkEnqueued records when the order entered the queue. Only the first
// call has an effect. The queue calls it while holding its lock.
func (o *TestOrder) MarkEnqueued(at time.Time) {
	if o.enqueuedAt.IsZero() {
		o.enqueuedAt = at
	}
}

// EnqueuedAt returns the insertion time, zero if the order was never queued.
func (o *TestOrder) EnqueuedAt() time.Time {
	return o.enqueuedAt
}

// Age is the time elapsed since the order was created.
func (o *TestOrder) Age(now time.Time) time.Duration {
	return now.Sub(o.CreatedAt)
}

// QueueTime is the time the order spent between insertion and now.
func (o *TestOrder) QueueTime(now time.Time) time.Duration {
	if o.enqueuedAt.IsZero() {
		return 0
	}
	return now.Sub(o.enqueuedAt)
}

func (o *TestOrder) String() string {
	return fmt.Sprintf("Order-%d[%s,%s,P%d]", o.ID, o.Patient, o.Kind, o.Priority)
}
