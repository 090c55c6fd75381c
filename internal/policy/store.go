package policy

import (
	"context"
	"sync"

	"github.com/billie-coop/labsync/internal/csync"
)

// Stats is a consistent snapshot of a Store's admission state.
type Stats struct {
	ActiveReaders  int
	WriterActive   bool
	WritersWaiting int

	// Queued counts every goroutine blocked in Read or Write
	Queued int

	Mode Mode
}

// Store guards a single value shared by many readers and writers.
//
// Any number of readers may hold the value at once; a writer holds it
// alone. Every successful Read must be followed by exactly one EndRead and
// every successful Write by exactly one EndWrite. A Read or Write that
// returns an error holds nothing.
type Store[V any] struct {
	mu    sync.Mutex
	mode  Mode
	value V

	activeReaders  int
	writerActive   bool
	writersWaiting int

	// WriterPriority
	readable *csync.Cond
	writable *csync.Cond

	// StrictFair
	line []*ticket
}

type ticket struct {
	writer   bool
	admitted bool
	ready    chan struct{}
}

// New creates a Store holding initial. Modes other than StrictFair fall back
// to WriterPriority.
func New[V any](initial V, mode Mode) *Store[V] {
	if mode != StrictFair {
		mode = WriterPriority
	}
	s := &Store[V]{
		mode:  mode,
		value: initial,
	}
	s.readable = csync.NewCond(&s.mu)
	s.writable = csync.NewCond(&s.mu)
	return s
}

// Mode returns the admission discipline chosen at construction.
func (s *Store[V]) Mode() Mode {
	return s.mode
}

// Read blocks until the caller is admitted as a reader and returns the
// current value. The caller must call EndRead once done.
func (s *Store[V]) Read(ctx context.Context) (V, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.mode == StrictFair {
		err = s.enterFair(ctx, false)
	} else {
		err = s.enterRead(ctx)
	}
	if err != nil {
		var zero V
		return zero, err
	}
	return s.value, nil
}

// EndRead releases a read admission. It panics if no reader is active.
func (s *Store[V]) EndRead() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.activeReaders == 0 {
		panic("policy: EndRead without matching Read")
	}
	s.activeReaders--
	if s.activeReaders > 0 {
		return
	}
	if s.mode == StrictFair {
		s.dispatch()
	} else {
		s.writable.Signal()
	}
}

// Write blocks until the caller is admitted as the only writer, then
// installs v. The caller must call EndWrite once done.
func (s *Store[V]) Write(ctx context.Context, v V) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.enter(ctx); err != nil {
		return err
	}
	s.value = v
	return nil
}

// EndWrite releases a write admission. It panics if no writer is active.
func (s *Store[V]) EndWrite() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.writerActive {
		panic("policy: EndWrite without matching Write")
	}
	s.writerActive = false
	switch {
	case s.mode == StrictFair:
		s.dispatch()
	case s.writersWaiting > 0:
		s.writable.Signal()
	default:
		s.readable.Broadcast()
	}
}

// Get reads the current value and releases the read admission.
func (s *Store[V]) Get(ctx context.Context) (V, error) {
	v, err := s.Read(ctx)
	if err != nil {
		return v, err
	}
	s.EndRead()
	return v, nil
}

// Update replaces the value with fn applied to it, as a single write.
// fn runs while the writer admission is held; it must not call Read, Write
// or Update on s.
func (s *Store[V]) Update(ctx context.Context, fn func(V) V) error {
	s.mu.Lock()
	if err := s.enter(ctx); err != nil {
		s.mu.Unlock()
		return err
	}
	current := s.value
	s.mu.Unlock()

	next := fn(current)

	s.mu.Lock()
	s.value = next
	s.mu.Unlock()

	s.EndWrite()
	return nil
}

// Stats returns a snapshot of the admission state.
func (s *Store[V]) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := Stats{
		ActiveReaders:  s.activeReaders,
		WriterActive:   s.writerActive,
		WritersWaiting: s.writersWaiting,
		Mode:           s.mode,
	}
	if s.mode == StrictFair {
		st.Queued = len(s.line)
	} else {
		st.Queued = s.readable.Waiting() + s.writable.Waiting()
	}
	return st
}

// The methods below require s.mu.

func (s *Store[V]) enter(ctx context.Context) error {
	if s.mode == StrictFair {
		return s.enterFair(ctx, true)
	}
	return s.enterWrite(ctx)
}

func (s *Store[V]) enterRead(ctx context.Context) error {
	for s.writerActive || s.writersWaiting > 0 {
		if err := s.readable.Wait(ctx); err != nil {
			return err
		}
	}
	s.activeReaders++
	return nil
}

func (s *Store[V]) enterWrite(ctx context.Context) error {
	s.writersWaiting++
	for s.writerActive || s.activeReaders > 0 {
		if err := s.writable.Wait(ctx); err != nil {
			s.writersWaiting--
			if s.writersWaiting == 0 && !s.writerActive {
				s.readable.Broadcast()
			}
			return err
		}
	}
	s.writersWaiting--
	s.writerActive = true
	return nil
}

// enterFair admits immediately when nobody is queued and the request is
// compatible with the active state. Otherwise it queues a ticket and waits
// for dispatch to admit it.
func (s *Store[V]) enterFair(ctx context.Context, writer bool) error {
	if len(s.line) == 0 && s.compatible(writer) {
		s.admit(writer)
		return nil
	}
	if ctx.Err() != nil {
		return csync.Cancelled(ctx)
	}

	t := &ticket{writer: writer, ready: make(chan struct{})}
	s.line = append(s.line, t)
	if writer {
		s.writersWaiting++
	}

	s.mu.Unlock()
	select {
	case <-t.ready:
	case <-ctx.Done():
	}
	s.mu.Lock()

	// admission won the race against cancellation
	if t.admitted {
		return nil
	}

	s.dropTicket(t)
	if writer {
		s.writersWaiting--
	}
	s.dispatch()
	return csync.Cancelled(ctx)
}

func (s *Store[V]) compatible(writer bool) bool {
	if writer {
		return !s.writerActive && s.activeReaders == 0
	}
	return !s.writerActive
}

func (s *Store[V]) admit(writer bool) {
	if writer {
		s.writerActive = true
	} else {
		s.activeReaders++
	}
}

// dispatch admits tickets from the head of the line: one writer, or a run
// of consecutive readers.
func (s *Store[V]) dispatch() {
	for len(s.line) > 0 {
		t := s.line[0]
		if !s.compatible(t.writer) {
			return
		}
		s.line[0] = nil
		s.line = s.line[1:]
		if t.writer {
			s.writersWaiting--
		}
		s.admit(t.writer)
		t.admitted = true
		close(t.ready)
		if t.writer {
			return
		}
	}
}

func (s *Store[V]) dropTicket(t *ticket) {
	for i, q := range s.line {
		if q == t {
			s.line = append(s.line[:i], s.line[i+1:]...)
			return
		}
	}
}
