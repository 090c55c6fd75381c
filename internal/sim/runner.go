package sim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"slices"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/billie-coop/labsync/internal/config"
	"github.com/billie-coop/labsync/internal/csync"
	"github.com/billie-coop/labsync/internal/order"
	"github.com/billie-coop/labsync/internal/policy"
	"github.com/billie-coop/labsync/internal/queue"
)

// ErrAlreadyStarted is returned when Run is called more than once
var ErrAlreadyStarted = errors.New("run already started")

// Runner drives one simulation: producers and consumers share a bounded
// order channel, readers and writers share the policy store.
//
// It ties together:
//   - queue.BoundedChannel (orders between clinics and analyzers)
//   - policy.Store (the lab policy read by auditors, set by supervisors)
//   - Broker (publishes what every worker does)
//
// Used by: main (plain and TUI modes), cmd/rwdemo
type Runner struct {
	id       uuid.UUID
	workload config.Workload
	mode     policy.Mode

	orders *queue.BoundedChannel[*order.TestOrder]
	policy *policy.Store[string]

	broker  *Broker
	logger  *log.Logger
	seed    uint64
	recent  *csync.Ring[Event]
	stats   *collector
	workers *registry

	// Lifecycle
	mutex   sync.Mutex
	started time.Time
	cancel  context.CancelFunc
}

// Option configures a Runner when creating it
type Option func(*Runner)

// WithLogger sets the logger for lifecycle and debug output
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) {
		r.logger = l
	}
}

// WithBroker publishes events to b instead of a private broker
func WithBroker(b *Broker) Option {
	return func(r *Runner) {
		r.broker = b
	}
}

// WithSeed makes generated orders reproducible. Zero picks a random seed.
func WithSeed(seed uint64) Option {
	return func(r *Runner) {
		r.seed = seed
	}
}

// WithHistory keeps the last n events for Recent
func WithHistory(n int) Option {
	return func(r *Runner) {
		r.recent = csync.NewRing[Event](n)
	}
}

// New prepares a run of w with the given fairness mode. It fails before
// anything starts if the workload cannot be run.
func New(w config.Workload, mode policy.Mode, opts ...Option) (*Runner, error) {
	if w.Duration <= 0 {
		return nil, fmt.Errorf("%w: duration must be positive", config.ErrInvalidConfig)
	}
	orders, err := queue.New[*order.TestOrder](w.Capacity)
	if err != nil {
		return nil, err
	}
	if len(w.Policies) == 0 {
		w.Policies = slices.Clone(config.DefaultPolicies)
	}

	r := &Runner{
		id:       uuid.New(),
		workload: w,
		mode:     mode,
		orders:   orders,
		policy:   policy.New(w.Policies[0], mode),
		recent:   csync.NewRing[Event](256),
		stats:    newCollector(),
		workers:  newRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.broker == nil {
		r.broker = NewBroker(64)
	}
	if r.logger == nil {
		r.logger = log.New(io.Discard)
	}
	if r.seed == 0 {
		r.seed = rand.Uint64()
	}
	r.logger = r.logger.With("run", shortID(r.id))
	return r, nil
}

// ID returns the run's unique ID
func (r *Runner) ID() uuid.UUID {
	return r.id
}

// Mode returns the policy store's fairness mode
func (r *Runner) Mode() policy.Mode {
	return r.mode
}

// Broker returns the broker events are published to
func (r *Runner) Broker() *Broker {
	return r.broker
}

// Workload returns the resolved workload being run
func (r *Runner) Workload() config.Workload {
	return r.workload
}

// Run starts every worker and blocks until the workload's duration has
// elapsed, ctx is cancelled or Stop is called. Workers interrupted while
// waiting on a monitor are part of a normal stop, not a failure.
func (r *Runner) Run(ctx context.Context) (Stats, error) {
	r.mutex.Lock()
	if !r.started.IsZero() {
		r.mutex.Unlock()
		return Stats{}, ErrAlreadyStarted
	}
	r.started = time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.workload.Duration)
	r.cancel = cancel
	r.mutex.Unlock()
	defer cancel()

	r.logger.Info("run started",
		"workload", r.workload.Name,
		"fairness", r.mode,
		"capacity", r.workload.Capacity,
		"duration", r.workload.Duration,
		"seed", r.seed)
	r.emit(RunStartedEvent, "", r.runPayload(nil))

	g, gctx := errgroup.WithContext(ctx)
	for _, w := range r.plan() {
		wctx, wcancel := context.WithCancel(gctx)
		r.workers.register(w.Name, wcancel)

		g.Go(func() error {
			defer wcancel()
			defer r.workers.unregister(w.Name)

			err := r.work(wctx, w)
			r.emit(WorkerStoppedEvent, w.Name, WorkerPayload{Role: w.role, Reason: reason(err), Failed: !isStop(err)})
			if isStop(err) {
				r.logger.Debug("worker stopped", "worker", w.Name, "role", w.role)
				return nil
			}
			return fmt.Errorf("%s %s: %w", w.role, w.Name, err)
		})
	}

	err := g.Wait()
	stats := r.Snapshot()
	r.emit(RunStoppedEvent, "", r.runPayload(&stats))

	if err != nil {
		r.logger.Error("run failed", "err", err)
		return stats, err
	}
	r.logger.Info("run stopped",
		"elapsed", stats.Elapsed.Round(time.Millisecond),
		"produced", stats.Produced,
		"consumed", stats.Consumed,
		"reads", stats.Reads,
		"writes", stats.Writes)
	return stats, nil
}

// Stop ends a running Run early. It has no effect before Run starts.
func (r *Runner) Stop() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.cancel != nil {
		r.cancel()
	}
}

// StopWorker stops a single worker by name. Returns false if no such worker
// is running.
func (r *Runner) StopWorker(name string) bool {
	ok := r.workers.cancel(name)
	if ok {
		r.logger.Info("worker stop requested", "worker", name)
	}
	return ok
}

// ActiveWorkers lists the workers still running
func (r *Runner) ActiveWorkers() []string {
	return r.workers.names()
}

// QueueLen returns the number of orders waiting for an analyzer
func (r *Runner) QueueLen() int {
	return r.orders.Len()
}

// Capacity returns the order channel's capacity
func (r *Runner) Capacity() int {
	return r.orders.Cap()
}

// PolicyStats returns the policy store's admission state
func (r *Runner) PolicyStats() policy.Stats {
	return r.policy.Stats()
}

// Snapshot returns the statistics gathered so far, including the current
// policy value
func (r *Runner) Snapshot() Stats {
	s := r.Progress()

	// Get waits behind queued writers; a zero value only means the store
	// was busy at the moment of a forced stop
	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	if v, err := r.policy.Get(ctx); err == nil {
		s.FinalPolicy = v
	}
	return s
}

// Progress returns the counters gathered so far without touching the
// policy store. It never blocks.
func (r *Runner) Progress() Stats {
	r.mutex.Lock()
	started := r.started
	r.mutex.Unlock()

	s := Stats{
		RunID:    r.id,
		Workload: r.workload.Name,
		Mode:     r.mode,
		Capacity: r.workload.Capacity,
		Roles:    make(map[string]Role),
		Setup:    r.workload,
		Seed:     r.seed,
	}
	if !started.IsZero() {
		s.Elapsed = time.Since(started)
	}
	for _, w := range r.plan() {
		s.Roles[w.Name] = w.role
	}
	r.stats.fill(&s)
	return s
}

// Recent returns the most recent events, oldest first
func (r *Runner) Recent() []Event {
	return r.recent.Items()
}

func (r *Runner) plan() []worker {
	var all []worker
	add := func(list []config.Worker, role Role) {
		for _, w := range list {
			all = append(all, worker{Worker: w, role: role, seed: r.seed + uint64(len(all))})
		}
	}
	add(r.workload.Producers, Producer)
	add(r.workload.Consumers, Consumer)
	add(r.workload.Readers, Reader)
	add(r.workload.Writers, Writer)
	return all
}

func (r *Runner) work(ctx context.Context, w worker) error {
	switch w.role {
	case Producer:
		return r.produce(ctx, w)
	case Consumer:
		return r.consume(ctx, w)
	case Reader:
		return r.audit(ctx, w)
	case Writer:
		return r.supervise(ctx, w)
	}
	return fmt.Errorf("unknown role %d", w.role)
}

func (r *Runner) emit(t EventType, name string, payload any) {
	e := Event{
		Type:    t,
		RunID:   r.id,
		Time:    time.Now(),
		Worker:  name,
		Payload: payload,
	}
	r.recent.Push(e)
	r.broker.Publish(e)
	r.logger.Debug(string(t), "worker", name, "event", e)
}

func (r *Runner) runPayload(stats *Stats) RunPayload {
	return RunPayload{
		Workload: r.workload.Name,
		Mode:     r.mode,
		Capacity: r.workload.Capacity,
		Duration: r.workload.Duration,
		Stats:    stats,
	}
}

// isStop reports whether err just means the worker was told to stop
func isStop(err error) bool {
	return err == nil ||
		csync.IsCancelled(err) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

func reason(err error) string {
	switch {
	case err == nil:
		return "done"
	case errors.Is(err, context.DeadlineExceeded):
		return "run time elapsed"
	case csync.IsCancelled(err):
		return "cancelled while waiting"
	case errors.Is(err, context.Canceled):
		return "cancelled"
	default:
		return err.Error()
	}
}
