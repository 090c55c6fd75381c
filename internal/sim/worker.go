package sim

import (
	"context"
	"time"

	"github.com/billie-coop/labsync/internal/config"
	"github.com/billie-coop/labsync/internal/order"
)

// Role is what a worker does in the simulation
type Role int

const (
	Producer Role = iota
	Consumer
	Reader
	Writer
)

func (r Role) String() string {
	switch r {
	case Producer:
		return "producer"
	case Consumer:
		return "consumer"
	case Reader:
		return "reader"
	case Writer:
		return "writer"
	default:
		return "worker"
	}
}

type worker struct {
	config.Worker
	role Role
	seed uint64
}

func (w worker) interval() time.Duration {
	return time.Duration(w.Interval)
}

// sleep pauses for d or until ctx is done, whichever comes first
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// produce creates orders and puts them on the channel, pausing between puts
func (r *Runner) produce(ctx context.Context, w worker) error {
	gen := order.NewGenerator(w.Name, w.seed)
	for {
		o := gen.Next()
		r.emit(OrderCreatedEvent, w.Name, OrderPayload{Order: o, Capacity: r.orders.Cap()})

		if err := r.orders.Put(ctx, o); err != nil {
			return err
		}
		n := r.orders.Len()
		r.stats.onProduce(w.Name, n)
		r.emit(OrderQueuedEvent, w.Name, OrderPayload{Order: o, QueueLen: n, Capacity: r.orders.Cap()})

		if err := sleep(ctx, w.interval()); err != nil {
			return err
		}
	}
}

// consume takes orders off the channel and spends its interval processing
// each one
func (r *Runner) consume(ctx context.Context, w worker) error {
	for {
		o, err := r.orders.Take(ctx)
		if err != nil {
			return err
		}
		now := time.Now()
		p := OrderPayload{
			Order:     o,
			QueueLen:  r.orders.Len(),
			Capacity:  r.orders.Cap(),
			Wait:      o.Age(now),
			QueueTime: o.QueueTime(now),
		}
		r.stats.onConsume(w.Name, p.Wait, p.QueueTime)
		r.emit(OrderProcessingEvent, w.Name, p)

		if err := sleep(ctx, w.interval()); err != nil {
			return err
		}
		r.emit(OrderCompletedEvent, w.Name, p)
	}
}

// audit reads the current policy, pausing between reads
func (r *Runner) audit(ctx context.Context, w worker) error {
	for {
		v, err := r.policy.Read(ctx)
		if err != nil {
			return err
		}
		st := r.policy.Stats()
		r.stats.onRead(w.Name)
		r.emit(PolicyReadEvent, w.Name, PolicyPayload{
			Value:          v,
			Readers:        st.ActiveReaders,
			WritersWaiting: st.WritersWaiting,
		})
		r.policy.EndRead()

		if err := sleep(ctx, w.interval()); err != nil {
			return err
		}
	}
}

// supervise waits its interval, then switches the policy to the next label
// in the rotation
func (r *Runner) supervise(ctx context.Context, w worker) error {
	labels := r.workload.Policies
	for i := 1; ; i++ {
		if err := sleep(ctx, w.interval()); err != nil {
			return err
		}
		label := labels[i%len(labels)]
		if err := r.policy.Write(ctx, label); err != nil {
			return err
		}
		r.stats.onWrite(w.Name)
		r.emit(PolicyWrittenEvent, w.Name, PolicyPayload{Value: label})
		r.policy.EndWrite()
	}
}
