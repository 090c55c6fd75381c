package sim

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/billie-coop/labsync/internal/order"
	"github.com/billie-coop/labsync/internal/policy"
)

// EventType identifies the type of event
type EventType string

const (
	// Run lifecycle
	RunStartedEvent    EventType = "run.started"
	RunStoppedEvent    EventType = "run.stopped"
	WorkerStoppedEvent EventType = "worker.stopped"

	// Order pipeline
	OrderCreatedEvent    EventType = "order.created"
	OrderQueuedEvent     EventType = "order.queued"
	OrderProcessingEvent EventType = "order.processing"
	OrderCompletedEvent  EventType = "order.completed"

	// Policy store
	PolicyReadEvent    EventType = "policy.read"
	PolicyWrittenEvent EventType = "policy.written"
)

// Event is something a worker or the runner did
type Event struct {
	Type    EventType
	RunID   uuid.UUID
	Time    time.Time
	Worker  string
	Payload any
}

// Event payload types

type RunPayload struct {
	Workload string
	Mode     policy.Mode
	Capacity int
	Duration time.Duration

	// Stats is set on RunStoppedEvent only
	Stats *Stats
}

type OrderPayload struct {
	Order    *order.TestOrder
	QueueLen int
	Capacity int

	// Wait and QueueTime are set once a consumer took the order
	Wait      time.Duration
	QueueTime time.Duration
}

type PolicyPayload struct {
	Value          string
	Readers        int
	WritersWaiting int
}

type WorkerPayload struct {
	Role   Role
	Reason string

	// Failed is set when the worker stopped on an error rather than a stop
	// request
	Failed bool
}

// String narrates the event in one line
func (e Event) String() string {
	switch p := e.Payload.(type) {
	case RunPayload:
		if e.Type == RunStoppedEvent {
			if p.Stats != nil {
				return fmt.Sprintf("run %s stopped after %s: %d produced, %d consumed",
					shortID(e.RunID), p.Stats.Elapsed.Round(time.Millisecond), p.Stats.Produced, p.Stats.Consumed)
			}
			return fmt.Sprintf("run %s stopped", shortID(e.RunID))
		}
		return fmt.Sprintf("run %s started: %s workload, %s, capacity %d, %s",
			shortID(e.RunID), p.Workload, p.Mode, p.Capacity, p.Duration)

	case OrderPayload:
		switch e.Type {
		case OrderCreatedEvent:
			return fmt.Sprintf("%s created %s", e.Worker, p.Order)
		case OrderQueuedEvent:
			return fmt.Sprintf("%s queued Order-%d (queue %d/%d)", e.Worker, p.Order.ID, p.QueueLen, p.Capacity)
		case OrderProcessingEvent:
			return fmt.Sprintf("%s processing %s after %s (queued %s)", e.Worker, p.Order,
				p.Wait.Round(time.Millisecond), p.QueueTime.Round(time.Millisecond))
		case OrderCompletedEvent:
			return fmt.Sprintf("%s completed Order-%d", e.Worker, p.Order.ID)
		}

	case PolicyPayload:
		if e.Type == PolicyWrittenEvent {
			return fmt.Sprintf("%s set policy to %s", e.Worker, p.Value)
		}
		return fmt.Sprintf("%s read policy %s (%d readers)", e.Worker, p.Value, p.Readers)

	case WorkerPayload:
		return fmt.Sprintf("%s %s stopped: %s", p.Role, e.Worker, p.Reason)
	}
	return fmt.Sprintf("%s %s", e.Type, e.Worker)
}

func shortID(id uuid.UUID) string {
	return id.String()[:8]
}
