package sim

import (
	"sync"
	"sync/atomic"
)

// Broker fans events out to subscribers.
// Publish never blocks: a subscriber that falls behind misses events.
//
// Used by: Runner (publishes every event)
// Connects to: tui.Model and plain-mode narration (subscribe)
type Broker struct {
	subscribers map[EventType][]chan Event
	mu          sync.RWMutex
	bufferSize  int
	dropped     atomic.Int64
}

const wildcard EventType = "*"

// NewBroker creates a broker whose subscriptions buffer bufferSize events
func NewBroker(bufferSize int) *Broker {
	if bufferSize < 1 {
		bufferSize = 1
	}
	return &Broker{
		subscribers: make(map[EventType][]chan Event),
		bufferSize:  bufferSize,
	}
}

// Subscribe creates a subscription to the given event types, or to all
// events when none are given
func (b *Broker) Subscribe(eventTypes ...EventType) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, b.bufferSize)
	if len(eventTypes) == 0 {
		eventTypes = []EventType{wildcard}
	}
	for _, t := range eventTypes {
		b.subscribers[t] = append(b.subscribers[t], ch)
	}
	return ch
}

// Unsubscribe removes a subscription and closes its channel
func (b *Broker) Unsubscribe(ch <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	closed := false
	for t, subs := range b.subscribers {
		for i, sub := range subs {
			if sub != ch {
				continue
			}
			b.subscribers[t] = append(subs[:i], subs[i+1:]...)
			if !closed {
				close(sub)
				closed = true
			}
			break
		}
		if len(b.subscribers[t]) == 0 {
			delete(b.subscribers, t)
		}
	}
}

// Publish sends an event to matching and wildcard subscribers
func (b *Broker) Publish(event Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	b.send(b.subscribers[event.Type], event)
	b.send(b.subscribers[wildcard], event)
}

func (b *Broker) send(subs []chan Event, event Event) {
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			b.dropped.Add(1)
		}
	}
}

// Dropped returns how many deliveries were skipped because a subscriber
// buffer was full
func (b *Broker) Dropped() int64 {
	return b.dropped.Load()
}

// Close removes all subscriptions, closing their channels
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	seen := make(map[chan Event]bool)
	for _, subs := range b.subscribers {
		for _, ch := range subs {
			if !seen[ch] {
				close(ch)
				seen[ch] = true
			}
		}
	}
	b.subscribers = make(map[EventType][]chan Event)
}
