package notify

import (
	"context"
	"log/slog"
	"sync"
)

// MemoryPublisher keeps the most recent events in memory and fans them out to
// in-process subscribers
type MemoryPublisher struct {
	mu      sync.RWMutex
	events  []Event
	limit   int
	subs    map[int]chan Event
	nextSub int
	closed  bool
}

// NewMemoryPublisher creates a publisher retaining up to limit events
func NewMemoryPublisher(limit int) *MemoryPublisher {
	if limit <= 0 {
		limit = 100
	}
	slog.Info("Initialized in-memory notifier", "limit", limit)
	return &MemoryPublisher{
		limit: limit,
		subs:  make(map[int]chan Event),
	}
}

// Publish records the event and offers it to every subscriber. A subscriber
// whose buffer is full misses the event.
func (p *MemoryPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}

	p.events = append(p.events, event)
	if len(p.events) > p.limit {
		p.events = p.events[len(p.events)-p.limit:]
	}

	for id, ch := range p.subs {
		select {
		case ch <- event:
		default:
			slog.Warn("Dropping event for slow subscriber", "subscriber", id, "type", event.Type)
		}
	}

	slog.Debug("Event published", "type", event.Type, "subject_id", event.SubjectID)
	return nil
}

// Subscribe returns a channel of future events and a function to stop receiving them
func (p *MemoryPublisher) Subscribe(buffer int) (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	ch := make(chan Event, buffer)
	id := p.nextSub
	p.nextSub++
	p.subs[id] = ch

	return ch, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		if sub, ok := p.subs[id]; ok {
			delete(p.subs, id)
			close(sub)
		}
	}
}

// Recent returns a copy of the retained events, oldest first
func (p *MemoryPublisher) Recent() []Event {
	p.mu.RLock()
	defer p.mu.RUnlock()

	out := make([]Event, len(p.events))
	copy(out, p.events)
	return out
}

// Close stops all subscriptions
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return nil
	}
	p.closed = true
	for id, ch := range p.subs {
		delete(p.subs, id)
		close(ch)
	}
	slog.Info("Memory notifier closed")
	return nil
}
