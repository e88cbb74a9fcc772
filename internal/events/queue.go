package events

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// QueueDispatcher decouples publishers from handlers with a bounded queue. Publish never
// blocks: when the queue is full the event is dropped and logged. Workers call Deliver
// for every queued event.
type QueueDispatcher struct {
	handlers *inMemoryDispatcher
	queue    chan Event
	logger   *zap.Logger

	mu     sync.RWMutex
	closed bool
}

// NewQueueDispatcher builds a dispatcher with the given queue capacity.
func NewQueueDispatcher(size int, logger *zap.Logger) *QueueDispatcher {
	if size <= 0 {
		size = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QueueDispatcher{
		handlers: newInMemoryDispatcher(logger),
		queue:    make(chan Event, size),
		logger:   logger,
	}
}

// Publish enqueues the event. The request context is not carried over: delivery happens
// after the response has been written.
func (d *QueueDispatcher) Publish(_ context.Context, event Event) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		d.logger.Warn("event dropped: dispatcher closed",
			zap.String("event_type", string(event.Type)), zap.Int64("ticket_id", event.TicketID))
		return nil
	}
	select {
	case d.queue <- event:
	default:
		d.logger.Warn("event dropped: queue full",
			zap.String("event_type", string(event.Type)), zap.Int64("ticket_id", event.TicketID))
	}
	return nil
}

// Subscribe registers a handler for the given event type.
func (d *QueueDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.handlers.Subscribe(eventType, handler)
}

// Events exposes the queue to workers. It is closed by Close.
func (d *QueueDispatcher) Events() <-chan Event {
	return d.queue
}

// Deliver runs the subscribed handlers for one event.
func (d *QueueDispatcher) Deliver(ctx context.Context, event Event) {
	_ = d.handlers.Publish(ctx, event)
}

// Pending returns the number of queued events.
func (d *QueueDispatcher) Pending() int {
	return len(d.queue)
}

// Close stops accepting events. Already queued events stay readable from Events.
func (d *QueueDispatcher) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}
	d.closed = true
	close(d.queue)
}
