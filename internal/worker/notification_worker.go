package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/service"
)

// DefaultDeliveryTimeout bounds the handlers of a single event.
const DefaultDeliveryTimeout = 30 * time.Second

// NotificationWorker drains the event queue on a fixed number of goroutines.
type NotificationWorker struct {
	queue   *events.QueueDispatcher
	logger  *zap.Logger
	workers int
	timeout time.Duration
	wg      sync.WaitGroup
}

// StartNotificationWorker registers notification handlers on the queue and starts
// draining it.
func StartNotificationWorker(ctx context.Context, notificationService *service.NotificationService, queue *events.QueueDispatcher, workers int, logger *zap.Logger) *NotificationWorker {
	if notificationService != nil {
		notificationService.RegisterHandlers()
	}
	w := NewNotificationWorker(queue, workers, logger)
	w.Start(ctx)
	return w
}

// NewNotificationWorker builds a worker pool of the given size.
func NewNotificationWorker(queue *events.QueueDispatcher, workers int, logger *zap.Logger) *NotificationWorker {
	if workers <= 0 {
		workers = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationWorker{
		queue:   queue,
		logger:  logger,
		workers: workers,
		timeout: DefaultDeliveryTimeout,
	}
}

// Start launches the goroutines. They exit once the queue is closed and drained.
func (w *NotificationWorker) Start(ctx context.Context) {
	for i := 0; i < w.workers; i++ {
		w.wg.Add(1)
		go w.run(ctx, i)
	}
	w.logger.Info("notification worker started", zap.Int("workers", w.workers))
}

// Stop closes the queue and waits for queued events to be delivered or for ctx to end.
func (w *NotificationWorker) Stop(ctx context.Context) error {
	w.queue.Close()
	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		w.logger.Info("notification worker stopped")
		return nil
	case <-ctx.Done():
		w.logger.Warn("notification worker stop timed out", zap.Int("pending", w.queue.Pending()))
		return ctx.Err()
	}
}

func (w *NotificationWorker) run(ctx context.Context, id int) {
	defer w.wg.Done()
	for event := range w.queue.Events() {
		w.deliver(ctx, id, event)
	}
}

func (w *NotificationWorker) deliver(ctx context.Context, id int, event events.Event) {
	deliverCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), w.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("notification handler panicked",
				zap.Int("worker", id),
				zap.String("event_type", string(event.Type)),
				zap.Int64("ticket_id", event.TicketID),
				zap.String("panic", fmt.Sprint(r)))
		}
	}()
	w.queue.Deliver(deliverCtx, event)
}
