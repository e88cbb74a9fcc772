package worker_test

import (
	"context"
	"sync/atomic"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/worker"
)

var _ = Describe("NotificationWorker", func() {
	It("delivers queued events and drains on Stop", func() {
		queue := events.NewQueueDispatcher(16, nil)
		var handled atomic.Int32
		queue.Subscribe(events.EventTicketFixed, func(context.Context, events.Event) error {
			handled.Add(1)
			return nil
		})

		w := worker.NewNotificationWorker(queue, 3, nil)
		w.Start(context.Background())
		for i := 0; i < 10; i++ {
			Expect(queue.Publish(context.Background(), events.Event{Type: events.EventTicketFixed, TicketID: int64(i)})).To(Succeed())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(w.Stop(ctx)).To(Succeed())
		Expect(handled.Load()).To(BeEquivalentTo(10))
	})

	It("survives a panicking handler", func() {
		queue := events.NewQueueDispatcher(4, nil)
		var handled atomic.Int32
		queue.Subscribe(events.EventTicketDeleted, func(_ context.Context, event events.Event) error {
			if event.TicketID == 1 {
				panic("template exploded")
			}
			handled.Add(1)
			return nil
		})

		w := worker.NewNotificationWorker(queue, 1, nil)
		w.Start(context.Background())
		Expect(queue.Publish(context.Background(), events.Event{Type: events.EventTicketDeleted, TicketID: 1})).To(Succeed())
		Expect(queue.Publish(context.Background(), events.Event{Type: events.EventTicketDeleted, TicketID: 2})).To(Succeed())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		Expect(w.Stop(ctx)).To(Succeed())
		Expect(handled.Load()).To(BeEquivalentTo(1))
	})

	It("starts with at least one goroutine", func() {
		queue := events.NewQueueDispatcher(1, nil)
		w := worker.StartNotificationWorker(context.Background(), nil, queue, 0, nil)
		Eventually(func() int { return queue.Pending() }).Should(BeZero())
		Expect(w.Stop(context.Background())).To(Succeed())
	})
})
