package events_test

import (
	"context"
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/events"
)

var _ = Describe("InMemoryDispatcher", func() {
	It("runs every handler for the event type and swallows failures", func() {
		dispatcher := events.NewInMemoryDispatcher(nil)
		var calls []string
		dispatcher.Subscribe(events.EventTicketAssigned, func(context.Context, events.Event) error {
			calls = append(calls, "first")
			return errors.New("mail server down")
		})
		dispatcher.Subscribe(events.EventTicketAssigned, func(context.Context, events.Event) error {
			calls = append(calls, "second")
			return nil
		})
		dispatcher.Subscribe(events.EventTicketRejected, func(context.Context, events.Event) error {
			calls = append(calls, "other")
			return nil
		})

		err := dispatcher.Publish(context.Background(), events.Event{Type: events.EventTicketAssigned, TicketID: 1})
		Expect(err).NotTo(HaveOccurred())
		Expect(calls).To(Equal([]string{"first", "second"}))
	})
})

var _ = Describe("QueueDispatcher", func() {
	It("queues without running handlers until delivered", func() {
		queue := events.NewQueueDispatcher(4, nil)
		delivered := 0
		queue.Subscribe(events.EventTicketSubmitted, func(context.Context, events.Event) error {
			delivered++
			return nil
		})

		Expect(queue.Publish(context.Background(), events.Event{Type: events.EventTicketSubmitted, TicketID: 9})).To(Succeed())
		Expect(delivered).To(BeZero())
		Expect(queue.Pending()).To(Equal(1))

		event := <-queue.Events()
		queue.Deliver(context.Background(), event)
		Expect(delivered).To(Equal(1))
		Expect(event.TicketID).To(Equal(int64(9)))
	})

	It("drops events instead of blocking when full", func() {
		queue := events.NewQueueDispatcher(1, nil)
		Expect(queue.Publish(context.Background(), events.Event{TicketID: 1})).To(Succeed())
		Expect(queue.Publish(context.Background(), events.Event{TicketID: 2})).To(Succeed())
		Expect(queue.Pending()).To(Equal(1))
		Expect((<-queue.Events()).TicketID).To(Equal(int64(1)))
	})

	It("keeps queued events readable after Close and ignores later publishes", func() {
		queue := events.NewQueueDispatcher(2, nil)
		Expect(queue.Publish(context.Background(), events.Event{TicketID: 1})).To(Succeed())
		queue.Close()
		queue.Close()
		Expect(queue.Publish(context.Background(), events.Event{TicketID: 2})).To(Succeed())

		var drained []int64
		for event := range queue.Events() {
			drained = append(drained, event.TicketID)
		}
		Expect(drained).To(Equal([]int64{1}))
	})
})
