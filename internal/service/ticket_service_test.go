package service_test

import (
	"context"
	"errors"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/repository/memrepo"
	"github.com/deskline/helpdesk-service/internal/service"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

func validSubmission(reportingTo ...string) service.SubmitInput {
	return service.SubmitInput{
		EmpID:       "E-100",
		Username:    "eve",
		FullName:    "Eve Employee",
		Department:  "Finance",
		ReportingTo: reportingTo,
		IssueText:   "Printer on floor 3 is jammed",
		ObservedIP:  "10.0.0.7",
	}
}

var _ = Describe("TicketService", func() {
	var (
		ctx        context.Context
		store      *memrepo.Store
		people     roster
		dispatcher *recordingDispatcher
		tickets    *service.TicketService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memrepo.New()
		people = seedPeople(store)
		dispatcher = &recordingDispatcher{}
		tickets = service.NewTicketService(service.TicketDependencies{
			TicketRepo:  store.Tickets(),
			UserRepo:    store.Users(),
			HistoryRepo: store.History(),
			Dispatcher:  dispatcher,
		})
	})

	Describe("Submit", func() {
		It("creates a NOT_ASSIGNED ticket for the addressee", func() {
			created, err := tickets.Submit(ctx, validSubmission("alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(1))

			ticket := created[0]
			Expect(ticket.ID).To(BeNumerically(">", 0))
			Expect(ticket.Status).To(Equal(domain.TicketStatusNotAssigned))
			Expect(ticket.AddresseeID).To(Equal(people.alice.ID))
			Expect(ticket.AddresseeName).To(Equal("Alice"))
			Expect(ticket.RequesterID).To(Equal(&people.eve.ID))
			Expect(ticket.SystemIP).To(Equal("10.0.0.7"))
			Expect(dispatcher.Types()).To(Equal([]events.EventType{events.EventTicketSubmitted}))
		})

		It("fans out one ticket per addressee with identical content", func() {
			created, err := tickets.Submit(ctx, validSubmission("Alice", "Bob"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(2))
			Expect(store.TicketCount()).To(Equal(2))
			Expect([]int64{created[0].AddresseeID, created[1].AddresseeID}).To(ConsistOf(people.alice.ID, people.bob.ID))
			Expect(created[0].IssueText).To(Equal(created[1].IssueText))
			Expect(created[0].ID).NotTo(Equal(created[1].ID))
			Expect(dispatcher.Types()).To(HaveLen(2))
		})

		It("collapses duplicate addressees", func() {
			created, err := tickets.Submit(ctx, validSubmission("alice", "Alice"))
			Expect(err).NotTo(HaveOccurred())
			Expect(created).To(HaveLen(1))
		})

		It("prefers the client-supplied IP", func() {
			input := validSubmission("alice")
			input.IPAddress = "192.168.1.20"
			created, err := tickets.Submit(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(created[0].SystemIP).To(Equal("192.168.1.20"))
		})

		It("accepts requesters without an account", func() {
			input := validSubmission("alice")
			input.Username = "walk-in"
			created, err := tickets.Submit(ctx, input)
			Expect(err).NotTo(HaveOccurred())
			Expect(created[0].RequesterID).To(BeNil())
			Expect(created[0].RequesterUsername).To(Equal("walk-in"))
		})

		It("lists every missing field and creates nothing", func() {
			input := validSubmission()
			input.IssueText = "   "
			_, err := tickets.Submit(ctx, input)
			domainErr := apperrors.ToDomainError(err)
			Expect(domainErr.HTTPStatus).To(Equal(http.StatusBadRequest))
			Expect(domainErr.Message).To(Equal("Missing required fields"))
			Expect(domainErr.Details["missing"]).To(Equal([]string{"issue_text", "reporting_to"}))
			Expect(store.TicketCount()).To(BeZero())
			Expect(dispatcher.Types()).To(BeEmpty())
		})

		It("rejects an unknown addressee without creating the others", func() {
			_, err := tickets.Submit(ctx, validSubmission("alice", "nobody"))
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())
			Expect(store.TicketCount()).To(BeZero())
		})

		It("does not route tickets to technicians", func() {
			_, err := tickets.Submit(ctx, validSubmission("tom"))
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())
		})

		It("rejects a display name shared by two addressees", func() {
			store.AddUser(domain.User{Username: "alice2", DisplayName: "Alice", Role: domain.RoleAdmin})
			_, err := tickets.Submit(ctx, validSubmission("Alice"))
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())
			Expect(err.Error()).To(ContainSubstring("use the username"))
		})

		It("surfaces storage failures as internal errors", func() {
			store.FailWrites = errors.New("disk full")
			_, err := tickets.Submit(ctx, validSubmission("alice"))
			Expect(apperrors.ToDomainError(err).HTTPStatus).To(Equal(http.StatusInternalServerError))
			Expect(dispatcher.Types()).To(BeEmpty())
		})
	})

	Describe("reads", func() {
		var aliceTicket, bobTicket *domain.Ticket

		BeforeEach(func() {
			aliceTicket = store.AddTicket(domain.Ticket{RequesterName: "Eve", IssueText: "a", AddresseeID: people.alice.ID,
				Status: domain.TicketStatusNotAssigned})
			store.AddTicket(domain.Ticket{RequesterName: "Eve", IssueText: "b", AddresseeID: people.alice.ID,
				Status: domain.TicketStatusAssigned, AssigneeID: &people.tom.ID})
			store.AddTicket(domain.Ticket{RequesterName: "Eve", IssueText: "c", AddresseeID: people.alice.ID,
				Status: domain.TicketStatusRejected})
			bobTicket = store.AddTicket(domain.Ticket{RequesterName: "Eve", IssueText: "d", AddresseeID: people.bob.ID,
				Status: domain.TicketStatusInProcess, AssigneeID: &people.tina.ID})
		})

		It("lists only the addressee's tickets, newest first", func() {
			list, err := tickets.ListForAddressee(ctx, sessionOf(people.alice), service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(3))
			Expect(list[0].IssueText).To(Equal("c"))
			Expect(list[2].IssueText).To(Equal("a"))
		})

		It("filters by status", func() {
			list, err := tickets.ListForAddressee(ctx, sessionOf(people.alice), service.TicketListFilter{
				Statuses: []domain.TicketStatus{domain.TicketStatusNotAssigned},
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal(aliceTicket.ID))
		})

		It("lists only the assignee's tickets", func() {
			list, err := tickets.ListForAssignee(ctx, sessionOf(people.tina), service.TicketListFilter{})
			Expect(err).NotTo(HaveOccurred())
			Expect(list).To(HaveLen(1))
			Expect(list[0].ID).To(Equal(bobTicket.ID))
			Expect(*list[0].AssigneeName).To(Equal("Tina Tech"))
		})

		It("counts every status plus the total", func() {
			counts, err := tickets.CountsForAddressee(ctx, sessionOf(people.alice))
			Expect(err).NotTo(HaveOccurred())
			Expect(counts).To(HaveLen(len(domain.AllTicketStatuses) + 2))
			Expect(counts[service.StatusCountPendingKey]).To(BeEquivalentTo(1))
			Expect(counts["NOT_ASSIGNED"]).To(BeEquivalentTo(1))
			Expect(counts["ASSIGNED"]).To(BeEquivalentTo(1))
			Expect(counts["REJECTED"]).To(BeEquivalentTo(1))
			Expect(counts["COMPLETE"]).To(BeZero())
			Expect(counts[service.StatusCountTotalKey]).To(BeEquivalentTo(3))
		})

		It("counts the assignee's tickets", func() {
			counts, err := tickets.CountsForAssignee(ctx, sessionOf(people.tom))
			Expect(err).NotTo(HaveOccurred())
			Expect(counts["ASSIGNED"]).To(BeEquivalentTo(1))
			Expect(counts[service.StatusCountPendingKey]).To(BeZero())
			Expect(counts[service.StatusCountTotalKey]).To(BeEquivalentTo(1))
		})

		It("returns a ticket to its addressee", func() {
			ticket, err := tickets.GetForAddressee(ctx, sessionOf(people.alice), aliceTicket.ID)
			Expect(err).NotTo(HaveOccurred())
			Expect(ticket.AddresseeName).To(Equal("Alice"))
		})

		It("forbids reading another addressee's ticket", func() {
			_, err := tickets.GetForAddressee(ctx, sessionOf(people.alice), bobTicket.ID)
			Expect(apperrors.ToDomainError(err).HTTPStatus).To(Equal(http.StatusForbidden))
		})

		It("reports unknown tickets as not found", func() {
			_, err := tickets.GetForAssignee(ctx, sessionOf(people.tom), 9999)
			Expect(apperrors.ToDomainError(err).HTTPStatus).To(Equal(http.StatusNotFound))
		})
	})
})
