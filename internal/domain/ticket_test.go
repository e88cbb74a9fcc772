package domain_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/domain"
)

var _ = Describe("TicketStatus", func() {
	DescribeTable("PENDING depends on who is asking",
		func(parse func(string) (domain.TicketStatus, bool), expected domain.TicketStatus) {
			status, ok := parse("pending")
			Expect(ok).To(BeTrue())
			Expect(status).To(Equal(expected))
		},
		Entry("addressee", domain.ParseAddresseeStatus, domain.TicketStatusNotAssigned),
		Entry("assignee", domain.ParseAssigneeStatus, domain.TicketStatusNotStarted),
	)

	DescribeTable("normalizes spelling",
		func(raw string, expected domain.TicketStatus) {
			status, ok := domain.ParseAssigneeStatus(raw)
			Expect(ok).To(BeTrue())
			Expect(status).To(Equal(expected))
		},
		Entry("canonical", "INPROCESS", domain.TicketStatusInProcess),
		Entry("underscore", "in_process", domain.TicketStatusInProcess),
		Entry("in progress", "In Progress", domain.TicketStatusInProcess),
		Entry("dash", "not-started", domain.TicketStatusNotStarted),
		Entry("complete", " complete ", domain.TicketStatusComplete),
	)

	It("rejects unknown names", func() {
		_, ok := domain.ParseAddresseeStatus("CLOSED")
		Expect(ok).To(BeFalse())
		Expect(domain.TicketStatus("CLOSED").Valid()).To(BeFalse())
	})

	It("knows which states are terminal", func() {
		for _, status := range domain.AllTicketStatuses {
			Expect(status.Terminal()).To(Equal(!status.In(domain.OpenStatuses)), string(status))
		}
	})
})

var _ = Describe("TicketPriority", func() {
	It("accepts any casing", func() {
		priority, ok := domain.ParseTicketPriority("hIgH")
		Expect(ok).To(BeTrue())
		Expect(priority).To(Equal(domain.TicketPriorityHigh))

		_, ok = domain.ParseTicketPriority("urgent")
		Expect(ok).To(BeFalse())
	})
})

var _ = Describe("Role", func() {
	DescribeTable("accepts legacy aliases",
		func(raw string, expected domain.Role) {
			role, ok := domain.ParseRole(raw)
			Expect(ok).To(BeTrue())
			Expect(role).To(Equal(expected))
		},
		Entry("user", "user", domain.RoleEmployee),
		Entry("manager", "Manager", domain.RoleAdmin),
		Entry("staff", "STAFF", domain.RoleTechnician),
		Entry("technician", "technician", domain.RoleTechnician),
	)

	It("reports mail credentials only when both parts are set", func() {
		user := &domain.User{}
		Expect(user.HasMailCredentials()).To(BeFalse())
		name, pass := "me@corp.test", "pw"
		user.MailUsername = &name
		Expect(user.HasMailCredentials()).To(BeFalse())
		user.MailPassword = &pass
		Expect(user.HasMailCredentials()).To(BeTrue())
	})
})
