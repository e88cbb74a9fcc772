package service_test

import (
	"context"
	"net/http"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/auth"
	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/repository/memrepo"
	"github.com/deskline/helpdesk-service/internal/service"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

var _ = Describe("DirectoryService", func() {
	var (
		ctx       context.Context
		store     *memrepo.Store
		people    roster
		directory *service.DirectoryService
	)

	BeforeEach(func() {
		ctx = context.Background()
		store = memrepo.New()
		people = seedPeople(store)
		directory = service.NewDirectoryService(store.Users(), 4)
	})

	Describe("FindEmployee", func() {
		It("finds by employee code, username and id", func() {
			for _, key := range []string{"E-100", "eve", "5"} {
				user, err := directory.FindEmployee(ctx, key)
				Expect(err).NotTo(HaveOccurred(), key)
				Expect(user.ID).To(Equal(people.eve.ID))
				Expect(*user.ReportsToName).To(Equal("Alice"))
			}
		})

		It("returns 404 for unknown keys", func() {
			_, err := directory.FindEmployee(ctx, "nobody")
			Expect(apperrors.ToDomainError(err).HTTPStatus).To(Equal(http.StatusNotFound))
		})

		It("requires a key", func() {
			_, err := directory.FindEmployee(ctx, "")
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())
		})
	})

	It("lists addressees and technicians by role", func() {
		admins, err := directory.ListAddressees(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(admins).To(HaveLen(2))
		Expect(admins[0].DisplayName).To(Equal("Alice"))

		techs, err := directory.ListTechnicians(ctx)
		Expect(err).NotTo(HaveOccurred())
		Expect(techs).To(HaveLen(2))
	})

	Describe("CreateUser", func() {
		It("stores a bcrypt hash and resolves the manager", func() {
			user, err := directory.CreateUser(ctx, service.CreateUserInput{
				Username: "nick", DisplayName: "Nick New", Role: "user", Password: "hunter22",
				Email: "nick@corp.test", ReportsTo: "Bob",
			})
			Expect(err).NotTo(HaveOccurred())
			Expect(user.ID).To(BeNumerically(">", 0))
			Expect(user.Role).To(Equal(domain.RoleEmployee))
			Expect(user.PasswordHash).NotTo(Equal("hunter22"))
			Expect(auth.ComparePassword(user.PasswordHash, "hunter22")).To(Succeed())
			Expect(*user.ReportsToID).To(Equal(people.bob.ID))
		})

		It("rejects duplicates, unknown roles and bad emails", func() {
			_, err := directory.CreateUser(ctx, service.CreateUserInput{Username: "alice", DisplayName: "A", Role: "ADMIN", Password: "x"})
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())

			_, err = directory.CreateUser(ctx, service.CreateUserInput{Username: "z", DisplayName: "Z", Role: "ROOT", Password: "x"})
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())

			_, err = directory.CreateUser(ctx, service.CreateUserInput{Username: "z", DisplayName: "Z", Role: "STAFF", Password: "x", Email: "not-an-email"})
			Expect(apperrors.IsCode(err, "VALIDATION_FAILED")).To(BeTrue())
		})
	})
})
