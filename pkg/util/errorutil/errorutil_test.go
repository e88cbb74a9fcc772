package errorutil_test

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

var _ = Describe("ToDomainError", func() {
	It("keeps domain errors, even when wrapped", func() {
		original := errorutil.NewForbidden("Access denied")
		domainErr := errorutil.ToDomainError(fmt.Errorf("handler: %w", original))
		Expect(domainErr.HTTPStatus).To(Equal(http.StatusForbidden))
		Expect(domainErr.Message).To(Equal("Access denied"))
	})

	It("maps missing rows to 404", func() {
		domainErr := errorutil.ToDomainError(pgx.ErrNoRows)
		Expect(domainErr.HTTPStatus).To(Equal(http.StatusNotFound))
		Expect(domainErr.Code).To(Equal("NOT_FOUND"))
	})

	It("maps fiber errors by status", func() {
		Expect(errorutil.ToDomainError(fiber.ErrNotFound).HTTPStatus).To(Equal(http.StatusNotFound))
		Expect(errorutil.ToDomainError(fiber.NewError(http.StatusBadRequest, "bad")).Code).To(Equal("VALIDATION_FAILED"))
		Expect(errorutil.ToDomainError(fiber.ErrMethodNotAllowed).Code).To(Equal("METHOD_NOT_ALLOWED"))
	})

	It("hides unknown errors behind a generic 500", func() {
		cause := errors.New("pq: relation tickets does not exist")
		domainErr := errorutil.ToDomainError(cause)
		Expect(domainErr.HTTPStatus).To(Equal(http.StatusInternalServerError))
		Expect(domainErr.Message).To(Equal("internal server error"))
		Expect(errors.Is(domainErr, cause)).To(BeTrue())
	})

	It("returns nil for nil", func() {
		Expect(errorutil.ToDomainError(nil)).To(BeNil())
	})
})

var _ = Describe("constructors", func() {
	DescribeTable("carry the right status and code",
		func(err error, status int, code string) {
			Expect(errorutil.ToDomainError(err).HTTPStatus).To(Equal(status))
			Expect(errorutil.IsCode(err, code)).To(BeTrue())
		},
		Entry("validation", errorutil.NewValidationError("Missing required fields", nil), http.StatusBadRequest, "VALIDATION_FAILED"),
		Entry("precondition", errorutil.NewPreconditionFailed("ticket is COMPLETE", nil), http.StatusBadRequest, "PRECONDITION_FAILED"),
		Entry("unauthorized", errorutil.NewUnauthorized("No token"), http.StatusUnauthorized, "UNAUTHORIZED"),
		Entry("forbidden", errorutil.NewForbidden("Access denied"), http.StatusForbidden, "FORBIDDEN"),
		Entry("not found", errorutil.NewNotFound("ticket", nil), http.StatusNotFound, "NOT_FOUND"),
		Entry("internal", errorutil.NewInternalError(errors.New("boom")), http.StatusInternalServerError, "INTERNAL_ERROR"),
	)

	It("formats the not found message", func() {
		Expect(errorutil.NewNotFound("ticket", nil).Error()).To(Equal("ticket not found"))
	})
})
