package auth

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"

	"github.com/gofiber/fiber/v2"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/deskline/helpdesk-service/internal/domain"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

var _ = Describe("AuthMiddleware and RequireRole", func() {
	var (
		tm      *TokenManager
		app     *fiber.App
		reached bool
	)

	tokenFor := func(role domain.Role) string {
		token, _, err := tm.GenerateToken(&domain.User{ID: 3, Username: "u", DisplayName: "U", Role: role})
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		return token
	}

	call := func(header string) (int, string) {
		req := httptest.NewRequest(http.MethodGet, "/admin/tickets/1", nil)
		if header != "" {
			req.Header.Set(fiber.HeaderAuthorization, header)
		}
		resp, err := app.Test(req)
		ExpectWithOffset(1, err).NotTo(HaveOccurred())
		body, _ := io.ReadAll(resp.Body)
		var payload map[string]any
		_ = json.Unmarshal(body, &payload)
		msg, _ := payload["error"].(string)
		return resp.StatusCode, msg
	}

	BeforeEach(func() {
		reached = false
		tm = NewTokenManager("mw-secret", 60)
		app = fiber.New(fiber.Config{
			ErrorHandler: func(c *fiber.Ctx, err error) error {
				domainErr := apperrors.ToDomainError(err)
				return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"error": domainErr.Message})
			},
		})
		app.Get("/admin/tickets/:id", NewAuthMiddleware(tm).Handle, RequireRole(domain.RoleAdmin), func(c *fiber.Ctx) error {
			reached = true
			session, ok := SessionFromContext(c)
			if !ok {
				return fiber.ErrInternalServerError
			}
			return c.JSON(fiber.Map{"user": session.Username})
		})
	})

	It("answers 401 without a credential", func() {
		status, msg := call("")
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(msg).To(Equal("No token"))
		Expect(reached).To(BeFalse())
	})

	It("answers 403 for a garbled or foreign token", func() {
		status, msg := call("Bearer not.a.token")
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(msg).To(Equal("Invalid or expired token"))

		other := NewTokenManager("other", 60)
		token, _, _ := other.GenerateToken(&domain.User{ID: 3, Username: "u", Role: domain.RoleAdmin})
		status, _ = call("Bearer " + token)
		Expect(status).To(Equal(http.StatusForbidden))
	})

	It("answers 403 for the wrong role before the handler runs", func() {
		status, msg := call("Bearer " + tokenFor(domain.RoleTechnician))
		Expect(status).To(Equal(http.StatusForbidden))
		Expect(msg).To(Equal("Access denied"))
		Expect(reached).To(BeFalse())
	})

	It("admits the right role", func() {
		status, _ := call("Bearer " + tokenFor(domain.RoleAdmin))
		Expect(status).To(Equal(http.StatusOK))
		Expect(reached).To(BeTrue())
	})
})
