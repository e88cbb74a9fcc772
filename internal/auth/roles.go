package auth

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk-service/internal/domain"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// RequireRole admits only sessions holding one of the allowed roles. It runs before any
// handler touches storage, so a role mismatch is a 403 whether or not the target exists.
func RequireRole(allowed ...domain.Role) fiber.Handler {
	allowedSet := make(map[domain.Role]struct{}, len(allowed))
	for _, role := range allowed {
		allowedSet[role] = struct{}{}
	}

	return func(c *fiber.Ctx) error {
		session, ok := SessionFromContext(c)
		if !ok {
			return apperrors.NewUnauthorized("authentication required")
		}
		if _, exists := allowedSet[session.Role]; !exists {
			return apperrors.NewForbidden("Access denied")
		}
		return c.Next()
	}
}
