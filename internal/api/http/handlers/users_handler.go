package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk-service/internal/api/dto"
	"github.com/deskline/helpdesk-service/internal/service"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// UsersHandler exposes login and directory endpoints.
type UsersHandler struct {
	auth      *service.AuthService
	directory *service.DirectoryService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(authService *service.AuthService, directory *service.DirectoryService) *UsersHandler {
	return &UsersHandler{auth: authService, directory: directory}
}

// Login handles POST /login.
func (h *UsersHandler) Login(c *fiber.Ctx) error {
	var req dto.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	result, err := h.auth.Login(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return err
	}
	return c.JSON(dto.LoginResponse{
		Token:     result.Token,
		ExpiresAt: result.ExpiresAt,
		User: dto.SessionUser{
			Username:    result.User.Username,
			Role:        result.User.Role,
			DisplayName: result.User.DisplayName,
		},
	})
}

// FindEmployee handles GET /employees/find?key=.
func (h *UsersHandler) FindEmployee(c *fiber.Ctx) error {
	user, err := h.directory.FindEmployee(c.UserContext(), c.Query("key"))
	if err != nil {
		return err
	}
	return c.JSON(dto.NewEmployeeResponse(user))
}

// ListAddressees handles GET /admins.
func (h *UsersHandler) ListAddressees(c *fiber.Ctx) error {
	users, err := h.directory.ListAddressees(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDirectoryEntries(users)})
}

// ListTechnicians handles GET /{admin}/technicians and its /{admin}/staff alias.
func (h *UsersHandler) ListTechnicians(c *fiber.Ctx) error {
	users, err := h.directory.ListTechnicians(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewDirectoryEntries(users)})
}
