package service

import (
	"context"
	"fmt"
	"net/mail"
	"strings"

	"github.com/deskline/helpdesk-service/internal/auth"
	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/repository"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// DirectoryService answers user lookups and provisions accounts out of band.
type DirectoryService struct {
	users      repository.UserRepository
	bcryptCost int
}

// NewDirectoryService creates the service.
func NewDirectoryService(users repository.UserRepository, bcryptCost int) *DirectoryService {
	return &DirectoryService{users: users, bcryptCost: bcryptCost}
}

// CreateUserInput describes a new account.
type CreateUserInput struct {
	EmployeeCode string
	Username     string
	DisplayName  string
	Role         string
	Password     string
	Email        string
	Department   string
	ReportsTo    string
	MailUsername string
	MailPassword string
}

// FindEmployee resolves an account by employee code, username or id.
func (s *DirectoryService) FindEmployee(ctx context.Context, key string) (*domain.User, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, apperrors.NewValidationError("key required", nil)
	}
	user, err := s.users.FindByKey(ctx, key)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("employee", map[string]any{"key": key})
		}
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// ListAddressees returns every account tickets can be routed to.
func (s *DirectoryService) ListAddressees(ctx context.Context) ([]domain.User, error) {
	return s.listRole(ctx, domain.RoleAdmin)
}

// ListTechnicians returns every account tickets can be assigned to.
func (s *DirectoryService) ListTechnicians(ctx context.Context) ([]domain.User, error) {
	return s.listRole(ctx, domain.RoleTechnician)
}

func (s *DirectoryService) listRole(ctx context.Context, role domain.Role) ([]domain.User, error) {
	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return users, nil
}

// CreateUser provisions an account. The password is stored only as a bcrypt hash.
func (s *DirectoryService) CreateUser(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	role, ok := domain.ParseRole(input.Role)
	if !ok {
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown role %q", input.Role), nil)
	}
	username := strings.TrimSpace(input.Username)
	displayName := strings.TrimSpace(input.DisplayName)
	if username == "" || displayName == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, display name and password required", nil)
	}
	email := strings.TrimSpace(input.Email)
	if email != "" {
		if _, err := mail.ParseAddress(email); err != nil {
			return nil, apperrors.NewValidationError("invalid email", map[string]any{"email": email})
		}
	}
	if _, err := s.users.GetByUsername(ctx, username); err == nil {
		return nil, apperrors.NewValidationError("username already exists", map[string]any{"username": username})
	} else if !repository.IsNotFound(err) {
		return nil, apperrors.NewInternalError(err)
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	user := &domain.User{
		EmployeeCode: optionalString(input.EmployeeCode),
		Username:     username,
		DisplayName:  displayName,
		Role:         role,
		PasswordHash: hash,
		Email:        email,
		Department:   optionalString(input.Department),
		MailUsername: optionalString(input.MailUsername),
		MailPassword: optionalString(input.MailPassword),
	}
	if ref := strings.TrimSpace(input.ReportsTo); ref != "" {
		manager, err := resolveUserRef(ctx, s.users, ref, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		user.ReportsToID = &manager.ID
		user.ReportsToName = &manager.DisplayName
	}

	if err := s.users.Create(ctx, user); err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return user, nil
}

// resolveUserRef finds the account with the given role by username, falling back to an
// exact display name. A display name shared by several accounts is rejected.
func resolveUserRef(ctx context.Context, users repository.UserRepository, ref string, role domain.Role) (*domain.User, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return nil, apperrors.NewValidationError("user reference required", nil)
	}

	user, err := users.GetByUsername(ctx, ref)
	switch {
	case err == nil && user.Role == role:
		return user, nil
	case err != nil && !repository.IsNotFound(err):
		return nil, apperrors.NewInternalError(err)
	}

	matches, err := users.ListByDisplayName(ctx, ref, role)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	switch len(matches) {
	case 0:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("unknown %s %q", strings.ToLower(string(role)), ref),
			map[string]any{"ref": ref, "role": role})
	case 1:
		return &matches[0], nil
	default:
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("%q matches %d accounts; use the username", ref, len(matches)),
			map[string]any{"ref": ref, "role": role})
	}
}

func optionalString(value string) *string {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil
	}
	return &value
}
