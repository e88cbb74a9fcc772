package dto

import (
	"time"

	"github.com/deskline/helpdesk-service/internal/domain"
)

// LoginRequest payload for login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// SessionUser is the account summary returned with a token.
type SessionUser struct {
	Username    string      `json:"username"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"display_name"`
}

// LoginResponse standard response for the login endpoint.
type LoginResponse struct {
	Token     string      `json:"token"`
	ExpiresAt time.Time   `json:"expires_at"`
	User      SessionUser `json:"user"`
}

// EmployeeResponse is the directory view of an account. Secrets are never included.
type EmployeeResponse struct {
	ID          int64       `json:"id"`
	EmpID       *string     `json:"emp_id"`
	Username    string      `json:"username"`
	FullName    string      `json:"full_name"`
	Department  *string     `json:"department"`
	Email       string      `json:"email"`
	Role        domain.Role `json:"role"`
	ReportingTo *string     `json:"reporting_to"`
}

// NewEmployeeResponse converts a domain user.
func NewEmployeeResponse(user *domain.User) EmployeeResponse {
	return EmployeeResponse{
		ID:          user.ID,
		EmpID:       user.EmployeeCode,
		Username:    user.Username,
		FullName:    user.DisplayName,
		Department:  user.Department,
		Email:       user.Email,
		Role:        user.Role,
		ReportingTo: user.ReportsToName,
	}
}

// DirectoryEntry is the short form used by pickers.
type DirectoryEntry struct {
	ID          int64  `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"display_name"`
}

// NewDirectoryEntries converts domain users to picker entries.
func NewDirectoryEntries(users []domain.User) []DirectoryEntry {
	out := make([]DirectoryEntry, 0, len(users))
	for _, user := range users {
		out = append(out, DirectoryEntry{ID: user.ID, Username: user.Username, DisplayName: user.DisplayName})
	}
	return out
}
