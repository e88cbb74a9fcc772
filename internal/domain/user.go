package domain

import (
	"strings"
	"time"
)

// Role is the closed set of account roles. A role is fixed when the account is provisioned.
type Role string

const (
	RoleEmployee   Role = "EMPLOYEE"
	RoleAdmin      Role = "ADMIN"
	RoleTechnician Role = "TECHNICIAN"
)

var roleAliases = map[string]Role{
	"EMPLOYEE":   RoleEmployee,
	"USER":       RoleEmployee,
	"ADMIN":      RoleAdmin,
	"MANAGER":    RoleAdmin,
	"TECHNICIAN": RoleTechnician,
	"STAFF":      RoleTechnician,
}

// ParseRole normalizes a role name, accepting the legacy aliases USER, MANAGER and STAFF.
func ParseRole(raw string) (Role, bool) {
	role, ok := roleAliases[strings.ToUpper(strings.TrimSpace(raw))]
	return role, ok
}

// User is an account: employees submit tickets, admins triage them, technicians work them.
type User struct {
	ID           int64
	EmployeeCode *string
	Username     string
	DisplayName  string
	Role         Role
	PasswordHash string
	Email        string
	Department   *string
	// ReportsToID is the employee's default addressee.
	ReportsToID   *int64
	ReportsToName *string
	// Personal outbound mail identity; when unset the system identity is used.
	MailUsername *string
	MailPassword *string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// HasMailCredentials reports whether mail can be sent as this user.
func (u *User) HasMailCredentials() bool {
	return u != nil &&
		u.MailUsername != nil && *u.MailUsername != "" &&
		u.MailPassword != nil && *u.MailPassword != ""
}
