package domain

import "time"

// Session is the identity asserted by a verified session credential.
type Session struct {
	UserID      int64
	Username    string
	Role        Role
	DisplayName string
	ExpiresAt   time.Time
}
