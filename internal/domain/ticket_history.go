package domain

import "time"

// TicketHistory is an immutable audit entry written with every status change.
type TicketHistory struct {
	ID         int64
	TicketID   int64
	ActorID    *int64
	ActorRole  Role
	FromStatus *TicketStatus
	ToStatus   TicketStatus
	Note       *string
	CreatedAt  time.Time
}
