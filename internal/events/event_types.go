package events

import (
	"time"

	"github.com/deskline/helpdesk-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventTicketSubmitted     EventType = "ticket_submitted"
	EventTicketAssigned      EventType = "ticket_assigned"
	EventTicketRejected      EventType = "ticket_rejected"
	EventTicketStatusChanged EventType = "ticket_status_changed"
	EventTicketFixed         EventType = "ticket_fixed"
	EventTicketReturned      EventType = "ticket_returned"
	EventTicketDeleted       EventType = "ticket_deleted"
)

// AllEventTypes lists every event the workflow emits.
var AllEventTypes = []EventType{
	EventTicketSubmitted,
	EventTicketAssigned,
	EventTicketRejected,
	EventTicketStatusChanged,
	EventTicketFixed,
	EventTicketReturned,
	EventTicketDeleted,
}

// Actor encapsulates actor metadata for an event.
type Actor struct {
	UserID      *int64      `json:"user_id,omitempty"`
	Role        domain.Role `json:"role"`
	DisplayName string      `json:"display_name"`
}

// Event represents a domain event emitted by the workflow.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	TicketID  int64       `json:"ticket_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
	// Ticket is the state after the change; consumers read recipients from it.
	Ticket *domain.Ticket `json:"-"`
}

// TicketSubmittedPayload payload.
type TicketSubmittedPayload struct {
	AddresseeID   int64  `json:"addressee_id"`
	RequesterName string `json:"requester_name"`
	Department    string `json:"department"`
	IssuePreview  string `json:"issue_preview"`
}

// TicketAssignedPayload payload.
type TicketAssignedPayload struct {
	AssigneeID int64                 `json:"assignee_id"`
	Priority   domain.TicketPriority `json:"priority"`
	StartDate  *time.Time            `json:"start_date,omitempty"`
	EndDate    *time.Time            `json:"end_date,omitempty"`
	Remarks    *string               `json:"remarks,omitempty"`
}

// TicketStatusChangedPayload payload, shared by every status-only transition.
type TicketStatusChangedPayload struct {
	OldStatus domain.TicketStatus `json:"old_status"`
	NewStatus domain.TicketStatus `json:"new_status"`
	Note      string              `json:"note,omitempty"`
}
