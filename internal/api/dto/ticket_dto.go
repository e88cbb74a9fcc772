package dto

import (
	"encoding/json"
	"time"

	"github.com/deskline/helpdesk-service/internal/domain"
)

// DateLayout is the wire format of ticket start and end dates.
const DateLayout = "2006-01-02"

// SubmitTicketRequest payload. ReportingTo accepts a single name or a list.
type SubmitTicketRequest struct {
	EmpID       string      `json:"emp_id"`
	Username    string      `json:"username"`
	FullName    string      `json:"full_name"`
	Department  string      `json:"department"`
	ReportingTo StringOrSet `json:"reporting_to"`
	IssueText   string      `json:"issue_text"`
	Remarks     *string     `json:"remarks"`
	IPAddress   string      `json:"ip_address"`
}

// SubmitTicketResponse lists the ids of the created tickets, one per addressee.
type SubmitTicketResponse struct {
	OK  bool    `json:"ok"`
	IDs []int64 `json:"ids"`
}

// StringOrSet decodes either a JSON string or an array of strings.
type StringOrSet []string

// UnmarshalJSON implements json.Unmarshaler.
func (s *StringOrSet) UnmarshalJSON(data []byte) error {
	var single string
	if err := json.Unmarshal(data, &single); err == nil {
		if single == "" {
			*s = nil
		} else {
			*s = StringOrSet{single}
		}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*s = many
	return nil
}

// AssignTicketRequest payload. Dates use DateLayout.
type AssignTicketRequest struct {
	AssignedTo string  `json:"assigned_to"`
	StartDate  string  `json:"start_date"`
	EndDate    string  `json:"end_date"`
	Priority   string  `json:"priority"`
	Remarks    *string `json:"remarks"`
}

// RejectTicketRequest is the addressee's optional rejection message.
type RejectTicketRequest struct {
	Message string `json:"message"`
}

// UpdateStatusRequest payload.
type UpdateStatusRequest struct {
	Status    string  `json:"status"`
	FixedNote *string `json:"fixed_note"`
}

// FixTicketRequest payload.
type FixTicketRequest struct {
	Remark string `json:"remark"`
}

// ReturnTicketRequest is the technician's rejection.
type ReturnTicketRequest struct {
	Reason string `json:"reason"`
}

// TicketResponse is the wire view of a ticket. ReportingTo and AssignedTo carry display names.
type TicketResponse struct {
	ID          int64                  `json:"id"`
	EmpID       string                 `json:"emp_id"`
	Username    string                 `json:"username"`
	FullName    string                 `json:"full_name"`
	Department  string                 `json:"department"`
	SystemIP    string                 `json:"system_ip"`
	IssueText   string                 `json:"issue_text"`
	Remarks     *string                `json:"remarks"`
	ReportingTo string                 `json:"reporting_to"`
	AssignedTo  *string                `json:"assigned_to"`
	StartDate   *string                `json:"start_date"`
	EndDate     *string                `json:"end_date"`
	Priority    *domain.TicketPriority `json:"priority"`
	Status      domain.TicketStatus    `json:"status"`
	Note        *string                `json:"note"`
	CreatedAt   time.Time              `json:"created_at"`
	UpdatedAt   time.Time              `json:"updated_at"`
}

// TicketHistoryResponse is one audit entry.
type TicketHistoryResponse struct {
	ID         int64                `json:"id"`
	ActorID    *int64               `json:"actor_id"`
	ActorRole  domain.Role          `json:"actor_role"`
	FromStatus *domain.TicketStatus `json:"from_status"`
	ToStatus   domain.TicketStatus  `json:"to_status"`
	Note       *string              `json:"note"`
	CreatedAt  time.Time            `json:"created_at"`
}

// TicketDetailResponse is a ticket with its audit trail.
type TicketDetailResponse struct {
	TicketResponse
	History []TicketHistoryResponse `json:"history"`
}

// NewTicketResponse converts a domain ticket.
func NewTicketResponse(ticket *domain.Ticket) TicketResponse {
	return TicketResponse{
		ID:          ticket.ID,
		EmpID:       ticket.RequesterEmpID,
		Username:    ticket.RequesterUsername,
		FullName:    ticket.RequesterName,
		Department:  ticket.Department,
		SystemIP:    ticket.SystemIP,
		IssueText:   ticket.IssueText,
		Remarks:     ticket.Remarks,
		ReportingTo: ticket.AddresseeName,
		AssignedTo:  ticket.AssigneeName,
		StartDate:   formatDate(ticket.StartDate),
		EndDate:     formatDate(ticket.EndDate),
		Priority:    ticket.Priority,
		Status:      ticket.Status,
		Note:        ticket.Note,
		CreatedAt:   ticket.CreatedAt,
		UpdatedAt:   ticket.UpdatedAt,
	}
}

// NewTicketResponses converts a slice of domain tickets.
func NewTicketResponses(tickets []domain.Ticket) []TicketResponse {
	out := make([]TicketResponse, 0, len(tickets))
	for i := range tickets {
		out = append(out, NewTicketResponse(&tickets[i]))
	}
	return out
}

// NewTicketDetailResponse attaches the history to the ticket view.
func NewTicketDetailResponse(ticket *domain.Ticket, history []domain.TicketHistory) TicketDetailResponse {
	entries := make([]TicketHistoryResponse, 0, len(history))
	for _, entry := range history {
		entries = append(entries, TicketHistoryResponse{
			ID:         entry.ID,
			ActorID:    entry.ActorID,
			ActorRole:  entry.ActorRole,
			FromStatus: entry.FromStatus,
			ToStatus:   entry.ToStatus,
			Note:       entry.Note,
			CreatedAt:  entry.CreatedAt,
		})
	}
	return TicketDetailResponse{TicketResponse: NewTicketResponse(ticket), History: entries}
}

func formatDate(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Format(DateLayout)
	return &s
}
