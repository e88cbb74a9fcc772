package service

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/repository"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// StatusCountTotalKey is the counts entry holding the sum of all statuses.
const StatusCountTotalKey = "ALL"

// StatusCountPendingKey repeats the count of whatever PENDING means to the caller:
// NOT_ASSIGNED for an addressee, NOT_STARTED for an assignee.
const StatusCountPendingKey = "PENDING"

// TicketService coordinates ticket submission, reads and workflow transitions.
type TicketService struct {
	tickets    repository.TicketRepository
	users      repository.UserRepository
	history    repository.TicketHistoryRepository
	dispatcher events.Dispatcher
	now        func() time.Time
}

// TicketDependencies bundles repositories for ticket service.
type TicketDependencies struct {
	TicketRepo  repository.TicketRepository
	UserRepo    repository.UserRepository
	HistoryRepo repository.TicketHistoryRepository
	Dispatcher  events.Dispatcher
	// Now overrides the clock used for default assignment dates.
	Now func() time.Time
}

// SubmitInput is an employee's ticket. ReportingTo names one or more addressees by
// username or display name; one ticket is created per addressee.
type SubmitInput struct {
	EmpID       string
	Username    string
	FullName    string
	Department  string
	ReportingTo []string
	IssueText   string
	Remarks     *string
	// IPAddress is the client-supplied address; ObservedIP is the connection's.
	IPAddress  string
	ObservedIP string
}

// TicketListFilter narrows a queue listing. An empty Statuses means all.
type TicketListFilter struct {
	Statuses []domain.TicketStatus
	Limit    int
	Offset   int
}

// NewTicketService constructs the service.
func NewTicketService(deps TicketDependencies) *TicketService {
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	return &TicketService{
		tickets:    deps.TicketRepo,
		users:      deps.UserRepo,
		history:    deps.HistoryRepo,
		dispatcher: deps.Dispatcher,
		now:        now,
	}
}

// Submit creates one NOT_ASSIGNED ticket per distinct addressee, all or nothing.
func (s *TicketService) Submit(ctx context.Context, input SubmitInput) ([]domain.Ticket, error) {
	input.EmpID = strings.TrimSpace(input.EmpID)
	input.Username = strings.TrimSpace(input.Username)
	input.FullName = strings.TrimSpace(input.FullName)
	input.Department = strings.TrimSpace(input.Department)
	input.IssueText = strings.TrimSpace(input.IssueText)

	refs := make([]string, 0, len(input.ReportingTo))
	for _, ref := range input.ReportingTo {
		if ref = strings.TrimSpace(ref); ref != "" {
			refs = append(refs, ref)
		}
	}

	var missing []string
	for field, value := range map[string]string{
		"emp_id":     input.EmpID,
		"username":   input.Username,
		"full_name":  input.FullName,
		"department": input.Department,
		"issue_text": input.IssueText,
	} {
		if value == "" {
			missing = append(missing, field)
		}
	}
	if len(refs) == 0 {
		missing = append(missing, "reporting_to")
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("Missing required fields", map[string]any{"missing": sortedCopy(missing)})
	}

	addressees := make([]*domain.User, 0, len(refs))
	seen := make(map[int64]struct{}, len(refs))
	for _, ref := range refs {
		addressee, err := resolveUserRef(ctx, s.users, ref, domain.RoleAdmin)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[addressee.ID]; dup {
			continue
		}
		seen[addressee.ID] = struct{}{}
		addressees = append(addressees, addressee)
	}

	var requesterID *int64
	requester, err := s.users.GetByUsername(ctx, input.Username)
	switch {
	case err == nil:
		requesterID = &requester.ID
	case !repository.IsNotFound(err):
		return nil, apperrors.NewInternalError(err)
	}

	ip := strings.TrimSpace(input.IPAddress)
	if ip == "" {
		ip = strings.TrimSpace(input.ObservedIP)
	}
	remarks := input.Remarks
	if remarks != nil && strings.TrimSpace(*remarks) == "" {
		remarks = nil
	}

	batch := make([]*domain.Ticket, 0, len(addressees))
	for _, addressee := range addressees {
		batch = append(batch, &domain.Ticket{
			RequesterID:       requesterID,
			RequesterEmpID:    input.EmpID,
			RequesterUsername: input.Username,
			RequesterName:     input.FullName,
			Department:        input.Department,
			SystemIP:          ip,
			IssueText:         input.IssueText,
			Remarks:           remarks,
			AddresseeID:       addressee.ID,
			AddresseeName:     addressee.DisplayName,
			Status:            domain.TicketStatusNotAssigned,
		})
	}
	if err := s.tickets.CreateBatch(ctx, batch); err != nil {
		return nil, apperrors.NewInternalError(err)
	}

	created := make([]domain.Ticket, 0, len(batch))
	for _, ticket := range batch {
		snapshot := *ticket
		created = append(created, snapshot)
		s.publishEvent(ctx, events.Event{
			Type:     events.EventTicketSubmitted,
			TicketID: ticket.ID,
			Actor:    events.Actor{UserID: requesterID, Role: domain.RoleEmployee, DisplayName: input.FullName},
			Payload: events.TicketSubmittedPayload{
				AddresseeID:   ticket.AddresseeID,
				RequesterName: ticket.RequesterName,
				Department:    ticket.Department,
				IssuePreview:  stringPreview(ticket.IssueText, 140),
			},
			Ticket: &snapshot,
		})
	}
	return created, nil
}

// ListForAddressee returns the tickets addressed to the session's user, newest first.
func (s *TicketService) ListForAddressee(ctx context.Context, session *domain.Session, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{
		AddresseeID: &session.UserID,
		Statuses:    filter.Statuses,
		Limit:       filter.Limit,
		Offset:      filter.Offset,
	})
}

// ListForAssignee returns the tickets assigned to the session's user, newest first.
func (s *TicketService) ListForAssignee(ctx context.Context, session *domain.Session, filter TicketListFilter) ([]domain.Ticket, error) {
	return s.list(ctx, repository.TicketFilter{
		AssigneeID: &session.UserID,
		Statuses:   filter.Statuses,
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	})
}

func (s *TicketService) list(ctx context.Context, filter repository.TicketFilter) ([]domain.Ticket, error) {
	tickets, err := s.tickets.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return tickets, nil
}

// CountsForAddressee counts the addressee's tickets per status.
func (s *TicketService) CountsForAddressee(ctx context.Context, session *domain.Session) (map[string]int64, error) {
	return s.counts(ctx, repository.OwnerAddressee, session.UserID, domain.TicketStatusNotAssigned)
}

// CountsForAssignee counts the assignee's tickets per status.
func (s *TicketService) CountsForAssignee(ctx context.Context, session *domain.Session) (map[string]int64, error) {
	return s.counts(ctx, repository.OwnerAssignee, session.UserID, domain.TicketStatusNotStarted)
}

// counts always reports every status, zero-filled, plus PENDING and the total under "ALL".
func (s *TicketService) counts(ctx context.Context, owner repository.Owner, ownerID int64, pending domain.TicketStatus) (map[string]int64, error) {
	raw, err := s.tickets.CountsByStatus(ctx, owner, ownerID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	out := make(map[string]int64, len(domain.AllTicketStatuses)+2)
	var total int64
	for _, status := range domain.AllTicketStatuses {
		out[string(status)] = raw[status]
		total += raw[status]
	}
	out[StatusCountPendingKey] = raw[pending]
	out[StatusCountTotalKey] = total
	return out, nil
}

// GetForAddressee returns one ticket addressed to the session's user.
func (s *TicketService) GetForAddressee(ctx context.Context, session *domain.Session, ticketID int64) (*domain.Ticket, error) {
	return s.getOwned(ctx, repository.OwnerAddressee, session.UserID, ticketID)
}

// GetForAssignee returns one ticket assigned to the session's user.
func (s *TicketService) GetForAssignee(ctx context.Context, session *domain.Session, ticketID int64) (*domain.Ticket, error) {
	return s.getOwned(ctx, repository.OwnerAssignee, session.UserID, ticketID)
}

// History lists the audit trail of a ticket the session's user addresses or works on.
func (s *TicketService) History(ctx context.Context, session *domain.Session, ticketID int64) ([]domain.TicketHistory, error) {
	owner := repository.OwnerAddressee
	if session.Role == domain.RoleTechnician {
		owner = repository.OwnerAssignee
	}
	if _, err := s.getOwned(ctx, owner, session.UserID, ticketID); err != nil {
		return nil, err
	}
	if s.history == nil {
		return []domain.TicketHistory{}, nil
	}
	entries, err := s.history.ListByTicket(ctx, ticketID)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return entries, nil
}

func (s *TicketService) getOwned(ctx context.Context, owner repository.Owner, ownerID, ticketID int64) (*domain.Ticket, error) {
	ticket, err := s.tickets.GetByID(ctx, ticketID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, apperrors.NewNotFound("ticket", map[string]any{"id": ticketID})
		}
		return nil, apperrors.NewInternalError(err)
	}
	if !ownedBy(ticket, owner, ownerID) {
		return nil, apperrors.NewForbidden(notOwnedMessage(owner))
	}
	return ticket, nil
}

func ownedBy(ticket *domain.Ticket, owner repository.Owner, ownerID int64) bool {
	if owner == repository.OwnerAssignee {
		return ticket.AssigneeID != nil && *ticket.AssigneeID == ownerID
	}
	return ticket.AddresseeID == ownerID
}

func notOwnedMessage(owner repository.Owner) string {
	if owner == repository.OwnerAssignee {
		return "ticket is not assigned to you"
	}
	return "ticket is not addressed to you"
}

func (s *TicketService) publishEvent(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

func sessionActor(session *domain.Session) events.Actor {
	id := session.UserID
	return events.Actor{UserID: &id, Role: session.Role, DisplayName: session.DisplayName}
}

func stringPreview(body string, max int) string {
	body = strings.TrimSpace(body)
	runes := []rune(body)
	if len(runes) <= max {
		return body
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}

func sortedCopy(values []string) []string {
	out := append([]string(nil), values...)
	sort.Strings(out)
	return out
}

func statusList(statuses []domain.TicketStatus) string {
	names := make([]string, len(statuses))
	for i, status := range statuses {
		names[i] = string(status)
	}
	return strings.Join(names, ", ")
}
