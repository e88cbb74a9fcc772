package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/repository"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// FixNotePrefix marks the technician's fix note when it is appended to the remarks.
const FixNotePrefix = "[FIX NOTE]"

// AssigneeSettableStatuses are the statuses a technician may set through UpdateStatus.
var AssigneeSettableStatuses = []domain.TicketStatus{
	domain.TicketStatusNotStarted,
	domain.TicketStatusInProcess,
	domain.TicketStatusComplete,
}

// AssignInput carries an addressee's assignment. AssignedTo is a technician's username
// or display name. StartDate defaults to today and Priority to Medium.
type AssignInput struct {
	AssignedTo string
	StartDate  *time.Time
	EndDate    *time.Time
	Priority   string
	Remarks    *string
}

// Assign moves a NOT_ASSIGNED ticket to ASSIGNED for the given technician.
func (s *TicketService) Assign(ctx context.Context, session *domain.Session, ticketID int64, input AssignInput) (*domain.Ticket, error) {
	if strings.TrimSpace(input.AssignedTo) == "" {
		return nil, apperrors.NewValidationError("assigned_to required", nil)
	}
	priority := domain.TicketPriorityMedium
	if raw := strings.TrimSpace(input.Priority); raw != "" {
		parsed, ok := domain.ParseTicketPriority(raw)
		if !ok {
			return nil, apperrors.NewValidationError("priority must be one of Low, Medium, High",
				map[string]any{"priority": input.Priority})
		}
		priority = parsed
	}
	start := input.StartDate
	if start == nil {
		today := dateOf(s.now())
		start = &today
	}
	if input.EndDate != nil && input.EndDate.Before(*start) {
		return nil, apperrors.NewValidationError("end_date must not be before start_date", nil)
	}

	technician, err := resolveUserRef(ctx, s.users, input.AssignedTo, domain.RoleTechnician)
	if err != nil {
		return nil, err
	}

	changes := repository.TicketChanges{
		AssigneeID: &technician.ID,
		StartDate:  start,
		EndDate:    input.EndDate,
		Priority:   &priority,
	}
	if input.Remarks != nil && strings.TrimSpace(*input.Remarks) != "" {
		changes.Remarks = input.Remarks
	}

	ticket, _, err := s.transition(ctx, session, repository.TransitionInput{
		TicketID: ticketID,
		Owner:    repository.OwnerAddressee,
		From:     []domain.TicketStatus{domain.TicketStatusNotAssigned},
		To:       domain.TicketStatusAssigned,
		Changes:  changes,
	})
	if err != nil {
		return nil, err
	}

	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketAssigned,
		TicketID: ticket.ID,
		Actor:    sessionActor(session),
		Payload: events.TicketAssignedPayload{
			AssigneeID: technician.ID,
			Priority:   priority,
			StartDate:  start,
			EndDate:    input.EndDate,
			Remarks:    changes.Remarks,
		},
		Ticket: ticket,
	})
	return ticket, nil
}

// Reject closes a ticket the addressee will not act on.
func (s *TicketService) Reject(ctx context.Context, session *domain.Session, ticketID int64, message string) (*domain.Ticket, error) {
	ticket, from, err := s.transition(ctx, session, repository.TransitionInput{
		TicketID: ticketID,
		Owner:    repository.OwnerAddressee,
		From:     domain.OpenStatuses,
		To:       domain.TicketStatusRejected,
		Changes:  repository.TicketChanges{Note: optionalString(message)},
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusEvent(ctx, events.EventTicketRejected, session, ticket, from)
	return ticket, nil
}

// Delete removes a REJECTED ticket addressed to the session's user.
func (s *TicketService) Delete(ctx context.Context, session *domain.Session, ticketID int64) error {
	snapshot, err := s.getOwned(ctx, repository.OwnerAddressee, session.UserID, ticketID)
	if err != nil {
		return err
	}
	if err := s.tickets.DeleteRejected(ctx, ticketID, session.UserID); err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			return s.diagnose(ctx, repository.OwnerAddressee, session.UserID, ticketID,
				"only rejected tickets can be deleted")
		}
		return apperrors.NewInternalError(err)
	}
	s.publishEvent(ctx, events.Event{
		Type:     events.EventTicketDeleted,
		TicketID: ticketID,
		Actor:    sessionActor(session),
		Payload: events.TicketStatusChangedPayload{
			OldStatus: snapshot.Status,
			NewStatus: snapshot.Status,
		},
		Ticket: snapshot,
	})
	return nil
}

// UpdateStatus lets the assignee move an active ticket to NOT_STARTED, INPROCESS or
// COMPLETE. fixedNote is stored as the ticket note on COMPLETE.
func (s *TicketService) UpdateStatus(ctx context.Context, session *domain.Session, ticketID int64, rawStatus string, fixedNote *string) (*domain.Ticket, error) {
	status, ok := domain.ParseAssigneeStatus(rawStatus)
	if !ok || !status.In(AssigneeSettableStatuses) {
		return nil, apperrors.NewValidationError(
			fmt.Sprintf("status must be one of %s", statusList(AssigneeSettableStatuses)),
			map[string]any{"status": rawStatus})
	}

	var changes repository.TicketChanges
	if status == domain.TicketStatusComplete && fixedNote != nil {
		changes.Note = optionalString(*fixedNote)
	}
	ticket, from, err := s.transition(ctx, session, repository.TransitionInput{
		TicketID: ticketID,
		Owner:    repository.OwnerAssignee,
		From:     statusesExcept(domain.ActiveAssignedStatuses, status),
		To:       status,
		Changes:  changes,
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusEvent(ctx, events.EventTicketStatusChanged, session, ticket, from)
	return ticket, nil
}

// Fix marks an active ticket FIXED and appends the remark to the ticket's remarks.
func (s *TicketService) Fix(ctx context.Context, session *domain.Session, ticketID int64, remark string) (*domain.Ticket, error) {
	var changes repository.TicketChanges
	if note := optionalString(remark); note != nil {
		appended := fmt.Sprintf("\n%s %s", FixNotePrefix, *note)
		changes.AppendRemark = &appended
		changes.Note = note
	}
	ticket, from, err := s.transition(ctx, session, repository.TransitionInput{
		TicketID: ticketID,
		Owner:    repository.OwnerAssignee,
		From:     domain.ActiveAssignedStatuses,
		To:       domain.TicketStatusFixed,
		Changes:  changes,
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusEvent(ctx, events.EventTicketFixed, session, ticket, from)
	return ticket, nil
}

// ReturnToAddressee is the technician's rejection: the ticket becomes REJECTED with a
// reason and the addressee is told.
func (s *TicketService) ReturnToAddressee(ctx context.Context, session *domain.Session, ticketID int64, reason string) (*domain.Ticket, error) {
	note := optionalString(reason)
	if note == nil {
		return nil, apperrors.NewValidationError("reason required", nil)
	}
	ticket, from, err := s.transition(ctx, session, repository.TransitionInput{
		TicketID: ticketID,
		Owner:    repository.OwnerAssignee,
		From:     domain.ActiveAssignedStatuses,
		To:       domain.TicketStatusRejected,
		Changes:  repository.TicketChanges{Note: note},
	})
	if err != nil {
		return nil, err
	}
	s.publishStatusEvent(ctx, events.EventTicketReturned, session, ticket, from)
	return ticket, nil
}

// transition applies a conditional change owned by the session's user and re-reads the
// ticket. When the condition does not hold it reports why.
func (s *TicketService) transition(ctx context.Context, session *domain.Session, input repository.TransitionInput) (*domain.Ticket, domain.TicketStatus, error) {
	input.OwnerID = session.UserID
	input.ActorRole = session.Role

	from, err := s.tickets.Transition(ctx, input)
	if err != nil {
		if errors.Is(err, repository.ErrNoTransition) {
			msg := fmt.Sprintf("ticket cannot move to %s", input.To)
			return nil, "", s.diagnose(ctx, input.Owner, session.UserID, input.TicketID, msg)
		}
		return nil, "", apperrors.NewInternalError(err)
	}

	ticket, err := s.tickets.GetByID(ctx, input.TicketID)
	if err != nil {
		return nil, "", apperrors.NewInternalError(err)
	}
	return ticket, from, nil
}

// diagnose explains a refused conditional write: missing ticket, foreign ticket, or a
// status the change is not allowed from.
func (s *TicketService) diagnose(ctx context.Context, owner repository.Owner, ownerID, ticketID int64, msg string) error {
	ticket, err := s.getOwned(ctx, owner, ownerID, ticketID)
	if err != nil {
		return err
	}
	return apperrors.NewPreconditionFailed(fmt.Sprintf("%s: ticket is %s", msg, ticket.Status),
		map[string]any{"status": ticket.Status})
}

func (s *TicketService) publishStatusEvent(ctx context.Context, eventType events.EventType, session *domain.Session, ticket *domain.Ticket, from domain.TicketStatus) {
	payload := events.TicketStatusChangedPayload{OldStatus: from, NewStatus: ticket.Status}
	if ticket.Note != nil {
		payload.Note = *ticket.Note
	}
	s.publishEvent(ctx, events.Event{
		Type:     eventType,
		TicketID: ticket.ID,
		Actor:    sessionActor(session),
		Payload:  payload,
		Ticket:   ticket,
	})
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// statusesExcept drops target from the source set so a repeated status is refused.
func statusesExcept(statuses []domain.TicketStatus, target domain.TicketStatus) []domain.TicketStatus {
	out := make([]domain.TicketStatus, 0, len(statuses))
	for _, status := range statuses {
		if status != target {
			out = append(out, status)
		}
	}
	return out
}
