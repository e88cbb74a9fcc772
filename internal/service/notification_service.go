package service

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/events"
	"github.com/deskline/helpdesk-service/internal/notify"
	"github.com/deskline/helpdesk-service/internal/repository"
)

// NotificationService turns workflow events into emails and broadcasts. It never fails
// the operation that produced an event: delivery errors are logged and dropped.
type NotificationService struct {
	dispatcher  events.Dispatcher
	users       repository.UserRepository
	mailer      notify.Mailer
	broadcaster notify.Broadcaster
	logger      *zap.Logger
}

// NotificationDependencies bundles the collaborators of the notification service.
type NotificationDependencies struct {
	Dispatcher  events.Dispatcher
	UserRepo    repository.UserRepository
	Mailer      notify.Mailer
	Broadcaster notify.Broadcaster
	Logger      *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(deps NotificationDependencies) *NotificationService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		dispatcher:  deps.Dispatcher,
		users:       deps.UserRepo,
		mailer:      deps.Mailer,
		broadcaster: deps.Broadcaster,
		logger:      logger,
	}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	for _, eventType := range events.AllEventTypes {
		n.dispatcher.Subscribe(eventType, n.broadcast)
	}
	n.dispatcher.Subscribe(events.EventTicketSubmitted, n.handleTicketSubmitted)
	n.dispatcher.Subscribe(events.EventTicketAssigned, n.handleTicketAssigned)
	n.dispatcher.Subscribe(events.EventTicketRejected, n.handleTicketRejected)
	n.dispatcher.Subscribe(events.EventTicketStatusChanged, n.handleTicketStatusChanged)
	n.dispatcher.Subscribe(events.EventTicketFixed, n.handleTicketFixed)
	n.dispatcher.Subscribe(events.EventTicketReturned, n.handleTicketReturned)
}

func (n *NotificationService) broadcast(ctx context.Context, event events.Event) error {
	if n.broadcaster == nil {
		return nil
	}
	if err := n.broadcaster.Broadcast(ctx, event); err != nil {
		n.logger.Warn("broadcast failed", eventFields(event, zap.Error(err))...)
	}
	return nil
}

func (n *NotificationService) handleTicketSubmitted(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if ticket == nil {
		return nil
	}
	body := fmt.Sprintf("A new ticket #%d was submitted to you.\n\nFrom: %s (%s)\nDepartment: %s\nSystem IP: %s\n\n%s\n",
		ticket.ID, ticket.RequesterName, ticket.RequesterEmpID, ticket.Department, ticket.SystemIP, ticket.IssueText)
	if ticket.Remarks != nil {
		body += fmt.Sprintf("\nRemarks: %s\n", *ticket.Remarks)
	}
	n.deliver(ctx, event, n.recipients(ctx, event, &ticket.AddresseeID), nil,
		fmt.Sprintf("New ticket #%d from %s", ticket.ID, ticket.RequesterName), body)
	return nil
}

func (n *NotificationService) handleTicketAssigned(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if ticket == nil {
		return nil
	}
	var b strings.Builder
	fmt.Fprintf(&b, "Ticket #%d has been assigned to you by %s.\n\n", ticket.ID, event.Actor.DisplayName)
	fmt.Fprintf(&b, "Requester: %s (%s)\nDepartment: %s\nSystem IP: %s\n", ticket.RequesterName, ticket.RequesterEmpID, ticket.Department, ticket.SystemIP)
	if ticket.Priority != nil {
		fmt.Fprintf(&b, "Priority: %s\n", *ticket.Priority)
	}
	if ticket.StartDate != nil {
		fmt.Fprintf(&b, "Start date: %s\n", ticket.StartDate.Format("2006-01-02"))
	}
	if ticket.EndDate != nil {
		fmt.Fprintf(&b, "End date: %s\n", ticket.EndDate.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "\n%s\n", ticket.IssueText)
	if ticket.Remarks != nil {
		fmt.Fprintf(&b, "\nRemarks: %s\n", *ticket.Remarks)
	}
	n.deliver(ctx, event,
		n.recipients(ctx, event, ticket.AssigneeID),
		n.recipients(ctx, event, ticket.RequesterID),
		fmt.Sprintf("Ticket #%d assigned to you", ticket.ID), b.String())
	return nil
}

func (n *NotificationService) handleTicketRejected(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if ticket == nil {
		return nil
	}
	body := fmt.Sprintf("Your ticket #%d was rejected by %s.\n", ticket.ID, event.Actor.DisplayName)
	if ticket.Note != nil {
		body += fmt.Sprintf("\nReason: %s\n", *ticket.Note)
	}
	n.deliver(ctx, event, n.recipients(ctx, event, ticket.RequesterID), nil,
		fmt.Sprintf("Ticket #%d rejected", ticket.ID), body)
	return nil
}

// handleTicketStatusChanged only mails the requester when work starts or completes.
func (n *NotificationService) handleTicketStatusChanged(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if ticket == nil {
		return nil
	}
	var subject, body string
	switch ticket.Status {
	case domain.TicketStatusInProcess:
		subject = fmt.Sprintf("Ticket #%d is in progress", ticket.ID)
		body = fmt.Sprintf("%s has started working on your ticket #%d.\n", event.Actor.DisplayName, ticket.ID)
	case domain.TicketStatusComplete:
		subject = fmt.Sprintf("Ticket #%d completed", ticket.ID)
		body = fmt.Sprintf("%s has completed your ticket #%d.\n", event.Actor.DisplayName, ticket.ID)
		if ticket.Note != nil {
			body += fmt.Sprintf("\nNote: %s\n", *ticket.Note)
		}
	default:
		return nil
	}
	n.deliver(ctx, event, n.recipients(ctx, event, ticket.RequesterID), nil, subject, body)
	return nil
}

func (n *NotificationService) handleTicketFixed(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if ticket == nil {
		return nil
	}
	body := fmt.Sprintf("%s has fixed your ticket #%d.\n", event.Actor.DisplayName, ticket.ID)
	if ticket.Note != nil {
		body += fmt.Sprintf("\nFix note: %s\n", *ticket.Note)
	}
	n.deliver(ctx, event, n.recipients(ctx, event, ticket.RequesterID), nil,
		fmt.Sprintf("Ticket #%d fixed", ticket.ID), body)
	return nil
}

func (n *NotificationService) handleTicketReturned(ctx context.Context, event events.Event) error {
	ticket := event.Ticket
	if ticket == nil {
		return nil
	}
	body := fmt.Sprintf("%s rejected ticket #%d from %s.\n", event.Actor.DisplayName, ticket.ID, ticket.RequesterName)
	if ticket.Note != nil {
		body += fmt.Sprintf("\nReason: %s\n", *ticket.Note)
	}
	n.deliver(ctx, event, n.recipients(ctx, event, &ticket.AddresseeID), nil,
		fmt.Sprintf("Ticket #%d rejected by technician", ticket.ID), body)
	return nil
}

// recipients returns the email address of the user, or nothing when it cannot be found.
func (n *NotificationService) recipients(ctx context.Context, event events.Event, userID *int64) []string {
	if userID == nil || n.users == nil {
		return nil
	}
	user, err := n.users.GetByID(ctx, *userID)
	if err != nil {
		n.logger.Warn("notification recipient lookup failed",
			eventFields(event, zap.Int64("user_id", *userID), zap.Error(err))...)
		return nil
	}
	if strings.TrimSpace(user.Email) == "" {
		n.logger.Debug("notification recipient has no email", eventFields(event, zap.Int64("user_id", *userID))...)
		return nil
	}
	return []string{user.Email}
}

// sender is the actor's own mailbox when they have one configured.
func (n *NotificationService) sender(ctx context.Context, event events.Event) *notify.Identity {
	if event.Actor.UserID == nil || n.users == nil {
		return nil
	}
	user, err := n.users.GetByID(ctx, *event.Actor.UserID)
	if err != nil || !user.HasMailCredentials() {
		return nil
	}
	address := user.Email
	if address == "" {
		address = *user.MailUsername
	}
	return &notify.Identity{
		Name:     user.DisplayName,
		Address:  address,
		Username: *user.MailUsername,
		Password: *user.MailPassword,
	}
}

func (n *NotificationService) deliver(ctx context.Context, event events.Event, to, cc []string, subject, body string) {
	if n.mailer == nil {
		return
	}
	if len(to) == 0 {
		n.logger.Debug("notification skipped: no recipient", eventFields(event)...)
		return
	}
	msg := notify.Message{To: to, Cc: cc, Subject: subject, Body: body}
	if err := n.mailer.Send(ctx, msg, n.sender(ctx, event)); err != nil {
		n.logger.Warn("notification delivery failed", eventFields(event, zap.Strings("to", to), zap.Error(err))...)
		return
	}
	n.logger.Info("notification sent", eventFields(event, zap.Strings("to", to))...)
}

func eventFields(event events.Event, extra ...zap.Field) []zap.Field {
	fields := []zap.Field{
		zap.String("event_id", event.ID),
		zap.String("event_type", string(event.Type)),
		zap.Int64("ticket_id", event.TicketID),
	}
	return append(fields, extra...)
}
