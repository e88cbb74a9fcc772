package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk-service/internal/api/dto"
	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/service"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// StaffTicketsHandler serves the technician's work queue.
type StaffTicketsHandler struct {
	tickets *service.TicketService
}

// NewStaffTicketsHandler constructs handler.
func NewStaffTicketsHandler(ticketService *service.TicketService) *StaffTicketsHandler {
	return &StaffTicketsHandler{tickets: ticketService}
}

// List GET /{technician}/my-tickets.
func (h *StaffTicketsHandler) List(c *fiber.Ctx) error {
	session, err := sessionFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseListFilter(c, domain.ParseAssigneeStatus)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListForAssignee(c.UserContext(), session, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// Counts GET /{technician}/my-tickets/counts.
func (h *StaffTicketsHandler) Counts(c *fiber.Ctx) error {
	session, err := sessionFrom(c)
	if err != nil {
		return err
	}
	counts, err := h.tickets.CountsForAssignee(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// Get GET /{technician}/tickets/:id.
func (h *StaffTicketsHandler) Get(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetForAssignee(c.UserContext(), session, id)
	if err != nil {
		return err
	}
	history, err := h.tickets.History(c.UserContext(), session, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(ticket, history)})
}

// UpdateStatus PATCH /{technician}/tickets/:id/status.
func (h *StaffTicketsHandler) UpdateStatus(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.UpdateStatus(c.UserContext(), session, id, req.Status, req.FixedNote)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "data": dto.NewTicketResponse(ticket)})
}

// Fix PATCH /{technician}/tickets/:id/fix.
func (h *StaffTicketsHandler) Fix(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.FixTicketRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Fix(c.UserContext(), session, id, req.Remark)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "data": dto.NewTicketResponse(ticket)})
}

// Reject PATCH /{technician}/tickets/:id/reject.
func (h *StaffTicketsHandler) Reject(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.ReturnTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	ticket, err := h.tickets.ReturnToAddressee(c.UserContext(), session, id, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "data": dto.NewTicketResponse(ticket)})
}
