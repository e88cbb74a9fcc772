package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk-service/internal/api/dto"
	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/service"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// AdminTicketsHandler serves the addressee's queue.
type AdminTicketsHandler struct {
	tickets *service.TicketService
}

// NewAdminTicketsHandler constructs handler.
func NewAdminTicketsHandler(ticketService *service.TicketService) *AdminTicketsHandler {
	return &AdminTicketsHandler{tickets: ticketService}
}

// List GET /{admin}/tickets.
func (h *AdminTicketsHandler) List(c *fiber.Ctx) error {
	session, err := sessionFrom(c)
	if err != nil {
		return err
	}
	filter, err := parseListFilter(c, domain.ParseAddresseeStatus)
	if err != nil {
		return err
	}
	tickets, err := h.tickets.ListForAddressee(c.UserContext(), session, filter)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponses(tickets)})
}

// Counts GET /{admin}/tickets/counts.
func (h *AdminTicketsHandler) Counts(c *fiber.Ctx) error {
	session, err := sessionFrom(c)
	if err != nil {
		return err
	}
	counts, err := h.tickets.CountsForAddressee(c.UserContext(), session)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": counts})
}

// Get GET /{admin}/tickets/:id.
func (h *AdminTicketsHandler) Get(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.GetForAddressee(c.UserContext(), session, id)
	if err != nil {
		return err
	}
	history, err := h.tickets.History(c.UserContext(), session, id)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(ticket, history)})
}

// Assign PATCH /{admin}/tickets/:id/assign.
func (h *AdminTicketsHandler) Assign(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.AssignTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	start, err := parseDate("start_date", req.StartDate)
	if err != nil {
		return err
	}
	end, err := parseDate("end_date", req.EndDate)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Assign(c.UserContext(), session, id, service.AssignInput{
		AssignedTo: req.AssignedTo,
		StartDate:  start,
		EndDate:    end,
		Priority:   req.Priority,
		Remarks:    req.Remarks,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "data": dto.NewTicketResponse(ticket)})
}

// Reject PATCH /{admin}/tickets/:id/reject. The body is optional.
func (h *AdminTicketsHandler) Reject(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	var req dto.RejectTicketRequest
	if err := parseOptionalBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Reject(c.UserContext(), session, id, req.Message)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true, "data": dto.NewTicketResponse(ticket)})
}

// Delete DELETE /{admin}/tickets/:id/delete.
func (h *AdminTicketsHandler) Delete(c *fiber.Ctx) error {
	session, id, err := sessionAndTicket(c)
	if err != nil {
		return err
	}
	if err := h.tickets.Delete(c.UserContext(), session, id); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"ok": true})
}

func sessionAndTicket(c *fiber.Ctx) (*domain.Session, int64, error) {
	session, err := sessionFrom(c)
	if err != nil {
		return nil, 0, err
	}
	id, err := ticketID(c)
	if err != nil {
		return nil, 0, err
	}
	return session, id, nil
}

func parseOptionalBody(c *fiber.Ctx, out any) error {
	if len(c.Body()) == 0 {
		return nil
	}
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	return nil
}
