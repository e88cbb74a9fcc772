package handlers

import (
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/deskline/helpdesk-service/internal/api/dto"
	"github.com/deskline/helpdesk-service/internal/auth"
	"github.com/deskline/helpdesk-service/internal/domain"
	"github.com/deskline/helpdesk-service/internal/service"
	apperrors "github.com/deskline/helpdesk-service/pkg/util/errorutil"
)

// TicketsHandler serves the unauthenticated employee endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// Submit POST /tickets.
func (h *TicketsHandler) Submit(c *fiber.Ctx) error {
	var req dto.SubmitTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	tickets, err := h.service.Submit(c.UserContext(), service.SubmitInput{
		EmpID:       req.EmpID,
		Username:    req.Username,
		FullName:    req.FullName,
		Department:  req.Department,
		ReportingTo: req.ReportingTo,
		IssueText:   req.IssueText,
		Remarks:     req.Remarks,
		IPAddress:   req.IPAddress,
		ObservedIP:  clientIP(c),
	})
	if err != nil {
		return err
	}
	ids := make([]int64, 0, len(tickets))
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	return c.Status(http.StatusCreated).JSON(dto.SubmitTicketResponse{OK: true, IDs: ids})
}

// ClientIP GET /ip.
func (h *TicketsHandler) ClientIP(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"ip": clientIP(c)})
}

// clientIP prefers the first X-Forwarded-For entry over the socket address.
func clientIP(c *fiber.Ctx) string {
	ip := c.IP()
	if forwarded := c.IPs(); len(forwarded) > 0 && strings.TrimSpace(forwarded[0]) != "" {
		ip = strings.TrimSpace(forwarded[0])
	}
	return strings.TrimPrefix(ip, "::ffff:")
}

func sessionFrom(c *fiber.Ctx) (*domain.Session, error) {
	session, ok := auth.SessionFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("No token")
	}
	return session, nil
}

func ticketID(c *fiber.Ctx) (int64, error) {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.NewValidationError("invalid ticket id", map[string]any{"id": c.Params("id")})
	}
	return id, nil
}

// MaxPageSize bounds page_size on ticket listings.
const MaxPageSize = 200

// parseListFilter reads ?status=A,B plus paging. "ALL" or an empty value means no
// status filter. parse decides what PENDING means for the caller's role.
func parseListFilter(c *fiber.Ctx, parse func(string) (domain.TicketStatus, bool)) (service.TicketListFilter, error) {
	filter := service.TicketListFilter{}
	if raw := strings.TrimSpace(c.Query("status")); raw != "" && !strings.EqualFold(raw, service.StatusCountTotalKey) {
		for _, part := range strings.Split(raw, ",") {
			status, ok := parse(part)
			if !ok {
				return filter, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := min(parseInt(c.Query("page_size"), MaxPageSize), MaxPageSize)
	filter.Limit = pageSize
	filter.Offset = pageOffset(page, pageSize)
	return filter, nil
}

// pageOffset saturates instead of overflowing, so a page past the end is empty.
func pageOffset(page, pageSize int) int {
	if page-1 > math.MaxInt32/pageSize {
		return math.MaxInt32
	}
	return (page - 1) * pageSize
}

func parseDate(field, val string) (*time.Time, error) {
	val = strings.TrimSpace(val)
	if val == "" {
		return nil, nil
	}
	t, err := time.Parse(dto.DateLayout, val)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, val); err != nil {
			return nil, apperrors.NewValidationError(field+" must be YYYY-MM-DD", map[string]any{field: val})
		}
		y, m, d := t.Date()
		t = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	return &t, nil
}

func parseInt(val string, def int) int {
	if val == "" {
		return def
	}
	parsed, err := strconv.Atoi(val)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}
