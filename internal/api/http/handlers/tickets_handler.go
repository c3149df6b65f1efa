package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/campus-helpdesk/internal/api/dto"
	"github.com/spec-kit/campus-helpdesk/internal/auth"
	"github.com/spec-kit/campus-helpdesk/internal/domain"
	"github.com/spec-kit/campus-helpdesk/internal/service"
	apperrors "github.com/spec-kit/campus-helpdesk/pkg/util/errorutil"
)

// TicketsHandler manages ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService) *TicketsHandler {
	return &TicketsHandler{service: ticketService}
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}

	ticket, err := h.service.CreateTicket(c.Context(), principal.User, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		IssuerName:  req.IssuerName,
		Category:    req.Category,
		SubCategory: req.SubCategory,
		Department:  req.Department,
		Room:        req.Room,
		Priority:    domain.TicketPriority(req.Priority),
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// ListTickets GET /tickets.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	filter := service.TicketListFilter{Mine: c.Query("mine")}
	if filter.Mine != "" && filter.Mine != "reporter" && filter.Mine != "assignee" {
		return apperrors.NewValidationError("mine must be reporter or assignee", map[string]any{"mine": filter.Mine})
	}
	if v := c.Query("status"); v != "" {
		status := domain.TicketStatus(v)
		if !domain.ValidStatus(status) {
			return apperrors.NewValidationError("unknown status", map[string]any{"status": v})
		}
		filter.Status = &status
	}
	if v := c.Query("priority"); v != "" {
		priority := domain.TicketPriority(v)
		if !domain.ValidPriority(priority) {
			return apperrors.NewValidationError("unknown priority", map[string]any{"priority": v})
		}
		filter.Priority = &priority
	}
	if v := c.Query("category"); v != "" {
		filter.Category = &v
	}
	if v := c.Query("assignee_id"); v != "" {
		filter.AssigneeID = &v
	}
	if v := c.Query("limit"); v != "" {
		if limit, err := strconv.Atoi(v); err == nil {
			filter.Limit = limit
		}
	}

	tickets, err := h.service.ListTickets(c.Context(), principal.User, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// GetTicket GET /tickets/:id.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}
	ticket, err := h.service.GetTicket(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// PatchTicket PATCH /tickets/:id. An explicit null assignee_id clears the
// assignment, so key presence is detected before decoding.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return apperrors.NewUnauthorized("user required")
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(c.Body(), &raw); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	var req dto.PatchTicketRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if err := dto.Validate(req); err != nil {
		return err
	}
	_, req.AssigneeSet = raw["assignee_id"]

	update := service.TicketUpdateRequest{
		AssigneeSet: req.AssigneeSet,
		AssigneeID:  req.AssigneeID,
	}
	if req.Status != nil {
		status := domain.TicketStatus(*req.Status)
		update.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TicketPriority(*req.Priority)
		update.Priority = &priority
	}

	ticket, err := h.service.UpdateTicket(c.Context(), principal.User, c.Params("id"), update)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}
