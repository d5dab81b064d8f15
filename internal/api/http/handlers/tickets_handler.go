package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/aniketverma031/helpdesk-project/internal/api/dto"
	"github.com/aniketverma031/helpdesk-project/internal/auth"
	"github.com/aniketverma031/helpdesk-project/internal/service"
	apperrors "github.com/aniketverma031/helpdesk-project/pkg/util"
)

// TicketsHandler manages the ticket endpoints.
type TicketsHandler struct {
	service *service.TicketService
	agents  *service.AgentDirectory
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(ticketService *service.TicketService, agents *service.AgentDirectory) *TicketsHandler {
	return &TicketsHandler{service: ticketService, agents: agents}
}

// ListTickets GET /tickets?search=<text>.
func (h *TicketsHandler) ListTickets(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	tickets, err := h.service.ListTickets(c.Context(), principal, c.Query("search"))
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, dto.NewTicketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// CreateTicket POST /tickets.
func (h *TicketsHandler) CreateTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	ticket, err := h.service.CreateTicket(c.Context(), principal, service.TicketCreateInput{
		Title:       req.Title,
		Description: req.Description,
		AssignedTo:  req.AssignedTo,
		Status:      req.Status,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// GetTicket GET /tickets/:id. Reading the detail refreshes the cached
// SLA breach flag.
func (h *TicketsHandler) GetTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	ticket, comments, err := h.service.GetTicket(c.Context(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketDetailResponse(ticket, comments)})
}

// PatchTicket PATCH /tickets/:id. A stale updated_at token yields the
// fixed 409 conflict envelope with no mutation applied.
func (h *TicketsHandler) PatchTicket(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.PatchTicketRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	input := service.TicketUpdateInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
		AssignedTo:  req.AssignedTo.Value,
		AssigneeSet: req.AssignedTo.Set,
	}
	if req.UpdatedAt != nil {
		expected, err := time.Parse(time.RFC3339Nano, *req.UpdatedAt)
		if err != nil {
			return apperrors.NewValidationError("updated_at must be RFC 3339", map[string]any{"field": "updated_at"})
		}
		input.ExpectedUpdatedAt = &expected
	}

	ticket, err := h.service.UpdateTicket(c.Context(), principal, c.Params("id"), input)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeConflict) {
			return c.Status(http.StatusConflict).JSON(fiber.Map{
				"detail": apperrors.ToDomainError(err).Message,
			})
		}
		return err
	}
	return c.JSON(fiber.Map{"data": dto.NewTicketResponse(ticket)})
}

// AddComment POST /tickets/:id/comments.
func (h *TicketsHandler) AddComment(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.CreateCommentRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	comment, err := h.service.AddComment(c.Context(), principal, c.Params("id"), req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.NewCommentResponse(comment)})
}

// ListAgents GET /agents serves the assignable-agent picker.
func (h *TicketsHandler) ListAgents(c *fiber.Ctx) error {
	if _, ok := auth.PrincipalFromContext(c); !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	choices, err := h.agents.Choices(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": choices})
}
