package handlers

import (
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/aniketverma031/helpdesk-project/internal/api/dto"
	"github.com/aniketverma031/helpdesk-project/internal/auth"
	"github.com/aniketverma031/helpdesk-project/internal/domain"
	"github.com/aniketverma031/helpdesk-project/internal/service"
	apperrors "github.com/aniketverma031/helpdesk-project/pkg/util"
)

// AdminHandler exposes the role-management endpoints.
type AdminHandler struct {
	roles *service.RoleService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(roleService *service.RoleService) *AdminHandler {
	return &AdminHandler{roles: roleService}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	users, err := h.roles.ListUsers(c.Context(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		items = append(items, dto.NewUserResponse(&users[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AssignRole POST /admin/users/:id/role. A refused superuser change is
// not an error to the caller: the operation is skipped and reported as
// a warning.
func (h *AdminHandler) AssignRole(c *fiber.Ctx) error {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return apperrors.NewUnauthorized("authentication required")
	}
	var req dto.AssignRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return apperrors.NewValidationError(err.Error(), map[string]any{"field": "role"})
	}

	target, err := h.roles.AssignRole(c.Context(), principal, c.Params("id"), role)
	if err != nil {
		if apperrors.HasCode(err, apperrors.CodeProtectedAccount) {
			return c.JSON(fiber.Map{"warning": apperrors.ToDomainError(err).Message})
		}
		return err
	}
	return c.JSON(fiber.Map{
		"data":    dto.NewUserResponse(target),
		"message": fmt.Sprintf("Role for %s updated to %s.", target.Username, target.Role),
	})
}
