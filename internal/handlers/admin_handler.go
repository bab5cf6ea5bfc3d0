package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/imagenwiz/backend/internal/dto"
	"github.com/imagenwiz/backend/internal/services"
)

type AdminHandler struct {
	userService   *services.UserService
	creditService *services.CreditService
}

func NewAdminHandler(userService *services.UserService, creditService *services.CreditService) *AdminHandler {
	return &AdminHandler{userService: userService, creditService: creditService}
}

// ListUsers handles GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := pagination(c)
	users, total, err := h.userService.List(limit, offset)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to fetch users",
		})
	}

	resp := make([]dto.UserResponse, len(users))
	for i, u := range users {
		resp[i] = dto.UserResponse{
			ID:       u.ID,
			Username: u.Username,
			Credits:  u.Credits,
			Role:     u.Role,
		}
	}

	return c.JSON(dto.UserListResponse{Users: resp, Total: total})
}

// Reconcile handles GET /admin/reconcile/:user_id: is sum(ledger) equal to
// the stored balance for that user.
func (h *AdminHandler) Reconcile(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid user ID",
		})
	}

	result, err := h.creditService.Reconcile(userID)
	if err != nil {
		if errors.Is(err, services.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "User not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Failed to reconcile",
		})
	}

	return c.JSON(dto.ReconcileResponse{
		UserID:     userID,
		Balance:    result.Balance,
		LedgerSum:  result.LedgerSum,
		Consistent: result.Consistent(),
	})
}
