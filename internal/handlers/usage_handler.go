package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/vocanote/vocanote-backend/internal/dto"
	"github.com/vocanote/vocanote-backend/internal/middleware"
	"github.com/vocanote/vocanote-backend/internal/services"
)

type UsageHandler struct {
	usageService *services.UsageService
}

func NewUsageHandler(usageService *services.UsageService) *UsageHandler {
	return &UsageHandler{usageService: usageService}
}

// Today reports the authenticated account's remaining recording allowance.
// The date is always the server's, never a client-supplied value.
func (h *UsageHandler) Today(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	summary, err := h.usageService.GetRemaining(userID, h.usageService.Today())
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Account not found"})
		}
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: true, Message: "Usage lookup failed"})
	}

	return c.JSON(summary)
}
