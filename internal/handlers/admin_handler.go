package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/dto"
	"github.com/vocanote/vocanote-backend/internal/models"
	"gorm.io/gorm"
)

// AdminHandler exposes read-only billing and usage views for operators.
type AdminHandler struct {
	db *gorm.DB
}

func NewAdminHandler(db *gorm.DB) *AdminHandler {
	return &AdminHandler{db: db}
}

func (h *AdminHandler) ListPaymentEvents(c *fiber.Ctx) error {
	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	offset, _ := strconv.Atoi(c.Query("offset", "0"))
	if offset < 0 {
		offset = 0
	}

	var events []models.PaymentEvent
	var total int64

	h.db.Model(&models.PaymentEvent{}).Count(&total)

	err := h.db.Order("created_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&events).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch payment events"})
	}

	return c.JSON(fiber.Map{"events": events, "total": total, "limit": limit, "offset": offset})
}

func (h *AdminHandler) UserUsage(c *fiber.Ctx) error {
	userID, err := uuid.Parse(c.Params("user_id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var usage []models.DailyUsage
	err = h.db.Where("user_id = ?", userID).
		Order("usage_date DESC").
		Limit(90).
		Find(&usage).Error
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch usage"})
	}

	return c.JSON(fiber.Map{"usage": usage})
}
