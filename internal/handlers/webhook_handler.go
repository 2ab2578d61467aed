package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
	"github.com/vocanote/vocanote-backend/internal/config"
	"github.com/vocanote/vocanote-backend/internal/dto"
	"github.com/vocanote/vocanote-backend/internal/services"
)

type WebhookHandler struct {
	cfg                *config.Config
	entitlementService *services.EntitlementService
}

func NewWebhookHandler(cfg *config.Config, entitlementService *services.EntitlementService) *WebhookHandler {
	return &WebhookHandler{cfg: cfg, entitlementService: entitlementService}
}

// HandleStripe processes Stripe webhook deliveries. Signature verification
// is the vendor library's job; a delivery that duplicates an event the
// confirmation path already applied is acknowledged as a no-op.
func (h *WebhookHandler) HandleStripe(c *fiber.Ctx) error {
	if h.cfg.StripeWebhookSecret == "" {
		slog.Error("stripe webhook secret missing")
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Webhook not configured"})
	}

	event, err := webhook.ConstructEventWithOptions(
		c.Body(),
		c.Get("Stripe-Signature"),
		h.cfg.StripeWebhookSecret,
		webhook.ConstructEventOptions{
			IgnoreAPIVersionMismatch: true,
		},
	)
	if err != nil {
		slog.Error("stripe webhook signature failed", "error", err)
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Signature verification failed"})
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			slog.Error("stripe session unmarshal failed", "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid session payload"})
		}
		if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
			return c.JSON(fiber.Map{"received": true})
		}

		input, err := paymentEventFromSession(&sess)
		if err != nil {
			slog.Error("stripe session not reconcilable", "session_id", sess.ID, "error", err)
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Session missing reconciliation fields"})
		}

		result, err := h.entitlementService.ApplyPayment(input)
		if err != nil {
			if errors.Is(err, services.ErrAccountNotFound) {
				// Upstream account-sync problem; retrying the delivery will
				// not fix it, so acknowledge and leave the error in the logs.
				slog.Error("webhook payment for unknown account", "session_id", sess.ID, "email", input.Email)
				return c.JSON(fiber.Map{"received": true})
			}
			slog.Error("webhook reconciliation failed", "session_id", sess.ID, "error", err)
			return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to process webhook event"})
		}

		slog.Info("webhook processed", "event_type", string(event.Type), "session_id", sess.ID, "already_applied", result.AlreadyApplied)
		return c.JSON(fiber.Map{"received": true})

	default:
		return c.JSON(fiber.Map{"received": true})
	}
}
