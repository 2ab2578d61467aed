package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/client"
	"github.com/vocanote/vocanote-backend/internal/config"
	"github.com/vocanote/vocanote-backend/internal/dto"
	"github.com/vocanote/vocanote-backend/internal/middleware"
	"github.com/vocanote/vocanote-backend/internal/models"
	"github.com/vocanote/vocanote-backend/internal/plan"
	"github.com/vocanote/vocanote-backend/internal/services"
	"gorm.io/gorm"
)

type BillingHandler struct {
	db                 *gorm.DB
	cfg                *config.Config
	catalog            *plan.Catalog
	entitlementService *services.EntitlementService
	stripeClient       *client.API
}

func NewBillingHandler(db *gorm.DB, cfg *config.Config, catalog *plan.Catalog, entitlementService *services.EntitlementService, stripeClient *client.API) *BillingHandler {
	return &BillingHandler{
		db:                 db,
		cfg:                cfg,
		catalog:            catalog,
		entitlementService: entitlementService,
		stripeClient:       stripeClient,
	}
}

// Plans lists the purchasable plans from the server-side catalog.
func (h *BillingHandler) Plans(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"plans": h.catalog.All()})
}

// Entitlement reports the authenticated account's current entitlement.
func (h *BillingHandler) Entitlement(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Account not found"})
	}

	return c.JSON(dto.EntitlementResponse{
		PlanTier:          user.PlanTier,
		EntitlementStatus: user.EntitlementStatus,
		BillingCycle:      user.BillingCycle,
		ExpiresAt:         user.EntitlementExpiresAt,
		Active:            user.HasActiveEntitlement(time.Now().UTC()),
	})
}

// History returns the account's entitlement transitions.
func (h *BillingHandler) History(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	entries, err := h.entitlementService.History(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to fetch entitlement history"})
	}

	return c.JSON(fiber.Map{"history": entries})
}

// CreateCheckout starts a Stripe Checkout Session. The client only names a
// tier; price and cycle come from the catalog, never from the request.
func (h *BillingHandler) CreateCheckout(c *fiber.Ctx) error {
	userID, err := middleware.UserID(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid user ID"})
	}

	var user models.User
	if err := h.db.First(&user, "id = ?", userID).Error; err != nil {
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Account not found"})
	}

	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Invalid request body"})
	}

	tier, ok := plan.ParseTier(req.Tier)
	if !ok || tier == plan.TierFree {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Unknown plan tier"})
	}

	price, ok := h.catalog.PriceFor(tier)
	if !ok || price.StripePriceID == "" {
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Billing not configured for this plan"})
	}

	mode := stripe.CheckoutSessionModeSubscription
	if price.Cycle == plan.CycleOnce {
		mode = stripe.CheckoutSessionModePayment
	}

	frontendURL := strings.TrimRight(h.cfg.BillingFrontendURL, "/")
	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(mode)),
		CustomerEmail: stripe.String(user.Email),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(price.StripePriceID),
				Quantity: stripe.Int64(1),
			},
		},
		AllowPromotionCodes: stripe.Bool(true),
		SuccessURL:          stripe.String(frontendURL + "/billing/success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:           stripe.String(frontendURL + "/billing/cancel"),
	}
	params.AddMetadata("tier", string(tier))

	sess, err := h.stripeClient.CheckoutSessions.New(params)
	if err != nil {
		slog.Error("stripe checkout session failed", "user_id", userID.String(), "tier", string(tier), "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Error: true, Message: "Failed to create checkout session"})
	}

	return c.JSON(dto.CheckoutResponse{URL: sess.URL})
}

// ConfirmCheckout reconciles a completed checkout from the success-page
// path. The webhook usually gets there first; either way the duplicate is a
// no-op and the client still gets a confirmation.
func (h *BillingHandler) ConfirmCheckout(c *fiber.Ctx) error {
	var req dto.ConfirmCheckoutRequest
	if err := c.BodyParser(&req); err != nil || req.SessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "session_id is required"})
	}

	sess, err := h.stripeClient.CheckoutSessions.Get(req.SessionID, nil)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: "Unknown checkout session"})
	}
	if sess.PaymentStatus != stripe.CheckoutSessionPaymentStatusPaid {
		return c.Status(fiber.StatusPaymentRequired).JSON(dto.ErrorResponse{Error: true, Message: "Checkout session is not paid"})
	}

	input, err := paymentEventFromSession(sess)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: true, Message: err.Error()})
	}

	result, err := h.entitlementService.ApplyPayment(input)
	if err != nil {
		if errors.Is(err, services.ErrAccountNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Error: true, Message: "Account not found for this payment"})
		}
		slog.Error("checkout confirmation failed", "session_id", req.SessionID, "error", err)
		return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{Error: true, Message: "Failed to apply payment"})
	}

	return c.JSON(fiber.Map{
		"already_applied": result.AlreadyApplied,
		"entitlement": dto.EntitlementResponse{
			PlanTier:          result.Account.PlanTier,
			EntitlementStatus: result.Account.EntitlementStatus,
			BillingCycle:      result.Account.BillingCycle,
			ExpiresAt:         result.Account.EntitlementExpiresAt,
			Active:            result.Account.HasActiveEntitlement(time.Now().UTC()),
		},
	})
}

// paymentEventFromSession normalizes a paid Stripe checkout session into
// the entitlement service's event shape. The tier comes from metadata our
// own server wrote at session creation; the cycle is re-derived from the
// tier rather than trusted from anywhere else.
func paymentEventFromSession(sess *stripe.CheckoutSession) (services.PaymentEventInput, error) {
	tier, ok := plan.ParseTier(sess.Metadata["tier"])
	if !ok || tier == plan.TierFree {
		return services.PaymentEventInput{}, fmt.Errorf("checkout session %s has no usable plan tier", sess.ID)
	}

	email := sess.CustomerEmail
	if sess.CustomerDetails != nil && sess.CustomerDetails.Email != "" {
		email = sess.CustomerDetails.Email
	}
	if email == "" {
		return services.PaymentEventInput{}, fmt.Errorf("checkout session %s has no customer email", sess.ID)
	}

	return services.PaymentEventInput{
		ExternalPaymentID:   sess.ID,
		Email:               email,
		AmountPaidCents:     sess.AmountTotal,
		OriginalAmountCents: sess.AmountSubtotal,
		Currency:            string(sess.Currency),
		PlanTier:            tier,
		BillingCycle:        plan.CycleFor(tier),
	}, nil
}
