package services

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/vocanote/vocanote-backend/internal/models"
	"github.com/vocanote/vocanote-backend/internal/plan"
	"gorm.io/gorm"
)

// PaymentEventInput is a verified completed payment, normalized from
// whichever path delivered it (Stripe webhook or the post-checkout
// confirmation call). Signature and status verification happened upstream.
type PaymentEventInput struct {
	ExternalPaymentID   string
	Email               string
	AmountPaidCents     int64
	OriginalAmountCents int64
	Currency            string
	PlanTier            plan.Tier
	BillingCycle        plan.Cycle
}

// ApplyResult is the post-reconciliation state. AlreadyApplied is true when
// the event had been applied before; that is a success, not an error, so
// callers can still render a confirmation.
type ApplyResult struct {
	Event          *models.PaymentEvent
	Account        *models.User
	AlreadyApplied bool
}

// EntitlementService applies verified payment events to account
// entitlements exactly once.
type EntitlementService struct {
	db  *gorm.DB
	now func() time.Time
}

func NewEntitlementService(db *gorm.DB) *EntitlementService {
	return &EntitlementService{db: db, now: time.Now}
}

// ApplyPayment reconciles one payment event. The three writes (payment
// event, account entitlement, history entry) happen in a single
// transaction; either all land or none do. Duplicate deliveries of the
// same external payment ID return the prior state unchanged, whether the
// duplicate is detected by the pre-check or by losing the insert race on
// the unique index.
func (s *EntitlementService) ApplyPayment(in PaymentEventInput) (*ApplyResult, error) {
	if in.ExternalPaymentID == "" {
		return nil, fmt.Errorf("%w: external payment ID is required", ErrInvalidInput)
	}
	if in.Email == "" {
		return nil, fmt.Errorf("%w: account email is required", ErrInvalidInput)
	}
	tier, ok := plan.ParseTier(string(in.PlanTier))
	if !ok || tier == plan.TierFree {
		return nil, fmt.Errorf("%w: not a purchasable plan tier %q", ErrInvalidInput, in.PlanTier)
	}
	cycle, ok := plan.ParseCycle(string(in.BillingCycle))
	if !ok || cycle == plan.CycleNone {
		return nil, fmt.Errorf("%w: invalid billing cycle %q", ErrInvalidInput, in.BillingCycle)
	}

	if prior, err := s.priorApplication(in.ExternalPaymentID); err == nil {
		return prior, nil
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	var user models.User
	if err := s.db.Where("email = ?", in.Email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	now := s.now().UTC()
	expiry := plan.ExpiryFrom(now, cycle)

	// Discount is derived for record-keeping; the amounts themselves were
	// verified upstream. A negative discount is anomalous and clamps to
	// zero rather than being persisted.
	discount := in.OriginalAmountCents - in.AmountPaidCents
	if discount < 0 {
		slog.Warn("negative discount on payment event, clamping to zero",
			"external_payment_id", in.ExternalPaymentID,
			"amount_paid_cents", in.AmountPaidCents,
			"original_amount_cents", in.OriginalAmountCents)
		discount = 0
	}

	currency := in.Currency
	if currency == "" {
		currency = "usd"
	}

	event := models.PaymentEvent{
		ID:                  uuid.New(),
		ExternalPaymentID:   in.ExternalPaymentID,
		UserID:              user.ID,
		Email:               in.Email,
		AmountPaidCents:     in.AmountPaidCents,
		OriginalAmountCents: in.OriginalAmountCents,
		DiscountCents:       discount,
		Currency:            currency,
		PlanTier:            string(tier),
		BillingCycle:        string(cycle),
	}
	history := models.EntitlementHistory{
		ID:              uuid.New(),
		UserID:          user.ID,
		PlanTier:        string(tier),
		BillingCycle:    string(cycle),
		AmountPaidCents: in.AmountPaidCents,
		PeriodStart:     now,
		PeriodEnd:       expiry,
	}

	txErr := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&event).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.User{}).Where("id = ?", user.ID).Updates(map[string]interface{}{
			"plan_tier":              string(tier),
			"entitlement_status":     models.EntitlementActive,
			"billing_cycle":          string(cycle),
			"entitlement_expires_at": expiry,
		}).Error; err != nil {
			return err
		}
		history.PaymentEventID = event.ID
		return tx.Create(&history).Error
	})
	if txErr != nil {
		if errors.Is(txErr, gorm.ErrDuplicatedKey) {
			// Lost the insert race to a concurrent delivery of the same
			// event; whoever won has already applied it.
			prior, err := s.priorApplication(in.ExternalPaymentID)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
			}
			return prior, nil
		}
		return nil, fmt.Errorf("%w: %v", ErrReconciliationFailed, txErr)
	}

	if err := s.db.First(&user, "id = ?", user.ID).Error; err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}

	slog.Info("payment event applied",
		"external_payment_id", event.ExternalPaymentID,
		"user_id", user.ID.String(),
		"plan_tier", event.PlanTier,
		"billing_cycle", event.BillingCycle)

	return &ApplyResult{Event: &event, Account: &user}, nil
}

// History returns an account's entitlement transitions, newest first.
func (s *EntitlementService) History(userID uuid.UUID) ([]models.EntitlementHistory, error) {
	var entries []models.EntitlementHistory
	err := s.db.Where("user_id = ?", userID).Order("created_at DESC").Find(&entries).Error
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
	}
	return entries, nil
}

func (s *EntitlementService) priorApplication(externalPaymentID string) (*ApplyResult, error) {
	var event models.PaymentEvent
	if err := s.db.Where("external_payment_id = ?", externalPaymentID).First(&event).Error; err != nil {
		return nil, err
	}
	var user models.User
	if err := s.db.First(&user, "id = ?", event.UserID).Error; err != nil {
		return nil, err
	}
	return &ApplyResult{Event: &event, Account: &user, AlreadyApplied: true}, nil
}
