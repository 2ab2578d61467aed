package services

import (
	"errors"
	"testing"
	"time"

	"github.com/vocanote/vocanote-backend/internal/models"
	"github.com/vocanote/vocanote-backend/internal/plan"
)

func lifetimeEvent(email string) PaymentEventInput {
	return PaymentEventInput{
		ExternalPaymentID:   "pay_1",
		Email:               email,
		AmountPaidCents:     9900,
		OriginalAmountCents: 9900,
		Currency:            "usd",
		PlanTier:            plan.TierLifetime,
		BillingCycle:        plan.CycleOnce,
	}
}

func TestApplyPaymentLifetime(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	user := createTestUser(t, db, "buyer@example.com", plan.TierFree)

	result, err := svc.ApplyPayment(lifetimeEvent(user.Email))
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if result.AlreadyApplied {
		t.Fatal("first application must not report already applied")
	}

	acct := result.Account
	if acct.PlanTier != "lifetime" || acct.EntitlementStatus != "active" || acct.BillingCycle != "once" {
		t.Fatalf("unexpected account state: tier=%s status=%s cycle=%s", acct.PlanTier, acct.EntitlementStatus, acct.BillingCycle)
	}
	if acct.EntitlementExpiresAt != nil {
		t.Fatalf("lifetime must never expire, got %v", *acct.EntitlementExpiresAt)
	}

	var history []models.EntitlementHistory
	if err := db.Where("user_id = ?", user.ID).Find(&history).Error; err != nil {
		t.Fatalf("load history: %v", err)
	}
	if len(history) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(history))
	}
	if history[0].PeriodEnd != nil {
		t.Fatalf("lifetime history entry must have nil period end, got %v", *history[0].PeriodEnd)
	}
	if history[0].PaymentEventID != result.Event.ID {
		t.Fatal("history entry must reference the payment event")
	}
}

func TestApplyPaymentIsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	user := createTestUser(t, db, "repeat@example.com", plan.TierFree)

	first, err := svc.ApplyPayment(lifetimeEvent(user.Email))
	if err != nil {
		t.Fatalf("first ApplyPayment: %v", err)
	}

	second, err := svc.ApplyPayment(lifetimeEvent(user.Email))
	if err != nil {
		t.Fatalf("second ApplyPayment: %v", err)
	}
	if !second.AlreadyApplied {
		t.Fatal("second application must report already applied")
	}
	if second.Event.ID != first.Event.ID {
		t.Fatal("duplicate must return the original payment event")
	}
	if second.Account.PlanTier != first.Account.PlanTier {
		t.Fatal("duplicate must not change account state")
	}

	var eventCount int64
	db.Model(&models.PaymentEvent{}).Where("external_payment_id = ?", "pay_1").Count(&eventCount)
	if eventCount != 1 {
		t.Fatalf("expected exactly 1 payment event, got %d", eventCount)
	}

	var historyCount int64
	db.Model(&models.EntitlementHistory{}).Where("user_id = ?", user.ID).Count(&historyCount)
	if historyCount != 1 {
		t.Fatalf("expected exactly 1 history entry, got %d", historyCount)
	}
}

func TestApplyPaymentMonthlyExpiryIsCalendarMonth(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	svc.now = func() time.Time { return time.Date(2025, 1, 15, 12, 0, 0, 0, time.UTC) }
	user := createTestUser(t, db, "monthly@example.com", plan.TierFree)

	result, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID:   "pay_monthly",
		Email:               user.Email,
		AmountPaidCents:     499,
		OriginalAmountCents: 499,
		PlanTier:            plan.TierMonthly,
		BillingCycle:        plan.CycleMonthly,
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	expiry := result.Account.EntitlementExpiresAt
	if expiry == nil {
		t.Fatal("monthly entitlement must have an expiry")
	}
	want := time.Date(2025, 2, 15, 12, 0, 0, 0, time.UTC)
	if !expiry.Equal(want) {
		t.Fatalf("expected calendar-month expiry %v, got %v", want, *expiry)
	}
}

func TestApplyPaymentYearlyExpiry(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	svc.now = func() time.Time { return time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC) }
	user := createTestUser(t, db, "yearly@example.com", plan.TierFree)

	result, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID:   "pay_yearly",
		Email:               user.Email,
		AmountPaidCents:     3999,
		OriginalAmountCents: 3999,
		PlanTier:            plan.TierAnnual,
		BillingCycle:        plan.CycleYearly,
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	expiry := result.Account.EntitlementExpiresAt
	if expiry == nil {
		t.Fatal("yearly entitlement must have an expiry")
	}
	want := time.Date(2026, 6, 30, 0, 0, 0, 0, time.UTC)
	if !expiry.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *expiry)
	}
}

func TestApplyPaymentUnknownAccount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)

	_, err := svc.ApplyPayment(lifetimeEvent("nobody@example.com"))
	if !errors.Is(err, ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}

	// Reconciliation must never create accounts.
	var count int64
	db.Model(&models.User{}).Count(&count)
	if count != 0 {
		t.Fatalf("expected no accounts, got %d", count)
	}
}

func TestApplyPaymentRecordsDiscount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	user := createTestUser(t, db, "coupon@example.com", plan.TierFree)

	result, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID:   "pay_discounted",
		Email:               user.Email,
		AmountPaidCents:     7900,
		OriginalAmountCents: 9900,
		PlanTier:            plan.TierLifetime,
		BillingCycle:        plan.CycleOnce,
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if result.Event.DiscountCents != 2000 {
		t.Fatalf("expected discount 2000, got %d", result.Event.DiscountCents)
	}
}

func TestApplyPaymentClampsNegativeDiscount(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	user := createTestUser(t, db, "anomaly@example.com", plan.TierFree)

	result, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID:   "pay_anomaly",
		Email:               user.Email,
		AmountPaidCents:     9900,
		OriginalAmountCents: 7900,
		PlanTier:            plan.TierLifetime,
		BillingCycle:        plan.CycleOnce,
	})
	if err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}
	if result.Event.DiscountCents != 0 {
		t.Fatalf("negative discount must clamp to zero, got %d", result.Event.DiscountCents)
	}
}

func TestApplyPaymentUpgradeThenDowngradeLastPaymentWins(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	user := createTestUser(t, db, "churner@example.com", plan.TierFree)

	if _, err := svc.ApplyPayment(lifetimeEvent(user.Email)); err != nil {
		t.Fatalf("lifetime ApplyPayment: %v", err)
	}

	result, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID:   "pay_2",
		Email:               user.Email,
		AmountPaidCents:     499,
		OriginalAmountCents: 499,
		PlanTier:            plan.TierMonthly,
		BillingCycle:        plan.CycleMonthly,
	})
	if err != nil {
		t.Fatalf("monthly ApplyPayment: %v", err)
	}

	if result.Account.PlanTier != "monthly" {
		t.Fatalf("last verified payment wins, got tier %s", result.Account.PlanTier)
	}
	if result.Account.EntitlementExpiresAt == nil {
		t.Fatal("monthly entitlement must carry an expiry")
	}

	var historyCount int64
	db.Model(&models.EntitlementHistory{}).Where("user_id = ?", user.ID).Count(&historyCount)
	if historyCount != 2 {
		t.Fatalf("expected 2 history entries, got %d", historyCount)
	}
}

func TestApplyPaymentValidatesInput(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	createTestUser(t, db, "valid@example.com", plan.TierFree)

	cases := []PaymentEventInput{
		{Email: "valid@example.com", PlanTier: plan.TierLifetime, BillingCycle: plan.CycleOnce},
		{ExternalPaymentID: "pay_x", PlanTier: plan.TierLifetime, BillingCycle: plan.CycleOnce},
		{ExternalPaymentID: "pay_x", Email: "valid@example.com", PlanTier: plan.TierFree, BillingCycle: plan.CycleNone},
		{ExternalPaymentID: "pay_x", Email: "valid@example.com", PlanTier: "platinum", BillingCycle: plan.CycleOnce},
	}
	for i, in := range cases {
		if _, err := svc.ApplyPayment(in); !errors.Is(err, ErrInvalidInput) {
			t.Fatalf("case %d: expected ErrInvalidInput, got %v", i, err)
		}
	}
}

func TestHistoryIsNewestFirst(t *testing.T) {
	db := setupTestDB(t)
	svc := NewEntitlementService(db)
	user := createTestUser(t, db, "historian@example.com", plan.TierFree)

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return base }
	if _, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID: "pay_a", Email: user.Email,
		AmountPaidCents: 499, OriginalAmountCents: 499,
		PlanTier: plan.TierMonthly, BillingCycle: plan.CycleMonthly,
	}); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	svc.now = func() time.Time { return base.AddDate(0, 2, 0) }
	if _, err := svc.ApplyPayment(PaymentEventInput{
		ExternalPaymentID: "pay_b", Email: user.Email,
		AmountPaidCents: 9900, OriginalAmountCents: 9900,
		PlanTier: plan.TierLifetime, BillingCycle: plan.CycleOnce,
	}); err != nil {
		t.Fatalf("ApplyPayment: %v", err)
	}

	entries, err := svc.History(user.ID)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].PlanTier != "lifetime" {
		t.Fatalf("expected newest entry first, got %s", entries[0].PlanTier)
	}
}
