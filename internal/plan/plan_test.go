package plan

import (
	"testing"
	"time"
)

func TestDailyAllowanceFreeTier(t *testing.T) {
	p := NewQuotaPolicy(60)
	if got := p.DailyAllowance(TierFree); got != 60 {
		t.Fatalf("expected 60, got %d", got)
	}
}

func TestDailyAllowancePaidTiersUnlimited(t *testing.T) {
	p := DefaultQuotaPolicy()
	for _, tier := range []Tier{TierMonthly, TierAnnual, TierLifetime} {
		if got := p.DailyAllowance(tier); got != Unlimited {
			t.Fatalf("tier %s: expected unlimited sentinel, got %d", tier, got)
		}
	}
}

func TestDailyAllowanceUnknownTierFallsBackToFree(t *testing.T) {
	p := NewQuotaPolicy(120)
	if got := p.DailyAllowance(Tier("platinum")); got != 120 {
		t.Fatalf("expected free allowance 120, got %d", got)
	}
}

func TestQuotaPolicyRejectsNonPositiveAllowance(t *testing.T) {
	p := NewQuotaPolicy(0)
	if got := p.DailyAllowance(TierFree); got != DefaultFreeDailySeconds {
		t.Fatalf("expected default allowance, got %d", got)
	}
}

func TestExpiryFromMonthlyIsCalendarMonth(t *testing.T) {
	start := time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)
	expiry := ExpiryFrom(start, CycleMonthly)
	if expiry == nil {
		t.Fatal("expected expiry, got nil")
	}
	want := time.Date(2025, 2, 15, 10, 30, 0, 0, time.UTC)
	if !expiry.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *expiry)
	}
}

func TestExpiryFromYearly(t *testing.T) {
	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	expiry := ExpiryFrom(start, CycleYearly)
	if expiry == nil {
		t.Fatal("expected expiry, got nil")
	}
	want := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	if !expiry.Equal(want) {
		t.Fatalf("expected %v, got %v", want, *expiry)
	}
}

func TestExpiryFromOnceNeverExpires(t *testing.T) {
	if got := ExpiryFrom(time.Now(), CycleOnce); got != nil {
		t.Fatalf("expected nil expiry for lifetime, got %v", *got)
	}
}

func TestCycleFor(t *testing.T) {
	cases := map[Tier]Cycle{
		TierMonthly:  CycleMonthly,
		TierAnnual:   CycleYearly,
		TierLifetime: CycleOnce,
		TierFree:     CycleNone,
	}
	for tier, want := range cases {
		if got := CycleFor(tier); got != want {
			t.Fatalf("tier %s: expected cycle %s, got %s", tier, want, got)
		}
	}
}

func TestCatalogLookups(t *testing.T) {
	c := NewCatalog(
		Price{Tier: TierMonthly, Cycle: CycleMonthly, StripePriceID: "price_m", AmountCents: 499, Currency: "usd"},
		Price{Tier: TierLifetime, Cycle: CycleOnce, StripePriceID: "price_l", AmountCents: 9900, Currency: "usd"},
	)

	if _, ok := c.PriceFor(TierAnnual); ok {
		t.Fatal("expected annual to be absent")
	}

	p, ok := c.PriceFor(TierLifetime)
	if !ok || p.AmountCents != 9900 {
		t.Fatalf("unexpected lifetime price: %+v ok=%v", p, ok)
	}

	byID, ok := c.PriceByStripeID("price_m")
	if !ok || byID.Tier != TierMonthly {
		t.Fatalf("unexpected price by stripe ID: %+v ok=%v", byID, ok)
	}

	all := c.All()
	if len(all) != 2 {
		t.Fatalf("expected 2 prices, got %d", len(all))
	}
}

func TestParseTier(t *testing.T) {
	if _, ok := ParseTier("lifetime"); !ok {
		t.Fatal("expected lifetime to parse")
	}
	if _, ok := ParseTier("platinum"); ok {
		t.Fatal("expected platinum to be rejected")
	}
}
