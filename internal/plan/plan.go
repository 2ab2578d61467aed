package plan

import "time"

// Tier is the plan tier stored on a user account.
type Tier string

const (
	TierFree     Tier = "free"
	TierMonthly  Tier = "monthly"
	TierAnnual   Tier = "annual"
	TierLifetime Tier = "lifetime"
)

// Cycle is the billing cycle of an entitlement.
type Cycle string

const (
	CycleNone    Cycle = "none"
	CycleMonthly Cycle = "monthly"
	CycleYearly  Cycle = "yearly"
	CycleOnce    Cycle = "once"
)

// Unlimited is the sentinel allowance for paid tiers. It is returned as-is
// in API responses so clients never see a fake large finite number.
const Unlimited int64 = -1

// DefaultFreeDailySeconds is the free-tier daily recording allowance.
const DefaultFreeDailySeconds int64 = 300

func ParseTier(s string) (Tier, bool) {
	switch Tier(s) {
	case TierFree, TierMonthly, TierAnnual, TierLifetime:
		return Tier(s), true
	}
	return "", false
}

func ParseCycle(s string) (Cycle, bool) {
	switch Cycle(s) {
	case CycleNone, CycleMonthly, CycleYearly, CycleOnce:
		return Cycle(s), true
	}
	return "", false
}

// CycleFor returns the billing cycle a paid tier is sold under.
func CycleFor(t Tier) Cycle {
	switch t {
	case TierMonthly:
		return CycleMonthly
	case TierAnnual:
		return CycleYearly
	case TierLifetime:
		return CycleOnce
	default:
		return CycleNone
	}
}

// ExpiryFrom computes the entitlement expiry for a cycle starting at now.
// Calendar arithmetic, not fixed-day offsets: a monthly purchase on Jan 15
// expires Feb 15. Lifetime purchases never expire (nil).
func ExpiryFrom(now time.Time, cycle Cycle) *time.Time {
	switch cycle {
	case CycleMonthly:
		t := now.AddDate(0, 1, 0)
		return &t
	case CycleYearly:
		t := now.AddDate(1, 0, 0)
		return &t
	default:
		return nil
	}
}

// QuotaPolicy maps a plan tier to its daily recording allowance in seconds.
// The lookup is always server-side; client-supplied plan or allowance values
// are never consulted.
type QuotaPolicy struct {
	freeDailySeconds int64
}

func NewQuotaPolicy(freeDailySeconds int64) QuotaPolicy {
	if freeDailySeconds <= 0 {
		freeDailySeconds = DefaultFreeDailySeconds
	}
	return QuotaPolicy{freeDailySeconds: freeDailySeconds}
}

func DefaultQuotaPolicy() QuotaPolicy {
	return NewQuotaPolicy(DefaultFreeDailySeconds)
}

// DailyAllowance returns the allowance in seconds for a tier, or Unlimited
// for paid tiers. Unknown tiers fall back to the free allowance.
func (p QuotaPolicy) DailyAllowance(t Tier) int64 {
	switch t {
	case TierMonthly, TierAnnual, TierLifetime:
		return Unlimited
	default:
		return p.freeDailySeconds
	}
}
