package dto

import "time"

type CheckoutRequest struct {
	// Tier is the only plan field a client may send; price and cycle are
	// always re-derived from the server-side catalog.
	Tier string `json:"tier"`
}

type CheckoutResponse struct {
	URL string `json:"url"`
}

type ConfirmCheckoutRequest struct {
	SessionID string `json:"session_id"`
}

type EntitlementResponse struct {
	PlanTier          string     `json:"plan_tier"`
	EntitlementStatus string     `json:"entitlement_status"`
	BillingCycle      string     `json:"billing_cycle"`
	ExpiresAt         *time.Time `json:"expires_at"`
	Active            bool       `json:"active"`
}
