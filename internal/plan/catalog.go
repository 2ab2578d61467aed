package plan

// Price is a purchasable plan as sold through Stripe. Amounts are in the
// smallest currency unit (cents).
type Price struct {
	Tier          Tier   `json:"tier"`
	Cycle         Cycle  `json:"cycle"`
	StripePriceID string `json:"-"`
	AmountCents   int64  `json:"amount_cents"`
	Currency      string `json:"currency"`
}

// Catalog is the server-side price table. Checkout sessions and entitlement
// grants are always derived from here, never from client-sent price fields.
type Catalog struct {
	prices map[Tier]Price
}

func NewCatalog(prices ...Price) *Catalog {
	c := &Catalog{prices: make(map[Tier]Price, len(prices))}
	for _, p := range prices {
		c.prices[p.Tier] = p
	}
	return c
}

// PriceFor returns the price for a paid tier.
func (c *Catalog) PriceFor(t Tier) (Price, bool) {
	p, ok := c.prices[t]
	return p, ok
}

// PriceByStripeID resolves a Stripe price ID back to its plan.
func (c *Catalog) PriceByStripeID(priceID string) (Price, bool) {
	for _, p := range c.prices {
		if p.StripePriceID == priceID {
			return p, true
		}
	}
	return Price{}, false
}

// All returns every purchasable price, for the public plans endpoint.
func (c *Catalog) All() []Price {
	out := make([]Price, 0, len(c.prices))
	for _, t := range []Tier{TierMonthly, TierAnnual, TierLifetime} {
		if p, ok := c.prices[t]; ok {
			out = append(out, p)
		}
	}
	return out
}
