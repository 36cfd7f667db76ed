package domain

import (
	"time"

	"github.com/google/uuid"
)

// PlanInterval is the billing period of a plan.
type PlanInterval string

const (
	PlanIntervalMonth PlanInterval = "month"
	PlanIntervalYear  PlanInterval = "year"
)

// Plan is a purchasable subscription price from the catalog.
type Plan struct {
	ID              uuid.UUID        `json:"id"`
	Name            string           `json:"name"`
	Tier            SubscriptionTier `json:"tier"`
	StripePriceID   string           `json:"stripe_price_id"`
	StripeProductID string           `json:"stripe_product_id"`
	AmountCents     int64            `json:"amount_cents"`
	Currency        string           `json:"currency"`
	Interval        PlanInterval     `json:"interval"`
	TrialDays       int              `json:"trial_days"`
	Active          bool             `json:"active"`
	CreatedAt       time.Time        `json:"created_at"`
}

// CreatePlanParams contains the parameters for adding a plan to the catalog.
// When StripePriceID is set the existing price is imported and the amount,
// currency and interval come from Stripe; otherwise a new price is created
// on StripeProductID.
type CreatePlanParams struct {
	Name            string
	Tier            SubscriptionTier
	StripePriceID   string
	StripeProductID string
	AmountCents     int64
	Currency        string
	Interval        PlanInterval
	TrialDays       int
}

// ProviderPrice is a price created at the payment provider.
type ProviderPrice struct {
	ID          string
	ProductID   string
	ProductName string
	AmountCents int64
	Currency    string
	Interval    PlanInterval
}
