// Package domain contains core business types and interfaces.
//
// This file defines subscriptions and their status/tier vocabulary.
package domain

import (
	"time"

	"github.com/google/uuid"
)

// SubscriptionStatus is the local status of a subscription. Values mirror
// Stripe's subscription statuses, except that trialing is stored as active.
type SubscriptionStatus string

const (
	SubscriptionStatusActive            SubscriptionStatus = "active"
	SubscriptionStatusTrialing          SubscriptionStatus = "trialing"
	SubscriptionStatusPastDue           SubscriptionStatus = "past_due"
	SubscriptionStatusCanceled          SubscriptionStatus = "canceled"
	SubscriptionStatusUnpaid            SubscriptionStatus = "unpaid"
	SubscriptionStatusIncomplete        SubscriptionStatus = "incomplete"
	SubscriptionStatusIncompleteExpired SubscriptionStatus = "incomplete_expired"
	SubscriptionStatusPaused            SubscriptionStatus = "paused"
)

// CurrentSubscriptionStatuses are the statuses that make a subscription the
// customer's current one.
var CurrentSubscriptionStatuses = []SubscriptionStatus{
	SubscriptionStatusActive,
	SubscriptionStatusTrialing,
}

// NormalizeStatus maps a provider status to the local status.
// Trialing collapses into active; everything else passes through.
func NormalizeStatus(providerStatus string) SubscriptionStatus {
	switch SubscriptionStatus(providerStatus) {
	case SubscriptionStatusActive, SubscriptionStatusTrialing:
		return SubscriptionStatusActive
	default:
		return SubscriptionStatus(providerStatus)
	}
}

// IsTerminal reports whether the status ends paid access.
func (s SubscriptionStatus) IsTerminal() bool {
	switch s {
	case SubscriptionStatusCanceled, SubscriptionStatusUnpaid, SubscriptionStatusIncompleteExpired:
		return true
	default:
		return false
	}
}

// SubscriptionTier is a named pricing level.
type SubscriptionTier string

const (
	SubscriptionTierFree    SubscriptionTier = "free"
	SubscriptionTierStarter SubscriptionTier = "starter"
	SubscriptionTierPro     SubscriptionTier = "pro"
)

// EffectiveTier returns the tier a customer should hold for a subscription
// in the given status: the subscription's tier unless the status is terminal.
func EffectiveTier(tier SubscriptionTier, status SubscriptionStatus) SubscriptionTier {
	if status.IsTerminal() || tier == "" {
		return SubscriptionTierFree
	}
	return tier
}

// Subscription is the local record of a Stripe subscription.
type Subscription struct {
	ID                   uuid.UUID
	CustomerID           uuid.UUID
	StripeSubscriptionID string
	StripePriceID        string
	StripeItemID         string
	Tier                 SubscriptionTier
	Status               SubscriptionStatus
	CurrentPeriodStart   time.Time
	CurrentPeriodEnd     time.Time
	CancelAtPeriodEnd    bool
	TrialStart           *time.Time
	TrialEnd             *time.Time
	StartedAt            time.Time
	UpdatedAt            time.Time
}

// IsCurrent returns true if the subscription is active or trialing.
func (s *Subscription) IsCurrent() bool {
	return s.Status == SubscriptionStatusActive || s.Status == SubscriptionStatusTrialing
}

// IsTrialing returns true while now falls inside the trial window.
func (s *Subscription) IsTrialing(now time.Time) bool {
	return s.TrialEnd != nil && now.Before(*s.TrialEnd)
}

// ProviderSubscription is the subset of a Stripe subscription the
// reconciler consumes.
type ProviderSubscription struct {
	ID                 string
	CustomerID         string
	PriceID            string
	ItemID             string
	Status             string
	CurrentPeriodStart time.Time
	CurrentPeriodEnd   time.Time
	CancelAtPeriodEnd  bool
	TrialStart         *time.Time
	TrialEnd           *time.Time
}

// CancelResult describes the outcome of a cancel-at-period-end request.
type CancelResult struct {
	Message   string    `json:"message"`
	PeriodEnd time.Time `json:"period_end"`
}

// ChangePlanResult describes the outcome of a plan change.
type ChangePlanResult struct {
	Message   string           `json:"message"`
	PlanName  string           `json:"plan_name"`
	Tier      SubscriptionTier `json:"tier"`
	PeriodEnd time.Time        `json:"period_end"`
}

// ResumeResult describes the outcome of undoing a scheduled cancellation.
type ResumeResult struct {
	Message   string    `json:"message"`
	PeriodEnd time.Time `json:"period_end"`
}

// CheckoutRequest starts a hosted checkout for a local customer.
type CheckoutRequest struct {
	CustomerID uuid.UUID
	PriceID    string
	SuccessURL string
	CancelURL  string
}
