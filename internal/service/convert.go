package service

import (
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
)

// =============================================================================
// Repository to domain conversions
// =============================================================================

func repoCustomerToDomain(c repository.Customer) *domain.Customer {
	return &domain.Customer{
		ID:               c.ID,
		Email:            c.Email,
		Name:             domain.NullStringValue(c.Name),
		StripeCustomerID: domain.NullStringValue(c.StripeCustomerID),
		SubscriptionTier: domain.SubscriptionTier(c.SubscriptionTier),
		Credits:          int(c.Credits),
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func repoSubscriptionToDomain(s repository.Subscription) *domain.Subscription {
	return &domain.Subscription{
		ID:                   s.ID,
		CustomerID:           s.CustomerID,
		StripeSubscriptionID: s.StripeSubscriptionID,
		StripePriceID:        s.StripePriceID,
		StripeItemID:         s.StripeItemID,
		Tier:                 domain.SubscriptionTier(s.Tier),
		Status:               domain.SubscriptionStatus(s.Status),
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		TrialStart:           domain.NullTimeValue(s.TrialStart),
		TrialEnd:             domain.NullTimeValue(s.TrialEnd),
		StartedAt:            s.StartedAt,
		UpdatedAt:            s.UpdatedAt,
	}
}

func repoPlanToDomain(p repository.Plan) domain.Plan {
	return domain.Plan{
		ID:              p.ID,
		Name:            p.Name,
		Tier:            domain.SubscriptionTier(p.Tier),
		StripePriceID:   p.StripePriceID,
		StripeProductID: p.StripeProductID,
		AmountCents:     p.AmountCents,
		Currency:        p.Currency,
		Interval:        domain.PlanInterval(p.BillingInterval),
		TrialDays:       int(p.TrialDays),
		Active:          p.Active,
		CreatedAt:       p.CreatedAt,
	}
}

func repoSampleToDomain(s repository.Sample) *domain.Sample {
	return &domain.Sample{
		ID:                 s.ID,
		PackID:             s.PackID,
		Name:               s.Name,
		Type:               domain.SampleType(s.SampleType),
		IsPremium:          s.IsPremium,
		HasStems:           s.HasStems,
		CreditCostOverride: domain.NullInt32Value(s.CreditCostOverride),
		FileKey:            s.FileKey,
		StemsKey:           domain.NullStringValue(s.StemsKey),
		CreatedAt:          s.CreatedAt,
		UpdatedAt:          s.UpdatedAt,
	}
}

func repoLedgerToDomain(l repository.CreditLedger) domain.LedgerEntry {
	return domain.LedgerEntry{
		ID:           l.ID,
		CustomerID:   l.CustomerID,
		Delta:        int(l.Delta),
		BalanceAfter: int(l.BalanceAfter),
		Reason:       domain.LedgerReason(l.Reason),
		Reference:    l.Reference,
		CreatedAt:    l.CreatedAt,
	}
}

// currentStatuses returns the statuses that make a subscription current, as
// query parameters.
func currentStatuses() []string {
	out := make([]string, len(domain.CurrentSubscriptionStatuses))
	for i, s := range domain.CurrentSubscriptionStatuses {
		out[i] = string(s)
	}
	return out
}
