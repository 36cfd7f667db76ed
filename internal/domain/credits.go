// Package domain contains core business types and interfaces.
//
// This file defines credit pricing for samples. Pricing is a value, not
// package state: callers build a CreditPricing (usually from config) and
// pass it to whoever needs to price samples.
package domain

// PriceTable maps a sample type to its credit price for one tier
// (standard or premium).
type PriceTable map[SampleType]int

// CreditPricing holds the credit prices for samples.
type CreditPricing struct {
	Standard        PriceTable
	Premium         PriceTable
	StemsBundleCost int
}

// Default credit prices.
const (
	DefaultStandardOneShotCost = 2
	DefaultStandardLoopCost    = 3
	DefaultPremiumOneShotCost  = 5
	DefaultPremiumLoopCost     = 10
	DefaultStemsBundleCost     = 5
)

// DefaultCreditPricing returns the standard marketplace price table.
func DefaultCreditPricing() CreditPricing {
	return CreditPricing{
		Standard: PriceTable{
			SampleTypeOneShot: DefaultStandardOneShotCost,
			SampleTypeLoop:    DefaultStandardLoopCost,
		},
		Premium: PriceTable{
			SampleTypeOneShot: DefaultPremiumOneShotCost,
			SampleTypeLoop:    DefaultPremiumLoopCost,
		},
		StemsBundleCost: DefaultStemsBundleCost,
	}
}

// SampleCost returns the credit price of a sample, excluding stems.
//
// A positive override is returned unchanged. Otherwise the price comes
// from the premium or standard table. A type missing from the table is
// priced as a standard one-shot.
func (p CreditPricing) SampleCost(t SampleType, isPremium bool, override *int) int {
	if override != nil && *override > 0 {
		return *override
	}

	table := p.Standard
	if isPremium {
		table = p.Premium
	}
	if cost, ok := table[t]; ok {
		return cost
	}
	return p.Standard[SampleTypeOneShot]
}

// TotalCost returns the full credit price of a sample. The stems bundle is
// always added on top when hasStems is set, even when the base price is
// overridden.
func (p CreditPricing) TotalCost(t SampleType, isPremium, hasStems bool, override *int) int {
	cost := p.SampleCost(t, isPremium, override)
	if hasStems {
		cost += p.StemsBundleCost
	}
	return cost
}

// Quote prices a sample and returns the breakdown.
func (p CreditPricing) Quote(s *Sample) SampleQuote {
	q := SampleQuote{
		SampleID:   s.ID,
		Base:       p.SampleCost(s.Type, s.IsPremium, s.CreditCostOverride),
		Overridden: s.CreditCostOverride != nil && *s.CreditCostOverride > 0,
	}
	if s.HasStems {
		q.Stems = p.StemsBundleCost
	}
	q.Total = q.Base + q.Stems
	return q
}

// CostRange returns the cheapest and most expensive base price across all
// sample types for the premium or standard tier.
func (p CreditPricing) CostRange(isPremium bool) (lo, hi int) {
	for i, t := range SampleTypes {
		cost := p.SampleCost(t, isPremium, nil)
		if i == 0 || cost < lo {
			lo = cost
		}
		if i == 0 || cost > hi {
			hi = cost
		}
	}
	return lo, hi
}

// CostRangeInfo is a display-ready cost range for one pricing tier.
type CostRangeInfo struct {
	Tier string `json:"tier"`
	Min  int    `json:"min"`
	Max  int    `json:"max"`
}

// CostRanges returns the ranges for the standard and premium tiers, plus
// the stems surcharge as its own entry.
func (p CreditPricing) CostRanges() []CostRangeInfo {
	stdMin, stdMax := p.CostRange(false)
	premMin, premMax := p.CostRange(true)
	return []CostRangeInfo{
		{Tier: "standard", Min: stdMin, Max: stdMax},
		{Tier: "premium", Min: premMin, Max: premMax},
		{Tier: "stems", Min: p.StemsBundleCost, Max: p.StemsBundleCost},
	}
}

// CreditGrants maps a subscription tier to the credits granted for each
// paid billing period.
type CreditGrants map[SubscriptionTier]int

// For returns the grant for tier, zero for unknown tiers and the free tier.
func (g CreditGrants) For(tier SubscriptionTier) int {
	if tier == SubscriptionTierFree {
		return 0
	}
	return g[tier]
}

// QuoteParams prices a sample that has not been saved yet.
type QuoteParams struct {
	Type               string `json:"type" validate:"required"`
	IsPremium          bool   `json:"is_premium"`
	HasStems           bool   `json:"has_stems"`
	CreditCostOverride *int   `json:"credit_cost_override"`
}
