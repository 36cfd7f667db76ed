package billing

import (
	"fmt"
	"strings"

	"github.com/DukeRupert/samplebase/internal/domain"
)

// PriceTiers maps Stripe price IDs to subscription tiers.
type PriceTiers map[string]domain.SubscriptionTier

// ParsePriceTiers parses "price_a:starter,price_b:pro". Empty input yields an
// empty map.
func ParsePriceTiers(s string) (PriceTiers, error) {
	tiers := make(PriceTiers)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		priceID, tier, ok := strings.Cut(pair, ":")
		priceID = strings.TrimSpace(priceID)
		tier = strings.ToLower(strings.TrimSpace(tier))
		if !ok || priceID == "" || tier == "" {
			return nil, fmt.Errorf("invalid price tier mapping %q, want price_id:tier", pair)
		}
		tiers[priceID] = domain.SubscriptionTier(tier)
	}
	return tiers, nil
}

// TierFor returns the tier for a price ID. Unknown or empty price IDs map to
// the free tier.
func (t PriceTiers) TierFor(priceID string) domain.SubscriptionTier {
	if tier, ok := t[priceID]; ok && priceID != "" {
		return tier
	}
	return domain.SubscriptionTierFree
}

// Lookup returns the tier and whether the price ID is mapped.
func (t PriceTiers) Lookup(priceID string) (domain.SubscriptionTier, bool) {
	tier, ok := t[priceID]
	return tier, ok
}
