package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func intPtr(v int) *int { return &v }

func TestCreditPricing_SampleCost(t *testing.T) {
	pricing := DefaultCreditPricing()

	tests := []struct {
		name     string
		typ      SampleType
		premium  bool
		override *int
		want     int
	}{
		{name: "standard one-shot", typ: SampleTypeOneShot, want: 2},
		{name: "standard loop", typ: SampleTypeLoop, want: 3},
		{name: "premium one-shot", typ: SampleTypeOneShot, premium: true, want: 5},
		{name: "premium loop", typ: SampleTypeLoop, premium: true, want: 10},
		{name: "override wins over premium", typ: SampleTypeOneShot, premium: true, override: intPtr(99), want: 99},
		{name: "override wins over standard loop", typ: SampleTypeLoop, override: intPtr(1), want: 1},
		{name: "zero override ignored", typ: SampleTypeOneShot, override: intPtr(0), want: 2},
		{name: "negative override ignored", typ: SampleTypeOneShot, override: intPtr(-5), want: 2},
		{name: "unknown type falls back to standard one-shot", typ: SampleType("drum_kit"), want: 2},
		{name: "unknown premium type falls back to standard one-shot", typ: SampleType("drum_kit"), premium: true, want: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.SampleCost(tt.typ, tt.premium, tt.override)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreditPricing_TotalCost(t *testing.T) {
	pricing := DefaultCreditPricing()

	tests := []struct {
		name     string
		typ      SampleType
		premium  bool
		hasStems bool
		override *int
		want     int
	}{
		{name: "loop with stems", typ: SampleTypeLoop, hasStems: true, want: 8},
		{name: "loop without stems", typ: SampleTypeLoop, want: 3},
		{name: "premium loop with stems", typ: SampleTypeLoop, premium: true, hasStems: true, want: 15},
		{name: "override keeps stems addend", typ: SampleTypeOneShot, hasStems: true, override: intPtr(20), want: 25},
		{name: "override without stems", typ: SampleTypeOneShot, override: intPtr(20), want: 20},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := pricing.TotalCost(tt.typ, tt.premium, tt.hasStems, tt.override)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCreditPricing_CustomTable(t *testing.T) {
	pricing := CreditPricing{
		Standard:        PriceTable{SampleTypeOneShot: 1, SampleTypeLoop: 4},
		Premium:         PriceTable{SampleTypeOneShot: 6, SampleTypeLoop: 12},
		StemsBundleCost: 0,
	}

	assert.Equal(t, 4, pricing.TotalCost(SampleTypeLoop, false, true, nil))
	assert.Equal(t, 12, pricing.SampleCost(SampleTypeLoop, true, nil))

	// Defaults are untouched by building another table
	assert.Equal(t, 3, DefaultCreditPricing().SampleCost(SampleTypeLoop, false, nil))
}

func TestCreditPricing_Quote(t *testing.T) {
	pricing := DefaultCreditPricing()

	q := pricing.Quote(&Sample{Type: SampleTypeLoop, IsPremium: true, HasStems: true})
	assert.Equal(t, SampleQuote{Base: 10, Stems: 5, Total: 15}, q)

	q = pricing.Quote(&Sample{Type: SampleTypeOneShot, CreditCostOverride: intPtr(7)})
	assert.Equal(t, SampleQuote{Base: 7, Stems: 0, Total: 7, Overridden: true}, q)

	q = pricing.Quote(&Sample{Type: SampleTypeOneShot, CreditCostOverride: intPtr(0)})
	assert.False(t, q.Overridden)
	assert.Equal(t, 2, q.Total)
}

func TestCreditPricing_CostRange(t *testing.T) {
	pricing := DefaultCreditPricing()

	lo, hi := pricing.CostRange(false)
	assert.Equal(t, 2, lo)
	assert.Equal(t, 3, hi)

	lo, hi = pricing.CostRange(true)
	assert.Equal(t, 5, lo)
	assert.Equal(t, 10, hi)

	ranges := pricing.CostRanges()
	assert.Equal(t, []CostRangeInfo{
		{Tier: "standard", Min: 2, Max: 3},
		{Tier: "premium", Min: 5, Max: 10},
		{Tier: "stems", Min: 5, Max: 5},
	}, ranges)
}

func TestParseSampleType(t *testing.T) {
	tests := []struct {
		input   string
		want    SampleType
		wantErr bool
	}{
		{input: "one_shot", want: SampleTypeOneShot},
		{input: "One-Shot", want: SampleTypeOneShot},
		{input: " oneshot ", want: SampleTypeOneShot},
		{input: "LOOP", want: SampleTypeLoop},
		{input: "drum_kit", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSampleType(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.True(t, got.Valid())
		})
	}
}

func TestCreditGrants_For(t *testing.T) {
	grants := CreditGrants{SubscriptionTierStarter: 100, SubscriptionTierPro: 400}

	assert.Equal(t, 100, grants.For(SubscriptionTierStarter))
	assert.Equal(t, 400, grants.For(SubscriptionTierPro))
	assert.Equal(t, 0, grants.For(SubscriptionTierFree))
	assert.Equal(t, 0, grants.For(SubscriptionTier("enterprise")))
}
