package handler

import (
	"net/http"
	"testing"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlanMux(plans *fakePlans) *http.ServeMux {
	mux := http.NewServeMux()
	NewPlanHandler(plans, discardLogger()).RegisterRoutes(mux, noAuth)
	return mux
}

func TestPlanHandler_ListPlans(t *testing.T) {
	plans := &fakePlans{plans: []domain.Plan{
		{ID: uuid.New(), Name: "Starter", Tier: domain.SubscriptionTierStarter, StripePriceID: "price_starter", Active: true},
	}}

	rec := serve(t, newPlanMux(plans), "GET", "/api/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"stripe_price_id":"price_starter"`)
}

func TestPlanHandler_CreatePlan(t *testing.T) {
	plans := &fakePlans{plan: &domain.Plan{ID: uuid.New(), Name: "Pro", StripePriceID: "price_new"}}

	rec := serve(t, newPlanMux(plans), "POST", "/api/plans",
		`{"name": "Pro", "tier": "pro", "stripe_product_id": "prod_123", "amount_cents": 1900, "currency": "USD", "interval": "month", "trial_days": 7}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Equal(t, domain.CreatePlanParams{
		Name:            "Pro",
		Tier:            domain.SubscriptionTierPro,
		StripeProductID: "prod_123",
		AmountCents:     1900,
		Currency:        "USD",
		Interval:        domain.PlanIntervalMonth,
		TrialDays:       7,
	}, plans.gotParams)
}

func TestPlanHandler_CreatePlanValidation(t *testing.T) {
	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing name", `{"tier": "pro", "stripe_price_id": "price_1"}`, "name"},
		{"free tier", `{"name": "Free", "tier": "free", "stripe_price_id": "price_1"}`, "tier"},
		{"bad price id", `{"name": "Pro", "tier": "pro", "stripe_price_id": "sub_1"}`, "stripe_price_id"},
		{"weekly", `{"name": "Pro", "tier": "pro", "stripe_product_id": "prod_1", "amount_cents": 100, "interval": "week"}`, "interval"},
		{"long trial", `{"name": "Pro", "tier": "pro", "stripe_price_id": "price_1", "trial_days": 400}`, "trial_days"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			plans := &fakePlans{}
			rec := serve(t, newPlanMux(plans), "POST", "/api/plans", tt.body)

			require.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, decodeError(t, rec).Fields, tt.field)
			assert.Zero(t, plans.calls)
		})
	}
}

func TestPlanHandler_CreatePlanConflict(t *testing.T) {
	plans := &fakePlans{err: domain.Conflict("PlanService.Create", "A plan for this price already exists")}

	rec := serve(t, newPlanMux(plans), "POST", "/api/plans", `{"name": "Pro", "tier": "pro", "stripe_price_id": "price_pro"}`)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, domain.ECONFLICT, decodeError(t, rec).Code)
}

func TestPlanHandler_DeactivatePlan(t *testing.T) {
	plans := &fakePlans{}
	rec := serve(t, newPlanMux(plans), "DELETE", "/api/plans/price_starter", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "price_starter", plans.deactivated)

	plans.err = domain.NotFound("PlanService.Deactivate", "plan", "price_gone")
	rec = serve(t, newPlanMux(plans), "DELETE", "/api/plans/price_gone", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
