package service

import (
	"context"
	"errors"
	"testing"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/cache"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subscriptionFixture struct {
	store    *fakeStore
	billing  *fakeBilling
	svc      SubscriptionService
	customer repository.Customer
}

// newSubscriptionFixture seeds a starter customer with an active
// subscription mirrored at the fake provider, plus starter and pro plans.
func newSubscriptionFixture(t *testing.T) *subscriptionFixture {
	t.Helper()

	logger := discardLogger()
	store := newFakeStore()
	bill := newFakeBilling()
	plans := NewPlanService(store, cache.NewPlanCatalog(store, nil, 0, logger), bill, billing.PriceTiers{}, logger)

	store.addPlan("starter", domain.SubscriptionTierStarter, "price_starter", true)
	store.addPlan("pro", domain.SubscriptionTierPro, "price_pro", true)
	store.addPlan("retired", domain.SubscriptionTierPro, "price_retired", false)

	customer := store.addCustomer("cus_1", 0)
	customer.SubscriptionTier = string(domain.SubscriptionTierStarter)
	store.customers[customer.ID] = customer
	row := store.addSubscription(customer.ID, "sub_1", "price_starter", domain.SubscriptionTierStarter, domain.SubscriptionStatusActive)

	sub := providerSub("sub_1", "cus_1", "price_starter", "active")
	sub.CurrentPeriodEnd = row.CurrentPeriodEnd
	bill.subs["sub_1"] = &sub

	return &subscriptionFixture{
		store:    store,
		billing:  bill,
		svc:      NewSubscriptionService(store, bill, plans, logger),
		customer: customer,
	}
}

func TestSubscriptionService_Current(t *testing.T) {
	f := newSubscriptionFixture(t)

	sub, err := f.svc.Current(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "sub_1", sub.StripeSubscriptionID)
	assert.Equal(t, domain.SubscriptionTierStarter, sub.Tier)

	_, err = f.svc.Current(context.Background(), uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

// =============================================================================
// Cancel / Resume
// =============================================================================

func TestSubscriptionService_CancelIsIdempotent(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	first, err := f.svc.CancelAtPeriodEnd(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Subscription will cancel on April 1, 2025", first.Message)
	assert.True(t, f.store.subs["sub_1"].CancelAtPeriodEnd)
	assert.Equal(t, 1, f.store.jobsOfKind(domain.BillingEmailCancellationScheduled))

	second, err := f.svc.CancelAtPeriodEnd(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, f.billing.calls["cancel"])
	assert.Equal(t, 1, f.store.jobsOfKind(domain.BillingEmailCancellationScheduled))
}

func TestSubscriptionService_CancelErrors(t *testing.T) {
	t.Run("no subscription", func(t *testing.T) {
		f := newSubscriptionFixture(t)
		_, err := f.svc.CancelAtPeriodEnd(context.Background(), uuid.New())
		assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
		assert.Zero(t, f.billing.calls["cancel"])
	})

	t.Run("missing provider reference", func(t *testing.T) {
		f := newSubscriptionFixture(t)
		sub := f.store.subs["sub_1"]
		sub.StripeSubscriptionID = ""
		f.store.subs["sub_1"] = sub

		_, err := f.svc.CancelAtPeriodEnd(context.Background(), f.customer.ID)
		assert.Equal(t, domain.ESTATE, domain.ErrorCode(err))
		assert.Zero(t, f.billing.calls["cancel"])
	})

	t.Run("provider failure", func(t *testing.T) {
		f := newSubscriptionFixture(t)
		f.billing.err = errors.New("stripe: 500")

		_, err := f.svc.CancelAtPeriodEnd(context.Background(), f.customer.ID)
		assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
		assert.False(t, f.store.subs["sub_1"].CancelAtPeriodEnd)
		assert.Empty(t, f.store.jobs)
	})
}

func TestSubscriptionService_CancelLocalFailureStillSucceeds(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.store.failOn["EnqueueJob"] = errors.New("queue full")

	result, err := f.svc.CancelAtPeriodEnd(context.Background(), f.customer.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, result.Message)
	assert.Equal(t, 1, f.billing.calls["cancel"])
	assert.False(t, f.store.subs["sub_1"].CancelAtPeriodEnd, "local write is rolled back and left to the webhook")
}

func TestSubscriptionService_Resume(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	result, err := f.svc.Resume(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Contains(t, result.Message, "will renew on April 1, 2025")
	assert.Zero(t, f.billing.calls["resume"], "nothing to resume")

	_, err = f.svc.CancelAtPeriodEnd(ctx, f.customer.ID)
	require.NoError(t, err)

	_, err = f.svc.Resume(ctx, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, f.billing.calls["resume"])
	assert.False(t, f.store.subs["sub_1"].CancelAtPeriodEnd)
}

// =============================================================================
// Change plan
// =============================================================================

func TestSubscriptionService_ChangePlan(t *testing.T) {
	f := newSubscriptionFixture(t)

	result, err := f.svc.ChangePlan(context.Background(), f.customer.ID, "price_pro")
	require.NoError(t, err)
	assert.Equal(t, "Plan changed to pro", result.Message)
	assert.Equal(t, domain.SubscriptionTierPro, result.Tier)

	assert.Equal(t, 1, f.billing.calls["change_price"])
	assert.Equal(t, "price_pro", f.store.subs["sub_1"].StripePriceID)
	assert.Equal(t, string(domain.SubscriptionTierPro), f.store.subs["sub_1"].Tier)
	assert.Equal(t, string(domain.SubscriptionTierPro), f.store.customers[f.customer.ID].SubscriptionTier)
	assert.Equal(t, 1, f.store.jobsOfKind(domain.BillingEmailPlanChanged))
}

func TestSubscriptionService_ChangePlanRejections(t *testing.T) {
	tests := []struct {
		name     string
		priceID  string
		wantCode string
	}{
		{"empty price", "  ", domain.EINVALID},
		{"same price", "price_starter", domain.ESTATE},
		{"unknown price", "price_nope", domain.ESTATE},
		{"deactivated plan", "price_retired", domain.ESTATE},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newSubscriptionFixture(t)

			_, err := f.svc.ChangePlan(context.Background(), f.customer.ID, tt.priceID)
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
			assert.Zero(t, f.billing.calls["change_price"])
			assert.Equal(t, "price_starter", f.store.subs["sub_1"].StripePriceID)
		})
	}
}

func TestSubscriptionService_ChangePlanProviderFailure(t *testing.T) {
	f := newSubscriptionFixture(t)
	f.billing.err = errors.New("card declined")

	_, err := f.svc.ChangePlan(context.Background(), f.customer.ID, "price_pro")
	assert.Equal(t, domain.EUPSTREAM, domain.ErrorCode(err))
	assert.Equal(t, "price_starter", f.store.subs["sub_1"].StripePriceID)
	assert.Equal(t, string(domain.SubscriptionTierStarter), f.store.customers[f.customer.ID].SubscriptionTier)
}

// =============================================================================
// Checkout / Portal
// =============================================================================

func TestSubscriptionService_StartCheckout(t *testing.T) {
	f := newSubscriptionFixture(t)
	newcomer := f.store.addCustomer("", 0)

	url, err := f.svc.StartCheckout(context.Background(), domain.CheckoutRequest{
		CustomerID: newcomer.ID,
		PriceID:    "price_pro",
		SuccessURL: "https://samplebase.test/ok",
		CancelURL:  "https://samplebase.test/cancel",
	})
	require.NoError(t, err)
	assert.Equal(t, "https://checkout.stripe.test/c/price_pro", url)
	assert.Equal(t, newcomer.ID.String(), f.billing.lastCheckout.CustomerID)
	assert.Equal(t, newcomer.Email, f.billing.lastCheckout.Email)
	assert.Empty(t, f.billing.lastCheckout.StripeCustomerID)
}

func TestSubscriptionService_StartCheckoutRejections(t *testing.T) {
	f := newSubscriptionFixture(t)
	ctx := context.Background()

	_, err := f.svc.StartCheckout(ctx, domain.CheckoutRequest{CustomerID: f.customer.ID, PriceID: "price_pro"})
	assert.Equal(t, domain.ESTATE, domain.ErrorCode(err), "already subscribed")

	_, err = f.svc.StartCheckout(ctx, domain.CheckoutRequest{CustomerID: uuid.New(), PriceID: "price_pro"})
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))

	newcomer := f.store.addCustomer("", 0)
	_, err = f.svc.StartCheckout(ctx, domain.CheckoutRequest{CustomerID: newcomer.ID, PriceID: "price_retired"})
	assert.Equal(t, domain.EINVALID, domain.ErrorCode(err))

	assert.Zero(t, f.billing.calls["checkout"])
}

func TestSubscriptionService_PortalURL(t *testing.T) {
	f := newSubscriptionFixture(t)

	url, err := f.svc.PortalURL(context.Background(), f.customer.ID, "https://samplebase.test/account")
	require.NoError(t, err)
	assert.Equal(t, "https://billing.stripe.test/p/cus_1", url)

	unlinked := f.store.addCustomer("", 0)
	_, err = f.svc.PortalURL(context.Background(), unlinked.ID, "https://samplebase.test/account")
	assert.Equal(t, domain.ESTATE, domain.ErrorCode(err))
	assert.Equal(t, 1, f.billing.calls["portal"])
}
