// Package billing provides Stripe billing integration for subscription management.
package billing

import (
	"context"
	"fmt"
	"time"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/stripe/stripe-go/v79"
	billingportalsession "github.com/stripe/stripe-go/v79/billingportal/session"
	checkoutsession "github.com/stripe/stripe-go/v79/checkout/session"
	"github.com/stripe/stripe-go/v79/price"
	"github.com/stripe/stripe-go/v79/product"
	"github.com/stripe/stripe-go/v79/subscription"
	"github.com/stripe/stripe-go/v79/webhook"
)

// Service defines the interface for billing operations against the payment
// provider. Every method that calls Stripe honors ctx.
type Service interface {
	// CreateCheckoutSession creates a Stripe Checkout session for subscribing.
	// Returns the checkout URL to redirect the customer to.
	CreateCheckoutSession(ctx context.Context, params CheckoutParams) (string, error)

	// CreatePortalSession creates a Stripe Customer Portal session.
	// Returns the portal URL to redirect the customer to.
	CreatePortalSession(ctx context.Context, stripeCustomerID, returnURL string) (string, error)

	// GetSubscription retrieves a Stripe subscription by ID.
	GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error)

	// CancelAtPeriodEnd sets a subscription to cancel at period end.
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error)

	// Resume removes the cancel_at_period_end flag.
	Resume(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error)

	// ChangePrice swaps the price of a subscription item. When itemID is empty
	// the subscription's first item is used.
	ChangePrice(ctx context.Context, subscriptionID, itemID, priceID string) (*domain.ProviderSubscription, error)

	// GetPrice looks up a price and its product.
	GetPrice(ctx context.Context, priceID string) (*domain.ProviderPrice, error)

	// CreatePrice creates a recurring price on an existing, active product.
	CreatePrice(ctx context.Context, params PriceParams) (*domain.ProviderPrice, error)

	// VerifyWebhookSignature verifies the Stripe webhook signature and returns the event.
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// CheckoutParams describes a subscription checkout.
type CheckoutParams struct {
	CustomerID       string // Local customer ID, sent as client_reference_id
	StripeCustomerID string // Optional; Stripe creates a customer when empty
	Email            string // Prefilled when StripeCustomerID is empty
	PriceID          string
	TrialDays        int
	SuccessURL       string
	CancelURL        string
}

// PriceParams describes a new recurring price.
type PriceParams struct {
	ProductID   string
	AmountCents int64
	Currency    string
	Interval    domain.PlanInterval
}

// stripeService is the concrete implementation of Service.
type stripeService struct {
	webhookSecret string
}

// NewStripeService creates a new Stripe billing service.
//
// The secretKey is used to authenticate Stripe API calls.
// The webhookSecret is used to verify incoming webhook signatures.
func NewStripeService(secretKey, webhookSecret string) Service {
	stripe.Key = secretKey

	return &stripeService{
		webhookSecret: webhookSecret,
	}
}

func (s *stripeService) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(p.PriceID),
				Quantity: stripe.Int64(1),
			},
		},
		ClientReferenceID: stripe.String(p.CustomerID),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
	}
	if p.StripeCustomerID != "" {
		params.Customer = stripe.String(p.StripeCustomerID)
	} else if p.Email != "" {
		params.CustomerEmail = stripe.String(p.Email)
	}
	if p.TrialDays > 0 {
		params.SubscriptionData = &stripe.CheckoutSessionSubscriptionDataParams{
			TrialPeriodDays: stripe.Int64(int64(p.TrialDays)),
		}
	}
	params.Context = ctx

	sess, err := checkoutsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create checkout session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) CreatePortalSession(ctx context.Context, stripeCustomerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(stripeCustomerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	sess, err := billingportalsession.New(params)
	if err != nil {
		return "", fmt.Errorf("stripe create portal session: %w", err)
	}
	return sess.URL, nil
}

func (s *stripeService) GetSubscription(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{}
	params.Context = ctx

	sub, err := subscription.Get(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get subscription: %w", err)
	}
	return SubscriptionFromStripe(sub), nil
}

func (s *stripeService) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(true),
	}
	params.Context = ctx

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe cancel subscription: %w", err)
	}
	return SubscriptionFromStripe(sub), nil
}

func (s *stripeService) Resume(ctx context.Context, subscriptionID string) (*domain.ProviderSubscription, error) {
	params := &stripe.SubscriptionParams{
		CancelAtPeriodEnd: stripe.Bool(false),
	}
	params.Context = ctx

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe reactivate subscription: %w", err)
	}
	return SubscriptionFromStripe(sub), nil
}

func (s *stripeService) ChangePrice(ctx context.Context, subscriptionID, itemID, priceID string) (*domain.ProviderSubscription, error) {
	if itemID == "" {
		current, err := s.GetSubscription(ctx, subscriptionID)
		if err != nil {
			return nil, err
		}
		if current.ItemID == "" {
			return nil, fmt.Errorf("stripe subscription %s has no items", subscriptionID)
		}
		itemID = current.ItemID
	}

	params := &stripe.SubscriptionParams{
		Items: []*stripe.SubscriptionItemsParams{
			{
				ID:    stripe.String(itemID),
				Price: stripe.String(priceID),
			},
		},
		ProrationBehavior: stripe.String("create_prorations"),
	}
	params.Context = ctx

	sub, err := subscription.Update(subscriptionID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe change subscription price: %w", err)
	}
	return SubscriptionFromStripe(sub), nil
}

func (s *stripeService) GetPrice(ctx context.Context, priceID string) (*domain.ProviderPrice, error) {
	params := &stripe.PriceParams{}
	params.AddExpand("product")
	params.Context = ctx

	p, err := price.Get(priceID, params)
	if err != nil {
		return nil, fmt.Errorf("stripe get price: %w", err)
	}
	return priceFromStripe(p), nil
}

func (s *stripeService) CreatePrice(ctx context.Context, p PriceParams) (*domain.ProviderPrice, error) {
	prodParams := &stripe.ProductParams{}
	prodParams.Context = ctx

	prod, err := product.Get(p.ProductID, prodParams)
	if err != nil {
		return nil, fmt.Errorf("stripe get product: %w", err)
	}
	if !prod.Active {
		return nil, fmt.Errorf("stripe product %s is archived", p.ProductID)
	}

	params := &stripe.PriceParams{
		Product:    stripe.String(p.ProductID),
		UnitAmount: stripe.Int64(p.AmountCents),
		Currency:   stripe.String(p.Currency),
		Recurring: &stripe.PriceRecurringParams{
			Interval: stripe.String(string(p.Interval)),
		},
	}
	params.Context = ctx

	created, err := price.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create price: %w", err)
	}

	out := priceFromStripe(created)
	out.ProductName = prod.Name
	return out, nil
}

func (s *stripeService) VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error) {
	event, err := webhook.ConstructEvent(payload, signature, s.webhookSecret)
	if err != nil {
		return stripe.Event{}, fmt.Errorf("stripe webhook signature verification failed: %w", err)
	}
	return event, nil
}

// SubscriptionFromStripe converts a Stripe subscription into the fields the
// reconciler consumes. Only the first subscription item is considered.
func SubscriptionFromStripe(sub *stripe.Subscription) *domain.ProviderSubscription {
	out := &domain.ProviderSubscription{
		ID:                 sub.ID,
		Status:             string(sub.Status),
		CurrentPeriodStart: unixTime(sub.CurrentPeriodStart),
		CurrentPeriodEnd:   unixTime(sub.CurrentPeriodEnd),
		CancelAtPeriodEnd:  sub.CancelAtPeriodEnd,
		TrialStart:         optionalUnixTime(sub.TrialStart),
		TrialEnd:           optionalUnixTime(sub.TrialEnd),
	}
	if sub.Customer != nil {
		out.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 {
		item := sub.Items.Data[0]
		out.ItemID = item.ID
		if item.Price != nil {
			out.PriceID = item.Price.ID
		}
	}
	return out
}

func priceFromStripe(p *stripe.Price) *domain.ProviderPrice {
	out := &domain.ProviderPrice{
		ID:          p.ID,
		AmountCents: p.UnitAmount,
		Currency:    string(p.Currency),
	}
	if p.Product != nil {
		out.ProductID = p.Product.ID
		out.ProductName = p.Product.Name
	}
	if p.Recurring != nil {
		out.Interval = domain.PlanInterval(p.Recurring.Interval)
	}
	return out
}

func unixTime(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func optionalUnixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
