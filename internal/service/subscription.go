package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/worker"
	"github.com/google/uuid"
)

// periodEndLayout formats period end dates in user-facing messages.
const periodEndLayout = "January 2, 2006"

// =============================================================================
// Interface Definition
// =============================================================================

// SubscriptionService performs customer-initiated subscription changes.
// Stripe is called first; local state follows, and webhooks converge any
// local write that fails afterwards.
type SubscriptionService interface {
	// Current returns the customer's active or trialing subscription.
	// Returns domain.ENOTFOUND if there is none.
	Current(ctx context.Context, customerID uuid.UUID) (*domain.Subscription, error)

	// CancelAtPeriodEnd schedules the current subscription to end when the
	// billing period closes. Calling it again is a no-op that succeeds.
	// Returns domain.ENOTFOUND, domain.ESTATE or domain.EUPSTREAM.
	CancelAtPeriodEnd(ctx context.Context, customerID uuid.UUID) (*domain.CancelResult, error)

	// Resume clears a scheduled cancellation. A subscription that is not
	// scheduled to cancel is left alone.
	Resume(ctx context.Context, customerID uuid.UUID) (*domain.ResumeResult, error)

	// ChangePlan moves the current subscription to another active plan.
	// Returns domain.ESTATE when the target is the current price or not in
	// the catalog, and domain.EUPSTREAM if Stripe fails.
	ChangePlan(ctx context.Context, customerID uuid.UUID, priceID string) (*domain.ChangePlanResult, error)

	// StartCheckout creates a hosted checkout session for a new subscription
	// and returns its URL.
	StartCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error)

	// PortalURL creates a billing portal session and returns its URL.
	// Returns domain.ESTATE if the customer has no Stripe customer.
	PortalURL(ctx context.Context, customerID uuid.UUID, returnURL string) (string, error)
}

// =============================================================================
// Implementation
// =============================================================================

type subscriptionService struct {
	store   repository.Store
	billing billing.Service
	plans   PlanService
	logger  *slog.Logger
}

// NewSubscriptionService creates a new SubscriptionService.
func NewSubscriptionService(
	store repository.Store,
	billingService billing.Service,
	plans PlanService,
	logger *slog.Logger,
) SubscriptionService {
	return &subscriptionService{
		store:   store,
		billing: billingService,
		plans:   plans,
		logger:  logger,
	}
}

func (s *subscriptionService) Current(ctx context.Context, customerID uuid.UUID) (*domain.Subscription, error) {
	return s.current(ctx, "SubscriptionService.Current", customerID)
}

func (s *subscriptionService) current(ctx context.Context, op string, customerID uuid.UUID) (*domain.Subscription, error) {
	row, err := s.store.GetCurrentSubscriptionByCustomer(ctx, repository.GetCurrentSubscriptionByCustomerParams{
		CustomerID: customerID,
		Statuses:   currentStatuses(),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.Errorf(domain.ENOTFOUND, op, "No active subscription for customer %s", customerID)
		}
		return nil, domain.Internal(err, op, "Failed to retrieve subscription")
	}
	return repoSubscriptionToDomain(row), nil
}

// =============================================================================
// Cancel / Resume
// =============================================================================

func (s *subscriptionService) CancelAtPeriodEnd(ctx context.Context, customerID uuid.UUID) (*domain.CancelResult, error) {
	const op = "SubscriptionService.CancelAtPeriodEnd"

	sub, err := s.current(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	if sub.CancelAtPeriodEnd {
		return &domain.CancelResult{
			Message:   cancelMessage(sub.CurrentPeriodEnd),
			PeriodEnd: sub.CurrentPeriodEnd,
		}, nil
	}
	if sub.StripeSubscriptionID == "" {
		return nil, domain.InvalidState(op, "Subscription has no billing provider reference")
	}

	updated, err := s.billing.CancelAtPeriodEnd(ctx, sub.StripeSubscriptionID)
	metrics.StripeCall("cancel_subscription", err)
	if err != nil {
		return nil, domain.Upstream(err, op, "Failed to cancel subscription with the billing provider")
	}

	periodEnd := sub.CurrentPeriodEnd
	if !updated.CurrentPeriodEnd.IsZero() {
		periodEnd = updated.CurrentPeriodEnd
	}

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.SetSubscriptionCancelAtPeriodEnd(ctx, repository.SetSubscriptionCancelAtPeriodEndParams{
			ID:                sub.ID,
			CancelAtPeriodEnd: true,
		}); err != nil {
			return err
		}
		_, err := worker.EnqueueBillingEmail(ctx, q, worker.BillingEmailPayload{
			Kind:       domain.BillingEmailCancellationScheduled,
			CustomerID: customerID,
			Tier:       sub.Tier,
			PeriodEnd:  periodEnd,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to record cancellation locally",
			"customer_id", customerID,
			"subscription_id", sub.StripeSubscriptionID,
			"error", err,
		)
	}

	metrics.SubscriptionChanges.WithLabelValues("cancel").Inc()
	s.logger.Info("subscription set to cancel at period end",
		"customer_id", customerID,
		"subscription_id", sub.StripeSubscriptionID,
		"period_end", periodEnd,
	)

	return &domain.CancelResult{
		Message:   cancelMessage(periodEnd),
		PeriodEnd: periodEnd,
	}, nil
}

func (s *subscriptionService) Resume(ctx context.Context, customerID uuid.UUID) (*domain.ResumeResult, error) {
	const op = "SubscriptionService.Resume"

	sub, err := s.current(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	if !sub.CancelAtPeriodEnd {
		return &domain.ResumeResult{
			Message:   renewMessage(sub.CurrentPeriodEnd),
			PeriodEnd: sub.CurrentPeriodEnd,
		}, nil
	}
	if sub.StripeSubscriptionID == "" {
		return nil, domain.InvalidState(op, "Subscription has no billing provider reference")
	}

	updated, err := s.billing.Resume(ctx, sub.StripeSubscriptionID)
	metrics.StripeCall("resume_subscription", err)
	if err != nil {
		return nil, domain.Upstream(err, op, "Failed to resume subscription with the billing provider")
	}

	periodEnd := sub.CurrentPeriodEnd
	if !updated.CurrentPeriodEnd.IsZero() {
		periodEnd = updated.CurrentPeriodEnd
	}

	if err := s.store.SetSubscriptionCancelAtPeriodEnd(ctx, repository.SetSubscriptionCancelAtPeriodEndParams{
		ID:                sub.ID,
		CancelAtPeriodEnd: false,
	}); err != nil {
		s.logger.Error("failed to record resume locally",
			"customer_id", customerID,
			"subscription_id", sub.StripeSubscriptionID,
			"error", err,
		)
	}

	metrics.SubscriptionChanges.WithLabelValues("resume").Inc()
	s.logger.Info("subscription resumed",
		"customer_id", customerID,
		"subscription_id", sub.StripeSubscriptionID,
	)

	return &domain.ResumeResult{
		Message:   renewMessage(periodEnd),
		PeriodEnd: periodEnd,
	}, nil
}

func cancelMessage(periodEnd time.Time) string {
	return fmt.Sprintf("Subscription will cancel on %s", periodEnd.Format(periodEndLayout))
}

func renewMessage(periodEnd time.Time) string {
	return fmt.Sprintf("Subscription is active and will renew on %s", periodEnd.Format(periodEndLayout))
}

// =============================================================================
// Change plan
// =============================================================================

func (s *subscriptionService) ChangePlan(ctx context.Context, customerID uuid.UUID, priceID string) (*domain.ChangePlanResult, error) {
	const op = "SubscriptionService.ChangePlan"

	priceID = strings.TrimSpace(priceID)
	if priceID == "" {
		return nil, domain.Invalid(op, "price_id is required")
	}

	sub, err := s.current(ctx, op, customerID)
	if err != nil {
		return nil, err
	}

	if sub.StripePriceID == priceID {
		return nil, domain.InvalidState(op, "Subscription is already on this plan")
	}

	plan, err := s.plans.GetByPriceID(ctx, priceID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return nil, domain.InvalidState(op, "Plan is not available")
		}
		return nil, err
	}
	if sub.StripeSubscriptionID == "" {
		return nil, domain.InvalidState(op, "Subscription has no billing provider reference")
	}

	updated, err := s.billing.ChangePrice(ctx, sub.StripeSubscriptionID, sub.StripeItemID, priceID)
	metrics.StripeCall("change_price", err)
	if err != nil {
		return nil, domain.Upstream(err, op, "Failed to change plan with the billing provider")
	}

	periodEnd := sub.CurrentPeriodEnd
	if !updated.CurrentPeriodEnd.IsZero() {
		periodEnd = updated.CurrentPeriodEnd
	}

	err = s.store.ExecTx(ctx, func(q repository.Querier) error {
		if err := q.UpdateSubscriptionPrice(ctx, repository.UpdateSubscriptionPriceParams{
			ID:            sub.ID,
			StripePriceID: priceID,
			Tier:          string(plan.Tier),
		}); err != nil {
			return err
		}
		if err := q.UpdateCustomerTier(ctx, repository.UpdateCustomerTierParams{
			ID:               customerID,
			SubscriptionTier: string(domain.EffectiveTier(plan.Tier, sub.Status)),
		}); err != nil {
			return err
		}
		_, err := worker.EnqueueBillingEmail(ctx, q, worker.BillingEmailPayload{
			Kind:       domain.BillingEmailPlanChanged,
			CustomerID: customerID,
			Tier:       plan.Tier,
			PlanName:   plan.Name,
			PeriodEnd:  periodEnd,
		})
		return err
	})
	if err != nil {
		s.logger.Error("failed to record plan change locally",
			"customer_id", customerID,
			"subscription_id", sub.StripeSubscriptionID,
			"price_id", priceID,
			"error", err,
		)
	}

	metrics.SubscriptionChanges.WithLabelValues("change_plan").Inc()
	s.logger.Info("subscription plan changed",
		"customer_id", customerID,
		"subscription_id", sub.StripeSubscriptionID,
		"from_price", sub.StripePriceID,
		"to_price", priceID,
	)

	return &domain.ChangePlanResult{
		Message:   fmt.Sprintf("Plan changed to %s", plan.Name),
		PlanName:  plan.Name,
		Tier:      plan.Tier,
		PeriodEnd: periodEnd,
	}, nil
}

// =============================================================================
// Checkout / Portal
// =============================================================================

func (s *subscriptionService) StartCheckout(ctx context.Context, req domain.CheckoutRequest) (string, error) {
	const op = "SubscriptionService.StartCheckout"

	customer, err := s.getCustomer(ctx, op, req.CustomerID)
	if err != nil {
		return "", err
	}

	plan, err := s.plans.GetByPriceID(ctx, req.PriceID)
	if err != nil {
		if domain.IsCode(err, domain.ENOTFOUND) {
			return "", domain.Invalid(op, "Plan is not available")
		}
		return "", err
	}

	if _, err := s.current(ctx, op, req.CustomerID); err == nil {
		return "", domain.InvalidState(op, "Customer already has an active subscription")
	} else if !domain.IsCode(err, domain.ENOTFOUND) {
		return "", err
	}

	url, err := s.billing.CreateCheckoutSession(ctx, billing.CheckoutParams{
		CustomerID:       customer.ID.String(),
		StripeCustomerID: customer.StripeCustomerID,
		Email:            customer.Email,
		PriceID:          plan.StripePriceID,
		TrialDays:        plan.TrialDays,
		SuccessURL:       req.SuccessURL,
		CancelURL:        req.CancelURL,
	})
	metrics.StripeCall("create_checkout_session", err)
	if err != nil {
		return "", domain.Upstream(err, op, "Failed to start checkout with the billing provider")
	}

	s.logger.Info("checkout started",
		"customer_id", customer.ID,
		"price_id", plan.StripePriceID,
	)
	return url, nil
}

func (s *subscriptionService) PortalURL(ctx context.Context, customerID uuid.UUID, returnURL string) (string, error) {
	const op = "SubscriptionService.PortalURL"

	customer, err := s.getCustomer(ctx, op, customerID)
	if err != nil {
		return "", err
	}
	if customer.StripeCustomerID == "" {
		return "", domain.InvalidState(op, "Customer has no billing account")
	}

	url, err := s.billing.CreatePortalSession(ctx, customer.StripeCustomerID, returnURL)
	metrics.StripeCall("create_portal_session", err)
	if err != nil {
		return "", domain.Upstream(err, op, "Failed to open billing portal")
	}
	return url, nil
}

func (s *subscriptionService) getCustomer(ctx context.Context, op string, id uuid.UUID) (*domain.Customer, error) {
	row, err := s.store.GetCustomerByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.NotFound(op, "customer", id.String())
		}
		return nil, domain.Internal(err, op, "Failed to retrieve customer")
	}
	return repoCustomerToDomain(row), nil
}

var _ SubscriptionService = (*subscriptionService)(nil)
