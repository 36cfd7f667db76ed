package service

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/worker"
	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Reconciler converges local billing state with events from Stripe.
//
// Events that reference unknown customers or subscriptions, that lack the
// IDs needed to act, or that arrive for a subscription already canceled are
// logged and reported as domain.OutcomeSkipped with a nil error. A canceled
// subscription is terminal. Store and Stripe failures are returned so the webhook answers
// with an error and Stripe redelivers; every mutation is idempotent.
type Reconciler interface {
	Reconcile(ctx context.Context, event domain.BillingEvent) (domain.Outcome, error)
}

// TierResolver maps a Stripe price to a tier.
type TierResolver interface {
	TierForPrice(ctx context.Context, priceID string) (domain.SubscriptionTier, error)
}

// CreditGranter adds per-period credits for a paid invoice.
type CreditGranter interface {
	GrantForInvoice(ctx context.Context, q repository.Querier, customerID uuid.UUID, tier domain.SubscriptionTier, invoiceID string) (int, error)
}

// =============================================================================
// Implementation
// =============================================================================

type reconciler struct {
	store   repository.Store
	billing billing.Service
	tiers   TierResolver
	grants  CreditGranter
	logger  *slog.Logger
}

// NewReconciler creates a new Reconciler.
func NewReconciler(
	store repository.Store,
	billingService billing.Service,
	tiers TierResolver,
	grants CreditGranter,
	logger *slog.Logger,
) Reconciler {
	return &reconciler{
		store:   store,
		billing: billingService,
		tiers:   tiers,
		grants:  grants,
		logger:  logger,
	}
}

// Reconcile applies one event.
func (r *reconciler) Reconcile(ctx context.Context, event domain.BillingEvent) (domain.Outcome, error) {
	var err error
	switch e := event.(type) {
	case domain.CheckoutCompleted:
		err = r.checkoutCompleted(ctx, e)
	case domain.SubscriptionChanged:
		err = r.subscriptionChanged(ctx, e)
	case domain.SubscriptionDeleted:
		err = r.subscriptionDeleted(ctx, e)
	case domain.InvoicePaid:
		err = r.invoicePaid(ctx, e)
	case domain.InvoiceFailed:
		err = r.invoiceFailed(ctx, e)
	default:
		r.logger.Debug("ignoring billing event", "event_id", event.EventID())
		return domain.OutcomeIgnored, nil
	}

	if err == nil {
		return domain.OutcomeApplied, nil
	}
	if domain.IsCode(err, domain.ENOTFOUND) || domain.IsCode(err, domain.EINVALID) || domain.IsCode(err, domain.ESTATE) {
		r.logger.Warn("billing event skipped",
			"event_id", event.EventID(),
			"reason", domain.ErrorMessage(err),
			"op", domain.ErrorOp(err),
		)
		return domain.OutcomeSkipped, nil
	}
	return "", err
}

// =============================================================================
// Checkout
// =============================================================================

func (r *reconciler) checkoutCompleted(ctx context.Context, e domain.CheckoutCompleted) error {
	const op = "Reconciler.CheckoutCompleted"

	if e.CustomerID == "" || e.SubscriptionID == "" {
		return domain.Invalid(op, "checkout session has no customer or subscription")
	}

	sub, err := r.billing.GetSubscription(ctx, e.SubscriptionID)
	metrics.StripeCall("get_subscription", err)
	if err != nil {
		return domain.Upstream(err, op, "Failed to fetch subscription from the billing provider")
	}

	tier, err := r.tiers.TierForPrice(ctx, sub.PriceID)
	if err != nil {
		return err
	}

	return r.store.ExecTx(ctx, func(q repository.Querier) error {
		customer, err := r.resolveCheckoutCustomer(ctx, q, e)
		if err != nil {
			return err
		}
		row, err := r.applySubscription(ctx, q, customer.ID, sub, tier)
		if err != nil {
			return err
		}

		r.logger.Info("checkout reconciled",
			"event_id", e.ID,
			"customer_id", customer.ID,
			"subscription_id", row.StripeSubscriptionID,
			"tier", tier,
			"status", row.Status,
		)
		return nil
	})
}

// resolveCheckoutCustomer finds the local customer for a checkout. A Stripe
// customer not yet known locally is linked through the session's
// client_reference_id, which carries the local customer ID.
func (r *reconciler) resolveCheckoutCustomer(ctx context.Context, q repository.Querier, e domain.CheckoutCompleted) (repository.Customer, error) {
	const op = "Reconciler.CheckoutCompleted"

	customer, err := q.GetCustomerByStripeCustomerID(ctx, e.CustomerID)
	if err == nil {
		return customer, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return repository.Customer{}, domain.Internal(err, op, "Failed to retrieve customer")
	}

	if e.ClientReferenceID == "" {
		return repository.Customer{}, domain.NotFound(op, "customer", e.CustomerID)
	}
	localID, err := uuid.Parse(e.ClientReferenceID)
	if err != nil {
		return repository.Customer{}, domain.Invalid(op, "client_reference_id is not a customer ID")
	}

	customer, err = q.GetCustomerByID(ctx, localID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return repository.Customer{}, domain.NotFound(op, "customer", e.ClientReferenceID)
		}
		return repository.Customer{}, domain.Internal(err, op, "Failed to retrieve customer")
	}

	n, err := q.LinkStripeCustomer(ctx, repository.LinkStripeCustomerParams{
		StripeCustomerID: e.CustomerID,
		ID:               localID,
	})
	if err != nil {
		return repository.Customer{}, domain.Internal(err, op, "Failed to link Stripe customer")
	}
	if n == 0 {
		return repository.Customer{}, domain.Invalid(op, "customer is linked to a different Stripe customer")
	}

	r.logger.Info("linked Stripe customer",
		"customer_id", localID,
		"stripe_customer_id", e.CustomerID,
	)
	customer.StripeCustomerID = sql.NullString{String: e.CustomerID, Valid: true}
	return customer, nil
}

// =============================================================================
// Subscription created / updated / deleted
// =============================================================================

func (r *reconciler) subscriptionChanged(ctx context.Context, e domain.SubscriptionChanged) error {
	const op = "Reconciler.SubscriptionChanged"

	sub := e.Subscription
	if sub.ID == "" || sub.CustomerID == "" {
		return domain.Invalid(op, "subscription has no ID or customer")
	}

	tier, err := r.tiers.TierForPrice(ctx, sub.PriceID)
	if err != nil {
		return err
	}

	return r.store.ExecTx(ctx, func(q repository.Querier) error {
		customer, err := q.GetCustomerByStripeCustomerID(ctx, sub.CustomerID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "customer", sub.CustomerID)
			}
			return domain.Internal(err, op, "Failed to retrieve customer")
		}

		row, err := r.applySubscription(ctx, q, customer.ID, &sub, tier)
		if err != nil {
			return err
		}

		r.logger.Info("subscription reconciled",
			"event_id", e.ID,
			"created", e.Created,
			"customer_id", customer.ID,
			"subscription_id", row.StripeSubscriptionID,
			"tier", tier,
			"status", row.Status,
		)
		return nil
	})
}

func (r *reconciler) subscriptionDeleted(ctx context.Context, e domain.SubscriptionDeleted) error {
	const op = "Reconciler.SubscriptionDeleted"

	if e.Subscription.ID == "" {
		return domain.Invalid(op, "subscription has no ID")
	}

	return r.store.ExecTx(ctx, func(q repository.Querier) error {
		existing, err := q.GetSubscriptionByStripeID(ctx, e.Subscription.ID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "subscription", e.Subscription.ID)
			}
			return domain.Internal(err, op, "Failed to retrieve subscription")
		}

		row, err := q.MarkSubscriptionCanceled(ctx, e.Subscription.ID)
		if err != nil {
			return domain.Internal(err, op, "Failed to cancel subscription")
		}

		// A customer with another current subscription keeps its tier.
		tier := domain.SubscriptionTierFree
		other, err := q.GetCurrentSubscriptionByCustomer(ctx, repository.GetCurrentSubscriptionByCustomerParams{
			CustomerID: row.CustomerID,
			Statuses:   currentStatuses(),
		})
		switch {
		case err == nil:
			tier = domain.EffectiveTier(domain.SubscriptionTier(other.Tier), domain.SubscriptionStatus(other.Status))
		case !errors.Is(err, sql.ErrNoRows):
			return domain.Internal(err, op, "Failed to check remaining subscriptions")
		}

		if err := q.UpdateCustomerTier(ctx, repository.UpdateCustomerTierParams{
			ID:               row.CustomerID,
			SubscriptionTier: string(tier),
		}); err != nil {
			return domain.Internal(err, op, "Failed to update customer tier")
		}

		if existing.Status != string(domain.SubscriptionStatusCanceled) {
			if _, err := worker.EnqueueBillingEmail(ctx, q, worker.BillingEmailPayload{
				Kind:       domain.BillingEmailSubscriptionCanceled,
				CustomerID: row.CustomerID,
				Tier:       domain.SubscriptionTier(existing.Tier),
				PeriodEnd:  row.CurrentPeriodEnd,
			}); err != nil {
				return domain.Internal(err, op, "Failed to enqueue cancellation email")
			}
		}

		r.logger.Info("subscription canceled",
			"event_id", e.ID,
			"customer_id", row.CustomerID,
			"subscription_id", row.StripeSubscriptionID,
			"customer_tier", tier,
		)
		return nil
	})
}

// =============================================================================
// Invoices
// =============================================================================

func (r *reconciler) invoicePaid(ctx context.Context, e domain.InvoicePaid) error {
	const op = "Reconciler.InvoicePaid"

	if e.SubscriptionID == "" {
		return domain.Invalid(op, "invoice has no subscription")
	}

	// An invoice can arrive before the subscription events; backfill the
	// row from Stripe so the grant is not lost.
	var (
		backfill *domain.ProviderSubscription
		tier     domain.SubscriptionTier
	)
	existing, err := r.store.GetSubscriptionByStripeID(ctx, e.SubscriptionID)
	switch {
	case err == nil && existing.Status == string(domain.SubscriptionStatusCanceled):
		return errSubscriptionCanceled(op, e.SubscriptionID)
	case errors.Is(err, sql.ErrNoRows):
		backfill, err = r.billing.GetSubscription(ctx, e.SubscriptionID)
		metrics.StripeCall("get_subscription", err)
		if err != nil {
			return domain.Upstream(err, op, "Failed to fetch subscription from the billing provider")
		}
		if tier, err = r.tiers.TierForPrice(ctx, backfill.PriceID); err != nil {
			return err
		}
	case err != nil:
		return domain.Internal(err, op, "Failed to retrieve subscription")
	}

	return r.store.ExecTx(ctx, func(q repository.Querier) error {
		if backfill != nil {
			customer, err := q.GetCustomerByStripeCustomerID(ctx, backfill.CustomerID)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return domain.NotFound(op, "customer", backfill.CustomerID)
				}
				return domain.Internal(err, op, "Failed to retrieve customer")
			}
			backfilled, err := r.applySubscription(ctx, q, customer.ID, backfill, tier)
			if err != nil {
				return err
			}
			if backfilled.Status == string(domain.SubscriptionStatusCanceled) {
				r.logger.Info("backfilled canceled subscription, no credits granted",
					"event_id", e.ID,
					"invoice_id", e.InvoiceID,
					"subscription_id", backfilled.StripeSubscriptionID,
				)
				return nil
			}
		}

		row, err := q.UpdateSubscriptionStatusByStripeID(ctx, repository.UpdateSubscriptionStatusByStripeIDParams{
			StripeSubscriptionID: e.SubscriptionID,
			Status:               string(domain.SubscriptionStatusActive),
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				// Canceled between the read above and this update.
				return errSubscriptionCanceled(op, e.SubscriptionID)
			}
			return domain.Internal(err, op, "Failed to update subscription status")
		}

		rowTier := domain.SubscriptionTier(row.Tier)
		if err := q.UpdateCustomerTier(ctx, repository.UpdateCustomerTierParams{
			ID:               row.CustomerID,
			SubscriptionTier: string(domain.EffectiveTier(rowTier, domain.SubscriptionStatusActive)),
		}); err != nil {
			return domain.Internal(err, op, "Failed to update customer tier")
		}

		granted := 0
		if e.AmountPaid > 0 {
			granted, err = r.grants.GrantForInvoice(ctx, q, row.CustomerID, rowTier, e.InvoiceID)
			if err != nil {
				return err
			}
		}

		r.logger.Info("invoice paid",
			"event_id", e.ID,
			"invoice_id", e.InvoiceID,
			"customer_id", row.CustomerID,
			"subscription_id", row.StripeSubscriptionID,
			"credits_granted", granted,
		)
		return nil
	})
}

func (r *reconciler) invoiceFailed(ctx context.Context, e domain.InvoiceFailed) error {
	const op = "Reconciler.InvoiceFailed"

	if e.SubscriptionID == "" {
		return domain.Invalid(op, "invoice has no subscription")
	}

	return r.store.ExecTx(ctx, func(q repository.Querier) error {
		existing, err := q.GetSubscriptionByStripeID(ctx, e.SubscriptionID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return domain.NotFound(op, "subscription", e.SubscriptionID)
			}
			return domain.Internal(err, op, "Failed to retrieve subscription")
		}
		if existing.Status == string(domain.SubscriptionStatusCanceled) {
			return errSubscriptionCanceled(op, e.SubscriptionID)
		}

		row, err := q.UpdateSubscriptionStatusByStripeID(ctx, repository.UpdateSubscriptionStatusByStripeIDParams{
			StripeSubscriptionID: e.SubscriptionID,
			Status:               string(domain.SubscriptionStatusPastDue),
		})
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return errSubscriptionCanceled(op, e.SubscriptionID)
			}
			return domain.Internal(err, op, "Failed to update subscription status")
		}

		rowTier := domain.SubscriptionTier(row.Tier)
		if err := q.UpdateCustomerTier(ctx, repository.UpdateCustomerTierParams{
			ID:               row.CustomerID,
			SubscriptionTier: string(domain.EffectiveTier(rowTier, domain.SubscriptionStatusPastDue)),
		}); err != nil {
			return domain.Internal(err, op, "Failed to update customer tier")
		}

		// One dunning email per invoice attempt, however often Stripe
		// delivers the event.
		_, err = worker.EnqueueBillingEmail(ctx, q, worker.BillingEmailPayload{
			Kind:         domain.BillingEmailPaymentFailed,
			CustomerID:   row.CustomerID,
			Tier:         rowTier,
			PeriodEnd:    row.CurrentPeriodEnd,
			AttemptCount: e.AttemptCount,
		}, worker.WithDedupKey(domain.DunningReference(dunningInvoiceKey(e), e.AttemptCount)))
		switch {
		case errors.Is(err, worker.ErrDuplicateJob):
			r.logger.Debug("dunning email already queued",
				"event_id", e.ID,
				"invoice_id", e.InvoiceID,
				"attempt", e.AttemptCount,
			)
		case err != nil:
			return domain.Internal(err, op, "Failed to enqueue dunning email")
		}

		r.logger.Warn("invoice payment failed",
			"event_id", e.ID,
			"invoice_id", e.InvoiceID,
			"customer_id", row.CustomerID,
			"subscription_id", row.StripeSubscriptionID,
			"attempt", e.AttemptCount,
		)
		return nil
	})
}

// =============================================================================
// Shared
// =============================================================================

// applySubscription upserts the local row for a provider subscription and
// propagates the resulting tier to the customer.
func (r *reconciler) applySubscription(
	ctx context.Context,
	q repository.Querier,
	customerID uuid.UUID,
	sub *domain.ProviderSubscription,
	tier domain.SubscriptionTier,
) (repository.Subscription, error) {
	const op = "Reconciler.applySubscription"

	status := domain.NormalizeStatus(sub.Status)
	row, err := q.UpsertSubscription(ctx, repository.UpsertSubscriptionParams{
		CustomerID:           customerID,
		StripeSubscriptionID: sub.ID,
		StripePriceID:        sub.PriceID,
		StripeItemID:         sub.ItemID,
		Tier:                 string(tier),
		Status:               string(status),
		CurrentPeriodStart:   sub.CurrentPeriodStart,
		CurrentPeriodEnd:     sub.CurrentPeriodEnd,
		CancelAtPeriodEnd:    sub.CancelAtPeriodEnd,
		TrialStart:           domain.ToNullTime(sub.TrialStart),
		TrialEnd:             domain.ToNullTime(sub.TrialEnd),
	})
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The upsert leaves canceled rows alone unless the update cancels too.
			return repository.Subscription{}, errSubscriptionCanceled(op, sub.ID)
		}
		return repository.Subscription{}, domain.Internal(err, op, "Failed to upsert subscription")
	}

	if err := q.UpdateCustomerTier(ctx, repository.UpdateCustomerTierParams{
		ID:               customerID,
		SubscriptionTier: string(domain.EffectiveTier(tier, status)),
	}); err != nil {
		return repository.Subscription{}, domain.Internal(err, op, "Failed to update customer tier")
	}

	return row, nil
}

func errSubscriptionCanceled(op, stripeSubscriptionID string) error {
	return domain.InvalidState(op, "Subscription "+stripeSubscriptionID+" is already canceled")
}

// dunningInvoiceKey identifies the failed invoice, falling back to the event
// when Stripe omits the invoice ID.
func dunningInvoiceKey(e domain.InvoiceFailed) string {
	if e.InvoiceID != "" {
		return e.InvoiceID
	}
	return e.ID
}

var _ Reconciler = (*reconciler)(nil)
