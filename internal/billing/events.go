package billing

import (
	"encoding/json"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/stripe/stripe-go/v79"
)

// Stripe event types consumed by the reconciler.
const (
	EventCheckoutCompleted       = "checkout.session.completed"
	EventSubscriptionCreated     = "customer.subscription.created"
	EventSubscriptionUpdated     = "customer.subscription.updated"
	EventSubscriptionDeleted     = "customer.subscription.deleted"
	EventInvoicePaid             = "invoice.paid"
	EventInvoicePaymentSucceeded = "invoice.payment_succeeded"
	EventInvoicePaymentFailed    = "invoice.payment_failed"
)

// DecodeEvent converts a verified Stripe event into a domain billing event.
// Event types the reconciler does not act on decode to UnhandledEvent.
// A payload that does not match its declared type is an EINVALID error.
func DecodeEvent(event stripe.Event) (domain.BillingEvent, error) {
	const op = "billing.DecodeEvent"

	meta := domain.EventMeta{ID: event.ID, Type: string(event.Type)}
	var raw json.RawMessage
	if event.Data != nil {
		raw = event.Data.Raw
	}

	switch string(event.Type) {
	case EventCheckoutCompleted:
		var sess stripe.CheckoutSession
		if err := json.Unmarshal(raw, &sess); err != nil {
			return nil, domain.Wrap(err, domain.EINVALID, op, "malformed checkout session payload")
		}
		ev := domain.CheckoutCompleted{
			EventMeta:         meta,
			SessionID:         sess.ID,
			ClientReferenceID: sess.ClientReferenceID,
		}
		if sess.Customer != nil {
			ev.CustomerID = sess.Customer.ID
		}
		if sess.Subscription != nil {
			ev.SubscriptionID = sess.Subscription.ID
		}
		return ev, nil

	case EventSubscriptionCreated, EventSubscriptionUpdated:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, domain.Wrap(err, domain.EINVALID, op, "malformed subscription payload")
		}
		return domain.SubscriptionChanged{
			EventMeta:    meta,
			Created:      string(event.Type) == EventSubscriptionCreated,
			Subscription: *SubscriptionFromStripe(&sub),
		}, nil

	case EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			return nil, domain.Wrap(err, domain.EINVALID, op, "malformed subscription payload")
		}
		return domain.SubscriptionDeleted{
			EventMeta:    meta,
			Subscription: *SubscriptionFromStripe(&sub),
		}, nil

	case EventInvoicePaid, EventInvoicePaymentSucceeded:
		var inv stripe.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, domain.Wrap(err, domain.EINVALID, op, "malformed invoice payload")
		}
		customerID, subscriptionID := invoiceRefs(&inv)
		return domain.InvoicePaid{
			EventMeta:      meta,
			InvoiceID:      inv.ID,
			CustomerID:     customerID,
			SubscriptionID: subscriptionID,
			AmountPaid:     inv.AmountPaid,
		}, nil

	case EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(raw, &inv); err != nil {
			return nil, domain.Wrap(err, domain.EINVALID, op, "malformed invoice payload")
		}
		customerID, subscriptionID := invoiceRefs(&inv)
		return domain.InvoiceFailed{
			EventMeta:      meta,
			InvoiceID:      inv.ID,
			CustomerID:     customerID,
			SubscriptionID: subscriptionID,
			AttemptCount:   inv.AttemptCount,
		}, nil

	default:
		return domain.UnhandledEvent{EventMeta: meta}, nil
	}
}

func invoiceRefs(inv *stripe.Invoice) (customerID, subscriptionID string) {
	if inv.Customer != nil {
		customerID = inv.Customer.ID
	}
	if inv.Subscription != nil {
		subscriptionID = inv.Subscription.ID
	}
	return customerID, subscriptionID
}
