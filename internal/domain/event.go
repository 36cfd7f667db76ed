// Package domain contains core business types and interfaces.
//
// This file defines billing lifecycle events. Each provider event type maps
// to exactly one variant; the set is closed by the unexported marker method,
// so a type switch over BillingEvent covers every case that exists.
package domain

// BillingEvent is a billing lifecycle event received from the payment provider.
type BillingEvent interface {
	// EventID is the provider's unique event identifier.
	EventID() string
	isBillingEvent()
}

// EventMeta carries the provider envelope shared by all events.
type EventMeta struct {
	ID   string
	Type string
}

func (m EventMeta) EventID() string { return m.ID }
func (EventMeta) isBillingEvent() {}

// CheckoutCompleted is sent when a customer finishes a checkout session.
type CheckoutCompleted struct {
	EventMeta
	SessionID         string
	CustomerID        string
	SubscriptionID    string
	ClientReferenceID string // Local customer ID passed when the session was created
}

// SubscriptionChanged is sent when a subscription is created or updated.
type SubscriptionChanged struct {
	EventMeta
	Created      bool
	Subscription ProviderSubscription
}

// SubscriptionDeleted is sent when a subscription ends.
type SubscriptionDeleted struct {
	EventMeta
	Subscription ProviderSubscription
}

// InvoicePaid is sent when an invoice payment succeeds.
type InvoicePaid struct {
	EventMeta
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AmountPaid     int64
}

// InvoiceFailed is sent when an invoice payment fails.
type InvoiceFailed struct {
	EventMeta
	InvoiceID      string
	CustomerID     string
	SubscriptionID string
	AttemptCount   int64
}

// UnhandledEvent is any provider event the reconciler does not act on.
type UnhandledEvent struct {
	EventMeta
}

// Outcome is the result of reconciling one event.
type Outcome string

const (
	OutcomeApplied Outcome = "applied" // State was written
	OutcomeSkipped Outcome = "skipped" // Event could not be applied (missing data or unknown records)
	OutcomeIgnored Outcome = "ignored" // Event type is not handled
	OutcomeFailed  Outcome = "failed"  // Reconciliation errored; the provider redelivers
)

// IsFinal reports whether an event with this outcome needs no further
// processing on redelivery.
func (o Outcome) IsFinal() bool {
	return o == OutcomeApplied || o == OutcomeSkipped || o == OutcomeIgnored
}
