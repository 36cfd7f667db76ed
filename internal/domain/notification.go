package domain

import "fmt"

// BillingEmailKind identifies a transactional billing email.
type BillingEmailKind string

const (
	BillingEmailPaymentFailed         BillingEmailKind = "payment_failed"
	BillingEmailSubscriptionCanceled  BillingEmailKind = "subscription_canceled"
	BillingEmailCancellationScheduled BillingEmailKind = "cancellation_scheduled"
	BillingEmailPlanChanged           BillingEmailKind = "plan_changed"
)

// Valid reports whether k is a known email kind.
func (k BillingEmailKind) Valid() bool {
	switch k {
	case BillingEmailPaymentFailed, BillingEmailSubscriptionCanceled,
		BillingEmailCancellationScheduled, BillingEmailPlanChanged:
		return true
	default:
		return false
	}
}

// DunningReference keys the payment-failed email for one invoice attempt.
func DunningReference(invoiceID string, attempt int64) string {
	return fmt.Sprintf("dunning:%s:%d", invoiceID, attempt)
}
