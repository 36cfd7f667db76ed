package billing

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const testWebhookSecret = "whsec_test_secret"

func signedPayload(t *testing.T, secret string) ([]byte, string) {
	t.Helper()
	payload := []byte(fmt.Sprintf(`{
		"id": "evt_test",
		"object": "event",
		"type": "invoice.paid",
		"api_version": %q,
		"data": {"object": {"id": "in_1", "object": "invoice"}}
	}`, stripe.APIVersion))

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload:   payload,
		Secret:    secret,
		Timestamp: time.Now(),
	})
	return signed.Payload, signed.Header
}

func TestStripeService_VerifyWebhookSignature(t *testing.T) {
	svc := NewStripeService("sk_test_unused", testWebhookSecret)

	t.Run("valid signature", func(t *testing.T) {
		payload, header := signedPayload(t, testWebhookSecret)

		event, err := svc.VerifyWebhookSignature(payload, header)
		require.NoError(t, err)
		assert.Equal(t, "evt_test", event.ID)
		assert.Equal(t, stripe.EventType("invoice.paid"), event.Type)
	})

	t.Run("wrong secret", func(t *testing.T) {
		payload, header := signedPayload(t, "whsec_other")

		_, err := svc.VerifyWebhookSignature(payload, header)
		assert.Error(t, err)
	})

	t.Run("missing header", func(t *testing.T) {
		payload, _ := signedPayload(t, testWebhookSecret)

		_, err := svc.VerifyWebhookSignature(payload, "")
		assert.Error(t, err)
	})
}

func TestSubscriptionFromStripe(t *testing.T) {
	sub := &stripe.Subscription{
		ID:                 "sub_1",
		Customer:           &stripe.Customer{ID: "cus_1"},
		Status:             stripe.SubscriptionStatusPastDue,
		CurrentPeriodStart: 1767225600,
		CurrentPeriodEnd:   1769904000,
		Items: &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{
				{ID: "si_1", Price: &stripe.Price{ID: "price_starter"}},
			},
		},
	}

	got := SubscriptionFromStripe(sub)
	assert.Equal(t, "sub_1", got.ID)
	assert.Equal(t, "cus_1", got.CustomerID)
	assert.Equal(t, "past_due", got.Status)
	assert.Equal(t, "price_starter", got.PriceID)
	assert.Equal(t, "si_1", got.ItemID)
	assert.Nil(t, got.TrialStart)
	assert.Nil(t, got.TrialEnd)
	assert.Equal(t, time.Unix(1769904000, 0).UTC(), got.CurrentPeriodEnd)
}
