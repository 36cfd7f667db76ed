package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustomerService_GetByID(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("cus_1", 42)
	svc := NewCustomerService(store, discardLogger())

	got, err := svc.GetByID(context.Background(), customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "cus_1", got.StripeCustomerID)
	assert.Equal(t, 42, got.Credits)
	assert.Equal(t, domain.SubscriptionTierFree, got.SubscriptionTier)

	_, err = svc.GetByID(context.Background(), uuid.New())
	assert.Equal(t, domain.ENOTFOUND, domain.ErrorCode(err))
}

func TestCustomerService_Ledger(t *testing.T) {
	store := newFakeStore()
	customer := store.addCustomer("cus_1", 0)
	other := store.addCustomer("cus_2", 0)
	for i := 1; i <= 3; i++ {
		_, err := store.InsertLedgerEntry(context.Background(), repository.InsertLedgerEntryParams{
			CustomerID:   customer.ID,
			Delta:        int32(i),
			BalanceAfter: int32(i),
			Reason:       string(domain.LedgerReasonPlanGrant),
			Reference:    fmt.Sprintf("invoice:in_%d", i),
		})
		require.NoError(t, err)
	}
	_, err := store.InsertLedgerEntry(context.Background(), repository.InsertLedgerEntryParams{
		CustomerID: other.ID,
		Delta:      9,
		Reason:     string(domain.LedgerReasonAdjustment),
		Reference:  "adjustment:1",
	})
	require.NoError(t, err)

	svc := NewCustomerService(store, discardLogger())

	tests := []struct {
		name       string
		id         uuid.UUID
		limit      int
		wantDeltas []int
		wantCode   string
	}{
		{"default limit newest first", customer.ID, 0, []int{3, 2, 1}, ""},
		{"limited", customer.ID, 2, []int{3, 2}, ""},
		{"limit too large", customer.ID, MaxLedgerLimit + 1, nil, domain.EINVALID},
		{"unknown customer", uuid.New(), 10, nil, domain.ENOTFOUND},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, err := svc.Ledger(context.Background(), tt.id, tt.limit)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, domain.ErrorCode(err))
				return
			}
			require.NoError(t, err)

			var deltas []int
			for _, e := range entries {
				deltas = append(deltas, e.Delta)
			}
			assert.Equal(t, tt.wantDeltas, deltas)
		})
	}
}
