package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/service"
	"github.com/google/uuid"
)

// CustomerHandler exposes customer balances and credit history.
type CustomerHandler struct {
	customers service.CustomerService
	logger    *slog.Logger
}

// NewCustomerHandler creates a new CustomerHandler.
func NewCustomerHandler(customers service.CustomerService, logger *slog.Logger) *CustomerHandler {
	return &CustomerHandler{
		customers: customers,
		logger:    logger,
	}
}

// RegisterRoutes registers customer routes on the provided mux.
func (h *CustomerHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/customers/{id}", requireAdmin(http.HandlerFunc(h.GetCustomer)))
	mux.Handle("GET /api/customers/{id}/ledger", requireAdmin(http.HandlerFunc(h.Ledger)))
}

// CustomerResponse is the JSON form of a customer.
type CustomerResponse struct {
	ID               uuid.UUID               `json:"id"`
	Email            string                  `json:"email"`
	Name             string                  `json:"name,omitempty"`
	StripeCustomerID string                  `json:"stripe_customer_id,omitempty"`
	SubscriptionTier domain.SubscriptionTier `json:"subscription_tier"`
	Credits          int                     `json:"credits"`
	CreatedAt        time.Time               `json:"created_at"`
}

// LedgerEntryResponse is the JSON form of a credit ledger entry.
type LedgerEntryResponse struct {
	ID           uuid.UUID           `json:"id"`
	Delta        int                 `json:"delta"`
	BalanceAfter int                 `json:"balance_after"`
	Reason       domain.LedgerReason `json:"reason"`
	Reference    string              `json:"reference"`
	CreatedAt    time.Time           `json:"created_at"`
}

// GetCustomer returns a customer with their balance and tier.
func (h *CustomerHandler) GetCustomer(w http.ResponseWriter, r *http.Request) {
	const op = "CustomerHandler.GetCustomer"

	id, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	c, err := h.customers.GetByID(r.Context(), id)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, CustomerResponse{
		ID:               c.ID,
		Email:            c.Email,
		Name:             c.Name,
		StripeCustomerID: c.StripeCustomerID,
		SubscriptionTier: c.SubscriptionTier,
		Credits:          c.Credits,
		CreatedAt:        c.CreatedAt,
	})
}

// Ledger returns recent ledger entries. ?limit=N caps the count.
func (h *CustomerHandler) Ledger(w http.ResponseWriter, r *http.Request) {
	const op = "CustomerHandler.Ledger"

	id, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil || limit < 1 {
			ErrorResponse(w, r, h.logger, domain.NewValidationError(op, "limit", "must be a positive integer"))
			return
		}
	}

	entries, err := h.customers.Ledger(r.Context(), id, limit)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	resp := make([]LedgerEntryResponse, len(entries))
	for i, e := range entries {
		resp[i] = LedgerEntryResponse{
			ID:           e.ID,
			Delta:        e.Delta,
			BalanceAfter: e.BalanceAfter,
			Reason:       e.Reason,
			Reference:    e.Reference,
			CreatedAt:    e.CreatedAt,
		}
	}

	writeJSON(w, http.StatusOK, map[string][]LedgerEntryResponse{"entries": resp})
}
