// Package handler contains the HTTP handlers for the samplebase admin API.
//
// This file implements subscription management for a customer.
//
// Routes handled:
//   - GET  /api/customers/{id}/subscription             -> GetSubscription
//   - POST /api/customers/{id}/subscription/cancel      -> CancelSubscription
//   - POST /api/customers/{id}/subscription/resume      -> ResumeSubscription
//   - POST /api/customers/{id}/subscription/change-plan -> ChangePlan
//   - POST /api/customers/{id}/checkout                 -> CreateCheckout
//   - POST /api/customers/{id}/portal                   -> OpenPortal
package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/service"
	"github.com/google/uuid"
)

// BillingHandler handles subscription management HTTP requests.
type BillingHandler struct {
	subscriptions service.SubscriptionService
	logger        *slog.Logger
}

// NewBillingHandler creates a new BillingHandler.
func NewBillingHandler(subscriptions service.SubscriptionService, logger *slog.Logger) *BillingHandler {
	return &BillingHandler{
		subscriptions: subscriptions,
		logger:        logger,
	}
}

// RegisterRoutes registers billing routes on the provided mux.
func (h *BillingHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/customers/{id}/subscription", requireAdmin(http.HandlerFunc(h.GetSubscription)))
	mux.Handle("POST /api/customers/{id}/subscription/cancel", requireAdmin(http.HandlerFunc(h.CancelSubscription)))
	mux.Handle("POST /api/customers/{id}/subscription/resume", requireAdmin(http.HandlerFunc(h.ResumeSubscription)))
	mux.Handle("POST /api/customers/{id}/subscription/change-plan", requireAdmin(http.HandlerFunc(h.ChangePlan)))
	mux.Handle("POST /api/customers/{id}/checkout", requireAdmin(http.HandlerFunc(h.CreateCheckout)))
	mux.Handle("POST /api/customers/{id}/portal", requireAdmin(http.HandlerFunc(h.OpenPortal)))
}

// =============================================================================
// Request/response types
// =============================================================================

// SubscriptionResponse is the JSON form of a subscription.
type SubscriptionResponse struct {
	ID                   uuid.UUID                 `json:"id"`
	CustomerID           uuid.UUID                 `json:"customer_id"`
	StripeSubscriptionID string                    `json:"stripe_subscription_id"`
	StripePriceID        string                    `json:"stripe_price_id"`
	Tier                 domain.SubscriptionTier   `json:"tier"`
	Status               domain.SubscriptionStatus `json:"status"`
	CurrentPeriodStart   time.Time                 `json:"current_period_start"`
	CurrentPeriodEnd     time.Time                 `json:"current_period_end"`
	CancelAtPeriodEnd    bool                      `json:"cancel_at_period_end"`
	TrialEnd             *time.Time                `json:"trial_end,omitempty"`
	StartedAt            time.Time                 `json:"started_at"`
}

func newSubscriptionResponse(s *domain.Subscription) SubscriptionResponse {
	return SubscriptionResponse{
		ID:                   s.ID,
		CustomerID:           s.CustomerID,
		StripeSubscriptionID: s.StripeSubscriptionID,
		StripePriceID:        s.StripePriceID,
		Tier:                 s.Tier,
		Status:               s.Status,
		CurrentPeriodStart:   s.CurrentPeriodStart,
		CurrentPeriodEnd:     s.CurrentPeriodEnd,
		CancelAtPeriodEnd:    s.CancelAtPeriodEnd,
		TrialEnd:             s.TrialEnd,
		StartedAt:            s.StartedAt,
	}
}

type changePlanRequest struct {
	PriceID string `json:"price_id" validate:"required,startswith=price_"`
}

type checkoutRequest struct {
	PriceID    string `json:"price_id" validate:"required,startswith=price_"`
	SuccessURL string `json:"success_url" validate:"required,http_url"`
	CancelURL  string `json:"cancel_url" validate:"required,http_url"`
}

type portalRequest struct {
	ReturnURL string `json:"return_url" validate:"required,http_url"`
}

// URLResponse carries a redirect target such as a checkout session.
type URLResponse struct {
	URL string `json:"url"`
}

// =============================================================================
// Handlers
// =============================================================================

// GetSubscription returns the customer's current subscription.
func (h *BillingHandler) GetSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.GetSubscription"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	sub, err := h.subscriptions.Current(r.Context(), customerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, newSubscriptionResponse(sub))
}

// CancelSubscription schedules cancellation at the end of the period.
func (h *BillingHandler) CancelSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.CancelSubscription"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.subscriptions.CancelAtPeriodEnd(r.Context(), customerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ResumeSubscription clears a scheduled cancellation.
func (h *BillingHandler) ResumeSubscription(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.ResumeSubscription"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.subscriptions.Resume(r.Context(), customerID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// ChangePlan switches the subscription to another catalog price.
func (h *BillingHandler) ChangePlan(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.ChangePlan"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req changePlanRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	result, err := h.subscriptions.ChangePlan(r.Context(), customerID, req.PriceID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, result)
}

// CreateCheckout starts a Stripe Checkout session for a new subscription.
func (h *BillingHandler) CreateCheckout(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.CreateCheckout"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req checkoutRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.subscriptions.StartCheckout(r.Context(), domain.CheckoutRequest{
		CustomerID: customerID,
		PriceID:    req.PriceID,
		SuccessURL: req.SuccessURL,
		CancelURL:  req.CancelURL,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, URLResponse{URL: url})
}

// OpenPortal creates a Stripe billing portal session.
func (h *BillingHandler) OpenPortal(w http.ResponseWriter, r *http.Request) {
	const op = "BillingHandler.OpenPortal"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req portalRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	url, err := h.subscriptions.PortalURL(r.Context(), customerID, req.ReturnURL)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, URLResponse{URL: url})
}
