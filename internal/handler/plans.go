package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/service"
)

// PlanHandler manages the subscription plan catalog.
type PlanHandler struct {
	plans  service.PlanService
	logger *slog.Logger
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(plans service.PlanService, logger *slog.Logger) *PlanHandler {
	return &PlanHandler{
		plans:  plans,
		logger: logger,
	}
}

// RegisterRoutes registers plan routes on the provided mux.
func (h *PlanHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/plans", requireAdmin(http.HandlerFunc(h.ListPlans)))
	mux.Handle("POST /api/plans", requireAdmin(http.HandlerFunc(h.CreatePlan)))
	mux.Handle("DELETE /api/plans/{priceID}", requireAdmin(http.HandlerFunc(h.DeactivatePlan)))
}

// createPlanRequest either imports an existing Stripe price (stripe_price_id)
// or creates a new one on a product (stripe_product_id plus amount fields).
type createPlanRequest struct {
	Name            string `json:"name" validate:"required,max=100"`
	Tier            string `json:"tier" validate:"required,oneof=starter pro"`
	StripePriceID   string `json:"stripe_price_id" validate:"omitempty,startswith=price_"`
	StripeProductID string `json:"stripe_product_id" validate:"omitempty,startswith=prod_"`
	AmountCents     int64  `json:"amount_cents" validate:"gte=0"`
	Currency        string `json:"currency" validate:"omitempty,len=3"`
	Interval        string `json:"interval" validate:"omitempty,oneof=month year"`
	TrialDays       int    `json:"trial_days" validate:"gte=0,lte=365"`
}

// ListPlans returns the active plans.
func (h *PlanHandler) ListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := h.plans.ListActive(r.Context())
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string][]domain.Plan{"plans": plans})
}

// CreatePlan adds a plan to the catalog.
func (h *PlanHandler) CreatePlan(w http.ResponseWriter, r *http.Request) {
	const op = "PlanHandler.CreatePlan"

	var req createPlanRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	plan, err := h.plans.Create(r.Context(), domain.CreatePlanParams{
		Name:            req.Name,
		Tier:            domain.SubscriptionTier(req.Tier),
		StripePriceID:   req.StripePriceID,
		StripeProductID: req.StripeProductID,
		AmountCents:     req.AmountCents,
		Currency:        req.Currency,
		Interval:        domain.PlanInterval(req.Interval),
		TrialDays:       req.TrialDays,
	})
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, plan)
}

// DeactivatePlan removes a plan from sale.
func (h *PlanHandler) DeactivatePlan(w http.ResponseWriter, r *http.Request) {
	if err := h.plans.Deactivate(r.Context(), r.PathValue("priceID")); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
