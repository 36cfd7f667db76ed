package handler

import (
	"log/slog"
	"net/http"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/service"
	"github.com/google/uuid"
)

// CreditHandler exposes sample pricing and credit-charged downloads.
type CreditHandler struct {
	credits service.CreditService
	logger  *slog.Logger
}

// NewCreditHandler creates a new CreditHandler.
func NewCreditHandler(credits service.CreditService, logger *slog.Logger) *CreditHandler {
	return &CreditHandler{
		credits: credits,
		logger:  logger,
	}
}

// RegisterRoutes registers credit routes on the provided mux.
func (h *CreditHandler) RegisterRoutes(mux *http.ServeMux, requireAdmin func(http.Handler) http.Handler) {
	mux.Handle("GET /api/samples/{id}/cost", requireAdmin(http.HandlerFunc(h.GetSampleCost)))
	mux.Handle("PUT /api/samples/{id}/cost-override", requireAdmin(http.HandlerFunc(h.SetCostOverride)))
	mux.Handle("POST /api/customers/{id}/downloads", requireAdmin(http.HandlerFunc(h.Download)))
	mux.Handle("GET /api/credits/ranges", requireAdmin(http.HandlerFunc(h.Ranges)))
	mux.Handle("POST /api/credits/quote", requireAdmin(http.HandlerFunc(h.Quote)))
}

type costOverrideRequest struct {
	CreditCostOverride *int `json:"credit_cost_override" validate:"omitnil,gt=0"`
}

type downloadRequest struct {
	SampleID string `json:"sample_id" validate:"required,uuid"`
}

// GetSampleCost prices a stored sample.
func (h *CreditHandler) GetSampleCost(w http.ResponseWriter, r *http.Request) {
	const op = "CreditHandler.GetSampleCost"

	sampleID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	quote, err := h.credits.Quote(r.Context(), sampleID)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// SetCostOverride sets or clears a sample's manual price. A null override
// clears it.
func (h *CreditHandler) SetCostOverride(w http.ResponseWriter, r *http.Request) {
	const op = "CreditHandler.SetCostOverride"

	sampleID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req costOverrideRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	quote, err := h.credits.SetCostOverride(r.Context(), sampleID, req.CreditCostOverride)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}

// Download charges the customer and returns signed download links.
func (h *CreditHandler) Download(w http.ResponseWriter, r *http.Request) {
	const op = "CreditHandler.Download"

	customerID, err := pathUUID(r, "id", op)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	var req downloadRequest
	if err := decodeJSON(r, op, &req); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	dl, err := h.credits.Download(r.Context(), customerID, uuid.MustParse(req.SampleID))
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusCreated, dl)
}

// Ranges returns the display cost ranges.
func (h *CreditHandler) Ranges(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]domain.CostRangeInfo{
		"ranges": h.credits.Ranges(),
	})
}

// Quote prices unsaved sample attributes, e.g. while an admin edits a sample.
func (h *CreditHandler) Quote(w http.ResponseWriter, r *http.Request) {
	const op = "CreditHandler.Quote"

	var params domain.QuoteParams
	if err := decodeJSON(r, op, &params); err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	quote, err := h.credits.QuoteAttributes(params)
	if err != nil {
		ErrorResponse(w, r, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, quote)
}
