// Package handler contains the HTTP handlers for the samplebase admin API.
//
// This file implements the Stripe webhook endpoint.
//
// Route:
//   - POST /webhooks/stripe -> HandleStripeWebhook
//
// The route is PUBLIC (no admin token) because Stripe calls it directly.
// Authentication is via the Stripe-Signature header.
package handler

import (
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/DukeRupert/samplebase/internal/billing"
	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/metrics"
	"github.com/DukeRupert/samplebase/internal/middleware"
	"github.com/DukeRupert/samplebase/internal/service"
	"github.com/stripe/stripe-go/v79"
)

// maxWebhookBytes matches the payload cap Stripe documents for webhooks.
const maxWebhookBytes = 65536

// WebhookVerifier checks a payload against its Stripe-Signature header.
// billing.Service satisfies it.
type WebhookVerifier interface {
	VerifyWebhookSignature(payload []byte, signature string) (stripe.Event, error)
}

// WebhookHandler turns verified Stripe events into reconciler calls.
type WebhookHandler struct {
	verifier   WebhookVerifier
	events     service.EventLog
	reconciler service.Reconciler
	logger     *slog.Logger
}

// NewWebhookHandler creates a new WebhookHandler.
func NewWebhookHandler(verifier WebhookVerifier, events service.EventLog, reconciler service.Reconciler, logger *slog.Logger) *WebhookHandler {
	return &WebhookHandler{
		verifier:   verifier,
		events:     events,
		reconciler: reconciler,
		logger:     logger,
	}
}

// RegisterRoutes registers webhook routes on the provided mux.
func (h *WebhookHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /webhooks/stripe", h.HandleStripeWebhook)
}

// HandleStripeWebhook verifies, records and reconciles one Stripe event.
//
// A 2xx tells Stripe to stop delivering. Everything that cannot succeed on a
// retry (bad signature aside) is acknowledged; store and provider failures
// answer 500 so the event comes back.
func (h *WebhookHandler) HandleStripeWebhook(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	ctx := r.Context()
	requestID := middleware.RequestID(ctx)

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBytes))
	if err != nil {
		h.logger.Error("failed to read webhook body", "error", err, "request_id", requestID)
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	event, err := h.verifier.VerifyWebhookSignature(body, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("webhook signature verification failed", "error", err, "request_id", requestID)
		metrics.WebhookProcessed("unknown", "invalid_signature", time.Since(start))
		w.WriteHeader(http.StatusBadRequest)
		return
	}

	eventType := string(event.Type)
	logger := h.logger.With("event_id", event.ID, "event_type", eventType, "request_id", requestID)

	var payload []byte
	if event.Data != nil {
		payload = event.Data.Raw
	}

	processed, err := h.events.Begin(ctx, event.ID, eventType, payload)
	if err != nil {
		if domain.ErrorCode(err) == domain.EINVALID {
			logger.Warn("webhook event rejected", "error", err)
			w.WriteHeader(http.StatusOK)
			return
		}
		logger.Error("failed to record webhook event", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	if processed {
		logger.Info("webhook event already processed")
		metrics.WebhookProcessed(eventType, "duplicate", time.Since(start))
		w.WriteHeader(http.StatusOK)
		return
	}

	outcome, procErr := h.reconcile(r, event, logger)

	if err := h.events.Complete(ctx, event.ID, outcome, procErr); err != nil {
		// The state change is already committed; a redelivery replays it
		// idempotently.
		logger.Error("failed to store webhook outcome", "outcome", outcome, "error", err)
	}
	metrics.WebhookProcessed(eventType, string(outcome), time.Since(start))

	if outcome == domain.OutcomeFailed {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}

	logger.Info("webhook event processed", "outcome", outcome, "duration_ms", time.Since(start).Milliseconds())
	w.WriteHeader(http.StatusOK)
}

func (h *WebhookHandler) reconcile(r *http.Request, event stripe.Event, logger *slog.Logger) (domain.Outcome, error) {
	decoded, err := billing.DecodeEvent(event)
	if err != nil {
		logger.Warn("undecodable webhook payload", "error", err)
		return domain.OutcomeSkipped, err
	}

	outcome, err := h.reconciler.Reconcile(r.Context(), decoded)
	if err != nil {
		logger.Error("webhook reconciliation failed", "error", err, "op", domain.ErrorOp(err))
		return domain.OutcomeFailed, err
	}
	return outcome, nil
}
