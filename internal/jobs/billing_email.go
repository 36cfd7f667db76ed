package jobs

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/email"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/DukeRupert/samplebase/internal/worker"
	"github.com/google/uuid"
)

// CustomerGetter loads the recipient of a billing email.
type CustomerGetter interface {
	GetCustomerByID(ctx context.Context, id uuid.UUID) (repository.Customer, error)
}

// BillingEmailHandler processes jobs that send billing notifications.
type BillingEmailHandler struct {
	queries      CustomerGetter
	emailService email.EmailService
	logger       *slog.Logger
}

// NewBillingEmailHandler creates a new handler for billing email jobs.
func NewBillingEmailHandler(
	queries CustomerGetter,
	emailService email.EmailService,
	logger *slog.Logger,
) *BillingEmailHandler {
	return &BillingEmailHandler{
		queries:      queries,
		emailService: emailService,
		logger:       logger,
	}
}

// Type returns the job type identifier.
func (h *BillingEmailHandler) Type() string {
	return worker.JobTypeSendBillingEmail
}

// Handle sends one billing email.
func (h *BillingEmailHandler) Handle(ctx context.Context, payload []byte) error {
	var p worker.BillingEmailPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return worker.Permanentf("invalid payload: %w", err)
	}
	if !p.Kind.Valid() {
		return worker.Permanentf("unknown billing email kind: %s", p.Kind)
	}

	customer, err := h.queries.GetCustomerByID(ctx, p.CustomerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return worker.Permanentf("customer not found: %s", p.CustomerID)
		}
		return fmt.Errorf("fetch customer: %w", err)
	}

	to := customer.Email
	name := domain.NullStringValue(customer.Name)
	planName := p.PlanName
	if planName == "" {
		planName = string(p.Tier)
	}

	h.logger.Info("Sending billing email",
		"kind", p.Kind,
		"customer_id", p.CustomerID,
	)

	switch p.Kind {
	case domain.BillingEmailPaymentFailed:
		err = h.emailService.SendPaymentFailedEmail(ctx, to, name, planName, p.AttemptCount)
	case domain.BillingEmailSubscriptionCanceled:
		err = h.emailService.SendSubscriptionCanceledEmail(ctx, to, name, planName)
	case domain.BillingEmailCancellationScheduled:
		err = h.emailService.SendCancellationScheduledEmail(ctx, to, name, planName, p.PeriodEnd)
	case domain.BillingEmailPlanChanged:
		err = h.emailService.SendPlanChangedEmail(ctx, to, name, planName)
	}
	if err != nil {
		return fmt.Errorf("send %s email: %w", p.Kind, err)
	}

	return nil
}

var _ worker.JobHandler = (*BillingEmailHandler)(nil)
