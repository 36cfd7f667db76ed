package service

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/sqlc-dev/pqtype"
)

// EventLog records every webhook delivery by Stripe event ID so redelivered
// events that already reached a final outcome are acknowledged without
// running the reconciler again.
type EventLog interface {
	// Begin records a delivery. It reports true when the event was already
	// processed with a final outcome.
	Begin(ctx context.Context, eventID, eventType string, payload []byte) (bool, error)

	// Complete stores the outcome of processing an event. procErr, when
	// non-nil, is saved as the error message.
	Complete(ctx context.Context, eventID string, outcome domain.Outcome, procErr error) error
}

type eventLog struct {
	queries repository.Querier
	logger  *slog.Logger
}

// NewEventLog creates a new EventLog.
func NewEventLog(queries repository.Querier, logger *slog.Logger) EventLog {
	return &eventLog{
		queries: queries,
		logger:  logger,
	}
}

func (l *eventLog) Begin(ctx context.Context, eventID, eventType string, payload []byte) (bool, error) {
	const op = "EventLog.Begin"

	if eventID == "" {
		return false, domain.Invalid(op, "event ID is required")
	}

	raw := pqtype.NullRawMessage{}
	if json.Valid(payload) {
		raw = pqtype.NullRawMessage{RawMessage: payload, Valid: true}
	}

	row, err := l.queries.RecordBillingEvent(ctx, repository.RecordBillingEventParams{
		StripeEventID: eventID,
		EventType:     eventType,
		Payload:       raw,
	})
	if err != nil {
		return false, domain.Internal(err, op, "Failed to record billing event")
	}

	processed := row.ProcessedAt.Valid && domain.Outcome(row.Outcome.String).IsFinal()
	if row.DeliveryCount > 1 {
		l.logger.Info("billing event redelivered",
			"event_id", eventID,
			"type", eventType,
			"deliveries", row.DeliveryCount,
			"already_processed", processed,
		)
	}
	return processed, nil
}

func (l *eventLog) Complete(ctx context.Context, eventID string, outcome domain.Outcome, procErr error) error {
	const op = "EventLog.Complete"

	var msg string
	if procErr != nil {
		msg = procErr.Error()
	}

	err := l.queries.CompleteBillingEvent(ctx, repository.CompleteBillingEventParams{
		StripeEventID: eventID,
		Outcome:       domain.ToNullString(string(outcome)),
		ErrorMessage:  domain.ToNullString(msg),
	})
	if err != nil {
		return domain.Internal(err, op, "Failed to complete billing event")
	}
	return nil
}

var _ EventLog = (*eventLog)(nil)
