package worker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/DukeRupert/samplebase/internal/domain"
	"github.com/DukeRupert/samplebase/internal/repository"
	"github.com/google/uuid"
)

// Job type constants - these must match the JobHandler.Type() values
const (
	JobTypeSendBillingEmail = "send_billing_email"
)

// Priority constants for job scheduling
const (
	PriorityLow    = 0
	PriorityNormal = 10
	PriorityHigh   = 20
)

// ErrDuplicateJob is returned when a job with the same dedup key was already
// enqueued.
var ErrDuplicateJob = errors.New("job already enqueued")

// BillingEmailPayload is the payload for billing notification jobs.
type BillingEmailPayload struct {
	Kind         domain.BillingEmailKind `json:"kind"`
	CustomerID   uuid.UUID               `json:"customer_id"`
	Tier         domain.SubscriptionTier `json:"tier,omitempty"`
	PlanName     string                  `json:"plan_name,omitempty"`
	PeriodEnd    time.Time               `json:"period_end"`
	AttemptCount int64                   `json:"attempt_count,omitempty"`
}

// Enqueuer inserts jobs. It is satisfied by *repository.Queries, a
// repository.Store, and the Querier handed to a transaction, so jobs can be
// enqueued atomically with the state change that triggers them.
type Enqueuer interface {
	EnqueueJob(ctx context.Context, arg repository.EnqueueJobParams) (repository.Job, error)
}

// EnqueueOption is a functional option for customizing job enqueue parameters.
type EnqueueOption func(*repository.EnqueueJobParams)

// WithPriority sets the job priority.
func WithPriority(priority int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.Priority = priority
	}
}

// WithMaxAttempts sets the maximum number of retry attempts.
func WithMaxAttempts(attempts int32) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.MaxAttempts = attempts
	}
}

// WithDelay schedules the job to run after a delay.
func WithDelay(delay time.Duration) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.ScheduledAt = time.Now().Add(delay)
	}
}

// WithDedupKey makes the enqueue a no-op returning ErrDuplicateJob when a job
// with the same key exists, whatever its status.
func WithDedupKey(key string) EnqueueOption {
	return func(p *repository.EnqueueJobParams) {
		p.DedupKey = sql.NullString{String: key, Valid: key != ""}
	}
}

// EnqueueJob is a generic helper for enqueuing jobs with custom options.
func EnqueueJob(
	ctx context.Context,
	q Enqueuer,
	jobType string,
	payload interface{},
	opts ...EnqueueOption,
) (repository.Job, error) {
	// Marshal the payload to JSON
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return repository.Job{}, fmt.Errorf("marshal payload: %w", err)
	}

	// Default parameters
	params := repository.EnqueueJobParams{
		JobType:     jobType,
		Payload:     payloadJSON,
		Priority:    PriorityNormal,
		MaxAttempts: 3,
		ScheduledAt: time.Now(),
	}

	for _, opt := range opts {
		opt(&params)
	}

	job, err := q.EnqueueJob(ctx, params)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) && params.DedupKey.Valid {
			return repository.Job{}, ErrDuplicateJob
		}
		return repository.Job{}, fmt.Errorf("enqueue job: %w", err)
	}

	return job, nil
}

// EnqueueBillingEmail enqueues a billing notification for a customer.
// Dunning emails run at high priority; the rest at normal priority.
func EnqueueBillingEmail(
	ctx context.Context,
	q Enqueuer,
	payload BillingEmailPayload,
	opts ...EnqueueOption,
) (repository.Job, error) {
	if !payload.Kind.Valid() {
		return repository.Job{}, fmt.Errorf("unknown billing email kind %q", payload.Kind)
	}
	if payload.Kind == domain.BillingEmailPaymentFailed {
		opts = append([]EnqueueOption{WithPriority(PriorityHigh)}, opts...)
	}
	return EnqueueJob(ctx, q, JobTypeSendBillingEmail, payload, opts...)
}
