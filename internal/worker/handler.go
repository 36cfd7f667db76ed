package worker

import (
	"context"
	"errors"
	"fmt"
)

// JobHandler runs one job type off the queue. The billing email sender in
// internal/jobs is the handler registered in production.
type JobHandler interface {
	// Type matches jobs.job_type, e.g. JobTypeSendBillingEmail.
	Type() string

	// Handle receives the job's JSON payload as stored. A returned error
	// reschedules the job with backoff until max_attempts; a PermanentError
	// fails it at once.
	Handle(ctx context.Context, payload []byte) error
}

// PermanentError marks a job failure that no retry can fix, such as a
// malformed payload or a customer that no longer exists.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }

func (e *PermanentError) Unwrap() error { return e.Err }

// NewPermanentError wraps err so the worker fails the job without retrying.
func NewPermanentError(err error) error {
	return &PermanentError{Err: err}
}

// Permanentf is NewPermanentError with fmt.Errorf formatting.
func Permanentf(format string, args ...any) error {
	return &PermanentError{Err: fmt.Errorf(format, args...)}
}

// IsPermanent reports whether err or anything it wraps is a PermanentError.
func IsPermanent(err error) bool {
	var permErr *PermanentError
	return errors.As(err, &permErr)
}
