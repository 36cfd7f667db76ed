package worker

import (
	"errors"
	"fmt"
	"time"
)

// Config tunes the billing email worker pool.
type Config struct {
	// Goroutines polling the jobs table. Default 2.
	Concurrency int

	// Idle wait between polls. Default 5s.
	PollInterval time.Duration

	// Deadline for one Handle call, which covers an SMTP round trip.
	// Default 1m.
	JobTimeout time.Duration

	// How long Stop waits for in-flight sends. Default 30s.
	ShutdownTimeout time.Duration

	// A job left 'running' longer than this was orphaned by a crashed
	// process and goes back to pending on Start. Must exceed JobTimeout.
	// Default 10m.
	StaleJobThreshold time.Duration
}

// DefaultConfig returns the settings used when nothing is overridden.
func DefaultConfig() Config {
	return Config{
		Concurrency:       2,
		PollInterval:      5 * time.Second,
		JobTimeout:        time.Minute,
		ShutdownTimeout:   30 * time.Second,
		StaleJobThreshold: 10 * time.Minute,
	}
}

// Validate reports every out-of-range setting at once.
func (c Config) Validate() error {
	var errs []error
	if c.Concurrency < 1 || c.Concurrency > 100 {
		errs = append(errs, fmt.Errorf("concurrency must be between 1 and 100, got %d", c.Concurrency))
	}
	atLeast := func(name string, got, floor time.Duration) {
		if got < floor {
			errs = append(errs, fmt.Errorf("%s must be at least %v, got %v", name, floor, got))
		}
	}
	atLeast("poll interval", c.PollInterval, time.Second)
	atLeast("job timeout", c.JobTimeout, time.Second)
	atLeast("shutdown timeout", c.ShutdownTimeout, time.Second)
	atLeast("stale job threshold", c.StaleJobThreshold, time.Minute)
	if c.StaleJobThreshold <= c.JobTimeout {
		errs = append(errs, fmt.Errorf("stale job threshold %v must exceed job timeout %v", c.StaleJobThreshold, c.JobTimeout))
	}
	return errors.Join(errs...)
}
