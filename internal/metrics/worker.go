package metrics

import "time"

// JobStarted should be called when a job begins processing.
func JobStarted(jobType string) {
	JobsInFlight.WithLabelValues(jobType).Inc()
}

// JobCompleted records a successful job completion.
func JobCompleted(jobType string, duration time.Duration) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	JobsTotal.WithLabelValues(jobType, "completed").Inc()
	JobDuration.WithLabelValues(jobType).Observe(duration.Seconds())
}

// JobFailed records a job that will not be retried.
func JobFailed(jobType string) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	JobsTotal.WithLabelValues(jobType, "failed").Inc()
}

// JobRetried records a failed attempt that was rescheduled.
func JobRetried(jobType string) {
	JobsInFlight.WithLabelValues(jobType).Dec()
	JobRetriesTotal.WithLabelValues(jobType).Inc()
}
