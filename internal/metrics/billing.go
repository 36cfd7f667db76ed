package metrics

import "time"

// WebhookProcessed records a reconciled webhook event.
func WebhookProcessed(eventType, outcome string, duration time.Duration) {
	WebhookEventsTotal.WithLabelValues(eventType, outcome).Inc()
	WebhookDuration.WithLabelValues(eventType).Observe(duration.Seconds())
}

// StripeCall records the result of a Stripe API call.
func StripeCall(operation string, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	StripeAPICalls.WithLabelValues(operation, status).Inc()
}

// DownloadCharged records a successful paid download.
func DownloadCharged(cost int) {
	DownloadsTotal.WithLabelValues("charged").Inc()
	CreditsDebitedTotal.Add(float64(cost))
}

// DownloadRejected records a download refused for insufficient credits.
func DownloadRejected() {
	DownloadsTotal.WithLabelValues("insufficient_credits").Inc()
}

// CreditsGranted records credits added by a paid invoice.
func CreditsGranted(tier string, amount int) {
	CreditsGrantedTotal.WithLabelValues(tier).Add(float64(amount))
}

// CacheHit records a cache hit.
func CacheHit(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "hit").Inc()
}

// CacheMiss records a cache miss.
func CacheMiss(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "miss").Inc()
}

// CacheError records a failed cache read or write.
func CacheError(cache string) {
	CacheRequestsTotal.WithLabelValues(cache, "error").Inc()
}
