package metrics

import "time"

// AICall records the outcome of one language model request.
func AICall(provider, status string, duration time.Duration, inputTokens, outputTokens int) {
	AIAPICalls.WithLabelValues(provider, status).Inc()
	AIRequestDuration.WithLabelValues(provider).Observe(duration.Seconds())
	if inputTokens > 0 {
		AITokensTotal.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		AITokensTotal.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

// CacheLookup records a completion cache hit or miss.
func CacheLookup(hit bool) {
	if hit {
		AICacheTotal.WithLabelValues("hit").Inc()
		return
	}
	AICacheTotal.WithLabelValues("miss").Inc()
}
