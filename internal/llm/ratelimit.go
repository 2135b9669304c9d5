package llm

import (
	"time"

	"golang.org/x/time/rate"
)

// newRateLimiter allows requestsPerMinute calls per minute with no burst beyond one
// call. Zero or negative disables limiting.
func newRateLimiter(requestsPerMinute int) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1)
}
