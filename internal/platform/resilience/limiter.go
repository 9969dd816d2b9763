package resilience

import (
	"time"

	"golang.org/x/time/rate"
)

// NewRequestLimiter returns a limiter that grants one request per interval.
// The bucket holds a single token, so no two grants are closer than interval.
// A non-positive interval disables limiting.
func NewRequestLimiter(interval time.Duration) *rate.Limiter {
	if interval <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(interval), 1)
}
