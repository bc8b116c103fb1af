package ratelimit

import (
	"fmt"

	"golang.org/x/time/rate"
)

// Throttle is a process-wide token-bucket guard applied to every request
// before any per-identity accounting. It protects the listener as a whole;
// per-route limits remain the job of a Store.
type Throttle struct {
	lim *rate.Limiter
}

// NewThrottle creates a Throttle admitting rps requests per second with the
// given burst size.
func NewThrottle(rps float64, burst int) (*Throttle, error) {
	if rps <= 0 {
		return nil, fmt.Errorf("throttle: rps must be positive, got %v", rps)
	}
	if burst <= 0 {
		return nil, fmt.Errorf("throttle: burst must be positive, got %d", burst)
	}
	return &Throttle{lim: rate.NewLimiter(rate.Limit(rps), burst)}, nil
}

// Allow reports whether one more request may proceed now.
func (t *Throttle) Allow() bool {
	return t.lim.Allow()
}
