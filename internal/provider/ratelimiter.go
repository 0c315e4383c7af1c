package provider

import (
	"context"
	"sync"
	"time"
)

// RateLimiter is a token bucket shared by sources hitting the same host.
type RateLimiter struct {
	mu         sync.Mutex
	tokens     int
	burst      int
	every      time.Duration
	lastRefill time.Time
	now        func() time.Time
}

// NewRateLimiter allows burst calls at once and one more per every.
func NewRateLimiter(burst int, every time.Duration) *RateLimiter {
	if burst <= 0 {
		burst = 1
	}
	return &RateLimiter{
		tokens:     burst,
		burst:      burst,
		every:      every,
		lastRefill: time.Now(),
		now:        time.Now,
	}
}

// Wait takes a token, sleeping until the next one accrues or ctx ends.
func (r *RateLimiter) Wait(ctx context.Context) error {
	for {
		delay := r.take()
		if delay == 0 {
			return nil
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}

// take consumes a token or reports how long until one is available.
func (r *RateLimiter) take() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	if r.every > 0 {
		if n := int(now.Sub(r.lastRefill) / r.every); n > 0 {
			r.tokens = min(r.burst, r.tokens+n)
			r.lastRefill = r.lastRefill.Add(time.Duration(n) * r.every)
		}
	} else {
		r.tokens = r.burst
	}
	if r.tokens > 0 {
		r.tokens--
		return 0
	}
	return r.lastRefill.Add(r.every).Sub(now)
}
