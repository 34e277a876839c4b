// Package ratelimiter bounds the sustained request rate of the server using
// a token bucket, wrapping golang.org/x/time/rate.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// RateLimiter applies a token-bucket limit to inbound requests.
//
// Tokens accrue at the sustained rate; each request consumes one. Burst
// capacity absorbs short spikes above the sustained rate. All methods are
// safe for concurrent use.
type RateLimiter struct {
	limiter *rate.Limiter
}

// New creates a limiter allowing requestsPerSecond sustained with the given
// burst capacity. A zero rate means unlimited.
func New(requestsPerSecond, burst uint) *RateLimiter {
	if requestsPerSecond == 0 {
		// Effectively unlimited; rate.Inf has edge cases with Wait.
		requestsPerSecond = 1_000_000_000
		burst = requestsPerSecond
	}
	if burst == 0 {
		burst = requestsPerSecond
	}

	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(requestsPerSecond), int(burst)),
	}
}

// Allow reports whether a request may proceed right now, consuming a token
// if so. This is the non-blocking fast path.
func (r *RateLimiter) Allow() bool {
	return r.limiter.Allow()
}

// Wait blocks until a token is available or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	return r.limiter.Wait(ctx)
}

// SetLimit adjusts the sustained rate without recreating the limiter.
func (r *RateLimiter) SetLimit(requestsPerSecond uint) {
	if requestsPerSecond == 0 {
		requestsPerSecond = 1_000_000_000
	}
	r.limiter.SetLimit(rate.Limit(requestsPerSecond))
	r.limiter.SetBurst(int(requestsPerSecond * 2))
}

// Tokens returns the tokens currently available, for monitoring.
func (r *RateLimiter) Tokens() float64 {
	return r.limiter.Tokens()
}
