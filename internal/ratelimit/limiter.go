package ratelimit

import (
	"context"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces outbound requests against the exchange's account
// level quota. Indodax applies one quota across the whole trade API
// rather than weighting individual endpoints, so a single token bucket
// covers every call.
type RateLimiter struct {
	limiter  *rate.Limiter
	requests int
	period   time.Duration
	metrics  *Metrics
}

// Metrics tracks statistics about rate limiter usage.
type Metrics struct {
	totalRequests   atomic.Int64
	allowedRequests atomic.Int64
	deniedRequests  atomic.Int64
}

// New creates a RateLimiter allowing the specified number of requests
// per period, with burst capacity equal to the full quota.
func New(requests int, period time.Duration) *RateLimiter {
	rps := float64(requests) / period.Seconds()
	return &RateLimiter{
		limiter:  rate.NewLimiter(rate.Limit(rps), requests),
		requests: requests,
		period:   period,
		metrics:  &Metrics{},
	}
}

// Wait blocks until the limiter allows a request or the context is cancelled.
func (r *RateLimiter) Wait(ctx context.Context) error {
	r.metrics.totalRequests.Add(1)
	if err := r.limiter.Wait(ctx); err != nil {
		r.metrics.deniedRequests.Add(1)
		return err
	}
	r.metrics.allowedRequests.Add(1)
	return nil
}

// Allow returns true if the limiter permits a request immediately.
func (r *RateLimiter) Allow() bool {
	r.metrics.totalRequests.Add(1)
	allowed := r.limiter.Allow()
	if allowed {
		r.metrics.allowedRequests.Add(1)
	} else {
		r.metrics.deniedRequests.Add(1)
	}
	return allowed
}

// SetLimit updates the rate limit to the specified requests per period.
func (r *RateLimiter) SetLimit(requests int, period time.Duration) {
	r.requests = requests
	r.period = period
	rps := float64(requests) / period.Seconds()
	r.limiter.SetLimit(rate.Limit(rps))
}

// Metrics returns a snapshot of the current rate limiter statistics.
func (r *RateLimiter) Metrics() MetricsSnapshot {
	return MetricsSnapshot{
		TotalRequests:   r.metrics.totalRequests.Load(),
		AllowedRequests: r.metrics.allowedRequests.Load(),
		DeniedRequests:  r.metrics.deniedRequests.Load(),
	}
}

// MetricsSnapshot is a point-in-time capture of rate limiter statistics.
type MetricsSnapshot struct {
	// TotalRequests is the total number of rate limit checks performed.
	TotalRequests int64
	// AllowedRequests is the number of requests that were allowed.
	AllowedRequests int64
	// DeniedRequests is the number of requests that were denied.
	DeniedRequests int64
}
