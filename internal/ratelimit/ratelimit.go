// Package ratelimit throttles query execution.
package ratelimit

import (
	"context"

	"golang.org/x/time/rate"
)

type Limiter struct {
	limiter *rate.Limiter
}

// New uses 0 or negative limit for no rate limiting.
func New(queriesPerSecond float64) *Limiter {
	if queriesPerSecond <= 0 {
		return &Limiter{
			limiter: rate.NewLimiter(rate.Inf, 1),
		}
	}

	// Burst of 1: the first query runs immediately, later ones are spaced out.
	return &Limiter{
		limiter: rate.NewLimiter(rate.Limit(queriesPerSecond), 1),
	}
}

// Wait blocks until the next query may run or ctx is done.
func (l *Limiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx)
}

// Allow is non-blocking and reports whether a query may run now.
func (l *Limiter) Allow() bool {
	return l.limiter.Allow()
}

// Limit returns queries per second, 0 meaning unlimited.
func (l *Limiter) Limit() float64 {
	limit := l.limiter.Limit()
	if limit == rate.Inf {
		return 0
	}
	return float64(limit)
}
