// Package ratelimit provides the process-wide request limiter handed to
// tools through mcptool.ToolContext. It wraps golang.org/x/time/rate
// rather than hand-rolling a token bucket, matching the wider pack's
// preference for the standard rate-limiting library over ad hoc counters.
package ratelimit

import (
	"sync"

	"golang.org/x/time/rate"
)

// Limiter satisfies mcptool.RateLimiter: a single process-wide token
// bucket shared by every dispatched tool call. It is safe to read
// without holding any other lock, since rate.Limiter is itself
// concurrency-safe.
type Limiter struct {
	mu      sync.Mutex
	limiter *rate.Limiter
}

// New creates a Limiter allowing rps requests per second with the given
// burst capacity.
func New(rps float64, burst int) *Limiter {
	return &Limiter{limiter: rate.NewLimiter(rate.Limit(rps), burst)}
}

// Allow reports whether a request may proceed right now, consuming a
// token if so.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.limiter.Allow()
}

// SetLimit updates the requests-per-second rate without resetting the
// current burst balance, for runtime config reloads.
func (l *Limiter) SetLimit(rps float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.limiter.SetLimit(rate.Limit(rps))
}
