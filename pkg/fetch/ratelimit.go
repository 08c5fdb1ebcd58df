package fetch

import (
	"context"
	"sync"

	"golang.org/x/time/rate"
)

// DomainLimiter provides per-domain politeness rate limiting using token
// buckets. Each domain gets its own limiter with a burst of 1, created
// lazily on first sight, so concurrent requests to different domains
// never delay each other.
type DomainLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	rps      float64
}

// NewDomainLimiter creates a DomainLimiter with the given requests per
// second cap per domain.
func NewDomainLimiter(rps float64) *DomainLimiter {
	return &DomainLimiter{
		limiters: make(map[string]*rate.Limiter),
		rps:      rps,
	}
}

// Wait blocks until the rate limit allows a request to the domain, or
// ctx is cancelled.
func (d *DomainLimiter) Wait(ctx context.Context, domain string) error {
	d.mu.Lock()
	limiter, ok := d.limiters[domain]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(d.rps), 1)
		d.limiters[domain] = limiter
	}
	d.mu.Unlock()

	return limiter.Wait(ctx)
}
