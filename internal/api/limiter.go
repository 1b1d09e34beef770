package api

import (
	"sync"

	"shorebook/internal/config"

	"golang.org/x/time/rate"
)

const defaultRateBurst = 5

// clientLimiters hands out one token bucket per API client. Keyed callers
// (front desk, kiosks) each get their own budget; unauthenticated callers
// share per-host buckets so an anonymous flood cannot starve keyed clients.
type clientLimiters struct {
	mu      sync.Mutex
	buckets map[string]*rate.Limiter
	rps     rate.Limit
	burst   int
}

func newClientLimiters(cfg config.APIRateLimitConfig) *clientLimiters {
	burst := cfg.Burst
	if burst <= 0 {
		burst = defaultRateBurst
	}
	return &clientLimiters{
		buckets: make(map[string]*rate.Limiter),
		rps:     rate.Limit(cfg.RPS),
		burst:   burst,
	}
}

// allow reports whether the keyed client may make another request now.
func (c *clientLimiters) allow(key string) bool {
	c.mu.Lock()
	bucket, ok := c.buckets[key]
	if !ok {
		bucket = rate.NewLimiter(c.rps, c.burst)
		c.buckets[key] = bucket
	}
	c.mu.Unlock()

	return bucket.Allow()
}
