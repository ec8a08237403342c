package bot

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// commandLimiter throttles slash commands per user
type commandLimiter struct {
	mu       sync.Mutex
	limit    rate.Limit
	burst    int
	limiters map[string]*userLimiter
	idleTTL  time.Duration
	now      func() time.Time
}

type userLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newCommandLimiter allows perSecond commands per user with the given burst.
// A non-positive rate disables throttling.
func newCommandLimiter(perSecond float64, burst int) *commandLimiter {
	limit := rate.Limit(perSecond)
	if perSecond <= 0 {
		limit = rate.Inf
	}
	if burst < 1 {
		burst = 1
	}
	return &commandLimiter{
		limit:    limit,
		burst:    burst,
		limiters: make(map[string]*userLimiter),
		idleTTL:  10 * time.Minute,
		now:      time.Now,
	}
}

// Allow reports whether userID may run a command now
func (c *commandLimiter) Allow(userID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	ul, ok := c.limiters[userID]
	if !ok {
		ul = &userLimiter{limiter: rate.NewLimiter(c.limit, c.burst)}
		c.limiters[userID] = ul
	}
	ul.lastSeen = now
	return ul.limiter.AllowN(now, 1)
}

// prune forgets users idle for longer than the TTL
func (c *commandLimiter) prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.now().Add(-c.idleTTL)
	removed := 0
	for userID, ul := range c.limiters {
		if ul.lastSeen.Before(cutoff) {
			delete(c.limiters, userID)
			removed++
		}
	}
	return removed
}
