package rate

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Limiter limits operations based on a provided key, typically a client
// address.
type Limiter interface {
	Allow(key string) (bool, error)
}

type keyedLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// LocalRateLimiter keeps a token bucket per key in memory. Buckets that go
// unused can be dropped with Prune.
type LocalRateLimiter struct {
	limit rate.Limit
	burst int
	now   func() time.Time

	sync.Mutex
	limiters map[string]*keyedLimiter
}

// NewLocalRateLimiter returns an in memory limiter allowing limit events per
// second per key, with bursts of up to burst. A burst below 1 defaults to the
// limit itself.
func NewLocalRateLimiter(limit rate.Limit, burst int) *LocalRateLimiter {
	if burst < 1 {
		burst = int(limit)
	}
	if burst < 1 {
		burst = 1
	}

	return &LocalRateLimiter{
		limit:    limit,
		burst:    burst,
		now:      time.Now,
		limiters: make(map[string]*keyedLimiter),
	}
}

// Allow implements limiter.Allow.
func (l *LocalRateLimiter) Allow(key string) (bool, error) {
	now := l.now()

	l.Lock()
	entry, ok := l.limiters[key]
	if !ok {
		entry = &keyedLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[key] = entry
	}
	entry.lastSeen = now
	l.Unlock()

	return entry.limiter.AllowN(now, 1), nil
}

// Prune drops the buckets of keys not seen for at least idle, returning how
// many were dropped.
func (l *LocalRateLimiter) Prune(idle time.Duration) int {
	cutoff := l.now().Add(-idle)

	l.Lock()
	defer l.Unlock()

	var pruned int
	for key, entry := range l.limiters {
		if !entry.lastSeen.After(cutoff) {
			delete(l.limiters, key)
			pruned++
		}
	}
	return pruned
}

// Size is the number of keys currently tracked.
func (l *LocalRateLimiter) Size() int {
	l.Lock()
	defer l.Unlock()

	return len(l.limiters)
}

// NoLimiter never limits operations
type NoLimiter struct {
}

// Allow implements limiter.Allow.
func (n *NoLimiter) Allow(key string) (bool, error) {
	return true, nil
}
