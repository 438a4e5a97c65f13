package relay

import (
	"math"
	"sync"
	"time"
)

type tokenBucket struct {
	tokens     float64
	capacity   float64
	refillRate float64 // tokens per second
	lastRefill time.Time
}

func (b *tokenBucket) take(now time.Time) bool {
	elapsed := now.Sub(b.lastRefill).Seconds()
	b.tokens = math.Min(b.capacity, b.tokens+elapsed*b.refillRate)
	b.lastRefill = now
	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

// RateLimiter caps inbound event throughput with one token bucket per
// connection. The bucket starts full at events+burst and refills at
// events-per-window; buckets are dropped by the disconnect cascade and the
// sweeper prunes any left idle.
type RateLimiter struct {
	mu       sync.Mutex
	byConn   map[string]*tokenBucket
	capacity float64
	rate     float64
	clock    func() time.Time
}

func NewRateLimiter(events, burst int, window time.Duration) *RateLimiter {
	if window <= 0 {
		window = time.Minute
	}
	if burst < 0 {
		burst = 0
	}
	return &RateLimiter{
		byConn:   make(map[string]*tokenBucket),
		capacity: float64(events + burst),
		rate:     float64(events) / window.Seconds(),
		clock:    time.Now,
	}
}

// Allow consumes one token for the connection, creating its bucket on first
// use. A false return means the event should be dropped.
func (rl *RateLimiter) Allow(connID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	b := rl.byConn[connID]
	if b == nil {
		b = &tokenBucket{
			tokens:     rl.capacity,
			capacity:   rl.capacity,
			refillRate: rl.rate,
			lastRefill: rl.clock(),
		}
		rl.byConn[connID] = b
	}
	return b.take(rl.clock())
}

// Release drops the connection's bucket, part of the disconnect cascade.
func (rl *RateLimiter) Release(connID string) {
	rl.mu.Lock()
	delete(rl.byConn, connID)
	rl.mu.Unlock()
}

// PruneIdle removes buckets with no activity for maxIdle, catching any
// connection the cascade missed.
func (rl *RateLimiter) PruneIdle(maxIdle time.Duration) int {
	cutoff := rl.clock().Add(-maxIdle)
	rl.mu.Lock()
	defer rl.mu.Unlock()
	n := 0
	for id, b := range rl.byConn {
		if b.lastRefill.Before(cutoff) {
			delete(rl.byConn, id)
			n++
		}
	}
	return n
}

func (rl *RateLimiter) Len() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.byConn)
}
