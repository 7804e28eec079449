// Package ratelimit throttles clients with token buckets. A Limiter keeps one
// bucket per client key (user id or address) and Middleware enforces it on
// HTTP handlers.
package ratelimit

import (
	"math"
	"sync"
	"time"
)

// Bucket is a single token bucket. It is safe for concurrent use.
type Bucket struct {
	mu         sync.Mutex
	tokens     float64
	burst      float64
	rate       float64 // tokens per second
	lastUpdate time.Time
}

// NewBucket creates a full bucket refilling at rate tokens per second up to
// burst tokens. A non-positive burst defaults to rate, rounded up.
func NewBucket(rate float64, burst int, now time.Time) *Bucket {
	capacity := float64(burst)
	if capacity <= 0 {
		capacity = math.Ceil(rate)
	}
	return &Bucket{tokens: capacity, burst: capacity, rate: rate, lastUpdate: now}
}

// refill adds tokens for the time elapsed since the last call. Caller must
// hold b.mu.
func (b *Bucket) refill(now time.Time) {
	if elapsed := now.Sub(b.lastUpdate).Seconds(); elapsed > 0 {
		b.tokens = math.Min(b.burst, b.tokens+elapsed*b.rate)
	}
	b.lastUpdate = now
}

// Take consumes one token at now. It reports whether one was available, how
// many whole tokens remain, and how long until the next token when denied.
func (b *Bucket) Take(now time.Time) (ok bool, remaining int, retryAfter time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.refill(now)
	if b.tokens >= 1 {
		b.tokens--
		return true, int(b.tokens), 0
	}
	wait := (1 - b.tokens) / b.rate
	return false, 0, time.Duration(wait * float64(time.Second))
}

// idleSince reports whether the bucket was last used before cutoff.
func (b *Bucket) idleSince(cutoff time.Time) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastUpdate.Before(cutoff)
}
