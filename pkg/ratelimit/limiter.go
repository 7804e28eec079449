package ratelimit

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Defaults for Config fields left at zero.
const (
	DefaultCleanupInterval = time.Minute
	DefaultEntryTTL        = 10 * time.Minute
)

// Config configures a Limiter.
type Config struct {
	Rate  float64 // tokens per second per key
	Burst int     // bucket capacity; defaults to twice Rate

	// TrustedProxies lists addresses or CIDR ranges whose X-Forwarded-For
	// and X-Real-IP headers are believed.
	TrustedProxies []string

	CleanupInterval time.Duration // how often idle buckets are dropped
	EntryTTL        time.Duration // idle time after which a bucket is dropped

	// Now is the clock; time.Now when nil.
	Now func() time.Time
}

// Limiter keeps a token bucket per key.
type Limiter struct {
	rate    float64
	burst   int
	now     func() time.Time
	ttl     time.Duration
	trusted []*net.IPNet

	mu      sync.Mutex
	buckets map[string]*Bucket

	stopCh    chan struct{}
	stoppedCh chan struct{}
	stopOnce  sync.Once
}

// NewLimiter creates a limiter and starts its cleanup goroutine. Call Stop
// when done.
func NewLimiter(cfg Config) *Limiter {
	rate := cfg.Rate
	if rate <= 0 {
		rate = 1
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(rate * 2)
		if burst < 1 {
			burst = 1
		}
	}
	interval := cfg.CleanupInterval
	if interval <= 0 {
		interval = DefaultCleanupInterval
	}
	ttl := cfg.EntryTTL
	if ttl <= 0 {
		ttl = DefaultEntryTTL
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	l := &Limiter{
		rate:      rate,
		burst:     burst,
		now:       now,
		ttl:       ttl,
		trusted:   parseNetworks(cfg.TrustedProxies),
		buckets:   make(map[string]*Bucket),
		stopCh:    make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
	go l.cleanup(interval)
	return l
}

// Burst returns the bucket capacity.
func (l *Limiter) Burst() int {
	return l.burst
}

// Allow consumes a token from key's bucket.
func (l *Limiter) Allow(key string) (ok bool, remaining int, retryAfter time.Duration) {
	now := l.now()

	l.mu.Lock()
	b, exists := l.buckets[key]
	if !exists {
		b = NewBucket(l.rate, l.burst, now)
		l.buckets[key] = b
	}
	l.mu.Unlock()

	return b.Take(now)
}

// Len returns the number of tracked keys.
func (l *Limiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// ClientIP returns the request's client address, honoring forwarding headers
// only when the direct peer is a trusted proxy.
func (l *Limiter) ClientIP(r *http.Request) string {
	remote := r.RemoteAddr
	if host, _, err := net.SplitHostPort(remote); err == nil {
		remote = host
	}
	if !l.isTrusted(remote) {
		return remote
	}

	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		if ip := strings.TrimSpace(first); net.ParseIP(ip) != nil {
			return ip
		}
	}
	if ip := strings.TrimSpace(r.Header.Get("X-Real-IP")); net.ParseIP(ip) != nil {
		return ip
	}
	return remote
}

// Stop ends the cleanup goroutine. It is safe to call more than once.
func (l *Limiter) Stop() {
	l.stopOnce.Do(func() { close(l.stopCh) })
	<-l.stoppedCh
}

func (l *Limiter) cleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	defer close(l.stoppedCh)

	for {
		select {
		case <-ticker.C:
			l.removeIdle()
		case <-l.stopCh:
			return
		}
	}
}

// removeIdle drops buckets unused for longer than the entry TTL.
func (l *Limiter) removeIdle() {
	cutoff := l.now().Add(-l.ttl)

	l.mu.Lock()
	defer l.mu.Unlock()
	for key, b := range l.buckets {
		if b.idleSince(cutoff) {
			delete(l.buckets, key)
		}
	}
}

func (l *Limiter) isTrusted(ip string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	for _, n := range l.trusted {
		if n.Contains(parsed) {
			return true
		}
	}
	return false
}

// parseNetworks parses CIDR ranges and bare addresses, skipping invalid
// entries.
func parseNetworks(entries []string) []*net.IPNet {
	var out []*net.IPNet
	for _, entry := range entries {
		entry = strings.TrimSpace(entry)
		if !strings.Contains(entry, "/") {
			ip := net.ParseIP(entry)
			if ip == nil {
				continue
			}
			if ip.To4() != nil {
				entry += "/32"
			} else {
				entry += "/128"
			}
		}
		if _, n, err := net.ParseCIDR(entry); err == nil {
			out = append(out, n)
		}
	}
	return out
}
