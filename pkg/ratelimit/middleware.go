package ratelimit

import (
	"math"
	"net/http"
	"strconv"

	"github.com/reqlab/reqlab/pkg/httputil"
)

// KeyFunc picks the bucket key of a request.
type KeyFunc func(*http.Request) string

// Middleware rejects requests whose key is out of tokens with 429 and a
// Retry-After header. A nil limiter disables limiting.
func Middleware(l *Limiter, key KeyFunc) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		if l == nil {
			return next
		}
		if key == nil {
			key = l.ClientIP
		}

		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, remaining, retryAfter := l.Allow(key(r))

			w.Header().Set("X-RateLimit-Limit", strconv.Itoa(l.Burst()))
			w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
			if ok {
				next.ServeHTTP(w, r)
				return
			}

			secs := int64(math.Ceil(retryAfter.Seconds()))
			if secs < 1 {
				secs = 1
			}
			w.Header().Set("Retry-After", strconv.FormatInt(secs, 10))
			httputil.WriteError(w, http.StatusTooManyRequests, "rate_limited", "Too many requests. Please slow down.")
		})
	}
}
