package api

import (
	"net/http"
	"strconv"
	"strings"
	"time"
)

// CORSConfig holds the cross-origin policy of the API.
type CORSConfig struct {
	// AllowedOrigins lists origins allowed to call the API. Empty or "*"
	// allows all.
	AllowedOrigins []string

	AllowedMethods []string
	AllowedHeaders []string

	// AllowCredentials echoes the specific origin instead of "*".
	AllowCredentials bool

	// MaxAge is the preflight cache lifetime in seconds. Default: 86400.
	MaxAge int
}

// DefaultCORSConfig allows every origin without credentials.
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", UserHeader},
		MaxAge:         86400,
	}
}

func (c *CORSConfig) wildcard() bool {
	if len(c.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == "*" {
			return true
		}
	}
	return false
}

func (c *CORSConfig) isOriginAllowed(origin string) bool {
	if c.wildcard() {
		return true
	}
	for _, o := range c.AllowedOrigins {
		if o == origin {
			return true
		}
	}
	return false
}

// allowOrigin returns the Access-Control-Allow-Origin value for origin, or
// "" when the origin is not allowed.
func (c *CORSConfig) allowOrigin(origin string) string {
	if c.AllowCredentials {
		if origin != "" && c.isOriginAllowed(origin) {
			return origin
		}
		return ""
	}
	if c.wildcard() {
		return "*"
	}
	if c.isOriginAllowed(origin) {
		return origin
	}
	return ""
}

func (c *CORSConfig) methods() string {
	if len(c.AllowedMethods) == 0 {
		return "GET, POST, DELETE, OPTIONS"
	}
	return strings.Join(c.AllowedMethods, ", ")
}

func (c *CORSConfig) headers() string {
	if len(c.AllowedHeaders) == 0 {
		return "Content-Type, Authorization, " + UserHeader
	}
	return strings.Join(c.AllowedHeaders, ", ")
}

func (c *CORSConfig) maxAge() string {
	if c.MaxAge <= 0 {
		return "86400"
	}
	return strconv.Itoa(c.MaxAge)
}

// withMiddleware wraps the mux, outermost first: logging, CORS, security
// headers.
func (s *Server) withMiddleware(next http.Handler) http.Handler {
	return s.logRequests(corsMiddleware(s.cors, securityHeaders(next)))
}

// statusRecorder captures the status code written by a handler.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		// r.Pattern is filled in by the mux once it has matched a route.
		s.metrics.ObserveHTTP(r.Method, r.Pattern, rec.status, time.Since(start))
		s.log.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration", time.Since(start),
		)
	})
}

func corsMiddleware(cfg CORSConfig, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add("Vary", "Origin")

		origin := cfg.allowOrigin(r.Header.Get("Origin"))
		if origin == "" {
			// The browser blocks the response.
			next.ServeHTTP(w, r)
			return
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", cfg.methods())
		w.Header().Set("Access-Control-Allow-Headers", cfg.headers())
		w.Header().Set("Access-Control-Max-Age", cfg.maxAge())
		if cfg.AllowCredentials {
			w.Header().Set("Access-Control-Allow-Credentials", "true")
		}

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}
