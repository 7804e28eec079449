package proxy

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// ErrHostBlocked is returned when the target host is not allowed by the filter.
var ErrHostBlocked = errors.New("target host is not allowed")

// HostFilter restricts which hosts the executor may reach. Patterns are
// globs matched case-insensitively against the URL host name, without port
// (e.g. "*.internal", "169.254.*").
type HostFilter struct {
	Allow []string // when non-empty, only matching hosts are reachable
	Deny  []string // matching hosts are never reachable
}

// NewHostFilter validates the patterns and returns a filter.
func NewHostFilter(allow, deny []string) (*HostFilter, error) {
	f := &HostFilter{Allow: normalize(allow), Deny: normalize(deny)}
	for _, p := range append(append([]string{}, f.Allow...), f.Deny...) {
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid host pattern %q", p)
		}
	}
	return f, nil
}

func normalize(patterns []string) []string {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Allowed reports whether host passes the filter. Deny wins over Allow.
// A nil filter allows everything.
func (f *HostFilter) Allowed(host string) bool {
	if f == nil {
		return true
	}
	host = strings.ToLower(host)

	for _, pattern := range f.Deny {
		if matchHost(pattern, host) {
			return false
		}
	}
	if len(f.Allow) == 0 {
		return true
	}
	for _, pattern := range f.Allow {
		if matchHost(pattern, host) {
			return true
		}
	}
	return false
}

// Check parses rawURL and returns ErrHostBlocked if its host is filtered.
func (f *HostFilter) Check(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("parse url: %w", err)
	}
	if !f.Allowed(u.Hostname()) {
		return fmt.Errorf("%w: %s", ErrHostBlocked, u.Hostname())
	}
	return nil
}

func matchHost(pattern, host string) bool {
	ok, err := doublestar.Match(pattern, host)
	return err == nil && ok
}
