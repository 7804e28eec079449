package curl

import "strings"

// LooksLikeCurl reports whether text starts with a curl invocation: after
// trimming and lowercasing it must begin with "curl " or "curl\n".
// It is a gate for Parse, not a grammar check.
func LooksLikeCurl(text string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	return strings.HasPrefix(trimmed, "curl ") || strings.HasPrefix(trimmed, "curl\n")
}
