// Package flags provides reusable flag types for CLI commands.
package flags

import (
	"fmt"
	"strings"

	"github.com/reqlab/reqlab/pkg/request"
)

// Headers implements pflag.Value for repeatable -H 'Key: Value' flags.
// Values are split at the first colon and trimmed, as curl does.
type Headers []request.Header

// String returns the headers in curl notation, comma separated.
func (h *Headers) String() string {
	parts := make([]string, 0, len(*h))
	for _, hdr := range *h {
		parts = append(parts, hdr.Key+": "+hdr.Value)
	}
	return strings.Join(parts, ", ")
}

// Set appends one header.
func (h *Headers) Set(value string) error {
	key, val, ok := strings.Cut(value, ":")
	key = strings.TrimSpace(key)
	if !ok || key == "" {
		return fmt.Errorf("header %q must be in 'Key: Value' form", value)
	}
	*h = append(*h, request.Header{Key: key, Value: strings.TrimSpace(val)})
	return nil
}

// Type specifies the type label for Cobra flags.
func (h *Headers) Type() string {
	return "header"
}
