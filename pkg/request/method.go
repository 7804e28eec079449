package request

import "strings"

// Method is an HTTP request method.
type Method string

// Supported methods.
const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// Methods returns the supported methods in display order.
func Methods() []Method {
	return []Method{
		MethodGet,
		MethodPost,
		MethodPut,
		MethodDelete,
		MethodPatch,
		MethodHead,
		MethodOptions,
	}
}

// String returns the method name.
func (m Method) String() string {
	return string(m)
}

// IsValid reports whether m is one of the supported methods.
func (m Method) IsValid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodDelete, MethodPatch, MethodHead, MethodOptions:
		return true
	default:
		return false
	}
}

// ParseMethod converts s to a Method, case-insensitively.
// Empty or unrecognized input yields MethodGet.
func ParseMethod(s string) Method {
	m := Method(strings.ToUpper(strings.TrimSpace(s)))
	if !m.IsValid() {
		return MethodGet
	}
	return m
}
