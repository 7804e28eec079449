package request

import "strings"

// Header is a single request header. Keys need not be unique.
type Header struct {
	Key   string `json:"key" yaml:"key"`
	Value string `json:"value" yaml:"value"`
}

// IsActive reports whether both key and value are set.
// Only active headers are emitted into commands and snippets.
func (h Header) IsActive() bool {
	return h.Key != "" && h.Value != ""
}

// Request is the structured representation of one HTTP request.
type Request struct {
	// Name is an optional display label.
	Name string `json:"name,omitempty" yaml:"name,omitempty"`

	// Method is the HTTP method. Zero value is treated as GET.
	Method Method `json:"method" yaml:"method"`

	// URL is kept opaque; validation is the caller's concern.
	URL string `json:"url" yaml:"url"`

	// Headers in insertion order.
	Headers []Header `json:"headers" yaml:"headers"`

	// Body is raw text or serialized JSON. It is never required to be valid JSON.
	Body string `json:"body,omitempty" yaml:"body,omitempty"`
}

// New returns an empty GET request carrying a single placeholder header,
// so that editors always have a row to show.
func New() *Request {
	return &Request{
		Method:  MethodGet,
		Headers: EnsurePlaceholder(nil),
	}
}

// EnsurePlaceholder returns headers unchanged when non-empty, otherwise a
// list holding one empty header.
func EnsurePlaceholder(headers []Header) []Header {
	if len(headers) == 0 {
		return []Header{{Key: "", Value: ""}}
	}
	return headers
}

// Clone returns a deep copy of r. A nil receiver yields nil.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := *r
	if r.Headers != nil {
		out.Headers = make([]Header, len(r.Headers))
		copy(out.Headers, r.Headers)
	}
	return &out
}

// EffectiveMethod returns the request method normalized through ParseMethod.
func (r *Request) EffectiveMethod() Method {
	if r == nil {
		return MethodGet
	}
	return ParseMethod(string(r.Method))
}

// ActiveHeaders returns the headers with both key and value set, in order.
func (r *Request) ActiveHeaders() []Header {
	if r == nil {
		return nil
	}
	var out []Header
	for _, h := range r.Headers {
		if h.IsActive() {
			out = append(out, h)
		}
	}
	return out
}

// SendsBody reports whether the body belongs in generated output:
// the method is not GET and the body is not blank.
func (r *Request) SendsBody() bool {
	if r == nil {
		return false
	}
	return r.EffectiveMethod() != MethodGet && strings.TrimSpace(r.Body) != ""
}

// DisplayName returns Name, or "<METHOD> <url>" when no name is set.
func (r *Request) DisplayName() string {
	if r == nil {
		return ""
	}
	if r.Name != "" {
		return r.Name
	}
	return string(r.EffectiveMethod()) + " " + r.URL
}
