// Package proxy executes requests server side on behalf of API clients and
// reports the outcome in a JSON-friendly shape.
package proxy

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/reqlab/reqlab/pkg/logging"
	"github.com/reqlab/reqlab/pkg/request"
)

// DefaultTimeout bounds a single proxied request.
const DefaultTimeout = 30 * time.Second

// MaxResponseSize is the default bound on the response body read from the
// target. Anything past it is dropped and the result is marked Truncated.
const MaxResponseSize = 10 << 20

// ErrMissingField is returned when url or method is absent.
var ErrMissingField = errors.New("url and method are required")

// Request is a proxy call. Body may be a JSON string, which is sent
// unquoted, or any other JSON value, which is sent as its encoding.
type Request struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    json.RawMessage   `json:"body,omitempty"`
}

// FromModel converts a request model, keeping only active headers.
func FromModel(r *request.Request) *Request {
	if r == nil {
		return &Request{}
	}
	out := &Request{URL: r.URL, Method: r.EffectiveMethod().String()}
	if active := r.ActiveHeaders(); len(active) > 0 {
		out.Headers = make(map[string]string, len(active))
		for _, h := range active {
			out.Headers[h.Key] = h.Value
		}
	}
	if r.Body != "" {
		out.Body, _ = json.Marshal(r.Body)
	}
	return out
}

// body returns the bytes to send.
func (r *Request) body() ([]byte, error) {
	raw := bytes.TrimSpace(r.Body)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode body: %w", err)
		}
		return []byte(s), nil
	}
	return raw, nil
}

// Result describes the target's response.
type Result struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	// Data is the decoded JSON body when the response is JSON, else the text.
	Data         any    `json:"data"`
	ResponseTime int64  `json:"responseTime"`
	URL          string `json:"url"`
	// Truncated is set when the body exceeded the size limit. Data then holds
	// the leading bytes as text.
	Truncated bool `json:"truncated,omitempty"`
}

// Executor sends proxy requests.
type Executor struct {
	client  *http.Client
	filter  *HostFilter
	log     *slog.Logger
	maxBody int64
}

// Option configures an Executor.
type Option func(*Executor)

// WithClient replaces the HTTP client.
func WithClient(c *http.Client) Option {
	return func(e *Executor) {
		if c != nil {
			e.client = c
		}
	}
}

// WithHostFilter restricts reachable hosts, including redirect targets.
func WithHostFilter(f *HostFilter) Option {
	return func(e *Executor) { e.filter = f }
}

// WithMaxResponseSize overrides MaxResponseSize. Non-positive values are
// ignored.
func WithMaxResponseSize(n int64) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxBody = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Executor) { e.log = logging.OrNop(log) }
}

// NewExecutor returns an Executor whose client times out after timeout
// (DefaultTimeout when not positive).
func NewExecutor(timeout time.Duration, opts ...Option) *Executor {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	e := &Executor{
		client:  &http.Client{Timeout: timeout},
		log:     logging.Nop(),
		maxBody: MaxResponseSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.filter != nil && e.client.CheckRedirect == nil {
		e.client.CheckRedirect = func(r *http.Request, via []*http.Request) error {
			if len(via) >= 10 {
				return errors.New("stopped after 10 redirects")
			}
			return e.filter.Check(r.URL.String())
		}
	}
	return e
}

// Execute sends req and returns the target's response. Content-Type defaults
// to application/json, and the body is only sent for methods other than GET.
// Non-2xx statuses are results, not errors.
func (e *Executor) Execute(ctx context.Context, req *Request) (*Result, error) {
	if req == nil || strings.TrimSpace(req.URL) == "" || strings.TrimSpace(req.Method) == "" {
		return nil, ErrMissingField
	}
	method := strings.ToUpper(strings.TrimSpace(req.Method))
	if err := e.filter.Check(req.URL); err != nil {
		return nil, err
	}

	var body io.Reader
	if method != http.MethodGet {
		b, err := req.body()
		if err != nil {
			return nil, err
		}
		if len(b) > 0 {
			body = bytes.NewReader(b)
		}
	}

	httpReq, err := http.NewRequestWithContext(ctx, method, req.URL, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	for k, v := range req.Headers {
		httpReq.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := e.client.Do(httpReq)
	if err != nil {
		e.log.Warn("proxy request failed", "method", method, "url", req.URL, "error", err)
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, e.maxBody+1))
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	result := &Result{
		Status:       resp.StatusCode,
		StatusText:   statusText(resp),
		Headers:      flattenHeaders(resp.Header),
		ResponseTime: elapsed,
		URL:          resp.Request.URL.String(),
	}
	if int64(len(payload)) > e.maxBody {
		result.Truncated = true
		result.Data = string(payload[:e.maxBody])
		e.log.Warn("proxy response truncated", "url", req.URL, "limit", e.maxBody)
	} else {
		result.Data = decodeData(resp.Header.Get("Content-Type"), payload)
	}

	e.log.Debug("proxy request completed",
		"method", method,
		"url", req.URL,
		"status", result.Status,
		"responseTime", elapsed,
	)
	return result, nil
}

// statusText returns the reason phrase the server sent.
func statusText(resp *http.Response) string {
	text := strings.TrimPrefix(resp.Status, strconv.Itoa(resp.StatusCode))
	text = strings.TrimSpace(text)
	if text == "" {
		return http.StatusText(resp.StatusCode)
	}
	return text
}

// flattenHeaders lowercases names and joins repeated values with ", ".
func flattenHeaders(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for k, v := range h {
		out[strings.ToLower(k)] = strings.Join(v, ", ")
	}
	return out
}

// decodeData returns the body as raw JSON when the content type says JSON
// and the body parses, otherwise as a string.
func decodeData(contentType string, payload []byte) any {
	if strings.Contains(strings.ToLower(contentType), "json") && json.Valid(payload) {
		return json.RawMessage(payload)
	}
	return string(payload)
}
