package metrics

import (
	"runtime"
	"strconv"
	"time"
)

// DefaultBuckets are latency buckets in seconds.
var DefaultBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30}

// Collectors are the metrics the reqlab server exports. A nil *Collectors
// records nothing.
type Collectors struct {
	// HTTPRequests counts API requests. Labels: method, route, status.
	HTTPRequests *Counter

	// HTTPDuration tracks API latency. Labels: method, route.
	HTTPDuration *Histogram

	// ProxyRequests counts proxied calls. Labels: method, outcome
	// (the upstream status code, or blocked/invalid/error).
	ProxyRequests *Counter

	// ProxyDuration tracks upstream latency of successful proxied calls.
	ProxyDuration *Histogram

	// Snippets counts generated snippets. Labels: target.
	Snippets *Counter

	// Shares counts created share links. Labels: type.
	Shares *Counter

	uptime     *Gauge
	goroutines *Gauge
	heapAlloc  *Gauge
	start      time.Time
}

// NewCollectors registers the reqlab metrics, plus uptime and a few Go
// runtime gauges sampled at scrape time.
func NewCollectors(r *Registry) *Collectors {
	c := &Collectors{
		HTTPRequests: r.NewCounter("reqlab_http_requests_total",
			"Total API requests", "method", "route", "status"),
		HTTPDuration: r.NewHistogram("reqlab_http_request_duration_seconds",
			"API request latency in seconds", DefaultBuckets, "method", "route"),
		ProxyRequests: r.NewCounter("reqlab_proxy_requests_total",
			"Total proxied requests", "method", "outcome"),
		ProxyDuration: r.NewHistogram("reqlab_proxy_upstream_duration_seconds",
			"Upstream latency of proxied requests in seconds", DefaultBuckets, "method"),
		Snippets: r.NewCounter("reqlab_snippets_generated_total",
			"Total generated code snippets", "target"),
		Shares: r.NewCounter("reqlab_shares_created_total",
			"Total created share links", "type"),
		uptime:     r.NewGauge("reqlab_uptime_seconds", "Seconds since the server started"),
		goroutines: r.NewGauge("go_goroutines", "Number of goroutines that currently exist"),
		heapAlloc:  r.NewGauge("go_memstats_heap_alloc_bytes", "Heap bytes allocated and still in use"),
		start:      time.Now(),
	}
	r.OnCollect(c.sampleRuntime)
	return c
}

func (c *Collectors) sampleRuntime() {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	c.uptime.Set(time.Since(c.start).Seconds())
	c.goroutines.Set(float64(runtime.NumGoroutine()))
	c.heapAlloc.Set(float64(mem.HeapAlloc))
}

// ObserveHTTP records one API request. route is the matched mux pattern so
// that path parameters don't explode label cardinality.
func (c *Collectors) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if c == nil {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	if v, err := c.HTTPRequests.WithLabels(method, route, strconv.Itoa(status)); err == nil {
		v.Inc()
	}
	if v, err := c.HTTPDuration.WithLabels(method, route); err == nil {
		v.Observe(elapsed.Seconds())
	}
}

// ObserveProxy records one proxied call. elapsed is ignored when zero.
func (c *Collectors) ObserveProxy(method, outcome string, elapsed time.Duration) {
	if c == nil {
		return
	}
	if v, err := c.ProxyRequests.WithLabels(method, outcome); err == nil {
		v.Inc()
	}
	if elapsed <= 0 {
		return
	}
	if v, err := c.ProxyDuration.WithLabels(method); err == nil {
		v.Observe(elapsed.Seconds())
	}
}

// CountSnippet records one generated snippet.
func (c *Collectors) CountSnippet(target string) {
	if c == nil {
		return
	}
	if v, err := c.Snippets.WithLabels(target); err == nil {
		v.Inc()
	}
}

// CountShare records one created share.
func (c *Collectors) CountShare(kind string) {
	if c == nil {
		return
	}
	if v, err := c.Shares.WithLabels(kind); err == nil {
		v.Inc()
	}
}
