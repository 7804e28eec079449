// Package metrics implements Prometheus text exposition
// (text/plain; version=0.0.4) for the reqlab server.
//
// Supported metric types:
//   - Counter: monotonically increasing value
//   - Gauge: value that can go up or down
//   - Histogram: distribution of observations over fixed buckets
//
// Every metric is a family of series keyed by label values and is safe for
// concurrent use.
//
// # Usage
//
//	reg := metrics.NewRegistry()
//	c := metrics.NewCollectors(reg)
//	c.ObserveHTTP("GET", "/health", 200, 3*time.Millisecond)
//	mux.Handle("GET /metrics", reg.Handler())
package metrics
