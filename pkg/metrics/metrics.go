package metrics

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"slices"
	"sort"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
)

var (
	// ErrLabelCountMismatch is returned when label values don't match the declared label names.
	ErrLabelCountMismatch = errors.New("label count mismatch")

	// ErrNegativeCounterValue is returned when a counter would decrease.
	ErrNegativeCounterValue = errors.New("counter cannot be decreased")

	// ErrDuplicateMetric is the panic value for a second registration of a name.
	ErrDuplicateMetric = errors.New("duplicate metric name")
)

// atomicFloat64 stores the bits of a float64 for lock-free updates.
type atomicFloat64 struct {
	bits atomic.Uint64
}

func (a *atomicFloat64) Load() float64 {
	return math.Float64frombits(a.bits.Load())
}

func (a *atomicFloat64) Store(v float64) {
	a.bits.Store(math.Float64bits(v))
}

func (a *atomicFloat64) Add(delta float64) {
	for {
		old := a.bits.Load()
		next := math.Float64bits(math.Float64frombits(old) + delta)
		if a.bits.CompareAndSwap(old, next) {
			return
		}
	}
}

// Type is the exposition type of a metric.
type Type string

const (
	TypeCounter   Type = "counter"
	TypeGauge     Type = "gauge"
	TypeHistogram Type = "histogram"
)

// family holds every series of one metric.
type family struct {
	name       string
	help       string
	typ        Type
	labelNames []string
	buckets    []float64 // histogram upper bounds, +Inf last

	mu     sync.RWMutex
	series map[string]*series
}

type series struct {
	labelValues []string
	value       atomicFloat64 // counter/gauge value or histogram sum
	counts      []atomic.Uint64
	count       atomic.Uint64
}

func newFamily(name, help string, typ Type, labelNames []string) *family {
	return &family{
		name:       name,
		help:       help,
		typ:        typ,
		labelNames: labelNames,
		series:     make(map[string]*series),
	}
}

func (f *family) get(values []string) (*series, error) {
	if len(values) != len(f.labelNames) {
		return nil, fmt.Errorf("%w: %s expects %d labels, got %d",
			ErrLabelCountMismatch, f.name, len(f.labelNames), len(values))
	}

	key := strings.Join(values, "\x00")
	f.mu.RLock()
	s, ok := f.series[key]
	f.mu.RUnlock()
	if ok {
		return s, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if s, ok = f.series[key]; ok {
		return s, nil
	}
	s = &series{labelValues: slices.Clone(values)}
	if f.typ == TypeHistogram {
		s.counts = make([]atomic.Uint64, len(f.buckets))
	}
	f.series[key] = s
	return s, nil
}

// snapshot returns the series sorted by label values.
func (f *family) snapshot() []*series {
	f.mu.RLock()
	out := make([]*series, 0, len(f.series))
	for _, s := range f.series {
		out = append(out, s)
	}
	f.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return slices.Compare(out[i].labelValues, out[j].labelValues) < 0
	})
	return out
}

// Counter is a monotonically increasing metric.
type Counter struct{ f *family }

// CounterVec is one labelled series of a Counter.
type CounterVec struct{ s *series }

// WithLabels returns the series for the given label values.
func (c *Counter) WithLabels(values ...string) (*CounterVec, error) {
	s, err := c.f.get(values)
	if err != nil {
		return nil, err
	}
	return &CounterVec{s: s}, nil
}

// Inc adds one to the counter.
func (v *CounterVec) Inc() { v.s.value.Add(1) }

// Add adds delta, which must not be negative.
func (v *CounterVec) Add(delta float64) error {
	if delta < 0 {
		return ErrNegativeCounterValue
	}
	v.s.value.Add(delta)
	return nil
}

// Value returns the current count.
func (v *CounterVec) Value() float64 { return v.s.value.Load() }

// Gauge is a metric that can go up and down.
type Gauge struct{ f *family }

// GaugeVec is one labelled series of a Gauge.
type GaugeVec struct{ s *series }

// WithLabels returns the series for the given label values.
func (g *Gauge) WithLabels(values ...string) (*GaugeVec, error) {
	s, err := g.f.get(values)
	if err != nil {
		return nil, err
	}
	return &GaugeVec{s: s}, nil
}

// Set is shorthand for a gauge without labels.
func (g *Gauge) Set(v float64) {
	if vec, err := g.WithLabels(); err == nil {
		vec.Set(v)
	}
}

func (v *GaugeVec) Set(val float64)   { v.s.value.Store(val) }
func (v *GaugeVec) Add(delta float64) { v.s.value.Add(delta) }
func (v *GaugeVec) Value() float64    { return v.s.value.Load() }

// Histogram counts observations into cumulative buckets.
type Histogram struct{ f *family }

// HistogramVec is one labelled series of a Histogram.
type HistogramVec struct {
	s       *series
	buckets []float64
}

// WithLabels returns the series for the given label values.
func (h *Histogram) WithLabels(values ...string) (*HistogramVec, error) {
	s, err := h.f.get(values)
	if err != nil {
		return nil, err
	}
	return &HistogramVec{s: s, buckets: h.f.buckets}, nil
}

// Observe records one value.
func (v *HistogramVec) Observe(value float64) {
	if i := sort.SearchFloat64s(v.buckets, value); i < len(v.buckets) {
		v.s.counts[i].Add(1)
	}
	v.s.value.Add(value)
	v.s.count.Add(1)
}

// Count returns the number of observations.
func (v *HistogramVec) Count() uint64 { return v.s.count.Load() }

// Registry holds registered metrics in registration order.
type Registry struct {
	mu       sync.RWMutex
	families []*family
	names    map[string]struct{}
	hooks    []func()
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{names: make(map[string]struct{})}
}

// NewCounter registers a counter.
func (r *Registry) NewCounter(name, help string, labels ...string) *Counter {
	return &Counter{f: r.register(newFamily(name, help, TypeCounter, labels))}
}

// NewGauge registers a gauge.
func (r *Registry) NewGauge(name, help string, labels ...string) *Gauge {
	return &Gauge{f: r.register(newFamily(name, help, TypeGauge, labels))}
}

// NewHistogram registers a histogram. An +Inf bucket is appended when missing.
func (r *Registry) NewHistogram(name, help string, buckets []float64, labels ...string) *Histogram {
	f := newFamily(name, help, TypeHistogram, labels)
	f.buckets = slices.Clone(buckets)
	sort.Float64s(f.buckets)
	if len(f.buckets) == 0 || !math.IsInf(f.buckets[len(f.buckets)-1], 1) {
		f.buckets = append(f.buckets, math.Inf(1))
	}
	return &Histogram{f: r.register(f)}
}

// OnCollect adds a function that runs before every exposition, for values
// sampled on demand.
func (r *Registry) OnCollect(fn func()) {
	r.mu.Lock()
	r.hooks = append(r.hooks, fn)
	r.mu.Unlock()
}

// register panics on a duplicate name; duplicate families produce invalid output.
func (r *Registry) register(f *family) *family {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.names[f.name]; exists {
		panic(fmt.Sprintf("%s: %s", ErrDuplicateMetric, f.name))
	}
	r.names[f.name] = struct{}{}
	r.families = append(r.families, f)
	return f
}

// Write renders every metric with at least one series in text format.
func (r *Registry) Write(w io.Writer) error {
	r.mu.RLock()
	families := slices.Clone(r.families)
	hooks := slices.Clone(r.hooks)
	r.mu.RUnlock()

	for _, fn := range hooks {
		fn()
	}

	bw := bufio.NewWriter(w)
	for _, f := range families {
		writeFamily(bw, f)
	}
	return bw.Flush()
}

// Handler serves the registry at a /metrics route.
func (r *Registry) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = r.Write(w)
	})
}

func writeFamily(w *bufio.Writer, f *family) {
	all := f.snapshot()
	if len(all) == 0 {
		return
	}

	fmt.Fprintf(w, "# HELP %s %s\n", f.name, escapeHelp(f.help))
	fmt.Fprintf(w, "# TYPE %s %s\n", f.name, f.typ)

	for _, s := range all {
		if f.typ != TypeHistogram {
			writeSample(w, f.name, f.labelNames, s.labelValues, s.value.Load())
			continue
		}

		names := append(slices.Clone(f.labelNames), "le")
		var cumulative uint64
		for i, bound := range f.buckets {
			cumulative += s.counts[i].Load()
			values := append(slices.Clone(s.labelValues), formatFloat(bound))
			writeSample(w, f.name+"_bucket", names, values, float64(cumulative))
		}
		writeSample(w, f.name+"_sum", f.labelNames, s.labelValues, s.value.Load())
		writeSample(w, f.name+"_count", f.labelNames, s.labelValues, float64(s.count.Load()))
	}
}

func writeSample(w *bufio.Writer, name string, labelNames, labelValues []string, value float64) {
	w.WriteString(name)
	if len(labelNames) > 0 {
		w.WriteByte('{')
		for i, n := range labelNames {
			if i > 0 {
				w.WriteByte(',')
			}
			fmt.Fprintf(w, "%s=\"%s\"", n, escapeLabelValue(labelValues[i]))
		}
		w.WriteByte('}')
	}
	w.WriteByte(' ')
	w.WriteString(formatFloat(value))
	w.WriteByte('\n')
}

func formatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "+Inf"
	case math.IsInf(v, -1):
		return "-Inf"
	}
	return strconv.FormatFloat(v, 'g', -1, 64)
}

var (
	helpEscaper  = strings.NewReplacer(`\`, `\\`, "\n", `\n`)
	labelEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\n", `\n`)
)

func escapeHelp(s string) string       { return helpEscaper.Replace(s) }
func escapeLabelValue(s string) string { return labelEscaper.Replace(s) }
