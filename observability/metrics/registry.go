// Package metrics implements the process-wide metric registry on top of the
// Prometheus client library. It follows Prometheus naming conventions with
// the service name as a prefix for every instrument.
package metrics

import (
	"fmt"
	"math"
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"firestudio/observability/types"
)

// definition is one registered instrument together with its declared shape.
// Exactly one of the vec fields is non-nil, matching kind.
type definition struct {
	kind       types.MetricKind
	help       string
	labelNames []string

	counter   *prometheus.CounterVec
	histogram *prometheus.HistogramVec
	gauge     *prometheus.GaugeVec
}

// Registry is the process-wide collection of named, typed instruments.
// Instruments are declared once with Define; label combinations are created
// lazily on first use and live for the process lifetime, so callers must
// keep label values to a bounded set.
//
// The registry is safe for concurrent use: definition lookups take a read
// lock and the actual updates are atomic inside the Prometheus client, so
// producers never block an exposition scrape.
type Registry struct {
	mu sync.RWMutex
	// serviceName prefixes every exposed metric name
	serviceName string
	// prom is a private registry so tests and multiple instances never
	// collide on the global default registerer
	prom *prometheus.Registry
	// defs indexes definitions by their unprefixed name
	defs map[string]*definition
}

// NewRegistry creates an empty registry. The service name is used as a
// prefix for all exposed metric names (e.g. "firestudio_requests_total").
func NewRegistry(serviceName string) *Registry {
	return &Registry{
		serviceName: serviceName,
		prom:        prometheus.NewRegistry(),
		defs:        make(map[string]*definition),
	}
}

// Define registers a metric definition.
//
// Defining the same name twice with an identical kind and label set is a
// no-op. A conflicting redefinition returns ErrDuplicateMetric; that
// indicates a programming error in instrument declaration and should be
// treated as fatal at startup.
func (r *Registry) Define(name string, kind types.MetricKind, help string, labelNames ...string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if existing, ok := r.defs[name]; ok {
		if existing.kind == kind && sameLabels(existing.labelNames, labelNames) {
			return nil
		}
		return fmt.Errorf("define %q as %s%v, already %s%v: %w",
			name, kind, labelNames, existing.kind, existing.labelNames, types.ErrDuplicateMetric)
	}

	def := &definition{
		kind:       kind,
		help:       help,
		labelNames: append([]string(nil), labelNames...),
	}

	fullName := fmt.Sprintf("%s_%s", r.serviceName, name)

	switch kind {
	case types.KindCounter:
		def.counter = prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: fullName, Help: help},
			def.labelNames,
		)
		if err := r.prom.Register(def.counter); err != nil {
			return fmt.Errorf("register counter %q: %w", name, err)
		}

	case types.KindHistogram:
		def.histogram = prometheus.NewHistogramVec(
			prometheus.HistogramOpts{Name: fullName, Help: help, Buckets: prometheus.DefBuckets},
			def.labelNames,
		)
		if err := r.prom.Register(def.histogram); err != nil {
			return fmt.Errorf("register histogram %q: %w", name, err)
		}

	case types.KindGauge:
		def.gauge = prometheus.NewGaugeVec(
			prometheus.GaugeOpts{Name: fullName, Help: help},
			def.labelNames,
		)
		if err := r.prom.Register(def.gauge); err != nil {
			return fmt.Errorf("register gauge %q: %w", name, err)
		}

	default:
		return fmt.Errorf("define %q: unsupported kind %d: %w", name, kind, types.ErrInvalidValue)
	}

	r.defs[name] = def
	return nil
}

// MustDefine registers a metric definition and panics on error.
// Use during application initialization where a conflict is fatal.
func (r *Registry) MustDefine(name string, kind types.MetricKind, help string, labelNames ...string) {
	if err := r.Define(name, kind, help, labelNames...); err != nil {
		panic(fmt.Sprintf("failed to define metric: %v", err))
	}
}

// IncrementCounter adds delta to the counter bound to the given label values.
// delta must be >= 0; counters are monotonic.
func (r *Registry) IncrementCounter(name string, labels types.Labels, delta float64) error {
	if delta < 0 || math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("counter %q delta %v: %w", name, delta, types.ErrInvalidValue)
	}

	def, err := r.lookup(name, types.KindCounter)
	if err != nil {
		return err
	}

	c, err := def.counter.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("counter %q labels %v: %w", name, labels, types.ErrLabelArity)
	}
	c.Add(delta)
	return nil
}

// ObserveHistogram records one observation. The value must be finite and
// non-negative.
func (r *Registry) ObserveHistogram(name string, labels types.Labels, value float64) error {
	if value < 0 || math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("histogram %q value %v: %w", name, value, types.ErrInvalidValue)
	}

	def, err := r.lookup(name, types.KindHistogram)
	if err != nil {
		return err
	}

	h, err := def.histogram.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("histogram %q labels %v: %w", name, labels, types.ErrLabelArity)
	}
	h.Observe(value)
	return nil
}

// SetGauge sets the gauge to an arbitrary finite value.
func (r *Registry) SetGauge(name string, labels types.Labels, value float64) error {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fmt.Errorf("gauge %q value %v: %w", name, value, types.ErrInvalidValue)
	}

	def, err := r.lookup(name, types.KindGauge)
	if err != nil {
		return err
	}

	g, err := def.gauge.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("gauge %q labels %v: %w", name, labels, types.ErrLabelArity)
	}
	g.Set(value)
	return nil
}

// AddGauge adds delta (possibly negative) to the gauge. Use for in-progress
// style gauges such as active connections.
func (r *Registry) AddGauge(name string, labels types.Labels, delta float64) error {
	if math.IsNaN(delta) || math.IsInf(delta, 0) {
		return fmt.Errorf("gauge %q delta %v: %w", name, delta, types.ErrInvalidValue)
	}

	def, err := r.lookup(name, types.KindGauge)
	if err != nil {
		return err
	}

	g, err := def.gauge.GetMetricWith(prometheus.Labels(labels))
	if err != nil {
		return fmt.Errorf("gauge %q labels %v: %w", name, labels, types.ErrLabelArity)
	}
	g.Add(delta)
	return nil
}

// HTTPHandler returns an http.Handler exposing all registered instruments in
// the Prometheus text format: one `name{label="value",...} value` line per
// instrument-label combination, with bucket/sum/count lines for histograms.
// Mount it on a dedicated metrics listener.
func (r *Registry) HTTPHandler() http.Handler {
	return promhttp.HandlerFor(r.prom, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying Prometheus gatherer for tests and for
// embedding the registry into an existing exposition setup.
func (r *Registry) Gatherer() prometheus.Gatherer {
	return r.prom
}

// Collector returns the raw Prometheus collector for a defined metric.
// Intended for tests that assert on metric values with testutil.
func (r *Registry) Collector(name string) (prometheus.Collector, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("metric %q: %w", name, types.ErrUnknownMetric)
	}
	switch def.kind {
	case types.KindCounter:
		return def.counter, nil
	case types.KindHistogram:
		return def.histogram, nil
	default:
		return def.gauge, nil
	}
}

// lookup resolves a definition by name and verifies the instrument kind.
func (r *Registry) lookup(name string, kind types.MetricKind) (*definition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.defs[name]
	if !ok {
		return nil, fmt.Errorf("metric %q: %w", name, types.ErrUnknownMetric)
	}
	if def.kind != kind {
		return nil, fmt.Errorf("metric %q is a %s, not a %s: %w", name, def.kind, kind, types.ErrUnknownMetric)
	}
	return def, nil
}

// sameLabels reports whether two declared label-name lists are identical,
// including order. Label names form an ordered set fixed at definition time.
func sameLabels(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
