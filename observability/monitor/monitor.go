// Package monitor implements the operation instrumentation protocol: any
// operation can be executed inside a wrapper that records a request counter,
// a duration histogram and exactly one structured log entry per invocation,
// regardless of how the operation exits.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"firestudio/observability/types"
)

// Well-known metric names defined by the monitor. Names are unprefixed; the
// registry adds the service prefix on exposition.
const (
	// MetricRequests counts operation attempts by method and endpoint.
	// It is incremented before execution, so it counts attempts, not
	// completions.
	MetricRequests = "requests_total"

	// MetricRequestDuration is the wall-clock duration of wrapped
	// operations in seconds.
	MetricRequestDuration = "request_duration_seconds"

	// MetricActiveConnections tracks currently open client connections.
	MetricActiveConnections = "active_connections"

	// MetricSensorSamples counts ingested sensor samples by data type.
	MetricSensorSamples = "sensor_samples_total"

	// MetricModelPredictions counts model predictions by model type.
	MetricModelPredictions = "model_predictions_total"
)

// Operation is a wrapped unit of work. It receives the caller's context and
// reports failure through its error return; the monitor never interprets,
// wraps or retries that error.
type Operation func(ctx context.Context) error

// Monitor attaches uniform telemetry to operations. It owns no state beyond
// its registry and logger references and is safe for concurrent use.
//
// Telemetry failures (a broken registry call, a panicking log sink) are
// absorbed and reported on the fallback channel; they never alter the
// outcome of the wrapped operation.
type Monitor struct {
	registry types.Registry
	logger   types.Logger
	// fallback is the last-resort channel for telemetry failures
	fallback io.Writer
}

// NewMonitor creates a Monitor and defines its instruments on the registry.
// A definition conflict is a programming error and fails fast here, at
// startup, rather than surfacing later on the request path.
func NewMonitor(registry types.Registry, logger types.Logger) (*Monitor, error) {
	m := &Monitor{
		registry: registry,
		logger:   logger,
		fallback: os.Stderr,
	}

	definitions := []struct {
		name   string
		kind   types.MetricKind
		help   string
		labels []string
	}{
		{MetricRequests, types.KindCounter, "Total requests", []string{"method", "endpoint"}},
		{MetricRequestDuration, types.KindHistogram, "Request duration", nil},
		{MetricActiveConnections, types.KindGauge, "Active connections", nil},
		{MetricSensorSamples, types.KindCounter, "Total sensor data points", []string{"data_type"}},
		{MetricModelPredictions, types.KindCounter, "ML model predictions", []string{"model_type"}},
	}

	for _, d := range definitions {
		if err := registry.Define(d.name, d.kind, d.help, d.labels...); err != nil {
			return nil, fmt.Errorf("monitor instrument %q: %w", d.name, err)
		}
	}

	return m, nil
}

// Instrument executes op under the scoped-wrapping protocol:
//
//  1. The request counter labeled {method, endpoint} is incremented before
//     execution, counting the attempt.
//  2. op runs with the caller's context.
//  3. On success exactly one info entry is emitted; on failure exactly one
//     error entry, and the original error is returned unchanged.
//  4. The duration histogram records the elapsed wall-clock time in a
//     deferred block, exactly once per invocation on every exit path:
//     normal return, error, cancellation, or a panic inside op or inside
//     the logging itself.
func (m *Monitor) Instrument(ctx context.Context, method, endpoint string, op Operation) error {
	start := time.Now()

	defer func() {
		m.recordSafely(func() error {
			return m.registry.ObserveHistogram(MetricRequestDuration, nil, time.Since(start).Seconds())
		})
	}()

	m.recordSafely(func() error {
		return m.registry.IncrementCounter(MetricRequests, types.Labels{
			"method":   method,
			"endpoint": endpoint,
		}, 1)
	})

	err := op(ctx)
	duration := time.Since(start).Seconds()

	if err != nil {
		m.logSafely(func() {
			m.logger.Error(ctx, "API request failed", err, types.Fields{
				"endpoint": endpoint,
				"duration": duration,
				"status":   "error",
			})
		})
		return err
	}

	m.logSafely(func() {
		m.logger.Info(ctx, "API request completed", types.Fields{
			"endpoint": endpoint,
			"duration": duration,
			"status":   "success",
		})
	})
	return nil
}

// Wrap returns op wrapped with the instrumentation protocol, for call sites
// that want a reusable instrumented operation rather than an immediate call.
func (m *Monitor) Wrap(method, endpoint string, op Operation) Operation {
	return func(ctx context.Context) error {
		return m.Instrument(ctx, method, endpoint, op)
	}
}

// ConnectionOpened increments the active connections gauge.
func (m *Monitor) ConnectionOpened() {
	m.recordSafely(func() error {
		return m.registry.AddGauge(MetricActiveConnections, nil, 1)
	})
}

// ConnectionClosed decrements the active connections gauge. Call in a defer
// paired with ConnectionOpened.
func (m *Monitor) ConnectionClosed() {
	m.recordSafely(func() error {
		return m.registry.AddGauge(MetricActiveConnections, nil, -1)
	})
}

// recordSafely runs a registry mutation, diverting any error or panic to
// the fallback channel. Telemetry must never fail the operation it observes.
func (m *Monitor) recordSafely(record func() error) {
	defer func() {
		if r := recover(); r != nil {
			m.reportFailure(fmt.Errorf("panic: %v", r))
		}
	}()

	if err := record(); err != nil {
		m.reportFailure(err)
	}
}

// logSafely runs a log emission, absorbing panics from a broken pipeline or
// sink.
func (m *Monitor) logSafely(emit func()) {
	defer func() {
		if r := recover(); r != nil {
			m.reportFailure(fmt.Errorf("panic: %v", r))
		}
	}()

	emit()
}

// reportFailure writes a minimal record about a telemetry failure to the
// fallback channel. Errors here are dropped; there is nowhere left to
// report them.
func (m *Monitor) reportFailure(err error) {
	line, merr := json.Marshal(types.Fields{
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"level":     "error",
		"message":   "telemetry failure",
		"error":     err.Error(),
	})
	if merr != nil {
		return
	}
	_, _ = m.fallback.Write(append(line, '\n'))
}
