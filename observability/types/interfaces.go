// Package types defines the contracts for the Fire Studio observability layer:
// structured logging, the process-wide metric registry, and the configuration
// shared by both.
//
// The package follows clean architecture principles with minimal abstraction:
// consumers depend on these interfaces, never on the concrete Prometheus or
// JSON-pipeline implementations.
package types

import (
	"context"
	"io"
)

// Fields represents structured logging fields as key-value pairs.
// Values can be any type that is JSON-serializable.
// Common fields include "device_id", "request_id", "duration", "status".
//
// Example:
//
//	fields := types.Fields{
//		"endpoint": "upload",
//		"duration": 0.052,
//		"status":   "success",
//	}
type Fields map[string]interface{}

// Labels is a concrete label-value assignment for one metric update.
// Keys must match exactly the label names declared when the metric was
// defined, no more and no fewer.
type Labels map[string]string

// MetricKind identifies the instrument type of a metric definition.
type MetricKind int

// Supported instrument kinds.
const (
	// KindCounter is a monotonically non-decreasing numeric instrument.
	KindCounter MetricKind = iota
	// KindHistogram records a distribution of observed values
	// (bucketed counts, sum and count).
	KindHistogram
	// KindGauge records an arbitrary up/down numeric value.
	KindGauge
)

// String returns the metric kind name used in error messages and logs.
func (k MetricKind) String() string {
	switch k {
	case KindCounter:
		return "counter"
	case KindHistogram:
		return "histogram"
	case KindGauge:
		return "gauge"
	default:
		return "unknown"
	}
}

// Logger defines the contract for structured logging.
// Implementations emit one JSON object per entry, suitable for log
// aggregation systems. All methods are context-aware so correlation
// identifiers can be attached automatically.
type Logger interface {
	// Debug logs a debug message.
	// Use for detailed information useful during development and
	// troubleshooting; typically filtered out in production.
	Debug(ctx context.Context, msg string, fields Fields)

	// Info logs an informational message.
	// Use for general operational information that doesn't require action.
	Info(ctx context.Context, msg string, fields Fields)

	// Warn logs a warning message.
	// Use for potentially harmful situations that don't prevent operation.
	Warn(ctx context.Context, msg string, fields Fields)

	// Error logs an error message with the associated error.
	// Use for failures in the application; err may be nil when the error
	// is already described by fields.
	Error(ctx context.Context, msg string, err error, fields Fields)

	// WithFields returns a new Logger instance with additional persistent
	// fields. The returned logger includes these fields in every entry,
	// which is useful for consistent context like component or request IDs.
	WithFields(fields Fields) Logger
}

// Registry defines the contract for the process-wide metric registry.
// Instruments are declared once with Define and then mutated through the
// typed record methods. All mutations are safe for concurrent use and are
// visible to a concurrent exposition scrape without blocking producers.
type Registry interface {
	// Define registers a metric definition. Calling Define again with an
	// identical shape is a no-op; a conflicting kind or label set returns
	// ErrDuplicateMetric. Label names fix the dimensionality of the metric
	// for the life of the process.
	Define(name string, kind MetricKind, help string, labelNames ...string) error

	// IncrementCounter adds delta (>= 0) to the counter identified by name
	// and the given label values. Returns ErrUnknownMetric for undefined
	// names, ErrLabelArity when the label keys don't match the definition,
	// and ErrInvalidValue for a negative delta.
	IncrementCounter(name string, labels Labels, delta float64) error

	// ObserveHistogram records a single observation. The value must be a
	// finite, non-negative number.
	ObserveHistogram(name string, labels Labels, value float64) error

	// SetGauge sets the gauge to an arbitrary finite value.
	SetGauge(name string, labels Labels, value float64) error

	// AddGauge adds delta (possibly negative) to the gauge. Useful for
	// in-progress style gauges such as active connections.
	AddGauge(name string, labels Labels, delta float64) error
}

// Config holds observability configuration for the provider.
type Config struct {
	// ServiceName identifies the service in logs and prefixes all metric
	// names (e.g. "firestudio").
	ServiceName string

	// Environment specifies the deployment environment.
	// Common values: "local", "staging", "production".
	Environment string

	// LogLevel sets the minimum log level to output.
	// Valid values: "debug", "info", "warn", "error".
	LogLevel string

	// LogOutput specifies where log lines are written.
	// If nil, defaults to os.Stdout.
	LogOutput io.Writer

	// AdditionalFields are fields included in every log entry,
	// e.g. version or region.
	AdditionalFields Fields
}

// Provider manages the lifecycle of the observability components.
// It acts as a factory for per-component loggers and owns the single
// process-wide metric registry.
type Provider interface {
	// Logger returns the Logger for the named component. Repeated calls
	// with the same component return the same instance.
	Logger(component string) Logger

	// Registry returns the process-wide metric registry.
	Registry() Registry

	// Close shuts down the provider and releases resources such as a
	// file-backed log sink.
	Close() error
}
