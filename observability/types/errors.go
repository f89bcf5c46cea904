package types

import "errors"

// Registry error taxonomy. Definition and call-site mistakes are programmer
// errors and are surfaced immediately instead of silently dropping telemetry.
var (
	// ErrDuplicateMetric is returned when a metric name is redefined with a
	// different kind or label set. Treat as fatal at startup.
	ErrDuplicateMetric = errors.New("metric already defined with a different shape")

	// ErrUnknownMetric is returned when a record call references a metric
	// name that was never defined.
	ErrUnknownMetric = errors.New("metric not defined")

	// ErrLabelArity is returned when the label keys of a record call don't
	// exactly match the label names of the definition.
	ErrLabelArity = errors.New("label set does not match metric definition")

	// ErrInvalidValue is returned for values an instrument cannot accept:
	// negative counter deltas, NaN or infinite values, or negative
	// histogram observations.
	ErrInvalidValue = errors.New("invalid metric value")
)
