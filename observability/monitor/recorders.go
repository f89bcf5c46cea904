package monitor

import (
	"context"

	"firestudio/observability/types"
)

// Label enumerations for the domain counters. Free-form values coming from
// devices would create one time series per distinct value, so anything
// outside these sets is folded into OtherLabel. Unbounded identifiers such
// as device IDs are carried as log fields only, never as labels.
var (
	knownDataTypes = map[string]struct{}{
		"temperature":   {},
		"humidity":      {},
		"soil_moisture": {},
		"smoke":         {},
		"image":         {},
	}

	knownModelTypes = map[string]struct{}{
		"fire_detection":    {},
		"disease_diagnosis": {},
	}
)

// OtherLabel is the overflow bucket for label values outside the known
// enumerations.
const OtherLabel = "other"

// RecordSensorSample records one ingested sensor sample: one labeled counter
// increment and one info entry carrying the full sample identity.
// Inputs are assumed pre-validated by the caller.
func (m *Monitor) RecordSensorSample(ctx context.Context, deviceID, dataType string) {
	m.recordSafely(func() error {
		return m.registry.IncrementCounter(MetricSensorSamples, types.Labels{
			"data_type": boundLabel(dataType, knownDataTypes),
		}, 1)
	})

	m.logSafely(func() {
		m.logger.Info(ctx, "Sensor data received", types.Fields{
			"device_id": deviceID,
			"data_type": dataType,
		})
	})
}

// RecordModelPrediction records one model prediction: one labeled counter
// increment and one info entry including the reported confidence.
func (m *Monitor) RecordModelPrediction(ctx context.Context, modelType string, confidence float64) {
	m.recordSafely(func() error {
		return m.registry.IncrementCounter(MetricModelPredictions, types.Labels{
			"model_type": boundLabel(modelType, knownModelTypes),
		}, 1)
	})

	m.logSafely(func() {
		m.logger.Info(ctx, "ML prediction made", types.Fields{
			"model_type": modelType,
			"confidence": confidence,
		})
	})
}

// boundLabel clamps a label value to a fixed enumeration.
func boundLabel(value string, known map[string]struct{}) string {
	if _, ok := known[value]; ok {
		return value
	}
	return OtherLabel
}
