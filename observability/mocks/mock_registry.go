package mocks

import (
	"github.com/stretchr/testify/mock"

	"firestudio/observability/types"
)

// MockRegistry is a mock implementation of the Registry interface
type MockRegistry struct {
	mock.Mock
}

// Define mocks the Define method
func (m *MockRegistry) Define(name string, kind types.MetricKind, help string, labelNames ...string) error {
	args := m.Called(name, kind, help, labelNames)
	return args.Error(0)
}

// IncrementCounter mocks the IncrementCounter method
func (m *MockRegistry) IncrementCounter(name string, labels types.Labels, delta float64) error {
	args := m.Called(name, labels, delta)
	return args.Error(0)
}

// ObserveHistogram mocks the ObserveHistogram method
func (m *MockRegistry) ObserveHistogram(name string, labels types.Labels, value float64) error {
	args := m.Called(name, labels, value)
	return args.Error(0)
}

// SetGauge mocks the SetGauge method
func (m *MockRegistry) SetGauge(name string, labels types.Labels, value float64) error {
	args := m.Called(name, labels, value)
	return args.Error(0)
}

// AddGauge mocks the AddGauge method
func (m *MockRegistry) AddGauge(name string, labels types.Labels, delta float64) error {
	args := m.Called(name, labels, delta)
	return args.Error(0)
}
