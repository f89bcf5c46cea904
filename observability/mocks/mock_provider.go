package mocks

import (
	"github.com/stretchr/testify/mock"

	"firestudio/observability"
)

// MockProvider is a mock implementation of the Provider interface
type MockProvider struct {
	mock.Mock
}

// Logger mocks the Logger method
func (m *MockProvider) Logger(component string) observability.Logger {
	args := m.Called(component)
	if logger, ok := args.Get(0).(observability.Logger); ok {
		return logger
	}
	return nil
}

// Registry mocks the Registry method
func (m *MockProvider) Registry() observability.Registry {
	args := m.Called()
	if registry, ok := args.Get(0).(observability.Registry); ok {
		return registry
	}
	return nil
}

// Close mocks the Close method
func (m *MockProvider) Close() error {
	args := m.Called()
	return args.Error(0)
}
