// Package observability provides a centralized provider for the logging and
// metrics components used throughout the Fire Studio backend.
package observability

import (
	"fmt"
	"io"
	"os"
	"sync"

	"firestudio/observability/logger"
	"firestudio/observability/metrics"
	"firestudio/observability/types"
)

// Logger is a type alias for the Logger interface from the types package.
type Logger = types.Logger

// Registry is a type alias for the metric registry interface.
type Registry = types.Registry

// Fields is a type alias for structured logging fields.
type Fields = types.Fields

// Labels is a type alias for metric label assignments.
type Labels = types.Labels

// Config is a type alias for the observability configuration.
type Config = types.Config

// Provider is a type alias for the Provider interface from the types package.
type Provider = types.Provider

// DefaultProvider implements the Provider interface. It manages one Logger
// per component and a single process-wide metric registry. Loggers are
// created lazily on first request; the registry is constructed once at
// provider creation so instrument definitions have a stable home for the
// process lifetime.
type DefaultProvider struct {
	config   *Config
	registry *metrics.Registry
	loggers  map[string]Logger
	mu       sync.RWMutex
}

// NewProvider creates a new observability provider with the given
// configuration. If LogOutput is not specified, it defaults to os.Stdout.
//
// Example:
//
//	provider := observability.NewProvider(&observability.Config{
//		ServiceName: "firestudio",
//		Environment: "production",
//		LogLevel:    "info",
//	})
//	log := provider.Logger("camera")
func NewProvider(config *Config) *DefaultProvider {
	if config.LogOutput == nil {
		config.LogOutput = os.Stdout
	}

	return &DefaultProvider{
		config:   config,
		registry: metrics.NewRegistry(config.ServiceName),
		loggers:  make(map[string]Logger),
	}
}

// Logger returns the Logger for the named component, creating it on first
// access. Each component logger carries the provider's additional fields
// plus a "component" field, under the name "{service}.{component}".
func (p *DefaultProvider) Logger(component string) Logger {
	p.mu.RLock()
	if l, exists := p.loggers[component]; exists {
		p.mu.RUnlock()
		return l
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()

	// Double-check
	if l, exists := p.loggers[component]; exists {
		return l
	}

	fields := make(Fields, len(p.config.AdditionalFields)+1)
	for k, v := range p.config.AdditionalFields {
		fields[k] = v
	}
	fields["component"] = component

	l := logger.New(
		fmt.Sprintf("%s.%s", p.config.ServiceName, component),
		p.config.Environment,
		p.config.LogLevel,
		p.config.LogOutput,
		fields,
	)

	p.loggers[component] = l
	return l
}

// Registry returns the process-wide metric registry.
func (p *DefaultProvider) Registry() Registry {
	return p.registry
}

// MetricRegistry returns the concrete registry for call sites that need the
// exposition handler, such as the metrics listener in main.
func (p *DefaultProvider) MetricRegistry() *metrics.Registry {
	return p.registry
}

// Close shuts down the provider. It closes the LogOutput if it implements
// io.Closer, except for os.Stdout and os.Stderr which must stay open.
func (p *DefaultProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if closer, ok := p.config.LogOutput.(io.Closer); ok {
		if closer != os.Stdout && closer != os.Stderr {
			return closer.Close()
		}
	}

	return nil
}
