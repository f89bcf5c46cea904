// Package health assembles the liveness status of the backend's dependent
// subsystems. The aggregator performs no probing of its own: dependency
// statuses are statically configured or pushed in by whoever owns the
// dependency, so Check is a pure data-assembly operation with no failure
// conditions.
package health

import (
	"sync"
	"time"
)

// Service status values.
const (
	StatusConnected    = "connected"
	StatusDisconnected = "disconnected"
)

// Overall status values.
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// Status is the snapshot returned by Check.
type Status struct {
	// Status is the aggregated overall status: healthy when every service
	// is connected, unhealthy when none is, degraded otherwise.
	Status string `json:"status"`

	// Timestamp is when the snapshot was assembled.
	Timestamp time.Time `json:"timestamp"`

	// Version is the running service version.
	Version string `json:"version"`

	// Services maps each dependency name to its reported status.
	Services map[string]string `json:"services"`
}

// Aggregator reports the health of dependent subsystems.
type Aggregator struct {
	mu       sync.RWMutex
	version  string
	services map[string]string
}

// NewAggregator creates an aggregator for the given service version.
// The initial services mapping is copied; a nil map is allowed.
func NewAggregator(version string, services map[string]string) *Aggregator {
	copied := make(map[string]string, len(services))
	for name, status := range services {
		copied[name] = status
	}
	return &Aggregator{
		version:  version,
		services: copied,
	}
}

// SetStatus records the externally supplied status of one dependency.
func (a *Aggregator) SetStatus(service, status string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.services[service] = status
}

// Check returns the current status snapshot.
func (a *Aggregator) Check() Status {
	a.mu.RLock()
	defer a.mu.RUnlock()

	services := make(map[string]string, len(a.services))
	connected := 0
	for name, status := range a.services {
		services[name] = status
		if status == StatusConnected {
			connected++
		}
	}

	overall := StatusHealthy
	switch {
	case len(services) == 0 || connected == len(services):
		overall = StatusHealthy
	case connected == 0:
		overall = StatusUnhealthy
	default:
		overall = StatusDegraded
	}

	return Status{
		Status:    overall,
		Timestamp: time.Now().UTC(),
		Version:   a.version,
		Services:  services,
	}
}
