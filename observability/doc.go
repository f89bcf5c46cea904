/*
Package observability provides structured logging and metrics collection for
the Fire Studio backend services.

This package implements the reusable instrumentation layer of the system:
a typed, labeled metric registry, a staged structured-logging pipeline, and
an operation monitor that attaches both to arbitrary operations with
exactly-once emission guarantees.

# Architecture

	Provider (manages instances)
	    ├── Logger (staged pipeline, one JSON line per entry)
	    └── Registry (Prometheus-backed counters, histograms, gauges)

	Monitor (observability/monitor)
	    └── wraps operations, consuming Logger + Registry

# Design Principles

Provider Pattern: one logger per component and a single process-wide metric
registry, preventing duplicate instrument registrations and keeping log
context consistent.

Dependency Inversion: consumers depend on the interfaces in
observability/types, never on the Prometheus client or the JSON pipeline
directly, enabling testing with mocks.

Explicit Injection: the monitor receives its registry and logger as
constructor arguments rather than reaching for ambient globals, so every
wrapped operation is testable in isolation.

Cardinality Discipline: instruments declare their label dimensions once at
definition time; domain recorders clamp label values to fixed enumerations
so free-form identifiers can never fan out into unbounded time series.

# Package Structure

	observability/
	├── types/      # core contracts and the error taxonomy
	├── metrics/    # Prometheus-backed registry and exposition handler
	├── logger/     # staged structured-logging pipeline
	├── monitor/    # operation wrapper and domain event recorders
	├── mocks/      # testify mocks for the contracts
	└── provider.go # component factory and lifecycle
*/
package observability
