// Package metrics provides Prometheus metrics collection for the RSVP
// server.
//
// All metrics are optional - if the registry is never initialized, the
// constructors return no-op implementations with zero overhead, so the
// server can run with or without metrics collection enabled.
package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// registry is the global Prometheus registry for all server metrics.
	// Write-once via registryOnce, read-many afterwards.
	registry     *prometheus.Registry
	registryOnce sync.Once
)

// InitRegistry initializes the global Prometheus registry.
//
// Must be called before creating metrics instances, typically from main.
// Safe to call multiple times; subsequent calls are ignored. If never
// called, GetRegistry returns nil and constructors return no-op metrics.
func InitRegistry() {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()
	})
}

// GetRegistry returns the global registry, or nil if metrics are disabled.
func GetRegistry() *prometheus.Registry {
	return registry
}

// IsEnabled reports whether InitRegistry has been called.
func IsEnabled() bool {
	return GetRegistry() != nil
}
