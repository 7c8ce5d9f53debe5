// Package metrics defines the optional metrics hooks of realmctl and the
// registry their Prometheus implementations register with.
//
// Metrics are disabled unless InitRegistry is called. Constructors then
// return nil and callers pass nil down, which costs nothing.
package metrics

import (
	"fmt"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	mu       sync.RWMutex
	registry *prometheus.Registry
)

// InitRegistry enables metrics collection with a fresh registry.
func InitRegistry() *prometheus.Registry {
	mu.Lock()
	defer mu.Unlock()
	registry = prometheus.NewRegistry()
	return registry
}

// ResetRegistry disables metrics collection.
func ResetRegistry() {
	mu.Lock()
	defer mu.Unlock()
	registry = nil
}

// IsEnabled returns whether InitRegistry has been called.
func IsEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return registry != nil
}

// GetRegistry returns the active registry, or nil when disabled.
func GetRegistry() *prometheus.Registry {
	mu.RLock()
	defer mu.RUnlock()
	return registry
}

// WriteTextfile writes the registry in the text exposition format to path,
// for the node_exporter textfile collector. It does nothing when metrics
// are disabled or path is empty.
func WriteTextfile(path string) error {
	reg := GetRegistry()
	if reg == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, reg); err != nil {
		return fmt.Errorf("failed to write metrics to %q: %w", path, err)
	}
	return nil
}
