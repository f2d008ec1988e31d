// Package forecast defines the abstract Adapter and a table-driven registry
// keyed by provider tag, so the composer never branches on provider
// identity.
package forecast

import (
	"context"
	"fmt"
	"sync"

	"github.com/i474232898/weather-data-aggregation/internal/core"
)

// Adapter reduces one upstream forecast provider to a single operation:
// FetchDaily. Every implementation must return at least the next 7
// calendar days in the core's canonical units, with LocalMidnightEpoch set
// to the local midnight of the day described.
type Adapter interface {
	Tag() string
	FetchDaily(ctx context.Context, coords core.GeoCoordinates) ([]core.ForecastDay, error)
}

// Registry is a table-driven lookup of Adapters by provider tag. The core
// never branches on provider identity itself; it calls whichever adapter
// the registry hands back.
type Registry struct {
	mu       sync.RWMutex
	adapters map[string]Adapter
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds or replaces the adapter for its own Tag().
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.adapters[a.Tag()] = a
}

// Get returns the adapter for tag, or InvalidProvider if none is
// registered.
func (r *Registry) Get(tag string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[tag]
	if !ok {
		return nil, core.ErrInvalidProvider(tag)
	}
	return a, nil
}

// Tags returns the currently registered provider tags, for diagnostics.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.adapters))
	for t := range r.adapters {
		tags = append(tags, t)
	}
	return tags
}

// MissingField wraps a core.ErrMissingField with the provider tag that
// encountered it, so an adapter's parse failures are attributable in logs.
func MissingField(provider, field string) error {
	return fmt.Errorf("%s: %w", provider, core.ErrMissingField(field))
}
