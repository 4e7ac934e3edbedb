// Package registry manages named conflict heuristics, so callers can select
// detectors by name from CLI flags or API requests.
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/canonry/canonry/internal/conflicts"
	"github.com/canonry/canonry/pkg/ports"
)

// Registry manages the available heuristics.
type Registry struct {
	mu         sync.RWMutex
	heuristics map[string]ports.Heuristic
}

// New creates a registry pre-seeded with the built-in heuristics.
func New() *Registry {
	r := NewEmpty()
	for _, h := range conflicts.Defaults() {
		r.Register(h)
	}
	return r
}

// NewEmpty creates a registry with nothing registered.
func NewEmpty() *Registry {
	return &Registry{
		heuristics: make(map[string]ports.Heuristic),
	}
}

// Register adds a heuristic to the registry.
// If a heuristic with the same name exists, it is overwritten.
func (r *Registry) Register(h ports.Heuristic) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.heuristics[h.Name()] = h
}

// Get looks up a heuristic by name.
// Returns an error if the heuristic is not found.
func (r *Registry) Get(name string) (ports.Heuristic, error) {
	r.mu.RLock()
	h, ok := r.heuristics[name]
	r.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("heuristic not found: %s", name)
	}

	return h, nil
}

// Select resolves the named heuristics in the given order.
// Returns an error on the first unknown name.
func (r *Registry) Select(names ...string) ([]ports.Heuristic, error) {
	selected := make([]ports.Heuristic, 0, len(names))
	for _, name := range names {
		h, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		selected = append(selected, h)
	}
	return selected, nil
}

// Names returns every registered heuristic name, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.heuristics))
	for name := range r.heuristics {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered heuristic, ordered by name.
func (r *Registry) All() []ports.Heuristic {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.heuristics))
	for name := range r.heuristics {
		names = append(names, name)
	}
	sort.Strings(names)

	all := make([]ports.Heuristic, 0, len(names))
	for _, name := range names {
		all = append(all, r.heuristics[name])
	}
	return all
}
