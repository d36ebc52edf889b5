// Package registry manages named runners so hosts can pick an execution
// backend by name (e.g. "dry-run" locally, "playwright" in CI).
package registry

import (
	"fmt"
	"sort"
	"sync"

	"github.com/canopyhq/canopy/pkg/ports"
)

// Registry manages the available runners.
type Registry struct {
	mu      sync.RWMutex
	runners map[string]ports.Runner
}

// New creates a new empty registry.
func New() *Registry {
	return &Registry{
		runners: make(map[string]ports.Runner),
	}
}

// Register adds a runner to the registry.
// If a runner with the same name exists, it is overwritten.
func (r *Registry) Register(name string, runner ports.Runner) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runners[name] = runner
}

// Get looks up a runner by name.
func (r *Registry) Get(name string) (ports.Runner, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	runner, ok := r.runners[name]
	if !ok {
		return nil, fmt.Errorf("runner not found: %s", name)
	}
	return runner, nil
}

// Names returns the registered runner names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.runners))
	for name := range r.runners {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
