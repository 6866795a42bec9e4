package adminapi

import (
	"sync"

	"github.com/correlator-io/correlator/internal/runtime"
	"github.com/correlator-io/correlator/internal/scenario"
)

// registryEntry is one loaded scenario paired with the runtime built to
// execute it.
type registryEntry struct {
	scenarioValue *scenario.Scenario
	runtimeValue  *runtime.Runtime
}

// registry holds every scenario the admin API has accepted, keyed by
// scenario name.
type registry struct {
	mu      sync.RWMutex
	entries map[string]*registryEntry
}

func newRegistry() *registry {
	return &registry{entries: make(map[string]*registryEntry)}
}

func (r *registry) put(name string, e *registryEntry) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.entries[name] = e
}

func (r *registry) get(name string) (*registryEntry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[name]

	return e, ok
}

func (r *registry) list() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.entries))
	for name := range r.entries {
		names = append(names, name)
	}

	return names
}
