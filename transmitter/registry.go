package transmitter

import (
	"sync"
	"sync/atomic"
)

// Discoverer is a process-start discovery hook: something that can
// list transmitters found by some external mechanism (a plugin
// directory scan, a build tag, a config file). Concrete transmitter
// packages more commonly self-register from an init(), the way
// database/sql drivers do; Discoverer exists for hosts that need
// Refresh's re-scan semantics.
type Discoverer func() []Transmitter

// Registry is an append-only, concurrently-readable set of
// transmitters, keyed by name. Re-registering a name replaces the
// prior entry rather than erroring, so a host can override a default
// transmitter with its own implementation.
type Registry struct {
	mu          sync.Mutex
	items       atomic.Pointer[[]Transmitter]
	discoverers atomic.Pointer[[]Discoverer]
}

// NewRegistry returns an empty Registry. Most callers should use
// DefaultRegistry; NewRegistry exists for test isolation.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := []Transmitter{}
	r.items.Store(&empty)
	discoverers := []Discoverer{}
	r.discoverers.Store(&discoverers)
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide transmitter Registry.
func DefaultRegistry() *Registry { return defaultRegistry }

// Register adds t to the default registry, or replaces the existing
// entry with the same name.
func Register(t Transmitter) { defaultRegistry.Register(t) }

// RegisterDiscoverer adds d to the default registry's discoverers.
func RegisterDiscoverer(d Discoverer) { defaultRegistry.RegisterDiscoverer(d) }

// Refresh re-runs the default registry's discoverers.
func Refresh() { defaultRegistry.Refresh() }

// Registered returns the default registry's current snapshot.
func Registered() []Transmitter { return defaultRegistry.Snapshot() }

// Snapshot returns the current set of registered transmitters. Safe
// for concurrent use with Register.
func (r *Registry) Snapshot() []Transmitter {
	p := r.items.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Register adds t, replacing any existing transmitter with the same
// name.
func (r *Registry) Register(t Transmitter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.Snapshot()
	next := make([]Transmitter, 0, len(cur)+1)
	replaced := false
	for _, existing := range cur {
		if existing.Name() == t.Name() {
			next = append(next, t)
			replaced = true
			continue
		}
		next = append(next, existing)
	}
	if !replaced {
		next = append(next, t)
	}
	r.items.Store(&next)
}

// RegisterDiscoverer adds d to the registry's discoverer list.
func (r *Registry) RegisterDiscoverer(d Discoverer) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.discoverersSnapshot()
	next := make([]Discoverer, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, d)
	r.discoverers.Store(&next)
}

func (r *Registry) discoverersSnapshot() []Discoverer {
	p := r.discoverers.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Refresh re-runs every registered discoverer and merges what it
// returns into the registry, replacing any transmitter that shares a
// name with one already registered.
func (r *Registry) Refresh() {
	for _, d := range r.discoverersSnapshot() {
		for _, t := range d() {
			r.Register(t)
		}
	}
}
