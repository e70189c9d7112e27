package scope

import (
	"context"
	"sync"
	"sync/atomic"
)

// registeredKey is the type-erased face every *Key[T] presents to the
// Registry, so a Carrier can enumerate heterogeneous keys without
// knowing their value type.
type registeredKey interface {
	Name() string
	captureBinding(ctx context.Context) (Binding, bool)
}

// Registry is a process-wide, append-only, concurrently-readable set
// of enrolled keys. Writers (key construction) take a lock only around
// the copy-on-write slice swap; readers (Snapshot, used on every
// Carrier capture) never block on it.
type Registry struct {
	mu    sync.Mutex
	slice atomic.Pointer[[]registeredKey]
}

// NewRegistry returns an empty Registry. Most callers should use
// DefaultRegistry; NewRegistry exists for test isolation.
func NewRegistry() *Registry {
	r := &Registry{}
	empty := []registeredKey{}
	r.slice.Store(&empty)
	return r
}

var defaultRegistry = NewRegistry()

// DefaultRegistry returns the process-wide Registry that NewKey and
// NewKeyWithDefault enroll into.
func DefaultRegistry() *Registry { return defaultRegistry }

// Snapshot returns the current set of enrolled keys. The returned
// slice is never mutated in place; concurrent insertions produce a new
// slice and swap the pointer, so a Snapshot in hand is stable for the
// caller's entire traversal.
func (r *Registry) Snapshot() []registeredKey {
	p := r.slice.Load()
	if p == nil {
		return nil
	}
	return *p
}

// insert adds k if it is not already present (identity comparison).
// Insertion is idempotent, matching the add-if-absent contract of the
// spec's enrollment step.
func (r *Registry) insert(k registeredKey) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cur := r.Snapshot()
	for _, existing := range cur {
		if existing == k {
			return
		}
	}
	next := make([]registeredKey, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, k)
	r.slice.Store(&next)
}

// CaptureAll records the current value of every key in reg that is
// bound on ctx, in registry-traversal order. It is the primitive a
// Carrier uses to implement capture; it is exported so other packages
// never need to reach into scope's unexported frame representation.
func CaptureAll(ctx context.Context, reg *Registry) []Binding {
	snap := reg.Snapshot()
	out := make([]Binding, 0, len(snap))
	for _, rk := range snap {
		if b, ok := rk.captureBinding(ctx); ok {
			out = append(out, b)
		}
	}
	return out
}
