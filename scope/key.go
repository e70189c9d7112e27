package scope

import "context"

// Key identifies one typed slot in the dynamic binding environment.
// Two Keys are equal only if they are the same instance: there is no
// notion of two differently-constructed keys colliding, even if they
// share a debug name. Construct one with NewKey or NewKeyWithDefault
// and keep it around as a package-level variable; never reconstruct a
// key per call.
type Key[T any] struct {
	name         string
	hasDefault   bool
	defaultValue T
}

// NewKey constructs and enrolls a Key with no default value, in the
// default process-wide Registry.
func NewKey[T any](name string) *Key[T] {
	return NewKeyIn[T](DefaultRegistry(), name)
}

// NewKeyWithDefault constructs and enrolls a Key carrying a default
// value, in the default process-wide Registry.
func NewKeyWithDefault[T any](name string, def T) *Key[T] {
	return NewKeyWithDefaultIn[T](DefaultRegistry(), name, def)
}

// NewKeyIn is NewKey against an explicit Registry, for test isolation.
func NewKeyIn[T any](reg *Registry, name string) *Key[T] {
	k := &Key[T]{name: name}
	reg.insert(k)
	return k
}

// NewKeyWithDefaultIn is NewKeyWithDefault against an explicit
// Registry, for test isolation.
func NewKeyWithDefaultIn[T any](reg *Registry, name string, def T) *Key[T] {
	k := &Key[T]{name: name, hasDefault: true, defaultValue: def}
	reg.insert(k)
	return k
}

// Name returns the key's debug name. Names are informational only and
// are never used for equality.
func (k *Key[T]) Name() string { return k.name }

// HasDefault reports whether the key carries a default value.
func (k *Key[T]) HasDefault() bool { return k.hasDefault }

// Default returns the key's default value, or the zero value of T if
// it has none.
func (k *Key[T]) Default() T { return k.defaultValue }

// Bind invokes body with ctx extended so that Get(ctx, k) yields value
// for body's entire dynamic extent. The binding cannot outlive this
// call: it lives only in the context.Context handed to body, which is
// discarded the moment Bind returns.
func (k *Key[T]) Bind(ctx context.Context, value T, body func(context.Context) error) error {
	return Bind(ctx, k, value, body)
}

// captureBinding implements registeredKey for CaptureAll.
func (k *Key[T]) captureBinding(ctx context.Context) (Binding, bool) {
	v, ok := getRaw(ctx, k)
	if !ok {
		return Binding{}, false
	}
	return Binding{key: k, value: v}, true
}
