package scope

import (
	"context"

	"github.com/jeeves-cluster-organization/scopeprop/scopeerr"
)

// Bind invokes body with ctx extended so that Get(ctx, key) yields
// value for body's entire dynamic extent, and pops the binding (by
// simply not propagating the derived context any further) the instant
// body returns — normally or by panic.
func Bind[T any](ctx context.Context, key *Key[T], value T, body func(context.Context) error) error {
	if key == nil {
		return &scopeerr.Precondition{Arg: "key", Reason: "must not be nil"}
	}
	if body == nil {
		return &scopeerr.Precondition{Arg: "body", Reason: "must not be nil"}
	}
	return body(push(ctx, []Binding{{key: key, value: value}}))
}

// BindAll establishes every binding in bindings as a single atomic
// frame (later entries shadow earlier ones that share a key) and
// invokes body with the extended context.
func BindAll(ctx context.Context, bindings []Binding, body func(context.Context) error) error {
	if body == nil {
		return &scopeerr.Precondition{Arg: "body", Reason: "must not be nil"}
	}
	return body(push(ctx, bindings))
}

// Get returns the innermost value bound to key on ctx, falling back to
// key's default, or failing with *scopeerr.Unbound if neither exists.
func Get[T any](ctx context.Context, key *Key[T]) (T, error) {
	var zero T
	if key == nil {
		return zero, &scopeerr.Precondition{Arg: "key", Reason: "must not be nil"}
	}
	if raw, ok := getRaw(ctx, key); ok {
		return raw.(T), nil
	}
	if key.hasDefault {
		return key.defaultValue, nil
	}
	return zero, &scopeerr.Unbound{Key: key.name}
}

// GetOrDefault returns the innermost value bound to key on ctx, else
// key's default, else fallback. It never fails.
func GetOrDefault[T any](ctx context.Context, key *Key[T], fallback T) T {
	if key == nil {
		return fallback
	}
	if raw, ok := getRaw(ctx, key); ok {
		return raw.(T)
	}
	if key.hasDefault {
		return key.defaultValue
	}
	return fallback
}

// IsBound reports whether key has an explicit binding on ctx. It does
// not consider key's default value a binding — a key with a default
// but no active Bind reports false, so callers can distinguish "using
// the default" from "something up the stack actually set this."
func IsBound[T any](ctx context.Context, key *Key[T]) bool {
	if key == nil {
		return false
	}
	_, ok := getRaw(ctx, key)
	return ok
}
