package scope

import "context"

// frame is one node of the per-context binding chain. A frame may
// carry more than one binding when it was pushed by BindAll, so that
// a batch of bindings counts as a single logical scope.
type frame struct {
	parent   *frame
	bindings []Binding
}

// Binding pairs a registered key's identity with a captured value. It
// is opaque outside this package: callers build one with Bound and
// pass slices of them to BindAll, or receive them back from
// CaptureAll for use by a Carrier.
type Binding struct {
	key   any
	value any
}

// Bound constructs a Binding for key and value, for use with BindAll
// or a Carrier.
func Bound[T any](key *Key[T], value T) Binding {
	return Binding{key: key, value: value}
}

type frameCtxKey struct{}

var frameKey = frameCtxKey{}

func currentFrame(ctx context.Context) *frame {
	f, _ := ctx.Value(frameKey).(*frame)
	return f
}

func push(ctx context.Context, bindings []Binding) context.Context {
	if len(bindings) == 0 {
		return ctx
	}
	f := &frame{parent: currentFrame(ctx), bindings: bindings}
	return context.WithValue(ctx, frameKey, f)
}

// getRaw walks the frame chain reachable from ctx for the innermost
// binding of key, scanning each frame's bindings in reverse so a
// later entry in the same BindAll batch shadows an earlier one.
func getRaw(ctx context.Context, key any) (any, bool) {
	for f := currentFrame(ctx); f != nil; f = f.parent {
		for i := len(f.bindings) - 1; i >= 0; i-- {
			if f.bindings[i].key == key {
				return f.bindings[i].value, true
			}
		}
	}
	return nil, false
}
