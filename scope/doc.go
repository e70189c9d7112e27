// Package scope implements the scoped binding runtime (ContextKey
// identity, registry, and bind/get semantics) that the rest of
// scopeprop builds on.
//
// A Key[T] is a process-wide, pointer-identity slot. Binding a value
// against a key never mutates shared state: Bind derives a new
// context.Context carrying one more frame and hands it to the caller's
// function literal, so the binding's lifetime is exactly the dynamic
// extent of that call — the same guarantee Java's ScopedValue or a
// try/finally-guarded thread-local gives, expressed here as an
// unmutated, garbage-collected value rather than a push/pop pair.
//
// The frame chain rides inside context.Context specifically so it
// crosses goroutine boundaries the same way any other context value
// does: only by being handed the context, never implicitly. Carrier
// (package carrier) is what lets a value cross into a goroutine that
// wasn't handed the context directly, by recording every bound,
// registered key and re-establishing them as one frame on the worker.
package scope
