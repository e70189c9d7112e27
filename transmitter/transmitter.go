// Package transmitter defines the SPI through which foreign ambient
// state — diagnostic context maps, distributed-tracing baggage, or any
// other worker-local store the core doesn't know about — is captured,
// replayed, and torn down in lock-step with scoped bindings.
package transmitter

import "context"

// Transmitter propagates one kind of foreign ambient state across a
// Carrier's capture/restore boundary. Implementations must be
// stateless with respect to any one carrier: everything that needs to
// flow from capture to teardown travels through the snapshot/backup
// values, never through fields on the Transmitter itself, because a
// single Transmitter instance is shared by every Carrier that ever
// captures it.
type Transmitter interface {
	// Name identifies the transmitter for TransmitterFailure reporting
	// and for deduplication in the registry.
	Name() string

	// Capture runs on the submitting goroutine. A nil snapshot with a
	// nil error means "nothing to propagate" and the transmitter is
	// omitted from the resulting Carrier entirely.
	Capture(ctx context.Context) (snapshot any, err error)

	// Replay runs on the worker before the task body, in registration
	// order. It must save the worker's current foreign state into
	// backup before installing snapshot, and return the context the
	// rest of the restore chain (and the task) should see.
	Replay(ctx context.Context, snapshot any) (newCtx context.Context, backup any, err error)

	// Restore runs on the worker after the task body, in reverse
	// replay order. It must reinstall backup exactly, including the
	// "nothing was there before" case.
	Restore(ctx context.Context, backup any) (newCtx context.Context, err error)
}
