package dedupe

import "errors"

// Sentinel errors for the dedupe engine.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrPersistence indicates a confirmed removal could not be written:
	// both the live-set write and its fallback failed, or the audit append failed.
	// The run must stop so no further decisions are taken on unsaved state.
	ErrPersistence = errors.New("persistence failed")

	// ErrNoPendingRequest indicates Resolve was called while no decision was pending.
	ErrNoPendingRequest = errors.New("no pending decision")

	// ErrNoPersister indicates a removal was confirmed on a session built without
	// a persistence collaborator (for example a read-only report scan).
	ErrNoPersister = errors.New("session has no persister")
)
