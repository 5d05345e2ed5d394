// Package poll owns the long-polling state and the update fetcher.
package poll

import "context"

// PollState is the process-wide persisted polling state. Offset tracks the
// highest update id seen by the fetcher; LastHandled tracks the highest update
// id the dispatcher actually acted upon. LastHandled never exceeds Offset.
type PollState struct {
	Offset      int64 `json:"offset"`
	LastHandled int64 `json:"last_handled_update_id"`
}

// Store persists PollState across invocations. It is read once at the start of
// a cycle and written once at the end.
type Store interface {
	// Load returns the persisted state, or a zero state when none exists yet.
	Load(ctx context.Context) (PollState, error)
	// Save persists the provided state.
	Save(ctx context.Context, state PollState) error
}
