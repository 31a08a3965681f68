package workflow

import "context"

// LogStore is the persistence contract for execution logs. One mutable
// log exists per workflow id; saving under an existing id replaces the
// previous snapshot.
//
// Save and Load must round-trip every field exactly. Serialization
// fidelity is a correctness requirement: a resumed process rebuilds
// its entire view of the run from the stored log.
type LogStore interface {
	// Save durably persists the log, replacing any prior snapshot for
	// the same workflow id.
	Save(ctx context.Context, log *ExecutionLog) error

	// Load retrieves the log for a workflow id. It returns an error
	// wrapping mity.ErrLogNotFound when no log exists.
	Load(ctx context.Context, workflowID string) (*ExecutionLog, error)

	// Exists reports whether a log is stored for the workflow id.
	Exists(ctx context.Context, workflowID string) (bool, error)

	// Delete removes the stored log for a workflow id. Deleting a
	// missing log is not an error.
	Delete(ctx context.Context, workflowID string) error
}
