package journal

import "context"

// Store persists journal entries. Implementations must be safe for
// concurrent use.
type Store interface {
	// Append adds an entry. Entries are immutable once appended.
	Append(ctx context.Context, e Entry) error

	// List returns all entries for a run ordered by sequence.
	// A run with no entries yields an empty slice, not an error.
	List(ctx context.Context, runID string) ([]Entry, error)

	// Runs returns known run IDs, most recent first.
	Runs(ctx context.Context, limit int) ([]string, error)

	// Close releases any resources.
	Close() error
}
