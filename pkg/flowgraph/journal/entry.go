// Package journal records an append-only log of graph steps.
//
// Each executed node produces one Entry holding the merged state after
// the node ran, whether the fallback policy had to degrade it, and the
// next node chosen. The journal is diagnostic: it is never replayed to
// restore execution.
package journal

import (
	"encoding/json"
	"errors"
	"time"
)

// Version is the current entry format version.
const Version = 1

// Entry is one journaled step of a run.
type Entry struct {
	Version   int             `json:"version"`
	RunID     string          `json:"run_id"`
	Seq       int             `json:"seq"`
	NodeID    string          `json:"node_id"`
	NextNode  string          `json:"next_node,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
	Duration  time.Duration   `json:"duration_ns"`
	Degraded  bool            `json:"degraded"`
	Error     string          `json:"error,omitempty"`
	State     json.RawMessage `json:"state"`
}

// NewEntry builds an entry for a step. state must already be JSON.
func NewEntry(runID string, seq int, nodeID string, state []byte) Entry {
	return Entry{
		Version:   Version,
		RunID:     runID,
		Seq:       seq,
		NodeID:    nodeID,
		Timestamp: time.Now().UTC(),
		State:     state,
	}
}

// Size returns the encoded size of the entry's state payload.
func (e Entry) Size() int {
	return len(e.State)
}

var (
	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("journal store closed")

	// ErrDuplicateSeq indicates an entry with the same run and sequence
	// already exists.
	ErrDuplicateSeq = errors.New("duplicate journal sequence")
)
