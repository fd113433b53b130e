package journal

import (
	"context"
	"slices"
	"sync"
	"time"
)

// MemoryStore is an in-memory journal. Data is lost when the process exits.
type MemoryStore struct {
	mu     sync.RWMutex
	runs   map[string][]Entry
	last   map[string]time.Time
	closed bool
}

// NewMemoryStore creates an empty in-memory journal.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		runs: make(map[string][]Entry),
		last: make(map[string]time.Time),
	}
}

// Append implements Store.
func (m *MemoryStore) Append(_ context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return ErrStoreClosed
	}
	for _, existing := range m.runs[e.RunID] {
		if existing.Seq == e.Seq {
			return ErrDuplicateSeq
		}
	}

	e.State = slices.Clone(e.State)
	m.runs[e.RunID] = append(m.runs[e.RunID], e)
	m.last[e.RunID] = e.Timestamp
	return nil
}

// List implements Store.
func (m *MemoryStore) List(_ context.Context, runID string) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	entries := make([]Entry, 0, len(m.runs[runID]))
	for _, e := range m.runs[runID] {
		e.State = slices.Clone(e.State)
		entries = append(entries, e)
	}
	slices.SortFunc(entries, func(a, b Entry) int { return a.Seq - b.Seq })
	return entries, nil
}

// Runs implements Store.
func (m *MemoryStore) Runs(_ context.Context, limit int) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.closed {
		return nil, ErrStoreClosed
	}

	ids := make([]string, 0, len(m.last))
	for id := range m.last {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, func(a, b string) int { return m.last[b].Compare(m.last[a]) })
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
	}
	return ids, nil
}

// Close implements Store.
func (m *MemoryStore) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.closed = true
	m.runs = nil
	m.last = nil
	return nil
}

// Len returns the total number of entries across all runs.
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()

	n := 0
	for _, entries := range m.runs {
		n += len(entries)
	}
	return n
}
