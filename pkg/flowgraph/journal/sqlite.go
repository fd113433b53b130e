package journal

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// tsLayout is fixed-width so timestamps sort lexically.
const tsLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStore persists the journal to SQLite.
type SQLiteStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	closed bool
}

// NewSQLiteStore opens (or creates) a journal database at path.
// Use ":memory:" for tests.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL mode: %w", err)
	}

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			run_id      TEXT NOT NULL,
			seq         INTEGER NOT NULL,
			version     INTEGER NOT NULL,
			node_id     TEXT NOT NULL,
			next_node   TEXT NOT NULL DEFAULT '',
			timestamp   TEXT NOT NULL,
			duration_ns INTEGER NOT NULL,
			degraded    INTEGER NOT NULL,
			error       TEXT NOT NULL DEFAULT '',
			state       BLOB NOT NULL,
			PRIMARY KEY (run_id, seq)
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create table: %w", err)
	}

	if _, err := db.Exec(`
		CREATE INDEX IF NOT EXISTS idx_journal_timestamp
		ON journal(timestamp)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("create index: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Append implements Store.
func (s *SQLiteStore) Append(ctx context.Context, e Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStoreClosed
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO journal (run_id, seq, version, node_id, next_node, timestamp, duration_ns, degraded, error, state)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.RunID, e.Seq, e.Version, e.NodeID, e.NextNode,
		e.Timestamp.UTC().Format(tsLayout), int64(e.Duration), e.Degraded, e.Error, []byte(e.State))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return ErrDuplicateSeq
		}
		return fmt.Errorf("append entry: %w", err)
	}
	return nil
}

// List implements Store.
func (s *SQLiteStore) List(ctx context.Context, runID string) ([]Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, version, node_id, next_node, timestamp, duration_ns, degraded, error, state
		FROM journal
		WHERE run_id = ?
		ORDER BY seq
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("list entries: %w", err)
	}
	defer rows.Close()

	entries := []Entry{}
	for rows.Next() {
		e := Entry{RunID: runID}
		var ts string
		var dur int64
		var state []byte
		if err := rows.Scan(&e.Seq, &e.Version, &e.NodeID, &e.NextNode, &ts, &dur, &e.Degraded, &e.Error, &state); err != nil {
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		e.Timestamp, _ = time.Parse(tsLayout, ts)
		e.Duration = time.Duration(dur)
		e.State = state
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}
	return entries, nil
}

// Runs implements Store.
func (s *SQLiteStore) Runs(ctx context.Context, limit int) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStoreClosed
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id FROM journal
		GROUP BY run_id
		ORDER BY MAX(timestamp) DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.db.Close()
}

