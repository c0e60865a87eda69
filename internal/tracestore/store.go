// Package tracestore persists recorded pipeline traces in SQLite.
//
// Each persisted run holds the invocation's input, outcome, and the full
// event log and value map captured by the probe recorder. Event order is
// the recorder's insertion order (seq), never wall-clock time, so a
// persisted trace replays byte-identically.
package tracestore

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store provides durable storage for pipeline traces.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db *sql.DB
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically; safe to call on
// an existing database.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite supports one writer at a time; a single pooled connection
	// avoids SQLITE_BUSY under concurrent writes.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	return nil
}

// Run is one persisted pipeline invocation.
type Run struct {
	Token      string
	Scenario   string
	Input      int64
	Result     int64
	Faulted    bool
	FaultLabel string
}

// WriteRun inserts a run record. Duplicate tokens are rejected: a run
// token identifies exactly one invocation.
func (s *Store) WriteRun(ctx context.Context, run Run) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (token, scenario, input, result, faulted, fault_label)
		VALUES (?, ?, ?, ?, ?, ?)
	`, run.Token, run.Scenario, run.Input, run.Result, boolToInt(run.Faulted), run.FaultLabel)
	if err != nil {
		return fmt.Errorf("write run: %w", err)
	}
	return nil
}

// WriteTrace stores the recorder's event log and value map for a run.
// The run record must exist (foreign key constraint). Everything is
// written in one transaction so a trace is never half-persisted.
func (s *Store) WriteTrace(ctx context.Context, token string, events []string, values map[string]int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write trace: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	for seq, event := range events {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO events (run_token, seq, event) VALUES (?, ?, ?)
		`, token, seq, event); err != nil {
			return fmt.Errorf("write trace: event %d: %w", seq, err)
		}
	}
	for key, value := range values {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO recorded_values (run_token, key, value) VALUES (?, ?, ?)
		`, token, key, value); err != nil {
			return fmt.Errorf("write trace: value %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write trace: commit: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
