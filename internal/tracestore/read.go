package tracestore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// ErrRunNotFound is returned when a run token is unknown.
var ErrRunNotFound = errors.New("run not found")

// ReadRun returns the run record for a token.
func (s *Store) ReadRun(ctx context.Context, token string) (Run, error) {
	var run Run
	var faulted int
	err := s.db.QueryRowContext(ctx, `
		SELECT token, scenario, input, result, faulted, fault_label
		FROM runs WHERE token = ?
	`, token).Scan(&run.Token, &run.Scenario, &run.Input, &run.Result, &faulted, &run.FaultLabel)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, fmt.Errorf("%w: %s", ErrRunNotFound, token)
	}
	if err != nil {
		return Run{}, fmt.Errorf("read run: %w", err)
	}
	run.Faulted = faulted != 0
	return run, nil
}

// ReadEvents returns a run's event log in recorded order.
func (s *Store) ReadEvents(ctx context.Context, token string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT event FROM events WHERE run_token = ? ORDER BY seq ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	defer rows.Close()

	var events []string
	for rows.Next() {
		var event string
		if err := rows.Scan(&event); err != nil {
			return nil, fmt.Errorf("read events: %w", err)
		}
		events = append(events, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return events, nil
}

// ReadValues returns a run's recorded value map.
func (s *Store) ReadValues(ctx context.Context, token string) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, value FROM recorded_values WHERE run_token = ?
	`, token)
	if err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]int64)
	for rows.Next() {
		var key string
		var value int64
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("read values: %w", err)
		}
		values[key] = value
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read values: %w", err)
	}
	return values, nil
}

// ListRuns returns all run records. UUIDv7 tokens embed a timestamp in
// their most significant bits, so token order is creation order.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT token, scenario, input, result, faulted, fault_label
		FROM runs ORDER BY token ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var run Run
		var faulted int
		if err := rows.Scan(&run.Token, &run.Scenario, &run.Input, &run.Result, &faulted, &run.FaultLabel); err != nil {
			return nil, fmt.Errorf("list runs: %w", err)
		}
		run.Faulted = faulted != 0
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
