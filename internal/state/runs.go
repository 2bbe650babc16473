package state

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"
)

const runColumns = `id, command, model, design, status, tests_passed, tests_total, error, started_at, completed_at`

// CreateRun starts a new run of command against model under design.
func (s *SQLiteStore) CreateRun(command, model, design string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	run := &Run{
		ID:        generateID(),
		Command:   command,
		Model:     model,
		Design:    design,
		Status:    RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}

	s.logger.Debug("creating run",
		slog.String("id", run.ID),
		slog.String("model", model),
		slog.String("design", design))

	_, err := s.db.Exec(
		`INSERT INTO runs (id, command, model, design, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		run.ID, command, model, design, string(run.Status), run.StartedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create run: %w", err)
	}
	return run, nil
}

// CompleteRun marks a run as finished with the given status and test counts.
func (s *SQLiteStore) CompleteRun(id string, status RunStatus, passed, total int, errMsg string) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	var errValue any
	if errMsg != "" {
		errValue = errMsg
	}

	res, err := s.db.Exec(
		`UPDATE runs SET status = ?, tests_passed = ?, tests_total = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(status), passed, total, errValue, time.Now().UTC().UnixNano(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to complete run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// RecordValues stores parameter values for a run in a single transaction.
func (s *SQLiteStore) RecordValues(runID string, values []Value) error {
	if s.db == nil {
		return fmt.Errorf("database not opened")
	}

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(
		`INSERT OR REPLACE INTO run_values (run_id, ref, name, display, min, max) VALUES (?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, v := range values {
		if _, err := stmt.Exec(runID, v.Ref, v.Name, v.Display, v.Min, v.Max); err != nil {
			return fmt.Errorf("failed to record value %s: %w", v.Ref, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit values: %w", err)
	}
	s.logger.Debug("recorded values", slog.String("run", runID), slog.Int("count", len(values)))
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(id string) (*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("run not found: %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. An empty model lists runs of
// every model; a limit of zero or less lists them all.
func (s *SQLiteStore) ListRuns(model string, limit int) ([]*Run, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.Query(
		`SELECT `+runColumns+` FROM runs WHERE ? = '' OR model = ? ORDER BY started_at DESC, rowid DESC LIMIT ?`,
		model, model, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// GetRunValues returns the values recorded for a run, ordered by reference.
func (s *SQLiteStore) GetRunValues(runID string) ([]Value, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.Query(
		`SELECT ref, name, display, min, max FROM run_values WHERE run_id = ? ORDER BY ref`, runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get run values: %w", err)
	}
	defer rows.Close()

	var values []Value
	for rows.Next() {
		var (
			v        Value
			min, max sql.NullFloat64
		)
		if err := rows.Scan(&v.Ref, &v.Name, &v.Display, &min, &max); err != nil {
			return nil, fmt.Errorf("failed to scan value: %w", err)
		}
		if min.Valid {
			v.Min = &min.Float64
		}
		if max.Valid {
			v.Max = &max.Float64
		}
		values = append(values, v)
	}
	return values, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var (
		run       Run
		status    string
		errMsg    sql.NullString
		started   int64
		completed sql.NullInt64
	)
	err := row.Scan(&run.ID, &run.Command, &run.Model, &run.Design, &status,
		&run.TestsPassed, &run.TestsTotal, &errMsg, &started, &completed)
	if err != nil {
		return nil, err
	}

	run.Status = RunStatus(status)
	run.Error = errMsg.String
	run.StartedAt = time.Unix(0, started).UTC()
	if completed.Valid {
		t := time.Unix(0, completed.Int64).UTC()
		run.CompletedAt = &t
	}
	return &run, nil
}
