package history

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Store defines the interface for run persistence.
// This abstraction allows different implementations (SQLite, mock, etc.)
// and enables unit testing without database dependencies.
type Store interface {
	CreateRun(ctx context.Context, run *Run) error
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (*Run, error)
	ListRuns(ctx context.Context, workflow string, limit int) ([]Run, error)
}

// runColumns is the SELECT column list for run queries.
const runColumns = `id, workflow, started_at, completed_at, status, error,
			modules_total, failure_count, failures, duration_ms`

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite-backed store.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// CreateRun inserts a new run record.
func (s *SQLiteStore) CreateRun(ctx context.Context, run *Run) error {
	failuresJSON, err := marshalFailures(run.Failures)
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO workflow_runs (
			id, workflow, started_at, completed_at, status, error,
			modules_total, failure_count, failures, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err = s.db.ExecContext(ctx, query,
		run.ID,
		run.Workflow,
		run.StartedAt.Format(time.RFC3339),
		nullableTime(run.CompletedAt),
		string(run.Status),
		nullableString(run.Error),
		run.ModulesTotal,
		run.FailureCount,
		failuresJSON,
		nullableInt(run.DurationMS),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrRunExists
		}
		return fmt.Errorf("inserting run: %w", err)
	}
	return nil
}

// UpdateRun updates an existing run record.
func (s *SQLiteStore) UpdateRun(ctx context.Context, run *Run) error {
	failuresJSON, err := marshalFailures(run.Failures)
	if err != nil {
		return fmt.Errorf("marshalling failures: %w", err)
	}

	query := `
		UPDATE workflow_runs SET
			completed_at = ?, status = ?, error = ?,
			modules_total = ?, failure_count = ?, failures = ?, duration_ms = ?
		WHERE id = ?`

	result, err := s.db.ExecContext(ctx, query,
		nullableTime(run.CompletedAt),
		string(run.Status),
		nullableString(run.Error),
		run.ModulesTotal,
		run.FailureCount,
		failuresJSON,
		nullableInt(run.DurationMS),
		run.ID,
	)
	if err != nil {
		return fmt.Errorf("updating run: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrRunNotFound
	}
	return nil
}

// GetRun retrieves a run by ID.
func (s *SQLiteStore) GetRun(ctx context.Context, id string) (*Run, error) {
	query := `SELECT ` + runColumns + ` FROM workflow_runs WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)
	run, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("querying run: %w", err)
	}
	return run, nil
}

// ListRuns retrieves recent runs, newest first. When workflow is empty,
// runs for all workflows are returned.
func (s *SQLiteStore) ListRuns(ctx context.Context, workflow string, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 100 {
		limit = 100
	}

	query := `SELECT ` + runColumns + ` FROM workflow_runs`
	args := []any{}
	if workflow != "" {
		query += ` WHERE workflow = ?`
		args = append(args, workflow)
	}
	query += ` ORDER BY started_at DESC LIMIT ?`
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		run, scanErr := scanRunFromRows(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scanning run: %w", scanErr)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating runs: %w", err)
	}
	return runs, nil
}

// ─── Row Scanning Helpers ───────────────────────────────────────────────────

// rowScanner is satisfied by both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

// scanRun scans a single sql.Row into a Run.
func scanRun(row *sql.Row) (*Run, error) {
	return scanRunRow(row)
}

// scanRunFromRows scans a sql.Rows result into a Run.
func scanRunFromRows(rows *sql.Rows) (*Run, error) {
	return scanRunRow(rows)
}

func scanRunRow(scanner rowScanner) (*Run, error) {
	var r Run
	var startedAt string
	var completedAt, errText, failuresJSON sql.NullString
	var durationMS sql.NullInt64
	var status string

	err := scanner.Scan(
		&r.ID,
		&r.Workflow,
		&startedAt,
		&completedAt,
		&status,
		&errText,
		&r.ModulesTotal,
		&r.FailureCount,
		&failuresJSON,
		&durationMS,
	)
	if err != nil {
		return nil, err
	}

	r.Status = RunStatus(status)

	// Parse timestamps (stored as RFC3339 text)
	if t, parseErr := time.Parse(time.RFC3339, startedAt); parseErr == nil {
		r.StartedAt = t
	}
	if completedAt.Valid {
		if t, parseErr := time.Parse(time.RFC3339, completedAt.String); parseErr == nil {
			r.CompletedAt = &t
		}
	}
	if errText.Valid {
		r.Error = &errText.String
	}
	if durationMS.Valid {
		d := int(durationMS.Int64)
		r.DurationMS = &d
	}

	// Unmarshal failures JSON
	if failuresJSON.Valid && failuresJSON.String != "" && failuresJSON.String != "null" {
		if jsonErr := json.Unmarshal([]byte(failuresJSON.String), &r.Failures); jsonErr != nil {
			return nil, fmt.Errorf("unmarshalling failures: %w", jsonErr)
		}
	}

	return &r, nil
}

// ─── SQL Helpers ────────────────────────────────────────────────────────────

func nullableString(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullableTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(time.RFC3339), Valid: true}
}

func nullableInt(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func marshalFailures(failures []ModuleFailure) (sql.NullString, error) {
	if len(failures) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(failures)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "unique constraint")
}
