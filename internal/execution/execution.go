// Package execution is the idempotency ledger: one immutable record per
// (schedule, period) pair that has materialized a project.
package execution

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/database"
)

// ErrAlreadyExecuted indicates an execution already exists for the
// (schedule, period) pair. Callers treat it as "skip", not a failure.
var ErrAlreadyExecuted = errors.New("period already executed")

const dateLayout = "2006-01-02"

// Execution proves a schedule's period has produced a project. Rows are
// written only by the executor and never updated.
type Execution struct {
	ID          string
	ScheduleID  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	ProjectID   string
	ExecutedAt  time.Time
}

// Store handles database operations for the execution ledger. It runs
// against either the database or an open transaction.
type Store struct {
	db database.DBTX
}

// NewStore creates a new execution store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Insert writes a new ledger entry. The unique index on
// (schedule_id, period_start) rejects duplicates; that rejection
// surfaces as ErrAlreadyExecuted so overlapping runs resolve naturally.
func (s *Store) Insert(ctx context.Context, exec *Execution) error {
	if exec.ID == "" {
		exec.ID = uuid.New().String()
	}
	if exec.ExecutedAt.IsZero() {
		exec.ExecutedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO executions (id, schedule_id, period_start, period_end, project_id, executed_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		exec.ID,
		exec.ScheduleID,
		exec.PeriodStart.Format(dateLayout),
		exec.PeriodEnd.Format(dateLayout),
		nullString(exec.ProjectID),
		exec.ExecutedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		if classified := database.ClassifyError(err); database.IsUniqueError(classified) {
			return fmt.Errorf("%w: schedule %s, period %s",
				ErrAlreadyExecuted, exec.ScheduleID, exec.PeriodStart.Format(dateLayout))
		}
		return fmt.Errorf("inserting execution: %w", err)
	}

	return nil
}

// FindByScheduleAndPeriod returns the ledger entry for a schedule's
// period, or nil when the period has not been executed.
func (s *Store) FindByScheduleAndPeriod(ctx context.Context, scheduleID string, periodStart time.Time) (*Execution, error) {
	query := `
		SELECT id, schedule_id, period_start, period_end, project_id, executed_at
		FROM executions
		WHERE schedule_id = ? AND period_start = ?
	`

	exec, err := scanExecution(s.db.QueryRowContext(ctx, query,
		scheduleID, periodStart.Format(dateLayout)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying execution: %w", err)
	}

	return exec, nil
}

// ListBySchedule returns a schedule's full execution history, newest
// period first.
func (s *Store) ListBySchedule(ctx context.Context, scheduleID string) ([]*Execution, error) {
	query := `
		SELECT id, schedule_id, period_start, period_end, project_id, executed_at
		FROM executions
		WHERE schedule_id = ?
		ORDER BY period_start DESC
	`

	rows, err := s.db.QueryContext(ctx, query, scheduleID)
	if err != nil {
		return nil, fmt.Errorf("querying executions: %w", err)
	}
	defer rows.Close()

	var executions []*Execution
	for rows.Next() {
		exec, err := scanExecutionFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning execution row: %w", err)
		}
		executions = append(executions, exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating execution rows: %w", err)
	}

	return executions, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExecutionFields(sc rowScanner) (*Execution, error) {
	var exec Execution
	var periodStart, periodEnd, executedAt string
	var projectID sql.NullString

	err := sc.Scan(
		&exec.ID,
		&exec.ScheduleID,
		&periodStart,
		&periodEnd,
		&projectID,
		&executedAt,
	)
	if err != nil {
		return nil, err
	}

	if exec.PeriodStart, err = time.Parse(dateLayout, periodStart); err != nil {
		return nil, fmt.Errorf("parsing period_start: %w", err)
	}
	if exec.PeriodEnd, err = time.Parse(dateLayout, periodEnd); err != nil {
		return nil, fmt.Errorf("parsing period_end: %w", err)
	}
	if projectID.Valid {
		exec.ProjectID = projectID.String
	}
	if exec.ExecutedAt, err = time.Parse(time.RFC3339, executedAt); err != nil {
		return nil, fmt.Errorf("parsing executed_at: %w", err)
	}

	return &exec, nil
}

func scanExecution(row *sql.Row) (*Execution, error) {
	return scanExecutionFields(row)
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
