package schedule

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/database"
)

const dateLayout = "2006-01-02"

// Store handles database operations for schedules. Every query is
// scoped to a tenant. It runs against either the database or an open
// transaction.
type Store struct {
	db database.DBTX
}

// NewStore creates a new schedule store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// ListFilter narrows List results.
type ListFilter struct {
	Status     Status
	CustomerID string
}

const scheduleColumns = `id, template_id, customer_id, frequency, start_date, end_date,
	lead_time_days, name_override, lead_member_id, status, period_start,
	next_due_date, execution_count, created_at, updated_at`

// Create inserts a new schedule. A unique-constraint violation on the
// live (template, customer) pair surfaces as ErrDuplicate.
func (s *Store) Create(ctx context.Context, tenantID string, sched *Schedule) error {
	if sched.ID == "" {
		sched.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if sched.CreatedAt.IsZero() {
		sched.CreatedAt = now
	}
	sched.UpdatedAt = now

	query := `
		INSERT INTO schedules (
			id, tenant_id, template_id, customer_id, frequency, start_date, end_date,
			lead_time_days, name_override, lead_member_id, status, period_start,
			next_due_date, execution_count, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		sched.ID,
		tenantID,
		sched.TemplateID,
		sched.CustomerID,
		string(sched.Frequency),
		sched.StartDate.Format(dateLayout),
		nullDate(sched.EndDate),
		sched.LeadTimeDays,
		nullString(sched.NameOverride),
		nullStringPtr(sched.LeadMemberID),
		string(sched.Status),
		sched.PeriodStart.Format(dateLayout),
		sched.NextDueDate.Format(dateLayout),
		sched.ExecutionCount,
		sched.CreatedAt.Format(time.RFC3339),
		sched.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		if classified := database.ClassifyError(err); database.IsUniqueError(classified) {
			return fmt.Errorf("%w: template %s, customer %s", ErrDuplicate, sched.TemplateID, sched.CustomerID)
		}
		return fmt.Errorf("inserting schedule: %w", err)
	}

	return nil
}

// Update persists the schedule's mutable and state-machine fields.
func (s *Store) Update(ctx context.Context, tenantID string, sched *Schedule) error {
	sched.UpdatedAt = time.Now().UTC()

	query := `
		UPDATE schedules
		SET end_date = ?, lead_time_days = ?, name_override = ?, lead_member_id = ?,
		    status = ?, period_start = ?, next_due_date = ?, execution_count = ?,
		    updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`

	result, err := s.db.ExecContext(ctx, query,
		nullDate(sched.EndDate),
		sched.LeadTimeDays,
		nullString(sched.NameOverride),
		nullStringPtr(sched.LeadMemberID),
		string(sched.Status),
		sched.PeriodStart.Format(dateLayout),
		sched.NextDueDate.Format(dateLayout),
		sched.ExecutionCount,
		sched.UpdatedAt.Format(time.RFC3339),
		tenantID,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("updating schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, sched.ID)
	}

	return nil
}

// Delete removes a schedule. Execution history carries no foreign key
// back to schedules, so it survives the delete. Status guards live in
// the service layer.
func (s *Store) Delete(ctx context.Context, tenantID, scheduleID string) error {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM schedules WHERE tenant_id = ? AND id = ?`,
		tenantID, scheduleID,
	)
	if err != nil {
		var constraintErr *database.ConstraintError
		if errors.As(database.ClassifyError(err), &constraintErr) {
			return fmt.Errorf("%w: schedule %s is still referenced", ErrConflict, scheduleID)
		}
		return fmt.Errorf("deleting schedule: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, scheduleID)
	}

	return nil
}

// Get retrieves a schedule by ID within a tenant.
func (s *Store) Get(ctx context.Context, tenantID, scheduleID string) (*Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE tenant_id = ? AND id = ?`

	sched, err := scanSchedule(s.db.QueryRowContext(ctx, query, tenantID, scheduleID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, scheduleID)
		}
		return nil, fmt.Errorf("getting schedule: %w", err)
	}

	return sched, nil
}

// List retrieves a tenant's schedules, optionally filtered.
func (s *Store) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Schedule, error) {
	query := `SELECT ` + scheduleColumns + ` FROM schedules WHERE tenant_id = ?`
	args := []any{tenantID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.CustomerID != "" {
		query += ` AND customer_id = ?`
		args = append(args, filter.CustomerID)
	}
	query += ` ORDER BY created_at ASC, id ASC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// FindDue retrieves a tenant's ACTIVE schedules whose due date is on or
// before asOf, ordered by due date so each run processes schedules in a
// deterministic order.
func (s *Store) FindDue(ctx context.Context, tenantID string, asOf time.Time) ([]*Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE tenant_id = ? AND status = ? AND next_due_date <= ?
		ORDER BY next_due_date ASC, id ASC
	`

	rows, err := s.db.QueryContext(ctx, query,
		tenantID, string(StatusActive), asOf.UTC().Format(dateLayout))
	if err != nil {
		return nil, fmt.Errorf("querying due schedules: %w", err)
	}
	defer rows.Close()

	return scanSchedules(rows)
}

// FindLivePair returns the ACTIVE or PAUSED schedule for a (template,
// customer) pair, or nil when none exists.
func (s *Store) FindLivePair(ctx context.Context, tenantID, templateID, customerID string) (*Schedule, error) {
	query := `
		SELECT ` + scheduleColumns + `
		FROM schedules
		WHERE tenant_id = ? AND template_id = ? AND customer_id = ?
		  AND status IN (?, ?)
	`

	sched, err := scanSchedule(s.db.QueryRowContext(ctx, query,
		tenantID, templateID, customerID, string(StatusActive), string(StatusPaused)))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("querying live pair: %w", err)
	}

	return sched, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanScheduleFields(sc rowScanner) (*Schedule, error) {
	var sched Schedule
	var frequency, status string
	var startDate, periodStart, nextDueDate string
	var endDate, nameOverride, leadMemberID sql.NullString
	var createdAt, updatedAt string

	err := sc.Scan(
		&sched.ID,
		&sched.TemplateID,
		&sched.CustomerID,
		&frequency,
		&startDate,
		&endDate,
		&sched.LeadTimeDays,
		&nameOverride,
		&leadMemberID,
		&status,
		&periodStart,
		&nextDueDate,
		&sched.ExecutionCount,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sched.Frequency = Frequency(frequency)
	sched.Status = Status(status)

	if sched.StartDate, err = time.Parse(dateLayout, startDate); err != nil {
		return nil, fmt.Errorf("parsing start_date: %w", err)
	}
	if sched.PeriodStart, err = time.Parse(dateLayout, periodStart); err != nil {
		return nil, fmt.Errorf("parsing period_start: %w", err)
	}
	if sched.NextDueDate, err = time.Parse(dateLayout, nextDueDate); err != nil {
		return nil, fmt.Errorf("parsing next_due_date: %w", err)
	}
	if endDate.Valid {
		end, parseErr := time.Parse(dateLayout, endDate.String)
		if parseErr != nil {
			return nil, fmt.Errorf("parsing end_date: %w", parseErr)
		}
		sched.EndDate = &end
	}
	if nameOverride.Valid {
		sched.NameOverride = nameOverride.String
	}
	if leadMemberID.Valid {
		lead := leadMemberID.String
		sched.LeadMemberID = &lead
	}

	if sched.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if sched.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &sched, nil
}

func scanSchedule(row *sql.Row) (*Schedule, error) {
	return scanScheduleFields(row)
}

func scanSchedules(rows *sql.Rows) ([]*Schedule, error) {
	var schedules []*Schedule

	for rows.Next() {
		sched, err := scanScheduleFields(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning schedule row: %w", err)
		}
		schedules = append(schedules, sched)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating schedule rows: %w", err)
	}

	return schedules, nil
}

func nullDate(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: t.Format(dateLayout), Valid: true}
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
