// Package project persists the projects and task lists a schedule
// materializes each period.
package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/database"
)

// ErrNotFound indicates the project does not exist in the tenant.
var ErrNotFound = errors.New("project not found")

// Project is a single materialized engagement for a customer.
type Project struct {
	ID               string
	CustomerID       string
	Name             string
	LeadMemberID     *string
	SourceScheduleID string // Schedule that produced this project, empty for ad hoc
	CreatedAt        time.Time
}

// Task is one checklist item on a project.
type Task struct {
	ID        string
	ProjectID string
	Title     string
	Position  int
	CreatedAt time.Time
}

// CreateParams carries everything needed to materialize a project.
type CreateParams struct {
	CustomerID       string
	Name             string
	LeadMemberID     *string
	SourceScheduleID string
	Tasks            []string
}

// Materializer creates projects and their tasks. It runs against either
// the database or an open transaction so project creation can share the
// executor's per-schedule transaction.
type Materializer struct {
	db database.DBTX
}

// NewMaterializer creates a new project materializer.
func NewMaterializer(db database.DBTX) *Materializer {
	return &Materializer{db: db}
}

// Create inserts a project and its task rows, returning the project ID.
func (m *Materializer) Create(ctx context.Context, tenantID string, params CreateParams) (string, error) {
	projectID := uuid.New().String()
	now := time.Now().UTC()

	_, err := m.db.ExecContext(ctx, `
		INSERT INTO projects (id, tenant_id, customer_id, name, lead_member_id, source_schedule_id, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		projectID,
		tenantID,
		params.CustomerID,
		params.Name,
		nullStringPtr(params.LeadMemberID),
		nullString(params.SourceScheduleID),
		now.Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("inserting project: %w", err)
	}

	for i, title := range params.Tasks {
		_, err := m.db.ExecContext(ctx, `
			INSERT INTO project_tasks (id, project_id, title, position, created_at)
			VALUES (?, ?, ?, ?, ?)
		`,
			uuid.New().String(),
			projectID,
			title,
			i,
			now.Format(time.RFC3339),
		)
		if err != nil {
			return "", fmt.Errorf("inserting project task: %w", err)
		}
	}

	return projectID, nil
}

// Get retrieves a project by ID within a tenant.
func (m *Materializer) Get(ctx context.Context, tenantID, projectID string) (*Project, error) {
	var p Project
	var leadMemberID, sourceScheduleID sql.NullString
	var createdAt string

	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_id, name, lead_member_id, source_schedule_id, created_at
		FROM projects
		WHERE tenant_id = ? AND id = ?
	`, tenantID, projectID).Scan(
		&p.ID,
		&p.CustomerID,
		&p.Name,
		&leadMemberID,
		&sourceScheduleID,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, projectID)
		}
		return nil, fmt.Errorf("getting project: %w", err)
	}

	if leadMemberID.Valid {
		lead := leadMemberID.String
		p.LeadMemberID = &lead
	}
	if sourceScheduleID.Valid {
		p.SourceScheduleID = sourceScheduleID.String
	}
	if p.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &p, nil
}

// Tasks retrieves a project's tasks in position order.
func (m *Materializer) Tasks(ctx context.Context, projectID string) ([]*Task, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, project_id, title, position, created_at
		FROM project_tasks
		WHERE project_id = ?
		ORDER BY position ASC
	`, projectID)
	if err != nil {
		return nil, fmt.Errorf("querying project tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*Task
	for rows.Next() {
		var t Task
		var createdAt string

		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Position, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning task row: %w", err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		tasks = append(tasks, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating task rows: %w", err)
	}

	return tasks, nil
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
