package template

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/database"
)

// ErrNotFound indicates the template does not exist in the tenant.
var ErrNotFound = errors.New("template not found")

// Store handles database operations for templates, scoped to a tenant.
type Store struct {
	db database.DBTX
}

// NewStore creates a new template store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Create inserts a new template.
func (s *Store) Create(ctx context.Context, tenantID string, tmpl *Template) error {
	if tmpl.ID == "" {
		tmpl.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if tmpl.CreatedAt.IsZero() {
		tmpl.CreatedAt = now
	}
	tmpl.UpdatedAt = now

	tasksJSON, err := json.Marshal(tmpl.Tasks)
	if err != nil {
		return fmt.Errorf("marshaling tasks: %w", err)
	}

	query := `
		INSERT INTO templates (id, tenant_id, name, name_pattern, tasks,
			default_lead_time_days, active, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = s.db.ExecContext(ctx, query,
		tmpl.ID,
		tenantID,
		tmpl.Name,
		tmpl.NamePattern,
		string(tasksJSON),
		tmpl.DefaultLeadTimeDays,
		boolToInt(tmpl.Active),
		tmpl.CreatedAt.Format(time.RFC3339),
		tmpl.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting template: %w", database.ClassifyError(err))
	}

	return nil
}

// Get retrieves a template by ID within a tenant.
func (s *Store) Get(ctx context.Context, tenantID, templateID string) (*Template, error) {
	query := `
		SELECT id, name, name_pattern, tasks, default_lead_time_days, active,
		       created_at, updated_at
		FROM templates
		WHERE tenant_id = ? AND id = ?
	`

	var tmpl Template
	var tasksJSON string
	var active int
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, tenantID, templateID).Scan(
		&tmpl.ID,
		&tmpl.Name,
		&tmpl.NamePattern,
		&tasksJSON,
		&tmpl.DefaultLeadTimeDays,
		&active,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, templateID)
		}
		return nil, fmt.Errorf("getting template: %w", err)
	}

	if err := json.Unmarshal([]byte(tasksJSON), &tmpl.Tasks); err != nil {
		return nil, fmt.Errorf("unmarshaling tasks: %w", err)
	}
	tmpl.Active = active == 1

	if tmpl.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if tmpl.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &tmpl, nil
}

// List retrieves all templates in a tenant.
func (s *Store) List(ctx context.Context, tenantID string) ([]*Template, error) {
	query := `
		SELECT id, name, name_pattern, tasks, default_lead_time_days, active,
		       created_at, updated_at
		FROM templates
		WHERE tenant_id = ?
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, tenantID)
	if err != nil {
		return nil, fmt.Errorf("querying templates: %w", err)
	}
	defer rows.Close()

	var templates []*Template
	for rows.Next() {
		var tmpl Template
		var tasksJSON string
		var active int
		var createdAt, updatedAt string

		if err := rows.Scan(
			&tmpl.ID,
			&tmpl.Name,
			&tmpl.NamePattern,
			&tasksJSON,
			&tmpl.DefaultLeadTimeDays,
			&active,
			&createdAt,
			&updatedAt,
		); err != nil {
			return nil, fmt.Errorf("scanning template row: %w", err)
		}

		if err := json.Unmarshal([]byte(tasksJSON), &tmpl.Tasks); err != nil {
			return nil, fmt.Errorf("unmarshaling tasks: %w", err)
		}
		tmpl.Active = active == 1

		if tmpl.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		if tmpl.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
			return nil, fmt.Errorf("parsing updated_at: %w", err)
		}

		templates = append(templates, &tmpl)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating template rows: %w", err)
	}

	return templates, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
