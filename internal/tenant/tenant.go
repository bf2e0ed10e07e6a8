// Package tenant enumerates the tenants whose schedules the executor
// processes.
package tenant

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/database"
)

// ErrNotFound indicates the tenant does not exist.
var ErrNotFound = errors.New("tenant not found")

// Status values for tenants. Suspended tenants are skipped by the executor.
const (
	StatusActive    = "active"
	StatusSuspended = "suspended"
)

// Tenant is an isolated customer-firm context. All domain rows are
// scoped to exactly one tenant.
type Tenant struct {
	ID        string
	Name      string
	Status    string
	CreatedAt time.Time
}

// Store handles database operations for tenants.
type Store struct {
	db database.DBTX
}

// NewStore creates a new tenant store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Create inserts a new tenant.
func (s *Store) Create(ctx context.Context, t *Tenant) error {
	if t.ID == "" {
		t.ID = uuid.New().String()
	}
	if t.Status == "" {
		t.Status = StatusActive
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tenants (id, name, status, created_at) VALUES (?, ?, ?, ?)`,
		t.ID, t.Name, t.Status, t.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting tenant: %w", err)
	}

	return nil
}

// Get retrieves a tenant by ID.
func (s *Store) Get(ctx context.Context, tenantID string) (*Tenant, error) {
	var t Tenant
	var createdAt string

	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, status, created_at FROM tenants WHERE id = ?`,
		tenantID,
	).Scan(&t.ID, &t.Name, &t.Status, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, tenantID)
		}
		return nil, fmt.Errorf("getting tenant: %w", err)
	}

	if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}

	return &t, nil
}

// ListActive enumerates tenants the executor should process.
func (s *Store) ListActive(ctx context.Context) ([]*Tenant, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, status, created_at FROM tenants WHERE status = ? ORDER BY created_at ASC`,
		StatusActive,
	)
	if err != nil {
		return nil, fmt.Errorf("querying tenants: %w", err)
	}
	defer rows.Close()

	var tenants []*Tenant
	for rows.Next() {
		var t Tenant
		var createdAt string

		if err := rows.Scan(&t.ID, &t.Name, &t.Status, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning tenant row: %w", err)
		}
		if t.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		tenants = append(tenants, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating tenant rows: %w", err)
	}

	return tenants, nil
}
