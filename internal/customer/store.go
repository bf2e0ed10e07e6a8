package customer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/cadencehq/cadence/internal/database"
)

// ErrNotFound indicates the customer does not exist in the tenant.
var ErrNotFound = errors.New("customer not found")

// Store handles database operations for customers, scoped to a tenant.
type Store struct {
	db database.DBTX
}

// NewStore creates a new customer store.
func NewStore(db database.DBTX) *Store {
	return &Store{db: db}
}

// Create inserts a new customer.
func (s *Store) Create(ctx context.Context, tenantID string, c *Customer) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	now := time.Now().UTC()
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	query := `
		INSERT INTO customers (id, tenant_id, name, lifecycle_status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		c.ID,
		tenantID,
		c.Name,
		string(c.LifecycleStatus),
		c.CreatedAt.Format(time.RFC3339),
		c.UpdatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting customer: %w", database.ClassifyError(err))
	}

	return nil
}

// Get retrieves a customer by ID within a tenant.
func (s *Store) Get(ctx context.Context, tenantID, customerID string) (*Customer, error) {
	query := `
		SELECT id, name, lifecycle_status, created_at, updated_at
		FROM customers
		WHERE tenant_id = ? AND id = ?
	`

	var c Customer
	var status string
	var createdAt, updatedAt string

	err := s.db.QueryRowContext(ctx, query, tenantID, customerID).Scan(
		&c.ID,
		&c.Name,
		&status,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, customerID)
		}
		return nil, fmt.Errorf("getting customer: %w", err)
	}

	c.LifecycleStatus = LifecycleStatus(status)

	if c.CreatedAt, err = time.Parse(time.RFC3339, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}

	return &c, nil
}

// GetLifecycleStatus returns just the lifecycle status for a customer.
// This is the executor's gate lookup.
func (s *Store) GetLifecycleStatus(ctx context.Context, tenantID, customerID string) (LifecycleStatus, error) {
	var status string
	err := s.db.QueryRowContext(ctx,
		`SELECT lifecycle_status FROM customers WHERE tenant_id = ? AND id = ?`,
		tenantID, customerID,
	).Scan(&status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, customerID)
		}
		return "", fmt.Errorf("getting lifecycle status: %w", err)
	}

	return LifecycleStatus(status), nil
}

// UpdateLifecycleStatus moves a customer to a new lifecycle status.
func (s *Store) UpdateLifecycleStatus(ctx context.Context, tenantID, customerID string, status LifecycleStatus) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE customers
		SET lifecycle_status = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ?
	`,
		string(status),
		time.Now().UTC().Format(time.RFC3339),
		tenantID,
		customerID,
	)
	if err != nil {
		return fmt.Errorf("updating lifecycle status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, customerID)
	}

	return nil
}
