package tenant

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/database"
)

func testDB(t *testing.T) *database.DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := database.Open(&config.DatabaseConfig{Path: dbPath, ForeignKeys: true})
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}

	t.Cleanup(func() {
		db.Close()
	})

	return db
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	store := NewStore(db)

	tn := &Tenant{Name: "Acme Accounting"}
	if err := store.Create(ctx, tn); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if tn.ID == "" {
		t.Fatal("Create must assign an ID")
	}
	if tn.Status != StatusActive {
		t.Errorf("Status = %q, want active default", tn.Status)
	}

	got, err := store.Get(ctx, tn.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got.Name != "Acme Accounting" {
		t.Errorf("Name = %q", got.Name)
	}

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStore_ListActive(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	store := NewStore(db)

	active := &Tenant{Name: "Active Firm"}
	if err := store.Create(ctx, active); err != nil {
		t.Fatal(err)
	}
	suspended := &Tenant{Name: "Suspended Firm", Status: StatusSuspended}
	if err := store.Create(ctx, suspended); err != nil {
		t.Fatal(err)
	}

	tenants, err := store.ListActive(ctx)
	if err != nil {
		t.Fatalf("ListActive failed: %v", err)
	}
	if len(tenants) != 1 {
		t.Fatalf("got %d tenants, want 1", len(tenants))
	}
	if tenants[0].ID != active.ID {
		t.Errorf("ListActive returned %s, want %s", tenants[0].ID, active.ID)
	}
}
