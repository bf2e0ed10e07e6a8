package execution

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/customer"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/schedule"
	"github.com/cadencehq/cadence/internal/template"
	"github.com/cadencehq/cadence/internal/tenant"
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

// seedSchedule creates the tenant, customer, template, and schedule
// rows the executions FK chain requires.
func seedSchedule(t *testing.T, db *database.DB) string {
	t.Helper()
	ctx := context.Background()

	tn := &tenant.Tenant{Name: "Acme Accounting"}
	if err := tenant.NewStore(db).Create(ctx, tn); err != nil {
		t.Fatal(err)
	}
	c := &customer.Customer{Name: "Globex Corp", LifecycleStatus: customer.LifecycleActive}
	if err := customer.NewStore(db).Create(ctx, tn.ID, c); err != nil {
		t.Fatal(err)
	}
	tmpl := &template.Template{Name: "Bookkeeping", NamePattern: "{customer} {period}", Active: true}
	if err := template.NewStore(db).Create(ctx, tn.ID, tmpl); err != nil {
		t.Fatal(err)
	}

	sched := schedule.New(tmpl.ID, c.ID, schedule.FrequencyMonthly,
		time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC), 0)
	if err := schedule.NewStore(db).Create(ctx, tn.ID, &sched); err != nil {
		t.Fatal(err)
	}
	return sched.ID
}

func TestStore_InsertAndFind(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	scheduleID := seedSchedule(t, db)
	store := NewStore(db)

	periodStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	exec := &Execution{
		ScheduleID:  scheduleID,
		PeriodStart: periodStart,
		PeriodEnd:   time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC),
		ProjectID:   "proj-1",
	}
	if err := store.Insert(ctx, exec); err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if exec.ID == "" {
		t.Error("Insert must assign an ID")
	}
	if exec.ExecutedAt.IsZero() {
		t.Error("Insert must stamp ExecutedAt")
	}

	found, err := store.FindByScheduleAndPeriod(ctx, scheduleID, periodStart)
	if err != nil {
		t.Fatalf("FindByScheduleAndPeriod failed: %v", err)
	}
	if found == nil {
		t.Fatal("expected an execution, got nil")
	}
	if found.ProjectID != "proj-1" {
		t.Errorf("ProjectID = %q, want proj-1", found.ProjectID)
	}
	if !found.PeriodEnd.Equal(exec.PeriodEnd) {
		t.Errorf("PeriodEnd = %v", found.PeriodEnd)
	}
}

func TestStore_FindMissingPeriod(t *testing.T) {
	db := testDB(t)
	scheduleID := seedSchedule(t, db)

	found, err := NewStore(db).FindByScheduleAndPeriod(context.Background(),
		scheduleID, time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("FindByScheduleAndPeriod failed: %v", err)
	}
	if found != nil {
		t.Errorf("expected nil for unexecuted period, got %+v", found)
	}
}

func TestStore_DuplicatePeriodRejected(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	scheduleID := seedSchedule(t, db)
	store := NewStore(db)

	periodStart := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	periodEnd := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)

	first := &Execution{ScheduleID: scheduleID, PeriodStart: periodStart, PeriodEnd: periodEnd, ProjectID: "proj-1"}
	if err := store.Insert(ctx, first); err != nil {
		t.Fatal(err)
	}

	dup := &Execution{ScheduleID: scheduleID, PeriodStart: periodStart, PeriodEnd: periodEnd, ProjectID: "proj-2"}
	if err := store.Insert(ctx, dup); !errors.Is(err, ErrAlreadyExecuted) {
		t.Errorf("error = %v, want ErrAlreadyExecuted", err)
	}

	// A different period on the same schedule is fine.
	next := &Execution{
		ScheduleID:  scheduleID,
		PeriodStart: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		PeriodEnd:   time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC),
		ProjectID:   "proj-3",
	}
	if err := store.Insert(ctx, next); err != nil {
		t.Errorf("insert for a new period should succeed, got %v", err)
	}
}

func TestStore_ListBySchedule(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	scheduleID := seedSchedule(t, db)
	store := NewStore(db)

	for m := time.Month(1); m <= 3; m++ {
		exec := &Execution{
			ScheduleID:  scheduleID,
			PeriodStart: time.Date(2026, m, 1, 0, 0, 0, 0, time.UTC),
			PeriodEnd:   time.Date(2026, m+1, 0, 0, 0, 0, 0, time.UTC),
			ProjectID:   "proj",
		}
		if err := store.Insert(ctx, exec); err != nil {
			t.Fatal(err)
		}
	}

	executions, err := store.ListBySchedule(ctx, scheduleID)
	if err != nil {
		t.Fatalf("ListBySchedule failed: %v", err)
	}
	if len(executions) != 3 {
		t.Fatalf("got %d executions, want 3", len(executions))
	}

	// Newest period first.
	if executions[0].PeriodStart.Month() != time.March {
		t.Errorf("first entry period = %v, want March", executions[0].PeriodStart)
	}
	if executions[2].PeriodStart.Month() != time.January {
		t.Errorf("last entry period = %v, want January", executions[2].PeriodStart)
	}
}
