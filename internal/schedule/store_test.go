package schedule

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/customer"
	"github.com/cadencehq/cadence/internal/database"
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

func seedTenant(t *testing.T, db *database.DB) string {
	t.Helper()

	tn := &tenant.Tenant{Name: "Acme Accounting"}
	if err := tenant.NewStore(db).Create(context.Background(), tn); err != nil {
		t.Fatalf("Failed to create tenant: %v", err)
	}
	return tn.ID
}

func seedCustomer(t *testing.T, db *database.DB, tenantID string, status customer.LifecycleStatus) string {
	t.Helper()

	c := &customer.Customer{Name: "Globex Corp", LifecycleStatus: status}
	if err := customer.NewStore(db).Create(context.Background(), tenantID, c); err != nil {
		t.Fatalf("Failed to create customer: %v", err)
	}
	return c.ID
}

func seedTemplate(t *testing.T, db *database.DB, tenantID string) *template.Template {
	t.Helper()

	tmpl := &template.Template{
		Name:                "Monthly Bookkeeping",
		NamePattern:         "{customer} Bookkeeping {period}",
		Tasks:               []string{"Reconcile accounts", "Prepare statements", "Client review"},
		DefaultLeadTimeDays: 3,
		Active:              true,
	}
	if err := template.NewStore(db).Create(context.Background(), tenantID, tmpl); err != nil {
		t.Fatalf("Failed to create template: %v", err)
	}
	return tmpl
}

func TestStore_CreateAndGet(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	customerID := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	tmpl := seedTemplate(t, db, tenantID)
	store := NewStore(db)

	end := date(2026, 12, 31)
	lead := "member-7"
	sched := New(tmpl.ID, customerID, FrequencyMonthly, date(2026, 2, 1), 5)
	sched.EndDate = &end
	sched.NameOverride = "Custom Name"
	sched.LeadMemberID = &lead

	if err := store.Create(ctx, tenantID, &sched); err != nil {
		t.Fatalf("Failed to create schedule: %v", err)
	}
	if sched.ID == "" {
		t.Fatal("Create must assign an ID")
	}

	got, err := store.Get(ctx, tenantID, sched.ID)
	if err != nil {
		t.Fatalf("Failed to get schedule: %v", err)
	}

	if got.Frequency != FrequencyMonthly {
		t.Errorf("Frequency = %s, want MONTHLY", got.Frequency)
	}
	if !got.StartDate.Equal(date(2026, 2, 1)) {
		t.Errorf("StartDate = %v", got.StartDate)
	}
	if got.EndDate == nil || !got.EndDate.Equal(end) {
		t.Errorf("EndDate = %v, want %v", got.EndDate, end)
	}
	if got.LeadTimeDays != 5 {
		t.Errorf("LeadTimeDays = %d, want 5", got.LeadTimeDays)
	}
	if got.NameOverride != "Custom Name" {
		t.Errorf("NameOverride = %q", got.NameOverride)
	}
	if got.LeadMemberID == nil || *got.LeadMemberID != lead {
		t.Errorf("LeadMemberID = %v, want %s", got.LeadMemberID, lead)
	}
	if !got.NextDueDate.Equal(date(2026, 1, 27)) {
		t.Errorf("NextDueDate = %v, want 2026-01-27", got.NextDueDate.Format("2006-01-02"))
	}
}

func TestStore_GetNotFound(t *testing.T) {
	db := testDB(t)
	tenantID := seedTenant(t, db)

	_, err := NewStore(db).Get(context.Background(), tenantID, "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("error = %v, want ErrNotFound", err)
	}
}

func TestStore_DuplicateLivePair(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	customerID := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	tmpl := seedTemplate(t, db, tenantID)
	store := NewStore(db)

	first := New(tmpl.ID, customerID, FrequencyMonthly, date(2026, 1, 1), 0)
	if err := store.Create(ctx, tenantID, &first); err != nil {
		t.Fatalf("Failed to create first schedule: %v", err)
	}

	second := New(tmpl.ID, customerID, FrequencyWeekly, date(2026, 1, 1), 0)
	if err := store.Create(ctx, tenantID, &second); !errors.Is(err, ErrDuplicate) {
		t.Errorf("error = %v, want ErrDuplicate", err)
	}

	// Completing the first schedule frees the pair for a new one.
	completed, _ := first.Complete()
	if err := store.Update(ctx, tenantID, &completed); err != nil {
		t.Fatalf("Failed to complete first schedule: %v", err)
	}
	third := New(tmpl.ID, customerID, FrequencyWeekly, date(2026, 1, 1), 0)
	if err := store.Create(ctx, tenantID, &third); err != nil {
		t.Errorf("creating after completion should succeed, got %v", err)
	}
}

func TestStore_FindDue(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	customerID := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	tmplA := seedTemplate(t, db, tenantID)
	tmplB := seedTemplate(t, db, tenantID)
	tmplC := seedTemplate(t, db, tenantID)
	store := NewStore(db)

	due := New(tmplA.ID, customerID, FrequencyMonthly, date(2026, 3, 1), 0)
	if err := store.Create(ctx, tenantID, &due); err != nil {
		t.Fatal(err)
	}

	notYet := New(tmplB.ID, customerID, FrequencyMonthly, date(2026, 6, 1), 0)
	if err := store.Create(ctx, tenantID, &notYet); err != nil {
		t.Fatal(err)
	}

	paused := New(tmplC.ID, customerID, FrequencyMonthly, date(2026, 3, 1), 0)
	if err := store.Create(ctx, tenantID, &paused); err != nil {
		t.Fatal(err)
	}
	p, _ := paused.Pause()
	if err := store.Update(ctx, tenantID, &p); err != nil {
		t.Fatal(err)
	}

	found, err := store.FindDue(ctx, tenantID, date(2026, 3, 15))
	if err != nil {
		t.Fatalf("FindDue failed: %v", err)
	}
	if len(found) != 1 {
		t.Fatalf("FindDue returned %d schedules, want 1", len(found))
	}
	if found[0].ID != due.ID {
		t.Errorf("FindDue returned %s, want %s", found[0].ID, due.ID)
	}
}

func TestStore_FindDueScopedToTenant(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	store := NewStore(db)

	tenantA := seedTenant(t, db)
	customerA := seedCustomer(t, db, tenantA, customer.LifecycleActive)
	tmplA := seedTemplate(t, db, tenantA)

	tenantB := seedTenant(t, db)
	customerB := seedCustomer(t, db, tenantB, customer.LifecycleActive)
	tmplB := seedTemplate(t, db, tenantB)

	schedA := New(tmplA.ID, customerA, FrequencyWeekly, date(2026, 1, 5), 0)
	if err := store.Create(ctx, tenantA, &schedA); err != nil {
		t.Fatal(err)
	}
	schedB := New(tmplB.ID, customerB, FrequencyWeekly, date(2026, 1, 5), 0)
	if err := store.Create(ctx, tenantB, &schedB); err != nil {
		t.Fatal(err)
	}

	found, err := store.FindDue(ctx, tenantA, date(2026, 2, 1))
	if err != nil {
		t.Fatal(err)
	}
	if len(found) != 1 || found[0].ID != schedA.ID {
		t.Errorf("tenant A must only see its own schedules, got %d", len(found))
	}

	// Cross-tenant reads by ID must miss as well.
	if _, err := store.Get(ctx, tenantB, schedA.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("cross-tenant Get error = %v, want ErrNotFound", err)
	}
}

func TestStore_List(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	customerID := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	otherCustomer := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	tmplA := seedTemplate(t, db, tenantID)
	tmplB := seedTemplate(t, db, tenantID)
	store := NewStore(db)

	active := New(tmplA.ID, customerID, FrequencyMonthly, date(2026, 1, 1), 0)
	if err := store.Create(ctx, tenantID, &active); err != nil {
		t.Fatal(err)
	}
	other := New(tmplB.ID, otherCustomer, FrequencyWeekly, date(2026, 1, 5), 0)
	if err := store.Create(ctx, tenantID, &other); err != nil {
		t.Fatal(err)
	}
	p, _ := other.Pause()
	if err := store.Update(ctx, tenantID, &p); err != nil {
		t.Fatal(err)
	}

	all, err := store.List(ctx, tenantID, ListFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 {
		t.Errorf("List() returned %d, want 2", len(all))
	}

	paused, err := store.List(ctx, tenantID, ListFilter{Status: StatusPaused})
	if err != nil {
		t.Fatal(err)
	}
	if len(paused) != 1 || paused[0].ID != other.ID {
		t.Errorf("status filter returned %d schedules", len(paused))
	}

	byCustomer, err := store.List(ctx, tenantID, ListFilter{CustomerID: customerID})
	if err != nil {
		t.Fatal(err)
	}
	if len(byCustomer) != 1 || byCustomer[0].ID != active.ID {
		t.Errorf("customer filter returned %d schedules", len(byCustomer))
	}
}

func TestStore_Delete(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	customerID := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	tmpl := seedTemplate(t, db, tenantID)
	store := NewStore(db)

	sched := New(tmpl.ID, customerID, FrequencyWeekly, date(2026, 1, 5), 0)
	if err := store.Create(ctx, tenantID, &sched); err != nil {
		t.Fatal(err)
	}

	if err := store.Delete(ctx, tenantID, sched.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.Get(ctx, tenantID, sched.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete: error = %v, want ErrNotFound", err)
	}
	if err := store.Delete(ctx, tenantID, sched.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second delete: error = %v, want ErrNotFound", err)
	}
}

func TestStore_UpdatePersistsStateFields(t *testing.T) {
	db := testDB(t)
	ctx := context.Background()
	tenantID := seedTenant(t, db)
	customerID := seedCustomer(t, db, tenantID, customer.LifecycleActive)
	tmpl := seedTemplate(t, db, tenantID)
	store := NewStore(db)

	sched := New(tmpl.ID, customerID, FrequencyWeekly, date(2026, 1, 5), 0)
	if err := store.Create(ctx, tenantID, &sched); err != nil {
		t.Fatal(err)
	}

	res, err := sched.Advance(true)
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Update(ctx, tenantID, &res.Schedule); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	got, err := store.Get(ctx, tenantID, sched.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ExecutionCount != 1 {
		t.Errorf("ExecutionCount = %d, want 1", got.ExecutionCount)
	}
	if !got.PeriodStart.Equal(date(2026, 1, 12)) {
		t.Errorf("PeriodStart = %v, want 2026-01-12", got.PeriodStart.Format("2006-01-02"))
	}
	if got.UpdatedAt.Before(got.CreatedAt) {
		t.Error("UpdatedAt must not precede CreatedAt")
	}
}
