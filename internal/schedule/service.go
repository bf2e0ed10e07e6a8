package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/customer"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/template"
)

// Service exposes schedule CRUD and lifecycle operations to the
// transport layer. All state transitions go through the entity's pure
// transition functions; the service only validates references and
// persists the result.
type Service struct {
	db        *database.DB
	schedules *Store
	templates *template.Store
	customers *customer.Store
	now       func() time.Time
}

// NewService creates a new schedule service.
func NewService(db *database.DB) *Service {
	return &Service{
		db:        db,
		schedules: NewStore(db),
		templates: template.NewStore(db),
		customers: customer.NewStore(db),
		now:       time.Now,
	}
}

// CreateParams carries the fields for creating a schedule.
type CreateParams struct {
	TemplateID   string
	CustomerID   string
	Frequency    Frequency
	StartDate    time.Time
	EndDate      *time.Time
	LeadTimeDays *int // nil means the template's default
	NameOverride string
	LeadMemberID *string
}

// UpdateParams carries the mutable fields. Nil pointers are unchanged.
type UpdateParams struct {
	EndDate      *time.Time
	ClearEndDate bool
	LeadTimeDays *int
	NameOverride *string
	LeadMemberID *string
}

// Create validates references and inserts a new ACTIVE schedule. The
// template must exist and be active, the customer must exist, and no
// ACTIVE or PAUSED schedule may already cover the (template, customer)
// pair. The store's unique index backs the pre-check against races.
func (s *Service) Create(ctx context.Context, tenantID string, params CreateParams) (*Schedule, error) {
	if !params.Frequency.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidFrequency, params.Frequency)
	}
	if params.StartDate.IsZero() {
		return nil, fmt.Errorf("%w: start date is required", ErrInvalidState)
	}
	if params.LeadTimeDays != nil && *params.LeadTimeDays < 0 {
		return nil, fmt.Errorf("%w: lead time must not be negative", ErrInvalidState)
	}
	if params.EndDate != nil && params.EndDate.Before(params.StartDate) {
		return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidState)
	}

	tmpl, err := s.templates.Get(ctx, tenantID, params.TemplateID)
	if err != nil {
		return nil, err
	}
	if !tmpl.Active {
		return nil, fmt.Errorf("%w: template %s is inactive", ErrInvalidState, tmpl.ID)
	}

	if _, err := s.customers.Get(ctx, tenantID, params.CustomerID); err != nil {
		return nil, err
	}

	existing, err := s.schedules.FindLivePair(ctx, tenantID, params.TemplateID, params.CustomerID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: schedule %s", ErrDuplicate, existing.ID)
	}

	leadTime := tmpl.DefaultLeadTimeDays
	if params.LeadTimeDays != nil {
		leadTime = *params.LeadTimeDays
	}

	sched := New(params.TemplateID, params.CustomerID, params.Frequency, params.StartDate, leadTime)
	sched.EndDate = params.EndDate
	sched.NameOverride = params.NameOverride
	sched.LeadMemberID = params.LeadMemberID

	if err := s.schedules.Create(ctx, tenantID, &sched); err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("schedule_id", sched.ID).
		Str("template_id", sched.TemplateID).
		Str("customer_id", sched.CustomerID).
		Str("frequency", string(sched.Frequency)).
		Msg("Schedule created")

	return &sched, nil
}

// Get retrieves a schedule.
func (s *Service) Get(ctx context.Context, tenantID, scheduleID string) (*Schedule, error) {
	return s.schedules.Get(ctx, tenantID, scheduleID)
}

// List retrieves a tenant's schedules.
func (s *Service) List(ctx context.Context, tenantID string, filter ListFilter) ([]*Schedule, error) {
	return s.schedules.List(ctx, tenantID, filter)
}

// Update changes the mutable fields of a schedule. A lead-time change
// recomputes the due date for the current period.
func (s *Service) Update(ctx context.Context, tenantID, scheduleID string, params UpdateParams) (*Schedule, error) {
	sched, err := s.schedules.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}
	if sched.Status == StatusCompleted {
		return nil, fmt.Errorf("%w: cannot update a completed schedule", ErrInvalidState)
	}

	if params.ClearEndDate {
		sched.EndDate = nil
	} else if params.EndDate != nil {
		if params.EndDate.Before(sched.StartDate) {
			return nil, fmt.Errorf("%w: end date precedes start date", ErrInvalidState)
		}
		sched.EndDate = params.EndDate
	}
	if params.LeadTimeDays != nil {
		if *params.LeadTimeDays < 0 {
			return nil, fmt.Errorf("%w: lead time must not be negative", ErrInvalidState)
		}
		sched.LeadTimeDays = *params.LeadTimeDays
		sched.NextDueDate = DueDate(sched.PeriodStart, sched.LeadTimeDays)
	}
	if params.NameOverride != nil {
		sched.NameOverride = *params.NameOverride
	}
	if params.LeadMemberID != nil {
		sched.LeadMemberID = params.LeadMemberID
	}

	if err := s.schedules.Update(ctx, tenantID, sched); err != nil {
		return nil, err
	}

	return sched, nil
}

// Pause suspends an ACTIVE schedule.
func (s *Service) Pause(ctx context.Context, tenantID, scheduleID string) (*Schedule, error) {
	sched, err := s.schedules.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}

	paused, err := sched.Pause()
	if err != nil {
		return nil, err
	}

	if err := s.schedules.Update(ctx, tenantID, &paused); err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("schedule_id", scheduleID).
		Msg("Schedule paused")

	return &paused, nil
}

// Resume reactivates a PAUSED schedule with its due date rolled forward
// to today or later.
func (s *Service) Resume(ctx context.Context, tenantID, scheduleID string) (*Schedule, error) {
	sched, err := s.schedules.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}

	resumed, err := sched.Resume(s.now().UTC())
	if err != nil {
		return nil, err
	}

	if err := s.schedules.Update(ctx, tenantID, &resumed); err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("schedule_id", scheduleID).
		Str("status", string(resumed.Status)).
		Time("next_due_date", resumed.NextDueDate).
		Msg("Schedule resumed")

	return &resumed, nil
}

// Complete transitions a schedule to COMPLETED. Completing an already
// completed schedule is an invalid-state error, not a no-op.
func (s *Service) Complete(ctx context.Context, tenantID, scheduleID string) (*Schedule, error) {
	sched, err := s.schedules.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return nil, err
	}

	completed, err := sched.Complete()
	if err != nil {
		return nil, err
	}

	if err := s.schedules.Update(ctx, tenantID, &completed); err != nil {
		return nil, err
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("schedule_id", scheduleID).
		Msg("Schedule completed")

	return &completed, nil
}

// Delete removes a non-ACTIVE schedule.
func (s *Service) Delete(ctx context.Context, tenantID, scheduleID string) error {
	sched, err := s.schedules.Get(ctx, tenantID, scheduleID)
	if err != nil {
		return err
	}

	if err := sched.CanDelete(); err != nil {
		return err
	}

	if err := s.schedules.Delete(ctx, tenantID, scheduleID); err != nil {
		return err
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("schedule_id", scheduleID).
		Msg("Schedule deleted")

	return nil
}
