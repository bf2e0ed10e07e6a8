// Package schedule implements the recurring engagement definition: the
// schedule entity, its state machine, and the period arithmetic that
// decides when the next project falls due.
package schedule

import (
	"fmt"
	"time"
)

// Status represents the lifecycle state of a schedule.
type Status string

const (
	// StatusActive indicates the schedule produces projects as periods fall due.
	StatusActive Status = "ACTIVE"
	// StatusPaused indicates the schedule is suspended and skipped by the executor.
	StatusPaused Status = "PAUSED"
	// StatusCompleted is terminal; the schedule keeps its execution history.
	StatusCompleted Status = "COMPLETED"
)

// Schedule is a recurring definition that materializes one project per
// period for a customer/template pair.
type Schedule struct {
	ID         string // Unique schedule ID
	TemplateID string // Engagement template the projects are built from
	CustomerID string // Customer receiving the projects

	// Immutable after creation
	Frequency Frequency
	StartDate time.Time

	// Mutable
	EndDate      *time.Time // Optional end of the recurring commitment
	LeadTimeDays int        // Days before period start the project is created
	NameOverride string     // Overrides the template's name pattern when set
	LeadMemberID *string    // Member assigned as project lead

	Status         Status
	PeriodStart    time.Time // Start of the current (not yet executed) period
	NextDueDate    time.Time // PeriodStart minus lead time
	ExecutionCount int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// AdvanceResult describes what Advance decided for the next period.
type AdvanceResult struct {
	Schedule  Schedule
	Completed bool // true when the next period would exceed EndDate
}

// New builds an ACTIVE schedule with its first period anchored at start.
// NextDueDate is the period start minus the lead time.
func New(templateID, customerID string, freq Frequency, start time.Time, leadTimeDays int) Schedule {
	start = truncateToDay(start)
	return Schedule{
		TemplateID:   templateID,
		CustomerID:   customerID,
		Frequency:    freq,
		StartDate:    start,
		LeadTimeDays: leadTimeDays,
		Status:       StatusActive,
		PeriodStart:  start,
		NextDueDate:  DueDate(start, leadTimeDays),
	}
}

// Pause suspends an ACTIVE schedule. NextDueDate is preserved so the
// schedule's position in its period sequence is not lost.
func (s Schedule) Pause() (Schedule, error) {
	if s.Status != StatusActive {
		return s, fmt.Errorf("%w: cannot pause a %s schedule", ErrInvalidState, s.Status)
	}
	s.Status = StatusPaused
	return s, nil
}

// Resume reactivates a PAUSED schedule, rolling the period forward from
// today so a long pause does not create a backlog of missed periods.
// The resulting due date is always >= today. If rolling forward passes
// the end date, the schedule completes instead.
func (s Schedule) Resume(today time.Time) (Schedule, error) {
	if s.Status != StatusPaused {
		return s, fmt.Errorf("%w: cannot resume a %s schedule", ErrInvalidState, s.Status)
	}

	today = truncateToDay(today)
	period := s.PeriodStart
	for DueDate(period, s.LeadTimeDays).Before(today) {
		next := NextPeriodStart(period, s.Frequency)
		if WouldExceedEnd(next, s.EndDate) {
			s.Status = StatusCompleted
			return s, nil
		}
		period = next
	}

	s.Status = StatusActive
	s.PeriodStart = period
	s.NextDueDate = DueDate(period, s.LeadTimeDays)
	return s, nil
}

// Complete transitions an ACTIVE or PAUSED schedule to COMPLETED. It is
// not idempotent: completing twice is a caller error.
func (s Schedule) Complete() (Schedule, error) {
	if s.Status == StatusCompleted {
		return s, fmt.Errorf("%w: schedule is already completed", ErrInvalidState)
	}
	s.Status = StatusCompleted
	return s, nil
}

// CanDelete reports whether the schedule may be deleted. Active
// recurring commitments must be paused first.
func (s Schedule) CanDelete() error {
	if s.Status == StatusActive {
		return fmt.Errorf("%w: cannot delete an active schedule, pause it first", ErrConflict)
	}
	return nil
}

// Advance moves the schedule to its next period after the current one
// has been handled. When materialized is true the execution counter
// increments. If the next period's start would exceed the end date the
// schedule completes instead of advancing.
func (s Schedule) Advance(materialized bool) (AdvanceResult, error) {
	if s.Status != StatusActive {
		return AdvanceResult{}, fmt.Errorf("%w: cannot advance a %s schedule", ErrInvalidState, s.Status)
	}

	if materialized {
		s.ExecutionCount++
	}

	next := NextPeriodStart(s.PeriodStart, s.Frequency)
	if WouldExceedEnd(next, s.EndDate) {
		s.Status = StatusCompleted
		return AdvanceResult{Schedule: s, Completed: true}, nil
	}

	s.PeriodStart = next
	s.NextDueDate = DueDate(next, s.LeadTimeDays)
	return AdvanceResult{Schedule: s}, nil
}

// Due reports whether the schedule's current period should be executed
// as of the given date.
func (s Schedule) Due(asOf time.Time) bool {
	return s.Status == StatusActive && !s.NextDueDate.After(truncateToDay(asOf))
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
