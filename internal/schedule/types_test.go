package schedule

import (
	"errors"
	"testing"
	"time"
)

func TestNew(t *testing.T) {
	start := date(2026, 4, 1)
	s := New("tmpl-1", "cust-1", FrequencyMonthly, start, 5)

	if s.Status != StatusActive {
		t.Errorf("Status = %s, want ACTIVE", s.Status)
	}
	if !s.PeriodStart.Equal(start) {
		t.Errorf("PeriodStart = %v, want %v", s.PeriodStart, start)
	}
	if !s.NextDueDate.Equal(date(2026, 3, 27)) {
		t.Errorf("NextDueDate = %v, want 2026-03-27", s.NextDueDate.Format("2006-01-02"))
	}
	if s.ExecutionCount != 0 {
		t.Errorf("ExecutionCount = %d, want 0", s.ExecutionCount)
	}
}

func TestPause(t *testing.T) {
	s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 0)

	paused, err := s.Pause()
	if err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	if paused.Status != StatusPaused {
		t.Errorf("Status = %s, want PAUSED", paused.Status)
	}
	if !paused.NextDueDate.Equal(s.NextDueDate) {
		t.Error("Pause should not change NextDueDate")
	}

	if _, err := paused.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pausing a paused schedule: error = %v, want ErrInvalidState", err)
	}

	completed, _ := paused.Complete()
	if _, err := completed.Pause(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("pausing a completed schedule: error = %v, want ErrInvalidState", err)
	}
}

func TestResume(t *testing.T) {
	t.Run("due date still in the future", func(t *testing.T) {
		s := New("tmpl-1", "cust-1", FrequencyMonthly, date(2026, 6, 1), 0)
		s, _ = s.Pause()

		resumed, err := s.Resume(date(2026, 5, 20))
		if err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if resumed.Status != StatusActive {
			t.Errorf("Status = %s, want ACTIVE", resumed.Status)
		}
		if !resumed.PeriodStart.Equal(date(2026, 6, 1)) {
			t.Errorf("PeriodStart = %v, want unchanged", resumed.PeriodStart.Format("2006-01-02"))
		}
	})

	t.Run("rolls forward past missed periods", func(t *testing.T) {
		s := New("tmpl-1", "cust-1", FrequencyMonthly, date(2026, 1, 1), 0)
		s, _ = s.Pause()

		// Three periods (Jan, Feb, Mar) have passed. The next due date
		// must land on or after today, with no backlog.
		resumed, err := s.Resume(date(2026, 3, 15))
		if err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if !resumed.PeriodStart.Equal(date(2026, 4, 1)) {
			t.Errorf("PeriodStart = %v, want 2026-04-01", resumed.PeriodStart.Format("2006-01-02"))
		}
		if resumed.NextDueDate.Before(date(2026, 3, 15)) {
			t.Errorf("NextDueDate %v is before today", resumed.NextDueDate.Format("2006-01-02"))
		}
	})

	t.Run("completes when rolling past the end date", func(t *testing.T) {
		end := date(2026, 3, 31)
		s := New("tmpl-1", "cust-1", FrequencyMonthly, date(2026, 1, 1), 0)
		s.EndDate = &end
		s, _ = s.Pause()

		resumed, err := s.Resume(date(2026, 8, 1))
		if err != nil {
			t.Fatalf("Resume failed: %v", err)
		}
		if resumed.Status != StatusCompleted {
			t.Errorf("Status = %s, want COMPLETED", resumed.Status)
		}
	})

	t.Run("only valid from paused", func(t *testing.T) {
		s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 0)
		if _, err := s.Resume(date(2026, 1, 6)); !errors.Is(err, ErrInvalidState) {
			t.Errorf("resuming an active schedule: error = %v, want ErrInvalidState", err)
		}
	})
}

func TestComplete(t *testing.T) {
	s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 0)

	completed, err := s.Complete()
	if err != nil {
		t.Fatalf("Complete failed: %v", err)
	}
	if completed.Status != StatusCompleted {
		t.Errorf("Status = %s, want COMPLETED", completed.Status)
	}

	if _, err := completed.Complete(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("completing twice: error = %v, want ErrInvalidState", err)
	}

	paused, _ := s.Pause()
	if _, err := paused.Complete(); err != nil {
		t.Errorf("completing a paused schedule should succeed, got %v", err)
	}
}

func TestCanDelete(t *testing.T) {
	s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 0)

	if err := s.CanDelete(); !errors.Is(err, ErrConflict) {
		t.Errorf("deleting an active schedule: error = %v, want ErrConflict", err)
	}

	paused, _ := s.Pause()
	if err := paused.CanDelete(); err != nil {
		t.Errorf("deleting a paused schedule should be allowed, got %v", err)
	}

	completed, _ := s.Complete()
	if err := completed.CanDelete(); err != nil {
		t.Errorf("deleting a completed schedule should be allowed, got %v", err)
	}
}

func TestAdvance(t *testing.T) {
	t.Run("materialized increments count", func(t *testing.T) {
		s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 2)

		res, err := s.Advance(true)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if res.Completed {
			t.Error("unexpected completion")
		}
		if res.Schedule.ExecutionCount != 1 {
			t.Errorf("ExecutionCount = %d, want 1", res.Schedule.ExecutionCount)
		}
		if !res.Schedule.PeriodStart.Equal(date(2026, 1, 12)) {
			t.Errorf("PeriodStart = %v, want 2026-01-12", res.Schedule.PeriodStart.Format("2006-01-02"))
		}
		if !res.Schedule.NextDueDate.Equal(date(2026, 1, 10)) {
			t.Errorf("NextDueDate = %v, want 2026-01-10", res.Schedule.NextDueDate.Format("2006-01-02"))
		}
	})

	t.Run("skipped period keeps count", func(t *testing.T) {
		s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 0)

		res, err := s.Advance(false)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if res.Schedule.ExecutionCount != 0 {
			t.Errorf("ExecutionCount = %d, want 0", res.Schedule.ExecutionCount)
		}
		if !res.Schedule.PeriodStart.Equal(date(2026, 1, 12)) {
			t.Error("period must still advance when not materialized")
		}
	})

	t.Run("completes when next period exceeds end date", func(t *testing.T) {
		end := date(2026, 1, 10)
		s := New("tmpl-1", "cust-1", FrequencyMonthly, date(2026, 1, 1), 0)
		s.EndDate = &end

		res, err := s.Advance(true)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if !res.Completed {
			t.Error("expected completion")
		}
		if res.Schedule.Status != StatusCompleted {
			t.Errorf("Status = %s, want COMPLETED", res.Schedule.Status)
		}
		if res.Schedule.ExecutionCount != 1 {
			t.Errorf("final execution must still count, got %d", res.Schedule.ExecutionCount)
		}
	})

	t.Run("end date within reach allows another period", func(t *testing.T) {
		end := date(2026, 2, 15)
		s := New("tmpl-1", "cust-1", FrequencyMonthly, date(2026, 1, 1), 0)
		s.EndDate = &end

		res, err := s.Advance(true)
		if err != nil {
			t.Fatalf("Advance failed: %v", err)
		}
		if res.Completed {
			t.Error("Feb 1 is on or before the end date, schedule must stay active")
		}
		if !res.Schedule.PeriodStart.Equal(date(2026, 2, 1)) {
			t.Errorf("PeriodStart = %v, want 2026-02-01", res.Schedule.PeriodStart.Format("2006-01-02"))
		}
	})

	t.Run("only valid from active", func(t *testing.T) {
		s := New("tmpl-1", "cust-1", FrequencyWeekly, date(2026, 1, 5), 0)
		paused, _ := s.Pause()
		if _, err := paused.Advance(true); !errors.Is(err, ErrInvalidState) {
			t.Errorf("advancing a paused schedule: error = %v, want ErrInvalidState", err)
		}
	})
}

func TestDue(t *testing.T) {
	s := New("tmpl-1", "cust-1", FrequencyMonthly, date(2026, 3, 10), 5)
	// NextDueDate is 2026-03-05.

	tests := []struct {
		name string
		asOf time.Time
		want bool
	}{
		{"before due date", date(2026, 3, 4), false},
		{"exactly on due date", date(2026, 3, 5), true},
		{"after due date", date(2026, 3, 20), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := s.Due(tt.asOf); got != tt.want {
				t.Errorf("Due(%v) = %v, want %v", tt.asOf.Format("2006-01-02"), got, tt.want)
			}
		})
	}

	paused, _ := s.Pause()
	if paused.Due(date(2026, 3, 20)) {
		t.Error("paused schedule must never be due")
	}
}
