package schedule

import (
	"fmt"
	"time"
)

// Frequency represents how often a schedule produces a project.
type Frequency string

const (
	FrequencyWeekly       Frequency = "WEEKLY"
	FrequencyFortnightly  Frequency = "FORTNIGHTLY"
	FrequencyMonthly      Frequency = "MONTHLY"
	FrequencyQuarterly    Frequency = "QUARTERLY"
	FrequencySemiAnnually Frequency = "SEMI_ANNUALLY"
	FrequencyAnnually     Frequency = "ANNUALLY"
)

// Frequencies lists every supported frequency tag.
var Frequencies = []Frequency{
	FrequencyWeekly,
	FrequencyFortnightly,
	FrequencyMonthly,
	FrequencyQuarterly,
	FrequencySemiAnnually,
	FrequencyAnnually,
}

// Valid reports whether f is a known frequency tag.
func (f Frequency) Valid() bool {
	switch f {
	case FrequencyWeekly, FrequencyFortnightly, FrequencyMonthly,
		FrequencyQuarterly, FrequencySemiAnnually, FrequencyAnnually:
		return true
	}
	return false
}

// ParseFrequency validates and converts a raw string into a Frequency.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(s)
	if !f.Valid() {
		return "", fmt.Errorf("%w: unknown frequency %q", ErrInvalidFrequency, s)
	}
	return f, nil
}

// DueDate returns the date a period should be executed: the period
// start minus the lead time.
func DueDate(periodStart time.Time, leadTimeDays int) time.Time {
	return periodStart.AddDate(0, 0, -leadTimeDays)
}

// NextPeriodStart returns the start of the period following the one
// beginning at periodStart. Month-based frequencies are calendar-aware:
// adding a month to Jan 31 lands on the last day of February, never in
// March.
func NextPeriodStart(periodStart time.Time, freq Frequency) time.Time {
	switch freq {
	case FrequencyWeekly:
		return periodStart.AddDate(0, 0, 7)
	case FrequencyFortnightly:
		return periodStart.AddDate(0, 0, 14)
	case FrequencyMonthly:
		return addMonthsClamped(periodStart, 1)
	case FrequencyQuarterly:
		return addMonthsClamped(periodStart, 3)
	case FrequencySemiAnnually:
		return addMonthsClamped(periodStart, 6)
	case FrequencyAnnually:
		return addMonthsClamped(periodStart, 12)
	default:
		return periodStart
	}
}

// PeriodEnd returns the last day of the period beginning at periodStart.
func PeriodEnd(periodStart time.Time, freq Frequency) time.Time {
	return NextPeriodStart(periodStart, freq).AddDate(0, 0, -1)
}

// WouldExceedEnd reports whether a period starting at nextPeriodStart
// overruns the optional end date.
func WouldExceedEnd(nextPeriodStart time.Time, endDate *time.Time) bool {
	return endDate != nil && nextPeriodStart.After(*endDate)
}

// addMonthsClamped adds months keeping the day-of-month when possible
// and clamping to the last valid day otherwise. time.AddDate would
// normalize Jan 31 + 1 month into March.
func addMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	firstOfTarget := time.Date(year, month+time.Month(months), 1, 0, 0, 0, 0, t.Location())
	if last := daysInMonth(firstOfTarget.Year(), firstOfTarget.Month()); day > last {
		day = last
	}
	return time.Date(firstOfTarget.Year(), firstOfTarget.Month(), day, 0, 0, 0, 0, t.Location())
}

func daysInMonth(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
