package schedule

import "errors"

var (
	// ErrNotFound indicates the schedule (or a referenced entity) does not exist.
	ErrNotFound = errors.New("schedule not found")

	// ErrInvalidState indicates an operation was attempted from a status
	// that does not permit it.
	ErrInvalidState = errors.New("invalid schedule state")

	// ErrConflict indicates the operation conflicts with the schedule's
	// current lifecycle, such as deleting an active schedule.
	ErrConflict = errors.New("schedule conflict")

	// ErrDuplicate indicates an active or paused schedule already exists
	// for the (template, customer) pair.
	ErrDuplicate = errors.New("duplicate schedule for template and customer")

	// ErrInvalidFrequency indicates an unknown frequency tag.
	ErrInvalidFrequency = errors.New("invalid frequency")
)
