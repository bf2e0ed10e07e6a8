// Package customer tracks customers and the lifecycle status that gates
// whether a due schedule may materialize a project.
package customer

import "time"

// LifecycleStatus represents where a customer sits in their engagement
// lifecycle with the firm.
type LifecycleStatus string

const (
	// LifecycleProspect indicates the customer has not engaged the firm yet.
	LifecycleProspect LifecycleStatus = "PROSPECT"
	// LifecycleOnboarding indicates the customer is being set up.
	LifecycleOnboarding LifecycleStatus = "ONBOARDING"
	// LifecycleActive indicates a customer in good standing.
	LifecycleActive LifecycleStatus = "ACTIVE"
	// LifecycleDormant indicates a temporarily inactive customer.
	LifecycleDormant LifecycleStatus = "DORMANT"
	// LifecycleOffboarded is terminal; the customer has left the firm.
	LifecycleOffboarded LifecycleStatus = "OFFBOARDED"
)

// Valid reports whether s is a known lifecycle status.
func (s LifecycleStatus) Valid() bool {
	switch s {
	case LifecycleProspect, LifecycleOnboarding, LifecycleActive,
		LifecycleDormant, LifecycleOffboarded:
		return true
	}
	return false
}

// EligibleForProjects reports whether a customer in this status may
// receive materialized projects. Prospects have not started and
// offboarded customers are terminal; every other status proceeds.
func (s LifecycleStatus) EligibleForProjects() bool {
	switch s {
	case LifecycleProspect, LifecycleOffboarded:
		return false
	}
	return true
}

// Customer is a client of the firm within a tenant.
type Customer struct {
	ID              string
	Name            string
	LifecycleStatus LifecycleStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
