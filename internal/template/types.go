// Package template manages engagement templates: the name pattern and
// task list a materialized project is built from.
package template

import (
	"strings"
	"time"
)

// Template defines how projects for a recurring engagement are shaped.
type Template struct {
	ID                  string
	Name                string
	NamePattern         string   // Supports {customer} and {period} placeholders
	Tasks               []string // Task titles instantiated on each project
	DefaultLeadTimeDays int
	Active              bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// ExpandName resolves a name pattern for a given customer and period.
// {period} renders as "January 2026" style.
func ExpandName(pattern, customerName string, periodStart time.Time) string {
	name := strings.ReplaceAll(pattern, "{customer}", customerName)
	name = strings.ReplaceAll(name, "{period}", periodStart.Format("January 2006"))
	return name
}
