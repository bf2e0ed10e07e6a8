// Package executor drives the batch pass that materializes projects for
// due schedules across every tenant.
package executor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/customer"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/execution"
	"github.com/cadencehq/cadence/internal/metrics"
	"github.com/cadencehq/cadence/internal/project"
	"github.com/cadencehq/cadence/internal/schedule"
	"github.com/cadencehq/cadence/internal/template"
	"github.com/cadencehq/cadence/internal/tenant"
)

// Executor scans all tenants for due schedules and runs each schedule's
// execute-or-skip-then-advance sequence in its own transaction. A
// schedule's failure rolls back only its own work; it stays due and is
// picked up again on the next run.
type Executor struct {
	db      *database.DB
	tenants *tenant.Store
	now     func() time.Time
}

// New creates a new executor.
func New(db *database.DB) *Executor {
	return &Executor{
		db:      db,
		tenants: tenant.NewStore(db),
		now:     time.Now,
	}
}

// Summary reports what a single batch run did.
type Summary struct {
	StartedAt time.Time       `json:"started_at"`
	Duration  time.Duration   `json:"duration"`
	Tenants   []TenantSummary `json:"tenants"`
	Executed  int             `json:"executed"`
	Skipped   int             `json:"skipped"`
	Completed int             `json:"completed"`
	Failed    int             `json:"failed"`
}

// TenantSummary is the per-tenant slice of a run's Summary.
type TenantSummary struct {
	TenantID  string `json:"tenant_id"`
	Due       int    `json:"due"`
	Executed  int    `json:"executed"`
	Skipped   int    `json:"skipped"`
	Completed int    `json:"completed"`
	Failed    int    `json:"failed"`
}

// outcome classifies one schedule's processing result.
type outcome struct {
	executed  bool
	skipped   bool
	completed bool
}

// Run performs one batch pass over every active tenant. Per-schedule
// and per-tenant failures are logged and counted, never propagated; the
// returned error covers only the tenant enumeration itself.
func (e *Executor) Run(ctx context.Context) (*Summary, error) {
	started := e.now().UTC()
	today := truncateToDay(started)

	tenants, err := e.tenants.ListActive(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing tenants: %w", err)
	}

	summary := &Summary{StartedAt: started}

	for _, t := range tenants {
		ts := e.runTenant(ctx, t.ID, today)
		summary.Tenants = append(summary.Tenants, ts)
		summary.Executed += ts.Executed
		summary.Skipped += ts.Skipped
		summary.Completed += ts.Completed
		summary.Failed += ts.Failed
	}

	summary.Duration = time.Since(started)
	metrics.RecordExecutorRun(summary.Duration)

	log.Info().
		Int("tenants", len(tenants)).
		Int("executed", summary.Executed).
		Int("skipped", summary.Skipped).
		Int("completed", summary.Completed).
		Int("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("Executor run finished")

	return summary, nil
}

// runTenant processes one tenant's due schedules. A failure loading the
// due list marks the whole tenant failed but does not affect others.
func (e *Executor) runTenant(ctx context.Context, tenantID string, today time.Time) TenantSummary {
	ts := TenantSummary{TenantID: tenantID}

	due, err := schedule.NewStore(e.db).FindDue(ctx, tenantID, today)
	if err != nil {
		log.Error().
			Err(err).
			Str("tenant_id", tenantID).
			Msg("Failed to load due schedules")
		ts.Failed++
		metrics.RecordScheduleProcessed(tenantID, metrics.OutcomeFailed)
		return ts
	}
	ts.Due = len(due)

	for _, sched := range due {
		res, err := e.processSchedule(ctx, tenantID, sched)
		if err != nil {
			log.Error().
				Err(err).
				Str("tenant_id", tenantID).
				Str("schedule_id", sched.ID).
				Time("period_start", sched.PeriodStart).
				Msg("Failed to process schedule")
			ts.Failed++
			metrics.RecordScheduleProcessed(tenantID, metrics.OutcomeFailed)
			continue
		}

		if res.executed {
			ts.Executed++
			metrics.RecordScheduleProcessed(tenantID, metrics.OutcomeExecuted)
		}
		if res.skipped {
			ts.Skipped++
			metrics.RecordScheduleProcessed(tenantID, metrics.OutcomeSkipped)
		}
		if res.completed {
			ts.Completed++
			metrics.RecordScheduleProcessed(tenantID, metrics.OutcomeCompleted)
		}
	}

	return ts
}

// processSchedule runs the execute-or-skip-then-advance sequence for
// one schedule inside a single transaction: ledger check, lifecycle
// gate, project materialization, ledger insert, schedule advance. A
// concurrent run that already recorded this period surfaces as a
// unique violation; the transaction rolls back and the schedule counts
// as skipped.
func (e *Executor) processSchedule(ctx context.Context, tenantID string, sched *schedule.Schedule) (outcome, error) {
	var res outcome

	err := e.db.Transaction(ctx, func(tx *database.Tx) error {
		schedules := schedule.NewStore(tx)
		ledger := execution.NewStore(tx)
		customers := customer.NewStore(tx)
		templates := template.NewStore(tx)
		materializer := project.NewMaterializer(tx)

		period := sched.PeriodStart

		existing, err := ledger.FindByScheduleAndPeriod(ctx, sched.ID, period)
		if err != nil {
			return err
		}

		materialized := false
		switch {
		case existing != nil:
			// A previous run recorded this period; just catch up the
			// schedule's bookkeeping.
			materialized = existing.ProjectID != ""
			res.skipped = true

		default:
			status, err := customers.GetLifecycleStatus(ctx, tenantID, sched.CustomerID)
			if err != nil {
				return err
			}

			if !status.EligibleForProjects() {
				// The schedule advances so the period is consumed, but
				// no project or ledger entry is produced.
				log.Debug().
					Str("tenant_id", tenantID).
					Str("schedule_id", sched.ID).
					Str("lifecycle_status", string(status)).
					Msg("Customer ineligible, advancing without materializing")
				res.skipped = true
				break
			}

			projectID, err := e.materialize(ctx, tenantID, sched, period, customers, templates, materializer)
			if err != nil {
				return err
			}

			if err := ledger.Insert(ctx, &execution.Execution{
				ScheduleID:  sched.ID,
				PeriodStart: period,
				PeriodEnd:   schedule.PeriodEnd(period, sched.Frequency),
				ProjectID:   projectID,
			}); err != nil {
				return err
			}

			materialized = true
			res.executed = true
		}

		advanced, err := sched.Advance(materialized)
		if err != nil {
			return err
		}
		res.completed = advanced.Completed

		return schedules.Update(ctx, tenantID, &advanced.Schedule)
	})
	if err != nil {
		if errors.Is(err, execution.ErrAlreadyExecuted) {
			// Lost the race against an overlapping run; its commit
			// already covers this period.
			log.Debug().
				Str("tenant_id", tenantID).
				Str("schedule_id", sched.ID).
				Msg("Period recorded by a concurrent run")
			return outcome{skipped: true}, nil
		}
		return outcome{}, err
	}

	return res, nil
}

// materialize builds the project name from the schedule override or the
// template pattern and creates the project with the template's tasks.
func (e *Executor) materialize(
	ctx context.Context,
	tenantID string,
	sched *schedule.Schedule,
	period time.Time,
	customers *customer.Store,
	templates *template.Store,
	materializer *project.Materializer,
) (string, error) {
	tmpl, err := templates.Get(ctx, tenantID, sched.TemplateID)
	if err != nil {
		return "", err
	}

	cust, err := customers.Get(ctx, tenantID, sched.CustomerID)
	if err != nil {
		return "", err
	}

	name := sched.NameOverride
	if name == "" {
		name = template.ExpandName(tmpl.NamePattern, cust.Name, period)
	}

	projectID, err := materializer.Create(ctx, tenantID, project.CreateParams{
		CustomerID:       sched.CustomerID,
		Name:             name,
		LeadMemberID:     sched.LeadMemberID,
		SourceScheduleID: sched.ID,
		Tasks:            tmpl.Tasks,
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("schedule_id", sched.ID).
		Str("project_id", projectID).
		Time("period_start", period).
		Msg("Project materialized")

	return projectID, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
