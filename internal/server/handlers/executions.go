package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/execution"
	"github.com/cadencehq/cadence/internal/schedule"
)

// ExecutionHandlers exposes the execution ledger, read-only.
type ExecutionHandlers struct {
	db *database.DB
}

// NewExecutionHandlers creates new execution handlers.
func NewExecutionHandlers(db *database.DB) *ExecutionHandlers {
	return &ExecutionHandlers{db: db}
}

// ListBySchedule handles GET /api/tenants/{tenant}/schedules/{id}/executions.
func (h *ExecutionHandlers) ListBySchedule(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenant")
	scheduleID := r.PathValue("id")

	// Verifies the schedule exists in this tenant before reading the
	// ledger, which is keyed by schedule ID alone.
	if _, err := schedule.NewStore(h.db).Get(ctx, tenantID, scheduleID); err != nil {
		NotFound(w, "Schedule not found")
		return
	}

	executions, err := execution.NewStore(h.db).ListBySchedule(ctx, scheduleID)
	if err != nil {
		log.Error().Err(err).Str("schedule_id", scheduleID).Msg("Failed to list executions")
		InternalError(w, "Failed to list executions")
		return
	}

	items := make([]map[string]any, 0, len(executions))
	for _, exec := range executions {
		item := map[string]any{
			"id":           exec.ID,
			"schedule_id":  exec.ScheduleID,
			"period_start": exec.PeriodStart.Format(dateLayout),
			"period_end":   exec.PeriodEnd.Format(dateLayout),
			"executed_at":  exec.ExecutedAt,
		}
		if exec.ProjectID != "" {
			item["project_id"] = exec.ProjectID
		}
		items = append(items, item)
	}

	JSON(w, http.StatusOK, map[string]any{
		"executions": items,
		"count":      len(items),
	})
}
