package handlers

import (
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/executor"
)

// ExecutorHandlers triggers on-demand executor runs.
type ExecutorHandlers struct {
	executor *executor.Executor
}

// NewExecutorHandlers creates new executor handlers.
func NewExecutorHandlers(exec *executor.Executor) *ExecutorHandlers {
	return &ExecutorHandlers{executor: exec}
}

// Run handles POST /api/executor/run. The scheduled cron run and this
// endpoint share the same idempotent pipeline, so triggering both is
// safe.
func (h *ExecutorHandlers) Run(w http.ResponseWriter, r *http.Request) {
	summary, err := h.executor.Run(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Manual executor run failed")
		InternalError(w, "Executor run failed")
		return
	}

	JSON(w, http.StatusOK, summary)
}
