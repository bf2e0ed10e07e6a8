package handlers

import (
	"net/http"

	"github.com/cadencehq/cadence/internal/database"
)

// HealthHandlers handles health check requests.
type HealthHandlers struct {
	db *database.DB
}

// NewHealthHandlers creates new health handlers.
func NewHealthHandlers(db *database.DB) *HealthHandlers {
	return &HealthHandlers{db: db}
}

// Check handles GET /health.
func (h *HealthHandlers) Check(w http.ResponseWriter, r *http.Request) {
	if err := h.db.Ping(r.Context()); err != nil {
		JSON(w, http.StatusServiceUnavailable, map[string]any{
			"status":   "unhealthy",
			"database": "unreachable",
		})
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"database": "ok",
	})
}
