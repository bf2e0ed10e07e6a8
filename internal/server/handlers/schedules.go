package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/customer"
	"github.com/cadencehq/cadence/internal/schedule"
	"github.com/cadencehq/cadence/internal/template"
)

const dateLayout = "2006-01-02"

// ScheduleHandlers handles schedule CRUD and lifecycle endpoints.
type ScheduleHandlers struct {
	service *schedule.Service
}

// NewScheduleHandlers creates new schedule handlers.
func NewScheduleHandlers(service *schedule.Service) *ScheduleHandlers {
	return &ScheduleHandlers{service: service}
}

// CreateScheduleRequest is the request body for creating a schedule.
type CreateScheduleRequest struct {
	TemplateID   string  `json:"template_id"`
	CustomerID   string  `json:"customer_id"`
	Frequency    string  `json:"frequency"`
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date,omitempty"`
	LeadTimeDays *int    `json:"lead_time_days,omitempty"`
	NameOverride string  `json:"name_override,omitempty"`
	LeadMemberID *string `json:"lead_member_id,omitempty"`
}

// UpdateScheduleRequest is the request body for updating a schedule.
type UpdateScheduleRequest struct {
	EndDate      *string `json:"end_date,omitempty"`
	ClearEndDate bool    `json:"clear_end_date,omitempty"`
	LeadTimeDays *int    `json:"lead_time_days,omitempty"`
	NameOverride *string `json:"name_override,omitempty"`
	LeadMemberID *string `json:"lead_member_id,omitempty"`
}

// Create handles POST /api/tenants/{tenant}/schedules.
func (h *ScheduleHandlers) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenant")

	var req CreateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	if req.TemplateID == "" {
		BadRequest(w, "Template ID is required")
		return
	}
	if req.CustomerID == "" {
		BadRequest(w, "Customer ID is required")
		return
	}

	freq, err := schedule.ParseFrequency(req.Frequency)
	if err != nil {
		BadRequest(w, "Invalid frequency: "+req.Frequency)
		return
	}

	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		BadRequest(w, "Invalid start_date, expected YYYY-MM-DD")
		return
	}

	params := schedule.CreateParams{
		TemplateID:   req.TemplateID,
		CustomerID:   req.CustomerID,
		Frequency:    freq,
		StartDate:    startDate,
		LeadTimeDays: req.LeadTimeDays,
		NameOverride: req.NameOverride,
		LeadMemberID: req.LeadMemberID,
	}

	if req.EndDate != "" {
		endDate, err := time.Parse(dateLayout, req.EndDate)
		if err != nil {
			BadRequest(w, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		params.EndDate = &endDate
	}

	sched, err := h.service.Create(ctx, tenantID, params)
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusCreated, scheduleResponse(sched))
}

// List handles GET /api/tenants/{tenant}/schedules.
func (h *ScheduleHandlers) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	tenantID := r.PathValue("tenant")

	filter := schedule.ListFilter{
		Status:     schedule.Status(r.URL.Query().Get("status")),
		CustomerID: r.URL.Query().Get("customer_id"),
	}

	schedules, err := h.service.List(ctx, tenantID, filter)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to list schedules")
		InternalError(w, "Failed to list schedules")
		return
	}

	items := make([]map[string]any, 0, len(schedules))
	for _, sched := range schedules {
		items = append(items, scheduleResponse(sched))
	}

	JSON(w, http.StatusOK, map[string]any{
		"schedules": items,
		"count":     len(items),
	})
}

// Get handles GET /api/tenants/{tenant}/schedules/{id}.
func (h *ScheduleHandlers) Get(w http.ResponseWriter, r *http.Request) {
	sched, err := h.service.Get(r.Context(), r.PathValue("tenant"), r.PathValue("id"))
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusOK, scheduleResponse(sched))
}

// Update handles PATCH /api/tenants/{tenant}/schedules/{id}.
func (h *ScheduleHandlers) Update(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req UpdateScheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid JSON body: "+err.Error())
		return
	}

	params := schedule.UpdateParams{
		ClearEndDate: req.ClearEndDate,
		LeadTimeDays: req.LeadTimeDays,
		NameOverride: req.NameOverride,
		LeadMemberID: req.LeadMemberID,
	}

	if req.EndDate != nil {
		endDate, err := time.Parse(dateLayout, *req.EndDate)
		if err != nil {
			BadRequest(w, "Invalid end_date, expected YYYY-MM-DD")
			return
		}
		params.EndDate = &endDate
	}

	sched, err := h.service.Update(ctx, r.PathValue("tenant"), r.PathValue("id"), params)
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusOK, scheduleResponse(sched))
}

// Delete handles DELETE /api/tenants/{tenant}/schedules/{id}.
func (h *ScheduleHandlers) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Delete(r.Context(), r.PathValue("tenant"), r.PathValue("id")); err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusNoContent, nil)
}

// Pause handles POST /api/tenants/{tenant}/schedules/{id}/pause.
func (h *ScheduleHandlers) Pause(w http.ResponseWriter, r *http.Request) {
	sched, err := h.service.Pause(r.Context(), r.PathValue("tenant"), r.PathValue("id"))
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusOK, scheduleResponse(sched))
}

// Resume handles POST /api/tenants/{tenant}/schedules/{id}/resume.
func (h *ScheduleHandlers) Resume(w http.ResponseWriter, r *http.Request) {
	sched, err := h.service.Resume(r.Context(), r.PathValue("tenant"), r.PathValue("id"))
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusOK, scheduleResponse(sched))
}

// Complete handles POST /api/tenants/{tenant}/schedules/{id}/complete.
func (h *ScheduleHandlers) Complete(w http.ResponseWriter, r *http.Request) {
	sched, err := h.service.Complete(r.Context(), r.PathValue("tenant"), r.PathValue("id"))
	if err != nil {
		writeScheduleError(w, err)
		return
	}

	JSON(w, http.StatusOK, scheduleResponse(sched))
}

func scheduleResponse(s *schedule.Schedule) map[string]any {
	resp := map[string]any{
		"id":              s.ID,
		"template_id":     s.TemplateID,
		"customer_id":     s.CustomerID,
		"frequency":       string(s.Frequency),
		"start_date":      s.StartDate.Format(dateLayout),
		"lead_time_days":  s.LeadTimeDays,
		"status":          string(s.Status),
		"period_start":    s.PeriodStart.Format(dateLayout),
		"next_due_date":   s.NextDueDate.Format(dateLayout),
		"execution_count": s.ExecutionCount,
		"created_at":      s.CreatedAt,
		"updated_at":      s.UpdatedAt,
	}
	if s.EndDate != nil {
		resp["end_date"] = s.EndDate.Format(dateLayout)
	}
	if s.NameOverride != "" {
		resp["name_override"] = s.NameOverride
	}
	if s.LeadMemberID != nil {
		resp["lead_member_id"] = *s.LeadMemberID
	}
	return resp
}

// writeScheduleError maps domain errors onto HTTP statuses.
func writeScheduleError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, schedule.ErrNotFound),
		errors.Is(err, template.ErrNotFound),
		errors.Is(err, customer.ErrNotFound):
		NotFound(w, err.Error())
	case errors.Is(err, schedule.ErrDuplicate), errors.Is(err, schedule.ErrConflict):
		Conflict(w, err.Error())
	case errors.Is(err, schedule.ErrInvalidState), errors.Is(err, schedule.ErrInvalidFrequency):
		UnprocessableEntity(w, err.Error())
	default:
		log.Error().Err(err).Msg("Schedule operation failed")
		InternalError(w, "Schedule operation failed")
	}
}
