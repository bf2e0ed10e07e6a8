package handlers

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/customer"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/template"
	"github.com/cadencehq/cadence/internal/tenant"
)

// AdminHandlers covers tenant, customer, and template management.
type AdminHandlers struct {
	db *database.DB
}

// NewAdminHandlers creates new admin handlers.
func NewAdminHandlers(db *database.DB) *AdminHandlers {
	return &AdminHandlers{db: db}
}

// CreateTenantRequest is the request body for creating a tenant.
type CreateTenantRequest struct {
	Name string `json:"name"`
}

// CreateTenant handles POST /api/tenants.
func (h *AdminHandlers) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req CreateTenantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		BadRequest(w, "Tenant name is required")
		return
	}

	t := &tenant.Tenant{Name: req.Name}
	if err := tenant.NewStore(h.db).Create(r.Context(), t); err != nil {
		log.Error().Err(err).Msg("Failed to create tenant")
		InternalError(w, "Failed to create tenant")
		return
	}

	log.Info().Str("tenant_id", t.ID).Str("name", t.Name).Msg("Tenant created")
	JSON(w, http.StatusCreated, tenantResponse(t))
}

// ListTenants handles GET /api/tenants.
func (h *AdminHandlers) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := tenant.NewStore(h.db).ListActive(r.Context())
	if err != nil {
		log.Error().Err(err).Msg("Failed to list tenants")
		InternalError(w, "Failed to list tenants")
		return
	}

	items := make([]map[string]any, 0, len(tenants))
	for _, t := range tenants {
		items = append(items, tenantResponse(t))
	}
	JSON(w, http.StatusOK, map[string]any{"tenants": items, "count": len(items)})
}

// CreateCustomerRequest is the request body for creating a customer.
type CreateCustomerRequest struct {
	Name            string `json:"name"`
	LifecycleStatus string `json:"lifecycle_status,omitempty"`
}

// CreateCustomer handles POST /api/tenants/{tenant}/customers.
func (h *AdminHandlers) CreateCustomer(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant")

	var req CreateCustomerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		BadRequest(w, "Customer name is required")
		return
	}

	status := customer.LifecycleStatus(req.LifecycleStatus)
	if req.LifecycleStatus == "" {
		status = customer.LifecycleProspect
	} else if !status.Valid() {
		UnprocessableEntity(w, "Unknown lifecycle status: "+req.LifecycleStatus)
		return
	}

	c := &customer.Customer{Name: req.Name, LifecycleStatus: status}
	if err := customer.NewStore(h.db).Create(r.Context(), tenantID, c); err != nil {
		if database.IsForeignKeyError(err) {
			NotFound(w, "Tenant not found")
			return
		}
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to create customer")
		InternalError(w, "Failed to create customer")
		return
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("customer_id", c.ID).
		Str("lifecycle_status", string(c.LifecycleStatus)).
		Msg("Customer created")
	JSON(w, http.StatusCreated, customerResponse(c))
}

// UpdateLifecycleRequest is the request body for a lifecycle transition.
type UpdateLifecycleRequest struct {
	LifecycleStatus string `json:"lifecycle_status"`
}

// UpdateCustomerLifecycle handles
// PATCH /api/tenants/{tenant}/customers/{id}/lifecycle.
func (h *AdminHandlers) UpdateCustomerLifecycle(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant")
	customerID := r.PathValue("id")

	var req UpdateLifecycleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}

	status := customer.LifecycleStatus(req.LifecycleStatus)
	if !status.Valid() {
		UnprocessableEntity(w, "Unknown lifecycle status: "+req.LifecycleStatus)
		return
	}

	store := customer.NewStore(h.db)
	if err := store.UpdateLifecycleStatus(r.Context(), tenantID, customerID, status); err != nil {
		if err == customer.ErrNotFound {
			NotFound(w, "Customer not found")
			return
		}
		log.Error().Err(err).Str("customer_id", customerID).Msg("Failed to update lifecycle status")
		InternalError(w, "Failed to update lifecycle status")
		return
	}

	c, err := store.Get(r.Context(), tenantID, customerID)
	if err != nil {
		InternalError(w, "Failed to load customer")
		return
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("customer_id", customerID).
		Str("lifecycle_status", string(status)).
		Msg("Customer lifecycle updated")
	JSON(w, http.StatusOK, customerResponse(c))
}

// CreateTemplateRequest is the request body for creating a template.
type CreateTemplateRequest struct {
	Name                string   `json:"name"`
	NamePattern         string   `json:"name_pattern"`
	Tasks               []string `json:"tasks"`
	DefaultLeadTimeDays int      `json:"default_lead_time_days"`
	Active              *bool    `json:"active,omitempty"`
}

// CreateTemplate handles POST /api/tenants/{tenant}/templates.
func (h *AdminHandlers) CreateTemplate(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant")

	var req CreateTemplateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		BadRequest(w, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		BadRequest(w, "Template name is required")
		return
	}
	if strings.TrimSpace(req.NamePattern) == "" {
		BadRequest(w, "Template name pattern is required")
		return
	}
	if req.DefaultLeadTimeDays < 0 {
		UnprocessableEntity(w, "Default lead time must not be negative")
		return
	}

	tmpl := &template.Template{
		Name:                req.Name,
		NamePattern:         req.NamePattern,
		Tasks:               req.Tasks,
		DefaultLeadTimeDays: req.DefaultLeadTimeDays,
		Active:              true,
	}
	if req.Active != nil {
		tmpl.Active = *req.Active
	}

	if err := template.NewStore(h.db).Create(r.Context(), tenantID, tmpl); err != nil {
		if database.IsForeignKeyError(err) {
			NotFound(w, "Tenant not found")
			return
		}
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to create template")
		InternalError(w, "Failed to create template")
		return
	}

	log.Info().
		Str("tenant_id", tenantID).
		Str("template_id", tmpl.ID).
		Str("name", tmpl.Name).
		Msg("Template created")
	JSON(w, http.StatusCreated, templateResponse(tmpl))
}

// ListTemplates handles GET /api/tenants/{tenant}/templates.
func (h *AdminHandlers) ListTemplates(w http.ResponseWriter, r *http.Request) {
	tenantID := r.PathValue("tenant")

	templates, err := template.NewStore(h.db).List(r.Context(), tenantID)
	if err != nil {
		log.Error().Err(err).Str("tenant_id", tenantID).Msg("Failed to list templates")
		InternalError(w, "Failed to list templates")
		return
	}

	items := make([]map[string]any, 0, len(templates))
	for _, tmpl := range templates {
		items = append(items, templateResponse(tmpl))
	}
	JSON(w, http.StatusOK, map[string]any{"templates": items, "count": len(items)})
}

func tenantResponse(t *tenant.Tenant) map[string]any {
	return map[string]any{
		"id":         t.ID,
		"name":       t.Name,
		"status":     t.Status,
		"created_at": t.CreatedAt.Format(time.RFC3339),
	}
}

func customerResponse(c *customer.Customer) map[string]any {
	return map[string]any{
		"id":               c.ID,
		"name":             c.Name,
		"lifecycle_status": string(c.LifecycleStatus),
		"created_at":       c.CreatedAt.Format(time.RFC3339),
		"updated_at":       c.UpdatedAt.Format(time.RFC3339),
	}
}

func templateResponse(t *template.Template) map[string]any {
	tasks := t.Tasks
	if tasks == nil {
		tasks = []string{}
	}
	return map[string]any{
		"id":                     t.ID,
		"name":                   t.Name,
		"name_pattern":           t.NamePattern,
		"tasks":                  tasks,
		"default_lead_time_days": t.DefaultLeadTimeDays,
		"active":                 t.Active,
		"created_at":             t.CreatedAt.Format(time.RFC3339),
		"updated_at":             t.UpdatedAt.Format(time.RFC3339),
	}
}
