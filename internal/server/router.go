package server

import (
	"net/http"

	"github.com/cadencehq/cadence/internal/metrics"
	"github.com/cadencehq/cadence/internal/server/handlers"
)

type Router struct {
	server      *Server
	mux         *http.ServeMux
	middlewares []Middleware
}

type Middleware func(http.Handler) http.Handler

func NewRouter(srv *Server) *Router {
	r := &Router{
		server: srv,
		mux:    http.NewServeMux(),
	}

	r.setupMiddleware()
	r.setupRoutes()

	return r
}

func (r *Router) setupMiddleware() {
	r.Use(RecoveryMiddleware)
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
}

func (r *Router) Use(mw Middleware) {
	r.middlewares = append(r.middlewares, mw)
}

func (r *Router) setupRoutes() {
	health := handlers.NewHealthHandlers(r.server.DB())
	r.mux.HandleFunc("GET /health", r.wrap(health.Check))

	r.mux.Handle("GET /metrics", metrics.Handler())

	admin := handlers.NewAdminHandlers(r.server.DB())
	r.mux.HandleFunc("POST /api/tenants", r.wrap(admin.CreateTenant))
	r.mux.HandleFunc("GET /api/tenants", r.wrap(admin.ListTenants))
	r.mux.HandleFunc("POST /api/tenants/{tenant}/customers", r.wrap(admin.CreateCustomer))
	r.mux.HandleFunc("PATCH /api/tenants/{tenant}/customers/{id}/lifecycle", r.wrap(admin.UpdateCustomerLifecycle))
	r.mux.HandleFunc("POST /api/tenants/{tenant}/templates", r.wrap(admin.CreateTemplate))
	r.mux.HandleFunc("GET /api/tenants/{tenant}/templates", r.wrap(admin.ListTemplates))

	schedules := handlers.NewScheduleHandlers(r.server.Schedules())
	r.mux.HandleFunc("POST /api/tenants/{tenant}/schedules", r.wrap(schedules.Create))
	r.mux.HandleFunc("GET /api/tenants/{tenant}/schedules", r.wrap(schedules.List))
	r.mux.HandleFunc("GET /api/tenants/{tenant}/schedules/{id}", r.wrap(schedules.Get))
	r.mux.HandleFunc("PATCH /api/tenants/{tenant}/schedules/{id}", r.wrap(schedules.Update))
	r.mux.HandleFunc("DELETE /api/tenants/{tenant}/schedules/{id}", r.wrap(schedules.Delete))
	r.mux.HandleFunc("POST /api/tenants/{tenant}/schedules/{id}/pause", r.wrap(schedules.Pause))
	r.mux.HandleFunc("POST /api/tenants/{tenant}/schedules/{id}/resume", r.wrap(schedules.Resume))
	r.mux.HandleFunc("POST /api/tenants/{tenant}/schedules/{id}/complete", r.wrap(schedules.Complete))

	executions := handlers.NewExecutionHandlers(r.server.DB())
	r.mux.HandleFunc("GET /api/tenants/{tenant}/schedules/{id}/executions", r.wrap(executions.ListBySchedule))

	exec := handlers.NewExecutorHandlers(r.server.Executor())
	r.mux.HandleFunc("POST /api/executor/run", r.wrap(exec.Run))
}

func (r *Router) wrap(h http.HandlerFunc) http.HandlerFunc {
	var handler http.Handler = h
	for i := len(r.middlewares) - 1; i >= 0; i-- {
		handler = r.middlewares[i](handler)
	}
	return handler.ServeHTTP
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}
