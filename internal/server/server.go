// Package server provides the HTTP surface over the schedule service
// and the executor.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cadencehq/cadence/internal/config"
	"github.com/cadencehq/cadence/internal/database"
	"github.com/cadencehq/cadence/internal/executor"
	"github.com/cadencehq/cadence/internal/metrics"
	"github.com/cadencehq/cadence/internal/schedule"
)

// dbStatsInterval is how often the connection-pool gauge refreshes.
const dbStatsInterval = 30 * time.Second

type Server struct {
	cfg        *config.Config
	db         *database.DB
	schedules  *schedule.Service
	executor   *executor.Executor
	httpServer *http.Server
	router     *Router
}

func New(cfg *config.Config, db *database.DB) *Server {
	srv := &Server{
		cfg:       cfg,
		db:        db,
		schedules: schedule.NewService(db),
		executor:  executor.New(db),
	}

	srv.router = NewRouter(srv)
	srv.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      srv.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return srv
}

// Start begins serving HTTP and blocks until the listener fails or the
// context is canceled.
func (s *Server) Start(ctx context.Context) error {
	errCh := make(chan error, 1)

	go s.reportDBStats(ctx)

	go func() {
		log.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return s.Shutdown(context.Background())
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// reportDBStats feeds the connection-pool gauge while the server runs.
func (s *Server) reportDBStats(ctx context.Context) {
	metrics.UpdateDBStats(s.db.Stats().OpenConnections)

	ticker := time.NewTicker(dbStatsInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBStats(s.db.Stats().OpenConnections)
		}
	}
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}

func (s *Server) DB() *database.DB {
	return s.db
}

func (s *Server) Schedules() *schedule.Service {
	return s.schedules
}

func (s *Server) Executor() *executor.Executor {
	return s.executor
}

func (s *Server) Config() *config.Config {
	return s.cfg
}
