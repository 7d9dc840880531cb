package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/lumen-home/lumen-core/internal/infrastructure/config"
	"github.com/lumen-home/lumen-core/internal/infrastructure/logging"
	"github.com/lumen-home/lumen-core/internal/lights"
	"github.com/lumen-home/lumen-core/internal/schedule"
	"github.com/lumen-home/lumen-core/internal/solar"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// SolarSource yields today's solar times. Satisfied by *solar.Provider.
type SolarSource interface {
	Today(ctx context.Context) (solar.Snapshot, error)
}

// HistoryStore reads persisted switch commands. Satisfied by
// *lights.SQLiteHistoryRepository.
type HistoryStore interface {
	History(ctx context.Context, channel string, limit int) ([]lights.SwitchRecord, error)
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config     config.APIConfig
	Logger     *logging.Logger
	Registry   *schedule.Registry
	Controller *lights.Controller
	Solar      SolarSource
	History    HistoryStore
	Hub        *Hub // If set, the server uses this hub instead of creating its own
	Version    string
}

// Server is the diagnostics and control HTTP server for Lumen Core.
//
// It exposes the schedule registry, channel states and solar times, and
// accepts manual switching commands. Created with New(), started with
// Start(), stopped with Close().
type Server struct {
	cfg        config.APIConfig
	logger     *logging.Logger
	registry   *schedule.Registry
	controller *lights.Controller
	solar      SolarSource
	history    HistoryStore
	version    string

	server *http.Server
	hub    *Hub
	cancel context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Parameters:
//   - deps: Required dependencies (config, logger, registry, controller)
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If required dependencies are missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("schedule registry is required")
	}
	if deps.Controller == nil {
		return nil, fmt.Errorf("lights controller is required")
	}

	s := &Server{
		cfg:        deps.Config,
		logger:     deps.Logger,
		registry:   deps.Registry,
		controller: deps.Controller,
		solar:      deps.Solar,
		history:    deps.History,
		version:    deps.Version,
	}

	if deps.Hub != nil {
		s.hub = deps.Hub
	}

	return s, nil
}

// Start begins listening for HTTP connections.
//
// It sets up the router, starts the WebSocket hub, and launches the
// HTTP listener in a background goroutine. Stop with Close().
//
// Parameters:
//   - ctx: Context for background goroutine cancellation
//
// Returns:
//   - error: If the server fails to start
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.logger)
		go s.hub.Run(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		s.logger.Info("API server starting", "address", s.server.Addr)
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete,
// then forcefully closes remaining connections.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
//
// Parameters:
//   - ctx: Context for timeout/cancellation
//
// Returns:
//   - error: nil if healthy, error describing the issue otherwise
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}

	if s.server == nil {
		return fmt.Errorf("api server not started")
	}
	return nil
}
