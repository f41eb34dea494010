package api

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/nerrad567/gray-logic-node/internal/audit"
	"github.com/nerrad567/gray-logic-node/internal/hardware"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/config"
	"github.com/nerrad567/gray-logic-node/internal/infrastructure/logging"
	"github.com/nerrad567/gray-logic-node/internal/telemetry"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// ClimateReader is implemented by *hardware.ClimateSensor.
type ClimateReader interface {
	Measure(ctx context.Context) (hardware.Measurement, error)
}

// ActuatorController is implemented by *hardware.Actuator.
type ActuatorController interface {
	Set(state hardware.LEDState) error
	State() (hardware.LEDState, error)
}

// ConnectionReporter is implemented by *mqtt.Client.
type ConnectionReporter interface {
	IsConnected() bool
}

// TelemetryStats is implemented by *telemetry.Loop.
type TelemetryStats interface {
	Stats() telemetry.Stats
}

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config   config.APIConfig
	WS       config.WebSocketConfig
	Security config.SecurityConfig
	Logger   *logging.Logger
	Climate  ClimateReader
	Actuator ActuatorController

	// Optional.
	MQTT      ConnectionReporter
	Telemetry TelemetryStats
	Journal   audit.Repository
	DB        *sql.DB
	Hub       *Hub // If set, the server uses this hub instead of creating its own
	Version   string
}

// Server is the node's HTTP server.
type Server struct {
	cfg       config.APIConfig
	secCfg    config.SecurityConfig
	logger    *logging.Logger
	climate   ClimateReader
	actuator  ActuatorController
	mqtt      ConnectionReporter
	telemetry TelemetryStats
	journal   audit.Repository
	db        *sql.DB
	version   string
	startTime time.Time

	failures failureCounters

	journalCh chan *audit.Entry
	wg        sync.WaitGroup

	server *http.Server
	addr   string
	hub    *Hub
	cancel context.CancelFunc

	// stopJournal ends the journal drainer. It is independent of the Start
	// context so requests still in flight during Shutdown are journaled.
	stopJournal context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns:
//   - *Server: Configured server ready to start
//   - error: If a required dependency is missing
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Climate == nil {
		return nil, fmt.Errorf("climate sensor is required")
	}
	if deps.Actuator == nil {
		return nil, fmt.Errorf("actuator is required")
	}

	s := &Server{
		cfg:       deps.Config,
		secCfg:    deps.Security,
		logger:    deps.Logger,
		climate:   deps.Climate,
		actuator:  deps.Actuator,
		mqtt:      deps.MQTT,
		telemetry: deps.Telemetry,
		journal:   deps.Journal,
		db:        deps.DB,
		version:   deps.Version,
		startTime: time.Now(),
		hub:       deps.Hub,
	}
	if s.hub == nil {
		s.hub = NewHub(deps.WS, deps.Logger)
	}
	if s.journal != nil {
		s.journalCh = make(chan *audit.Entry, journalChanSize)
	}

	return s, nil
}

// Hub returns the server's WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Start binds the listener and serves in a background goroutine.
//
// Binding happens before Start returns, so a port already in use is reported
// here rather than logged later.
//
// Returns:
//   - error: If the listener cannot be bound
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.hub.Run(srvCtx)
	}()

	if s.journalCh != nil {
		var journalCtx context.Context
		journalCtx, s.stopJournal = context.WithCancel(context.Background())
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.drainJournal(journalCtx)
		}()
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	ln, err := net.Listen("tcp", s.server.Addr)
	if err != nil {
		s.cancel()
		if s.stopJournal != nil {
			s.stopJournal()
		}
		return fmt.Errorf("binding API listener: %w", err)
	}
	s.addr = ln.Addr().String()

	s.logger.Info("API server listening", "address", s.addr)

	go func() {
		if err := s.server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Addr returns the bound listener address, or "" before Start.
func (s *Server) Addr() string {
	return s.addr
}

// Close gracefully shuts down the API server.
//
// It waits up to 10 seconds for in-flight requests to complete, then stops
// the hub and flushes queued journal entries. The journal drainer runs until
// Shutdown has returned, even when the Start context was cancelled first.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	err := s.server.Shutdown(ctx)

	if s.cancel != nil {
		s.cancel()
	}
	if s.stopJournal != nil {
		s.stopJournal()
	}
	s.wg.Wait()

	if err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// HealthCheck verifies the API server is running.
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
