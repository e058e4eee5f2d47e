package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/maison-core/internal/auth"
	"github.com/nerrad567/maison-core/internal/guirlande"
	"github.com/nerrad567/maison-core/internal/infrastructure/config"
	"github.com/nerrad567/maison-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/maison-core/internal/infrastructure/logging"
	"github.com/nerrad567/maison-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/maison-core/internal/module"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Registry  *module.Registry
	Guirlande *guirlande.Service
	Auth      *auth.Service
	Users     auth.UserRepository
	Relay     *mqtt.Relay      // optional: mirrors activity onto MQTT
	Telemetry *influxdb.Client // optional: records readings and transitions
	DevMode   bool             // when true, test modules can be registered and commanded
	Version   string
}

// Server is the HTTP API server for Maison Core.
//
// It manages the HTTP listener, routes, middleware, and the module
// WebSocket endpoint. The server is created with New() and started
// with Start().
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	registry  *module.Registry
	guirlande *guirlande.Service
	auth      *auth.Service
	users     auth.UserRepository
	relay     *mqtt.Relay
	telemetry *influxdb.Client
	devMode   bool
	version   string
	server    *http.Server
	cancel    context.CancelFunc
}

// New creates a new API server with the given dependencies.
//
// The server is not started until Start() is called.
//
// Returns an error if a required dependency is missing. Relay and
// Telemetry are optional; everything else is required.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Registry == nil {
		return nil, fmt.Errorf("module registry is required")
	}
	if deps.Guirlande == nil {
		return nil, fmt.Errorf("guirlande service is required")
	}
	if deps.Auth == nil {
		return nil, fmt.Errorf("auth service is required")
	}
	if deps.Users == nil {
		return nil, fmt.Errorf("user repository is required")
	}

	return &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger.With("component", "api"),
		registry:  deps.Registry,
		guirlande: deps.Guirlande,
		auth:      deps.Auth,
		users:     deps.Users,
		relay:     deps.Relay,
		telemetry: deps.Telemetry,
		devMode:   deps.DevMode,
		version:   deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router and launches the HTTP listener in a background
// goroutine. The server can be stopped with Close().
func (s *Server) Start(ctx context.Context) error {
	_, s.cancel = context.WithCancel(ctx)

	router := s.buildRouter()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           router,
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
// then forcefully closes remaining connections. Live module sessions
// are torn down via the registry, not here.
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

// HealthCheck verifies the API server is running and responsive.
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
