// Package api exposes the north port of the bridge: the HTTP surface a
// context broker talks to. It decodes the configured dialect's wire
// shapes, hands the neutral payloads to the context server pipelines
// and shapes results and errors back into the dialect.
//
// The server follows the same lifecycle pattern as the other
// components:
//
//	server, err := api.New(deps)
//	server.Start(ctx)
//	defer server.Close()
//
// Thread Safety: All methods are safe for concurrent use from multiple
// goroutines.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/edgehaven/ngsi-bridge/internal/contextserver"
	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/config"
	"github.com/edgehaven/ngsi-bridge/internal/infrastructure/logging"
	"github.com/edgehaven/ngsi-bridge/internal/ngsi"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight
// requests to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config  config.ServerConfig
	Dialect ngsi.Dialect
	Logger  *logging.Logger
	Context *contextserver.Server
	Version string
}

// Server is the HTTP front end of the bridge.
//
// It manages the HTTP listener, routes and middleware. The server is
// created with New() and started with Start().
type Server struct {
	cfg     config.ServerConfig
	dialect ngsi.Dialect
	logger  *logging.Logger
	context *contextserver.Server
	version string
	started time.Time
	server  *http.Server
}

// New creates an API server with the given dependencies.
//
// The server is not started until Start() is called.
func New(deps Deps) (*Server, error) {
	if deps.Logger == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if deps.Context == nil {
		return nil, fmt.Errorf("context server is required")
	}
	if deps.Dialect != ngsi.DialectV1 && deps.Dialect != ngsi.DialectV2 {
		return nil, fmt.Errorf("unsupported dialect %q", deps.Dialect)
	}

	return &Server{
		cfg:     deps.Config,
		dialect: deps.Dialect,
		logger:  deps.Logger,
		context: deps.Context,
		version: deps.Version,
	}, nil
}

// Start begins listening for HTTP connections.
//
// It builds the router for the configured dialect and launches the
// listener in a background goroutine. The server is stopped with
// Close().
func (s *Server) Start(ctx context.Context) error {
	s.started = time.Now()

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       s.cfg.ReadTimeout(),
		ReadHeaderTimeout: s.cfg.ReadTimeout(),
		WriteTimeout:      s.cfg.WriteTimeout(),
		IdleTimeout:       s.cfg.IdleTimeout(),
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("north port starting with TLS",
				"address", s.server.Addr,
				"dialect", string(s.dialect),
			)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("north port starting",
				"address", s.server.Addr,
				"dialect", string(s.dialect),
			)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("north port server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the server, waiting up to ten seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("north port shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down north port: %w", err)
	}
	return nil
}

// HealthCheck verifies the server has been started.
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
