package server

import (
	"context"
	stderrors "errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"

	"github.com/gorilla/websocket"

	"github.com/opendid-docs/docroutes/pkg/middleware"
	"github.com/opendid-docs/docroutes/pkg/router"
)

// Server serves route resolution over HTTP and WebSocket.
type Server struct {
	config   *ServerConfig
	state    atomic.Pointer[tableState]
	metrics  *middleware.Metrics
	upgrader websocket.Upgrader
	handler  http.Handler
	logger   *slog.Logger

	mu         sync.Mutex
	httpServer *http.Server
	conns      sync.WaitGroup
	closing    chan struct{}
}

// tableState is swapped atomically on reload.
type tableState struct {
	table    *router.RouteTable
	resolver router.Resolver
	digest   string
}

// New creates a Server for table. digest identifies the manifest content
// and is sent as ETag. A nil config uses DefaultServerConfig().
func New(table *router.RouteTable, digest string, config *ServerConfig) *Server {
	if config == nil {
		config = DefaultServerConfig()
	} else {
		config = config.Clone()
	}
	config.applyDefaults()

	s := &Server{
		config: config,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  config.WebSocket.ReadBufferSize,
			WriteBufferSize: config.WebSocket.WriteBufferSize,
			CheckOrigin:     config.WebSocket.CheckOrigin,
		},
		logger:  config.Logger.With("component", "server"),
		closing: make(chan struct{}),
	}
	if config.MetricsEnabled {
		s.metrics = middleware.NewMetrics(
			middleware.WithNamespace(config.MetricsNamespace),
			middleware.WithRegistry(config.Registry),
		)
	}

	s.SetTable(table, digest)
	s.handler = s.routes()
	return s
}

// SetTable replaces the route table served from now on.
func (s *Server) SetTable(table *router.RouteTable, digest string) {
	var resolver router.Resolver = table
	if s.metrics != nil {
		resolver = s.metrics.Resolver(table)
	}
	s.state.Store(&tableState{
		table:    table,
		resolver: resolver,
		digest:   digest,
	})
}

// Table returns the route table currently served.
func (s *Server) Table() *router.RouteTable {
	return s.state.Load().table
}

// Digest returns the digest of the table currently served.
func (s *Server) Digest() string {
	return s.state.Load().digest
}

// Handler returns the HTTP handler with all middleware applied.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// Config returns the server configuration.
func (s *Server) Config() *ServerConfig {
	return s.config
}

// Logger returns the server logger.
func (s *Server) Logger() *slog.Logger {
	return s.logger
}

// Run listens on the configured address and blocks until ctx is cancelled,
// SIGINT or SIGTERM arrives, or the listener fails. Shutdown is graceful
// within ShutdownTimeout.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.config.Address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.mu.Lock()
	s.httpServer = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: s.config.ReadHeaderTimeout,
		ReadTimeout:       s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
		ErrorLog:          slog.NewLogLogger(s.logger.Handler(), slog.LevelWarn),
	}
	httpServer := s.httpServer
	s.mu.Unlock()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			"address", ln.Addr().String(),
			"routes", s.Table().Len(),
			"digest", s.Digest())
		errCh <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if stderrors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err

	case <-ctx.Done():
		s.logger.Info("shutting down...")
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully shuts down the server. Open WebSocket connections are
// sent a close frame.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
	defer cancel()

	s.mu.Lock()
	httpServer := s.httpServer
	select {
	case <-s.closing:
	default:
		close(s.closing)
	}
	s.mu.Unlock()

	if httpServer != nil {
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("shutdown error", "error", err)
			return err
		}
	}

	done := make(chan struct{})
	go func() {
		s.conns.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		s.logger.Warn("websocket connections still open after shutdown timeout")
		return ctx.Err()
	}

	s.logger.Info("server shutdown complete")
	return nil
}
