package server

import (
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ServerConfig configures the HTTP server.
type ServerConfig struct {
	// Address is the address to listen on (e.g., ":8080" or "localhost:3000").
	// Default: ":8080".
	Address string

	// HTTP timeouts passed to http.Server.
	ReadHeaderTimeout time.Duration
	ReadTimeout       time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration

	// ShutdownTimeout is the maximum time to wait for graceful shutdown.
	// Default: 10 seconds.
	ShutdownTimeout time.Duration

	// WebSocket configures the resolve channel.
	WebSocket WebSocketConfig

	// MetricsEnabled mounts the Prometheus handler at MetricsPath and
	// instruments resolutions.
	MetricsEnabled bool

	// MetricsPath is where metrics are served. Default: "/metrics".
	MetricsPath string

	// MetricsNamespace prefixes metric names. Default: "docroutes".
	MetricsNamespace string

	// Registry receives the server's collectors. Default: a fresh registry
	// per server, so several servers can coexist in one process.
	Registry *prometheus.Registry

	// TracingEnabled wraps every request in an OpenTelemetry span.
	TracingEnabled bool

	// TracerName names the tracer. Default: "docroutes".
	TracerName string

	// Logger receives request and lifecycle logs. Default: slog.Default().
	Logger *slog.Logger
}

// WebSocketConfig configures the resolve channel.
type WebSocketConfig struct {
	Enabled bool

	// Path is where the upgrade is accepted. Default: "/_ws".
	Path string

	ReadBufferSize  int
	WriteBufferSize int

	// CheckOrigin validates the request origin.
	// Default: SameOriginCheck.
	CheckOrigin func(r *http.Request) bool

	// PingInterval is how often the server pings idle clients.
	// Default: 30 seconds.
	PingInterval time.Duration

	// ReadTimeout closes connections that stay silent (no message and no
	// pong) for longer. Default: 2 * PingInterval.
	ReadTimeout time.Duration

	// WriteTimeout bounds each write. Default: 10 seconds.
	WriteTimeout time.Duration

	// MaxMessageSize caps an incoming message. Default: 4096 bytes.
	MaxMessageSize int64
}

// DefaultServerConfig returns a ServerConfig with sensible defaults.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Address:           ":8080",
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		WebSocket: WebSocketConfig{
			Enabled:         true,
			Path:            "/_ws",
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     SameOriginCheck,
			PingInterval:    30 * time.Second,
			WriteTimeout:    10 * time.Second,
			MaxMessageSize:  4096,
		},
		MetricsEnabled:   true,
		MetricsPath:      "/metrics",
		MetricsNamespace: "docroutes",
		TracerName:       "docroutes",
	}
}

// applyDefaults fills zero values from DefaultServerConfig.
func (c *ServerConfig) applyDefaults() {
	d := DefaultServerConfig()
	if c.Address == "" {
		c.Address = d.Address
	}
	if c.ShutdownTimeout == 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	if c.MetricsPath == "" {
		c.MetricsPath = d.MetricsPath
	}
	if c.MetricsNamespace == "" {
		c.MetricsNamespace = d.MetricsNamespace
	}
	if c.TracerName == "" {
		c.TracerName = d.TracerName
	}
	if c.Registry == nil {
		c.Registry = prometheus.NewRegistry()
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}

	ws := &c.WebSocket
	if ws.Path == "" {
		ws.Path = d.WebSocket.Path
	}
	if ws.ReadBufferSize == 0 {
		ws.ReadBufferSize = d.WebSocket.ReadBufferSize
	}
	if ws.WriteBufferSize == 0 {
		ws.WriteBufferSize = d.WebSocket.WriteBufferSize
	}
	if ws.CheckOrigin == nil {
		ws.CheckOrigin = SameOriginCheck
	}
	if ws.PingInterval == 0 {
		ws.PingInterval = d.WebSocket.PingInterval
	}
	if ws.ReadTimeout == 0 {
		ws.ReadTimeout = 2 * ws.PingInterval
	}
	if ws.WriteTimeout == 0 {
		ws.WriteTimeout = d.WebSocket.WriteTimeout
	}
	if ws.MaxMessageSize == 0 {
		ws.MaxMessageSize = d.WebSocket.MaxMessageSize
	}
}

// Clone returns a copy of the ServerConfig.
func (c *ServerConfig) Clone() *ServerConfig {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// SameOriginCheck validates that the WebSocket request origin matches the host.
// Requests without an Origin header (curl, server-side clients) pass.
func SameOriginCheck(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}

	originURL, err := url.Parse(origin)
	if err != nil {
		return false
	}

	host := r.Host
	if host == "" {
		return false
	}

	return originURL.Host == host
}

// AllowOrigins returns a CheckOrigin that accepts same-origin requests and
// the listed origins ("https://docs.example.com"). "*" accepts any origin.
func AllowOrigins(origins []string) func(r *http.Request) bool {
	if slices.Contains(origins, "*") {
		return func(*http.Request) bool { return true }
	}
	return func(r *http.Request) bool {
		if SameOriginCheck(r) {
			return true
		}
		return slices.Contains(origins, r.Header.Get("Origin"))
	}
}
