package middleware

import (
	"net/http"
	"strconv"
	"time"

	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/opendid-docs/docroutes/pkg/router"
)

// MetricsConfig configures the Prometheus collectors.
type MetricsConfig struct {
	// Namespace is the metrics namespace (default: "docroutes").
	Namespace string

	// Subsystem is the metrics subsystem (default: "").
	Subsystem string

	// ConstLabels are constant labels added to all metrics.
	ConstLabels prometheus.Labels

	// Buckets are the histogram buckets for resolution duration.
	Buckets []float64

	// Registry is the Prometheus registry to use.
	// Default: prometheus.DefaultRegisterer
	Registry prometheus.Registerer
}

// MetricsOption configures the Prometheus collectors.
type MetricsOption func(*MetricsConfig)

// WithNamespace sets the metrics namespace.
func WithNamespace(namespace string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Namespace = namespace
	}
}

// WithSubsystem sets the metrics subsystem.
func WithSubsystem(subsystem string) MetricsOption {
	return func(c *MetricsConfig) {
		c.Subsystem = subsystem
	}
}

// WithConstLabels sets constant labels for all metrics.
func WithConstLabels(labels prometheus.Labels) MetricsOption {
	return func(c *MetricsConfig) {
		c.ConstLabels = labels
	}
}

// WithBuckets sets the histogram buckets.
func WithBuckets(buckets []float64) MetricsOption {
	return func(c *MetricsConfig) {
		c.Buckets = buckets
	}
}

// WithRegistry sets the Prometheus registry.
func WithRegistry(registry prometheus.Registerer) MetricsOption {
	return func(c *MetricsConfig) {
		c.Registry = registry
	}
}

func defaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		Namespace: "docroutes",
		// Resolution is an in-memory walk; the default buckets start at 5ms.
		Buckets:  []float64{.000001, .000005, .00001, .00005, .0001, .0005, .001, .005},
		Registry: prometheus.DefaultRegisterer,
	}
}

// Outcome label values.
const (
	OutcomeMatched  = "matched"
	OutcomeFallback = "fallback"
	OutcomeOK       = "ok"
	OutcomeError    = "error"
)

// Metrics holds the collectors registered for one server.
type Metrics struct {
	resolutions   *prometheus.CounterVec
	duration      prometheus.Histogram
	httpRequests  *prometheus.CounterVec
	wsConnections prometheus.Gauge
	wsMessages    *prometheus.CounterVec
}

// NewMetrics registers the collectors with the configured registry.
// Registering twice with the same registry panics, as promauto does.
func NewMetrics(opts ...MetricsOption) *Metrics {
	config := defaultMetricsConfig()
	for _, opt := range opts {
		opt(&config)
	}

	factory := promauto.With(config.Registry)

	return &Metrics{
		resolutions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolutions_total",
			Help:        "Total number of route resolutions by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),

		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "resolution_duration_seconds",
			Help:        "Route resolution duration in seconds",
			ConstLabels: config.ConstLabels,
			Buckets:     config.Buckets,
		}),

		httpRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "http_requests_total",
			Help:        "Total HTTP requests by method and status code",
			ConstLabels: config.ConstLabels,
		}, []string{"method", "code"}),

		wsConnections: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_connections",
			Help:        "Number of open WebSocket connections",
			ConstLabels: config.ConstLabels,
		}),

		wsMessages: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace:   config.Namespace,
			Subsystem:   config.Subsystem,
			Name:        "websocket_messages_total",
			Help:        "Total WebSocket resolve requests by outcome",
			ConstLabels: config.ConstLabels,
		}, []string{"outcome"}),
	}
}

// Prometheus wraps next so every resolution is counted and timed.
//
// Example:
//
//	resolver := middleware.Prometheus(table, middleware.WithNamespace("docs"))
//	route := resolver.Resolve("/docs/intro")
func Prometheus(next router.Resolver, opts ...MetricsOption) router.Resolver {
	return NewMetrics(opts...).Resolver(next)
}

// Resolver wraps next with the resolution collectors of m.
func (m *Metrics) Resolver(next router.Resolver) router.Resolver {
	return router.ResolverFunc(func(requestPath string) router.ResolvedRoute {
		start := time.Now()
		route := next.Resolve(requestPath)
		m.duration.Observe(time.Since(start).Seconds())

		outcome := OutcomeMatched
		if route.Fallback {
			outcome = OutcomeFallback
		}
		m.resolutions.WithLabelValues(outcome).Inc()

		return route
	})
}

// Handler counts HTTP requests by method and response status.
func (m *Metrics) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.httpRequests.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	})
}

// WebSocketOpened records a new WebSocket connection.
func (m *Metrics) WebSocketOpened() {
	m.wsConnections.Inc()
}

// WebSocketClosed records a closed WebSocket connection.
func (m *Metrics) WebSocketClosed() {
	m.wsConnections.Dec()
}

// WebSocketMessage records one resolve request received over a WebSocket.
// outcome is OutcomeOK or OutcomeError.
func (m *Metrics) WebSocketMessage(outcome string) {
	m.wsMessages.WithLabelValues(outcome).Inc()
}
