// Package middleware provides instrumentation for route resolution and the
// HTTP surface that serves it.
//
// This package includes:
//   - A Prometheus decorator for router.Resolver
//   - HTTP request metrics and WebSocket gauges
//   - OpenTelemetry tracing for HTTP handlers
//
// # Prometheus Metrics
//
// Wrap a route table to count resolutions by outcome:
//
//	reg := prometheus.NewRegistry()
//	resolver := middleware.Prometheus(table,
//	    middleware.WithNamespace("docs"),
//	    middleware.WithRegistry(reg),
//	)
//
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
//
// Metrics collected:
//   - docroutes_resolutions_total{outcome="matched|fallback"}
//   - docroutes_resolution_duration_seconds
//   - docroutes_http_requests_total{method,code}
//   - docroutes_websocket_connections
//   - docroutes_websocket_messages_total{outcome="ok|error"}
//
// # OpenTelemetry
//
// OpenTelemetry starts a server span per request using the global tracer
// provider. Handlers attach the resolved route to the span:
//
//	r.Use(middleware.OpenTelemetry(middleware.WithTracerName("docs")))
//
//	func handler(w http.ResponseWriter, r *http.Request) {
//	    route := resolver.Resolve(r.URL.Path)
//	    middleware.AnnotateRoute(r.Context(), route)
//	}
package middleware
