package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/opendid-docs/docroutes/pkg/middleware"
	"github.com/opendid-docs/docroutes/pkg/routepath"
	"github.com/opendid-docs/docroutes/pkg/router"
)

type requestIDKey struct{}

// RequestIDFromContext returns the id assigned to the request, if any.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// routes assembles the chi router.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(requestID)
	r.Use(s.requestLogger)
	r.Use(chimw.Recoverer)
	if s.config.TracingEnabled {
		r.Use(middleware.OpenTelemetry(middleware.WithTracerName(s.config.TracerName)))
	}
	if s.metrics != nil {
		r.Use(s.metrics.Handler)
	}

	r.Get("/healthz", s.handleHealth)
	if s.config.MetricsEnabled {
		r.Method(http.MethodGet, s.config.MetricsPath, promhttp.HandlerFor(s.config.Registry, promhttp.HandlerOpts{}))
	}
	r.Get("/_routes", s.handleRoutes)
	r.Get("/_resolve", s.handleResolveQuery)
	if s.config.WebSocket.Enabled {
		r.Get(s.config.WebSocket.Path, s.HandleWebSocket)
	}
	r.Get("/*", s.handlePage)

	return r
}

// requestID assigns every request an id, honouring an incoming
// X-Request-ID header.
func requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(middleware.RequestIDHeader))
		if id == "" || len(id) > 128 {
			id = uuid.NewString()
			r.Header.Set(middleware.RequestIDHeader, id)
		}
		w.Header().Set(middleware.RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

// requestLogger logs one line per request.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		level := slog.LevelInfo
		if status >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		s.logger.LogAttrs(r.Context(), level, "request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", status),
			slog.Int("bytes", ww.BytesWritten()),
			slog.Duration("duration", time.Since(start)),
			slog.String("request_id", RequestIDFromContext(r.Context())),
		)
	})
}

type healthResponse struct {
	Status string `json:"status"`
	Routes int    `json:"routes"`
	Digest string `json:"digest"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.state.Load()
	writeJSON(w, http.StatusOK, healthResponse{
		Status: "ok",
		Routes: st.table.Len(),
		Digest: st.digest,
	})
}

type routesResponse struct {
	Digest string             `json:"digest"`
	Routes []router.RouteInfo `json:"routes"`
}

func (s *Server) handleRoutes(w http.ResponseWriter, r *http.Request) {
	st := s.state.Load()
	if notModified(w, r, st.digest) {
		return
	}
	writeJSON(w, http.StatusOK, routesResponse{
		Digest: st.digest,
		Routes: st.table.Routes(),
	})
}

type errorResponse struct {
	Error string `json:"error"`
	Path  string `json:"path,omitempty"`
}

// handleResolveQuery resolves ?path= without redirecting.
func (s *Server) handleResolveQuery(w http.ResponseWriter, r *http.Request) {
	input, ok := r.URL.Query()["path"]
	if !ok || len(input) == 0 {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "missing path parameter"})
		return
	}

	result, err := routepath.Normalize(input[0])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Path: input[0]})
		return
	}
	s.writeRoute(w, r, result.Path)
}

// handlePage resolves the request path itself. Non-canonical paths are
// redirected to their canonical escaped form, then the path is decoded so it
// matches /_resolve.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	rawPath := r.URL.EscapedPath()
	input := rawPath
	if r.URL.RawQuery != "" {
		input = rawPath + "?" + r.URL.RawQuery
	}

	result, err := routepath.Canonicalize(input)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Path: rawPath})
		return
	}
	if result.Changed {
		target := result.Path
		if result.Query != "" {
			target += "?" + result.Query
		}
		// 308 keeps the method, unlike 301.
		http.Redirect(w, r, target, http.StatusPermanentRedirect)
		return
	}

	path, err := routepath.Decode(result.Path)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error(), Path: rawPath})
		return
	}
	s.writeRoute(w, r, path)
}

// writeRoute resolves path and writes the result. Wildcard results are
// served with 404.
func (s *Server) writeRoute(w http.ResponseWriter, r *http.Request, path string) {
	st := s.state.Load()
	if notModified(w, r, st.digest) {
		return
	}

	route := st.resolver.Resolve(path)
	middleware.AnnotateRoute(r.Context(), route)

	status := http.StatusOK
	if route.Fallback {
		status = http.StatusNotFound
		s.logger.Debug("route fallback",
			"path", path,
			"component", route.ComponentRef,
			"request_id", RequestIDFromContext(r.Context()))
	}
	writeJSON(w, status, route)
}

// notModified sets the ETag and reports whether If-None-Match already
// matches it, in which case 304 has been written.
func notModified(w http.ResponseWriter, r *http.Request, digest string) bool {
	if digest == "" {
		return false
	}
	etag := `"` + digest + `"`
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")

	for _, candidate := range strings.Split(r.Header.Get("If-None-Match"), ",") {
		candidate = strings.TrimSpace(candidate)
		candidate = strings.TrimPrefix(candidate, "W/")
		if candidate == etag || candidate == "*" {
			w.WriteHeader(http.StatusNotModified)
			return true
		}
	}
	return false
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
