package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/opendid-docs/docroutes/pkg/router"
)

const testDigest = "0f1e2d3c"

func testTable(t *testing.T) *router.RouteTable {
	t.Helper()
	table, err := router.Build([]router.RouteNode{
		{Path: "/docs", ComponentRef: "layout", Metadata: map[string]string{"version": "current"}, Children: []router.RouteNode{
			{Path: "next", ComponentRef: "C1", Exact: true, Metadata: map[string]string{"sidebar": "tutorialSidebar"}},
		}},
		{Path: router.WildcardPath, ComponentRef: "notfound", Metadata: map[string]string{"title": "Not Found"}},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	return table
}

func quietConfig() *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return cfg
}

func newTestServer(t *testing.T, cfg *ServerConfig) *Server {
	t.Helper()
	if cfg == nil {
		cfg = quietConfig()
	}
	return New(testTable(t), testDigest, cfg)
}

func do(t *testing.T, h http.Handler, method, target string, header http.Header) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, nil)
	for k, v := range header {
		req.Header[k] = v
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decodeRoute(t *testing.T, rec *httptest.ResponseRecorder) router.ResolvedRoute {
	t.Helper()
	var route router.ResolvedRoute
	if err := json.NewDecoder(rec.Body).Decode(&route); err != nil {
		t.Fatalf("decode body %q: %v", rec.Body.String(), err)
	}
	return route
}

func TestResolvePage(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/docs/next", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200; body %s", rec.Code, rec.Body)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("Content-Type = %q", ct)
	}
	if etag := rec.Header().Get("ETag"); etag != `"`+testDigest+`"` {
		t.Errorf("ETag = %q", etag)
	}

	route := decodeRoute(t, rec)
	if route.ComponentRef != "C1" || route.Fallback {
		t.Errorf("route = %+v", route)
	}
	if route.Metadata["sidebar"] != "tutorialSidebar" || route.Metadata["version"] != "current" {
		t.Errorf("metadata = %v", route.Metadata)
	}
	if len(route.Layouts) != 1 || route.Layouts[0] != "layout" {
		t.Errorf("layouts = %v", route.Layouts)
	}
}

func TestResolveFallbackIs404(t *testing.T) {
	s := newTestServer(t, nil)

	for _, path := range []string{"/docs-extra/page", "/other"} {
		rec := do(t, s, http.MethodGet, path, nil)
		if rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
			continue
		}
		route := decodeRoute(t, rec)
		if route.ComponentRef != "notfound" || !route.Fallback || route.Path != router.WildcardPath {
			t.Errorf("GET %s route = %+v", path, route)
		}
		if route.Metadata["title"] != "Not Found" || route.Metadata["version"] != "" {
			t.Errorf("GET %s metadata = %v, want only the wildcard's", path, route.Metadata)
		}
	}
}

func TestResolveUnderPrefixRendersLayout(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/docs/unknown", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	route := decodeRoute(t, rec)
	if route.ComponentRef != "layout" || route.Fallback || route.Path != "/docs" {
		t.Errorf("route = %+v", route)
	}
	if route.Metadata["version"] != "current" || route.Metadata["sidebar"] != "" {
		t.Errorf("metadata = %v", route.Metadata)
	}
}

func TestNonCanonicalPathRedirects(t *testing.T) {
	s := newTestServer(t, nil)

	tests := []struct {
		target string
		want   string
	}{
		{target: "/docs/next/", want: "/docs/next"},
		{target: "/docs//next", want: "/docs/next"},
		{target: "/docs/./next?tab=api", want: "/docs/next?tab=api"},
		{target: "/docs/x/../next", want: "/docs/next"},
	}

	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			rec := do(t, s, http.MethodGet, tt.target, nil)
			if rec.Code != http.StatusPermanentRedirect {
				t.Fatalf("status = %d, want 308", rec.Code)
			}
			if loc := rec.Header().Get("Location"); loc != tt.want {
				t.Errorf("Location = %q, want %q", loc, tt.want)
			}
		})
	}
}

func TestInvalidPathIs400(t *testing.T) {
	s := newTestServer(t, nil)

	for _, target := range []string{"/docs%5cnext", "/docs/%00", "/_resolve?path=%25zz", "/_resolve?path=/docs%5Cnext", "/docs/a%2Fb", "/docs/%2E%2E/x"} {
		rec := do(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("GET %s status = %d, want 400", target, rec.Code)
		}
	}
}

func TestResolveQuery(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/_resolve?path=/docs/next/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d; body %s", rec.Code, rec.Body)
	}
	if route := decodeRoute(t, rec); route.ComponentRef != "C1" {
		t.Errorf("route = %+v", route)
	}

	rec = do(t, s, http.MethodGet, "/_resolve?path=/../etc", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("escaping path status = %d, want 400", rec.Code)
	}

	rec = do(t, s, http.MethodGet, "/_resolve", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing path status = %d, want 400", rec.Code)
	}
}

func TestResolveEncodedPath(t *testing.T) {
	table, err := router.Build([]router.RouteNode{
		{Path: "/docs/설치", ComponentRef: "install"},
		{Path: router.WildcardPath, ComponentRef: "notfound"},
	})
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	s := New(table, testDigest, quietConfig())

	targets := []string{
		"/docs/%EC%84%A4%EC%B9%98",
		"/docs/%ec%84%a4%ec%b9%98",
		"/_resolve?path=" + url.QueryEscape("/docs/설치"),
		"/_resolve?path=" + url.QueryEscape("/docs/%EC%84%A4%EC%B9%98"),
	}
	for _, target := range targets {
		rec := do(t, s, http.MethodGet, target, nil)
		if rec.Code != http.StatusOK {
			t.Errorf("GET %s status = %d, want 200; body %s", target, rec.Code, rec.Body)
			continue
		}
		route := decodeRoute(t, rec)
		if route.ComponentRef != "install" || route.Path != "/docs/설치" {
			t.Errorf("GET %s route = %+v, want install at /docs/설치", target, route)
		}
	}
}

func TestETagNotModified(t *testing.T) {
	s := newTestServer(t, nil)

	for _, inm := range []string{`"` + testDigest + `"`, `W/"` + testDigest + `"`, `"old", "` + testDigest + `"`, "*"} {
		rec := do(t, s, http.MethodGet, "/docs/next", http.Header{"If-None-Match": {inm}})
		if rec.Code != http.StatusNotModified {
			t.Errorf("If-None-Match %s: status = %d, want 304", inm, rec.Code)
		}
		if rec.Body.Len() != 0 {
			t.Errorf("If-None-Match %s: body should be empty", inm)
		}
	}

	rec := do(t, s, http.MethodGet, "/docs/next", http.Header{"If-None-Match": {`"stale"`}})
	if rec.Code != http.StatusOK {
		t.Errorf("stale ETag status = %d, want 200", rec.Code)
	}
}

func TestHealthAndRoutes(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz", nil)
	var health healthResponse
	if err := json.NewDecoder(rec.Body).Decode(&health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "ok" || health.Routes != 3 || health.Digest != testDigest {
		t.Errorf("health = %+v", health)
	}

	rec = do(t, s, http.MethodGet, "/_routes", nil)
	var listing routesResponse
	if err := json.NewDecoder(rec.Body).Decode(&listing); err != nil {
		t.Fatal(err)
	}
	var paths []string
	for _, info := range listing.Routes {
		paths = append(paths, info.Path)
	}
	if strings.Join(paths, ",") != "/docs,/docs/next,*" {
		t.Errorf("routes = %v", paths)
	}
}

func TestRequestID(t *testing.T) {
	s := newTestServer(t, nil)

	rec := do(t, s, http.MethodGet, "/healthz", http.Header{"X-Request-Id": {"abc-123"}})
	if got := rec.Header().Get("X-Request-ID"); got != "abc-123" {
		t.Errorf("X-Request-ID = %q, want abc-123", got)
	}

	rec = do(t, s, http.MethodGet, "/healthz", nil)
	if got := rec.Header().Get("X-Request-ID"); len(got) != 36 {
		t.Errorf("generated X-Request-ID = %q, want a UUID", got)
	}
}

func TestRequestLogging(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultServerConfig()
	cfg.Logger = slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	s := newTestServer(t, cfg)

	do(t, s, http.MethodGet, "/nowhere", http.Header{"X-Request-Id": {"log-1"}})

	out := buf.String()
	for _, want := range []string{`"msg":"request"`, `"status":404`, `"request_id":"log-1"`, `"msg":"route fallback"`} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %s:\n%s", want, out)
		}
	}
}

func TestMetricsEndpoint(t *testing.T) {
	reg := prometheus.NewRegistry()
	cfg := quietConfig()
	cfg.Registry = reg
	s := newTestServer(t, cfg)

	do(t, s, http.MethodGet, "/docs/next", nil)
	do(t, s, http.MethodGet, "/missing", nil)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	body := rec.Body.String()
	for _, want := range []string{
		`docroutes_resolutions_total{outcome="matched"} 1`,
		`docroutes_resolutions_total{outcome="fallback"} 1`,
		`docroutes_http_requests_total{code="404",method="GET"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("metrics missing %s", want)
		}
	}
}

func TestMetricsDisabled(t *testing.T) {
	cfg := quietConfig()
	cfg.MetricsEnabled = false
	s := newTestServer(t, cfg)

	rec := do(t, s, http.MethodGet, "/metrics", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404 (resolved as a page)", rec.Code)
	}
	if route := decodeRoute(t, rec); !route.Fallback {
		t.Errorf("route = %+v", route)
	}
}

func TestSetTable(t *testing.T) {
	s := newTestServer(t, nil)

	next, err := router.Build([]router.RouteNode{
		{Path: "/other", ComponentRef: "O"},
		{Path: router.WildcardPath, ComponentRef: "nf"},
	})
	if err != nil {
		t.Fatal(err)
	}
	s.SetTable(next, "beef")

	rec := do(t, s, http.MethodGet, "/other", nil)
	if route := decodeRoute(t, rec); route.ComponentRef != "O" {
		t.Errorf("route = %+v", route)
	}
	if s.Digest() != "beef" || s.Table() != next {
		t.Error("SetTable did not swap state")
	}
}

func TestAllowOrigins(t *testing.T) {
	check := AllowOrigins([]string{"https://docs.example.com"})

	req := httptest.NewRequest(http.MethodGet, "http://api.example.com/_ws", nil)
	req.Header.Set("Origin", "https://docs.example.com")
	if !check(req) {
		t.Error("listed origin rejected")
	}
	req.Header.Set("Origin", "https://evil.example.com")
	if check(req) {
		t.Error("unlisted origin accepted")
	}
	req.Header.Set("Origin", "http://api.example.com")
	if !check(req) {
		t.Error("same origin rejected")
	}
	if !AllowOrigins([]string{"*"})(req) {
		t.Error("* should accept anything")
	}
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/_ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("Dial() error: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestWebSocketResolve(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dialWS(t, srv)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	requests := []ResolveRequest{
		{ID: "1", Path: "/docs/next"},
		{ID: "2", Path: "/docs/next/"},
		{ID: "3", Path: "/nope"},
		{ID: "4", Path: "/../x"},
		{ID: "5", Path: "/docs/%6Eext"},
	}
	for _, req := range requests {
		if err := conn.WriteJSON(req); err != nil {
			t.Fatal(err)
		}
	}

	var got []ResolveResponse
	for range requests {
		var resp ResolveResponse
		if err := conn.ReadJSON(&resp); err != nil {
			t.Fatal(err)
		}
		got = append(got, resp)
	}

	if got[0].ID != "1" || got[0].Route == nil || got[0].Route.ComponentRef != "C1" {
		t.Errorf("response 1 = %+v", got[0])
	}
	if got[1].Route == nil || got[1].Route.ComponentRef != "C1" {
		t.Errorf("response 2 = %+v, trailing slash should canonicalize", got[1])
	}
	if got[2].Route == nil || !got[2].Route.Fallback {
		t.Errorf("response 3 = %+v", got[2])
	}
	if got[3].ID != "4" || got[3].Route != nil || got[3].Error == "" {
		t.Errorf("response 4 = %+v", got[3])
	}
	if got[4].Route == nil || got[4].Route.ComponentRef != "C1" {
		t.Errorf("response 5 = %+v, escaped path should decode", got[4])
	}
}

func TestWebSocketInvalidMessage(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	conn := dialWS(t, srv)
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	if err := conn.WriteMessage(websocket.TextMessage, []byte("not json")); err != nil {
		t.Fatal(err)
	}
	var resp ResolveResponse
	if err := conn.ReadJSON(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Error, "invalid message") {
		t.Errorf("error = %q", resp.Error)
	}
}

func TestWebSocketRejectsCrossOrigin(t *testing.T) {
	s := newTestServer(t, nil)
	srv := httptest.NewServer(s)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/_ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	if err == nil {
		t.Fatal("expected dial to fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v, want 403", resp)
	}
}

func TestRunAndShutdown(t *testing.T) {
	s := newTestServer(t, nil)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- s.Serve(ctx, ln) }()

	url := "http://" + ln.Addr().String()
	var resp *http.Response
	for i := 0; i < 50; i++ {
		resp, err = http.Get(url + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(20 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("server never came up: %v", err)
	}
	resp.Body.Close()

	ws, _, err := websocket.DefaultDialer.Dial("ws://"+ln.Addr().String()+"/_ws", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()

	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Fatalf("Serve() error: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err = ws.ReadMessage()
	if !websocket.IsCloseError(err, websocket.CloseGoingAway) {
		t.Errorf("ReadMessage() error = %v, want going-away close", err)
	}
}
