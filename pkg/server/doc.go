// Package server exposes a built route table over HTTP.
//
// Every GET path outside the reserved endpoints is canonicalized and
// resolved; the response body is the JSON ResolvedRoute the rendering layer
// consumes:
//
//	GET /docs/next/intro
//
//	{"component":"f1a","path":"/docs/next/intro","metadata":{"sidebar":"tutorialSidebar"},
//	 "layouts":["184","7f8","f5a"],"fallback":false}
//
// Non-canonical paths redirect with 308 to their canonical form. Paths that
// cannot be canonicalized (backslashes, NUL bytes, ".." above root) get 400.
// Wildcard results are served with 404 so static hosts and crawlers see a
// not-found page. The manifest digest is sent as ETag.
//
// # Reserved endpoints
//
//   - /healthz: liveness and the current digest
//   - /metrics: Prometheus exposition (configurable path)
//   - /_routes: flattened route listing
//   - /_resolve?path=/x: resolution without redirects
//   - /_ws: WebSocket resolve channel (configurable path)
//
// The WebSocket channel takes {"id":"1","path":"/docs"} messages and answers
// each with {"id":"1","route":{...}} or {"id":"1","error":"..."}.
//
// # Reloading
//
// The table is held behind an atomic pointer. SetTable swaps in a freshly
// built table without interrupting in-flight requests.
package server
