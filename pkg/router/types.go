package router

// WildcardPath is the path of the catch-all route.
const WildcardPath = "*"

// RouteNode is one entry of a route manifest.
type RouteNode struct {
	// Path is absolute ("/docs/next") or relative to the parent ("next").
	Path string `json:"path" yaml:"path"`

	// ComponentRef identifies the page component that renders this route.
	// Empty for purely structural grouping nodes.
	ComponentRef string `json:"component,omitempty" yaml:"component,omitempty"`

	// Exact restricts matching to the path itself. Children of an exact node
	// are never reached by resolution.
	Exact bool `json:"exact,omitempty" yaml:"exact,omitempty"`

	// Metadata is handed to the rendering layer unchanged (e.g. "sidebar").
	Metadata map[string]string `json:"metadata,omitempty" yaml:"metadata,omitempty"`

	// Children are nested routes in registration order.
	Children []RouteNode `json:"routes,omitempty" yaml:"routes,omitempty"`
}

// IsWildcard reports whether the node is the catch-all route.
func (n RouteNode) IsWildcard() bool {
	return n.Path == WildcardPath
}

// ResolvedRoute is the outcome of resolving a request path.
type ResolvedRoute struct {
	// ComponentRef is the component that renders the response.
	ComponentRef string `json:"component"`

	// Path is the canonical path of the rendering node, or "*" on fallback.
	Path string `json:"path"`

	// Metadata is the merged metadata of every matched node, root to leaf.
	// Keys set deeper override keys set higher up.
	Metadata map[string]string `json:"metadata"`

	// Layouts are the components of the matched ancestors, root to leaf.
	Layouts []string `json:"layouts,omitempty"`

	// Fallback is true when the wildcard produced the result.
	Fallback bool `json:"fallback"`
}

// RouteInfo describes one node of a built table for listings.
type RouteInfo struct {
	// Depth is 0 for top-level routes.
	Depth int `json:"depth"`

	// Path is the canonical absolute path ("*" for the wildcard).
	Path string `json:"path"`

	// RawPath is the path as written in the manifest.
	RawPath string `json:"rawPath"`

	ComponentRef string            `json:"component,omitempty"`
	Exact        bool              `json:"exact,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`

	// Children is the number of direct children.
	Children int `json:"children,omitempty"`
}

// Resolver resolves request paths to routes.
type Resolver interface {
	Resolve(requestPath string) ResolvedRoute
}

// ResolverFunc is a function adapter for Resolver.
type ResolverFunc func(requestPath string) ResolvedRoute

// Resolve implements Resolver.
func (f ResolverFunc) Resolve(requestPath string) ResolvedRoute {
	return f(requestPath)
}
