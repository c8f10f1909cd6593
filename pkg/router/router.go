package router

import (
	"errors"
	"maps"

	"github.com/opendid-docs/docroutes/pkg/routepath"
)

// SkipChildren is returned by a Walk callback to skip the children of the
// current route.
var SkipChildren = errors.New("skip children")

// RouteTable is an immutable, validated route tree.
type RouteTable struct {
	roots    []*node
	wildcard *node
	size     int
}

// Build validates manifest and compiles it into a RouteTable.
//
// The manifest must contain exactly one top-level wildcard ("*") without
// children, and no two siblings may share a canonical path. All problems are
// reported together in a *BuildError wrapping *ConfigurationError and
// *AmbiguousRouteError values.
func Build(manifest []RouteNode) (*RouteTable, error) {
	b := &builder{}
	t := &RouteTable{}

	for i := range manifest {
		def := &manifest[i]
		if def.IsWildcard() {
			b.addWildcard(t, def)
			continue
		}
		if n := b.compile(def, "/", true); n != nil {
			t.roots = append(t.roots, n)
		}
	}
	b.checkSiblings("", t.roots)

	if t.wildcard == nil {
		b.fail(&ConfigurationError{Path: WildcardPath, Err: ErrMissingWildcard})
	}
	if len(b.errs) > 0 {
		return nil, &BuildError{Errors: b.errs}
	}

	t.size = b.size
	return t, nil
}

// MustBuild is like Build but panics on error.
// Intended for manifests compiled into the binary.
func MustBuild(manifest []RouteNode) *RouteTable {
	t, err := Build(manifest)
	if err != nil {
		panic(err)
	}
	return t
}

// Resolve returns the route that renders requestPath.
//
// requestPath must be canonical and decoded (see routepath.Normalize). Resolve never
// fails: paths whose matched chain carries no component resolve to the
// wildcard.
func (t *RouteTable) Resolve(requestPath string) ResolvedRoute {
	if requestPath == "" {
		requestPath = "/"
	}
	if target, chain := match(t.roots, requestPath); target != nil {
		return resolved(target, chain)
	}
	route := ResolvedRoute{
		ComponentRef: t.wildcard.component,
		Path:         WildcardPath,
		Metadata:     make(map[string]string, len(t.wildcard.metadata)),
		Fallback:     true,
	}
	maps.Copy(route.Metadata, t.wildcard.metadata)
	return route
}

// Len returns the number of routes in the table, including the wildcard.
func (t *RouteTable) Len() int {
	return t.size
}

// Wildcard describes the catch-all route.
func (t *RouteTable) Wildcard() RouteInfo {
	return t.wildcard.info(0)
}

// Walk visits every route in registration order, parents before children,
// and the wildcard last. Returning SkipChildren from fn skips the current
// route's children; any other error stops the walk and is returned.
func (t *RouteTable) Walk(fn func(RouteInfo) error) error {
	for _, n := range t.roots {
		if err := walk(n, 0, fn); err != nil {
			return err
		}
	}
	if err := fn(t.wildcard.info(0)); err != nil && !errors.Is(err, SkipChildren) {
		return err
	}
	return nil
}

func walk(n *node, depth int, fn func(RouteInfo) error) error {
	if err := fn(n.info(depth)); err != nil {
		if errors.Is(err, SkipChildren) {
			return nil
		}
		return err
	}
	for _, c := range n.children {
		if err := walk(c, depth+1, fn); err != nil {
			return err
		}
	}
	return nil
}

// Routes returns the flattened listing produced by Walk.
func (t *RouteTable) Routes() []RouteInfo {
	out := make([]RouteInfo, 0, t.size)
	_ = t.Walk(func(info RouteInfo) error {
		out = append(out, info)
		return nil
	})
	return out
}

// builder accumulates compiled nodes and errors during Build.
type builder struct {
	errs []error
	size int
}

func (b *builder) fail(err error) {
	b.errs = append(b.errs, err)
}

func (b *builder) addWildcard(t *RouteTable, def *RouteNode) {
	if t.wildcard != nil {
		b.fail(&ConfigurationError{Path: def.Path, Err: ErrDuplicateWildcard})
		return
	}
	if len(def.Children) > 0 {
		b.fail(&ConfigurationError{Path: def.Path, Err: ErrWildcardChildren})
	}
	t.wildcard = &node{
		raw:       def.Path,
		path:      WildcardPath,
		component: def.ComponentRef,
		exact:     def.Exact,
		metadata:  maps.Clone(def.Metadata),
	}
	b.size++
}

// compile turns def into a node below parent. parent is the joined path in
// its escaped form; node paths are stored decoded. It returns nil when def
// is unusable; the reason has been recorded.
func (b *builder) compile(def *RouteNode, parent string, top bool) *node {
	parentLabel := parent
	if top {
		parentLabel = ""
	}

	switch {
	case def.Path == "":
		b.fail(&ConfigurationError{Parent: parentLabel, Err: ErrEmptyPath})
		return nil
	case def.IsWildcard():
		b.fail(&ConfigurationError{Path: def.Path, Parent: parentLabel, Err: ErrNestedWildcard})
		return nil
	}

	full, err := routepath.Join(parent, def.Path)
	if err != nil {
		b.fail(&ConfigurationError{Path: def.Path, Parent: parentLabel, Err: ErrInvalidPath, Details: err.Error()})
		return nil
	}
	decoded, err := routepath.Decode(full)
	if err != nil {
		b.fail(&ConfigurationError{Path: def.Path, Parent: parentLabel, Err: ErrInvalidPath, Details: err.Error()})
		return nil
	}
	if !top && !routepath.HasSegmentPrefix(full, parent) {
		b.fail(&ConfigurationError{Path: def.Path, Parent: parentLabel, Err: ErrOutsideParent})
		return nil
	}

	n := &node{
		raw:       def.Path,
		path:      decoded,
		component: def.ComponentRef,
		exact:     def.Exact,
		metadata:  maps.Clone(def.Metadata),
	}
	b.size++

	for i := range def.Children {
		if c := b.compile(&def.Children[i], full, false); c != nil {
			n.children = append(n.children, c)
		}
	}
	b.checkSiblings(decoded, n.children)

	return n
}

// checkSiblings reports siblings sharing a canonical path.
func (b *builder) checkSiblings(parent string, siblings []*node) {
	if len(siblings) < 2 {
		return
	}
	byPath := make(map[string][]string, len(siblings))
	var order []string
	for _, n := range siblings {
		if _, seen := byPath[n.path]; !seen {
			order = append(order, n.path)
		}
		byPath[n.path] = append(byPath[n.path], n.raw)
	}
	for _, p := range order {
		if entries := byPath[p]; len(entries) > 1 {
			b.fail(&AmbiguousRouteError{Parent: parent, Path: p, Entries: entries})
		}
	}
}
