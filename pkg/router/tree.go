package router

import (
	"maps"

	"github.com/opendid-docs/docroutes/pkg/routepath"
)

// node is a compiled manifest entry.
type node struct {
	// raw is the path as written in the manifest.
	raw string

	// path is the canonical absolute path with percent escapes decoded.
	path string

	component string
	exact     bool
	metadata  map[string]string

	// children in registration order
	children []*node
}

// match walks down from nodes and returns the rendering node together with
// the chain of matched nodes (rendering node last). When descent runs out,
// the deepest entered node that carries a component renders. It returns nil
// when no matched node carries one.
func match(nodes []*node, path string) (*node, []*node) {
	var (
		chain  []*node
		target *node
		depth  int
	)
	level := nodes

	for {
		// An exact path hit with a component is terminal.
		for _, n := range level {
			if n.path == path && n.component != "" {
				return n, append(chain, n)
			}
		}

		// Otherwise enter the longest segment-boundary prefix.
		// Sibling paths are unique, so lengths never tie.
		var best *node
		for _, n := range level {
			if n.exact || !routepath.HasSegmentPrefix(path, n.path) {
				continue
			}
			if best == nil || len(n.path) > len(best.path) {
				best = n
			}
		}
		if best == nil {
			break
		}

		chain = append(chain, best)
		if best.component != "" {
			target, depth = best, len(chain)
		}
		level = best.children
	}

	if target == nil {
		return nil, nil
	}
	return target, chain[:depth]
}

// resolved builds the result for a successful match.
func resolved(target *node, chain []*node) ResolvedRoute {
	route := ResolvedRoute{
		ComponentRef: target.component,
		Path:         target.path,
		Metadata:     make(map[string]string),
	}
	for i, n := range chain {
		maps.Copy(route.Metadata, n.metadata)
		if i < len(chain)-1 && n.component != "" {
			route.Layouts = append(route.Layouts, n.component)
		}
	}
	return route
}

// info describes n for listings.
func (n *node) info(depth int) RouteInfo {
	return RouteInfo{
		Depth:        depth,
		Path:         n.path,
		RawPath:      n.raw,
		ComponentRef: n.component,
		Exact:        n.exact,
		Metadata:     maps.Clone(n.metadata),
		Children:     len(n.children),
	}
}
