// Package router implements the route table of a generated documentation
// site.
//
// The table is built once from a route manifest (the list of path to
// component mappings emitted by the site generator) and is read-only
// afterwards, so any number of goroutines may resolve paths concurrently
// without locking.
//
// # Manifest Shape
//
// Versioned and localized doc sets are plain tree depth:
//
//	/did-issuer-server/docs              (layout)
//	├── /did-issuer-server/docs/next     (version layout, "next")
//	│   └── /did-issuer-server/docs/next (doc root)
//	│       └── .../next/api/Issuer_API_ko     exact, sidebar=tutorialSidebar
//	└── /did-issuer-server/docs          (version layout, released)
//	    └── ...
//	*                                    (wildcard, always last)
//
// Child paths may be absolute (as emitted by Docusaurus) or relative to the
// parent ("next" under "/docs" is "/docs/next").
//
// # Resolution
//
// At every level a node whose path equals the request path and carries a
// component wins outright. Otherwise the non-exact node with the longest
// segment-boundary prefix is entered ("/docs" never captures "/docs-extra").
// When descent stops, the deepest entered node that carries a component
// renders, with its ancestors as layouts. Only when no entered node has a
// component does the wildcard render.
//
// # Usage
//
//	table, err := router.Build(manifest)
//	if err != nil {
//	    log.Fatal(err) // *BuildError: configuration or ambiguity problems
//	}
//
//	route := table.Resolve("/docs/next")
//	// route.ComponentRef, route.Metadata["sidebar"], route.Layouts
package router
