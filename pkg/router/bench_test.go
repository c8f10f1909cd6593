package router

import (
	"fmt"
	"testing"
)

// BenchmarkResolveLeaf benchmarks resolving a versioned doc page.
func BenchmarkResolveLeaf(b *testing.B) {
	table := MustBuild(docusaurusManifest())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Resolve("/did-issuer-server/docs/next/did-issuer-server/api/Issuer_API_ko")
	}
}

// BenchmarkResolveFallback benchmarks a miss that ends at the wildcard.
func BenchmarkResolveFallback(b *testing.B) {
	table := MustBuild(docusaurusManifest())

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Resolve("/did-issuer-server/unknown/page")
	}
}

// BenchmarkResolveWideLevel benchmarks a level with many siblings.
func BenchmarkResolveWideLevel(b *testing.B) {
	docs := make([]RouteNode, 0, 200)
	for i := 0; i < 200; i++ {
		docs = append(docs, RouteNode{
			Path:         fmt.Sprintf("page-%d", i),
			ComponentRef: fmt.Sprintf("c%d", i),
			Exact:        true,
		})
	}
	table := MustBuild([]RouteNode{
		{Path: "/docs", Children: docs},
		{Path: WildcardPath, ComponentRef: "404"},
	})

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		table.Resolve("/docs/page-199")
	}
}

// BenchmarkBuild benchmarks compiling a manifest.
func BenchmarkBuild(b *testing.B) {
	manifest := docusaurusManifest()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Build(manifest); err != nil {
			b.Fatal(err)
		}
	}
}
