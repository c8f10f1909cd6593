package router

// docusaurusManifest mirrors the routes emitted by Docusaurus for a
// versioned docs site: absolute child paths, version layouts nested under the
// docs layout, a doc-root layout repeating its parent's path, inline sidebar
// metadata on the leaves and a trailing wildcard.
func docusaurusManifest() []RouteNode {
	sidebar := map[string]string{"sidebar": "tutorialSidebar"}
	return []RouteNode{
		{Path: "/did-issuer-server/blog", ComponentRef: "b9d", Exact: true},
		{Path: "/did-issuer-server/blog/archive", ComponentRef: "9ac", Exact: true},
		{Path: "/did-issuer-server/markdown-page", ComponentRef: "ca0", Exact: true},
		{
			Path:         "/did-issuer-server/docs",
			ComponentRef: "184",
			Children: []RouteNode{
				{
					Path:         "/did-issuer-server/docs/next",
					ComponentRef: "7f8",
					Children: []RouteNode{
						{
							Path:         "/did-issuer-server/docs/next",
							ComponentRef: "f5a",
							Children: []RouteNode{
								{Path: "/did-issuer-server/docs/next/did-issuer-server/api/Issuer_API_ko", ComponentRef: "f1a", Exact: true, Metadata: sidebar},
								{Path: "/did-issuer-server/docs/next/did-issuer-server/errorCode/Issuer_ErrorCode", ComponentRef: "91d", Exact: true, Metadata: sidebar},
							},
						},
					},
				},
				{
					Path:         "/did-issuer-server/docs",
					ComponentRef: "b6d",
					Children: []RouteNode{
						{
							Path:         "/did-issuer-server/docs",
							ComponentRef: "04e",
							Children: []RouteNode{
								{Path: "/did-issuer-server/docs/did-issuer-server/api/Issuer_API_ko", ComponentRef: "daf", Exact: true, Metadata: sidebar},
								{Path: "/did-issuer-server/docs/did-issuer-server/errorCode/Issuer_ErrorCode", ComponentRef: "4dd", Exact: true, Metadata: sidebar},
							},
						},
					},
				},
			},
		},
		{Path: "/did-issuer-server/", ComponentRef: "2a5", Exact: true},
		{Path: WildcardPath, ComponentRef: "notfound"},
	}
}

// scenarioManifest is the minimal versioned layout: "/docs" groups an exact
// "next" page and everything else falls through to the wildcard.
func scenarioManifest() []RouteNode {
	return []RouteNode{
		{
			Path: "/docs",
			Children: []RouteNode{
				{Path: "next", ComponentRef: "C1", Exact: true},
			},
		},
		{Path: WildcardPath, ComponentRef: "CWILD"},
	}
}
