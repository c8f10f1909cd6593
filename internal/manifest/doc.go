// Package manifest loads route manifests produced by the site build.
//
// A manifest is JSON or YAML holding either a list of routes or an object
// with a "routes" list:
//
//	[
//	  {"path": "/docs", "component": "184", "routes": [
//	    {"path": "/docs/intro", "component": "daf", "exact": true, "sidebar": "tutorialSidebar"}
//	  ]},
//	  {"path": "*", "component": "notfound"}
//	]
//
// Scalar keys other than path, component, exact and routes are folded into
// the node's metadata, so Docusaurus route entries load unchanged.
//
// Sources are local paths, file:// URLs or s3://bucket/key objects.
package manifest
