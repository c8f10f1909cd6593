// Package routepath holds the path rules shared by the route table and the
// HTTP layer: canonicalization and decoding of manifest and request paths,
// and prefix tests that respect segment boundaries.
package routepath
