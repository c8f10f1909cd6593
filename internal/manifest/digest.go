package manifest

import (
	"encoding/hex"
	"encoding/json"

	"github.com/zeebo/blake3"

	"github.com/opendid-docs/docroutes/pkg/router"
)

// Digest returns the BLAKE3 hex digest of the JSON encoding of routes.
// Map keys are encoded sorted, so equal route sets give equal digests.
func Digest(routes []router.RouteNode) string {
	data, err := json.Marshal(routes)
	if err != nil {
		// RouteNode holds only strings, bools, maps and slices.
		panic(err)
	}
	sum := blake3.Sum256(data)
	return hex.EncodeToString(sum[:])
}
