package errors

import "sort"

// ErrorTemplate defines a registered error.
type ErrorTemplate struct {
	Category Category
	Message  string
	Detail   string
}

// registry maps error codes to their templates.
var registry = map[string]ErrorTemplate{
	// Configuration (D001-D002)
	"D001": {
		Category: CategoryConfig,
		Message:  "Configuration file not found",
		Detail:   "docroutes looks for docroutes.yaml in the working directory unless --config points elsewhere.",
	},
	"D002": {
		Category: CategoryConfig,
		Message:  "Invalid configuration",
		Detail:   "The configuration file is malformed or holds values that cannot be used.",
	},

	// Manifests (D003-D004, D006)
	"D003": {
		Category: CategoryManifest,
		Message:  "Manifest not found",
		Detail:   "The route manifest produced by the site build could not be opened.",
	},
	"D004": {
		Category: CategoryManifest,
		Message:  "Manifest could not be parsed",
		Detail:   "Route manifests are JSON or YAML documents holding a list of routes, or an object with a \"routes\" list.",
	},
	"D006": {
		Category: CategoryManifest,
		Message:  "Manifest download failed",
		Detail:   "The manifest object could not be read from S3.",
	},

	// Routing (D005)
	"D005": {
		Category: CategoryRouting,
		Message:  "Route table could not be built",
		Detail:   "The manifest must contain exactly one top-level \"*\" route and no two sibling routes may share a path.",
	},

	// Server (D007)
	"D007": {
		Category: CategoryServer,
		Message:  "Server failed",
		Detail:   "The HTTP server stopped with an error.",
	},

	// CLI (D008)
	"D008": {
		Category: CategoryCLI,
		Message:  "Invalid arguments",
		Detail:   "Run the command with --help to see its usage.",
	},
}

// GetAllCodes returns every registered code in sorted order.
func GetAllCodes() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// GetTemplate returns the template for code.
func GetTemplate(code string) (ErrorTemplate, bool) {
	t, ok := registry[code]
	return t, ok
}
