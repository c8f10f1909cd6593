package router

import (
	"errors"
	"fmt"
	"strings"
)

// Configuration problems reported through ConfigurationError.
var (
	ErrMissingWildcard   = errors.New("manifest has no wildcard route")
	ErrDuplicateWildcard = errors.New("manifest has more than one wildcard route")
	ErrNestedWildcard    = errors.New("wildcard route is only allowed at the top level")
	ErrWildcardChildren  = errors.New("wildcard route cannot have children")
	ErrEmptyPath         = errors.New("route path is empty")
	ErrInvalidPath       = errors.New("route path is invalid")
	ErrOutsideParent     = errors.New("route path is not below its parent")
)

// ConfigurationError reports a manifest defect found while building a table.
// It is fatal: the manifest has to be regenerated.
type ConfigurationError struct {
	// Path is the offending route path as written in the manifest.
	Path string

	// Parent is the canonical path of the enclosing route, empty at top level.
	Parent string

	// Err is one of the Err* kinds above.
	Err error

	// Details contains additional information, if any.
	Details string
}

func (e *ConfigurationError) Error() string {
	var b strings.Builder
	b.WriteString("route configuration error")
	if e.Path != "" {
		fmt.Fprintf(&b, " at %q", e.Path)
	}
	if e.Parent != "" {
		fmt.Fprintf(&b, " under %q", e.Parent)
	}
	fmt.Fprintf(&b, ": %v", e.Err)
	if e.Details != "" {
		fmt.Fprintf(&b, " (%s)", e.Details)
	}
	return b.String()
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// AmbiguousRouteError reports sibling routes that resolve to the same
// canonical path, so prefix matching among them cannot be deterministic.
type AmbiguousRouteError struct {
	// Parent is the canonical path of the enclosing route, empty at top level.
	Parent string

	// Path is the canonical path both siblings resolve to.
	Path string

	// Entries are the sibling paths as written in the manifest.
	Entries []string
}

func (e *AmbiguousRouteError) Error() string {
	scope := "top level"
	if e.Parent != "" {
		scope = fmt.Sprintf("%q", e.Parent)
	}
	quoted := make([]string, len(e.Entries))
	for i, p := range e.Entries {
		quoted[i] = fmt.Sprintf("%q", p)
	}
	return fmt.Sprintf("ambiguous routes at %s: %s all resolve to %q",
		scope, strings.Join(quoted, ", "), e.Path)
}

// BuildError collects every problem found while building a table.
type BuildError struct {
	Errors []error
}

func (e *BuildError) Error() string {
	if len(e.Errors) == 0 {
		return "no route errors"
	}
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%d route errors:\n", len(e.Errors))
	for i, err := range e.Errors {
		fmt.Fprintf(&sb, "  %d. %s\n", i+1, err.Error())
	}
	return sb.String()
}

// Unwrap exposes the individual errors to errors.Is and errors.As.
func (e *BuildError) Unwrap() []error {
	return e.Errors
}
