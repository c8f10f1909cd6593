package routepath

import (
	"errors"
	"strings"
)

// Result contains the result of path canonicalization.
type Result struct {
	// Path is the canonical path (without query string).
	Path string

	// Query is the query string (without leading "?").
	Query string

	// Changed indicates if the path was modified during canonicalization.
	Changed bool
}

// Path canonicalization errors.
var (
	ErrBackslashInPath      = errors.New("path contains backslash")
	ErrNullByteInPath       = errors.New("path contains null byte")
	ErrInvalidPercentEscape = errors.New("invalid percent escape sequence")
	ErrPathEscapesRoot      = errors.New("path escapes root via ..")
)

// Canonicalize normalizes a URL path so that manifest paths and request
// paths compare byte for byte:
//   - a leading "/" is added when missing
//   - the trailing slash is removed (except for root "/")
//   - repeated slashes collapse (/docs//next → /docs/next)
//   - "." segments are dropped and ".." segments resolved
//
// Backslashes and NUL bytes, raw or percent-encoded, are rejected, as are
// malformed percent escapes and ".." segments that climb above root. A query
// string is split off and returned untouched.
func Canonicalize(input string) (Result, error) {
	if input == "" {
		return Result{Path: "/", Changed: true}, nil
	}

	path, query, _ := strings.Cut(input, "?")

	upper := strings.ToUpper(path)
	if strings.Contains(path, "\\") || strings.Contains(upper, "%5C") {
		return Result{}, ErrBackslashInPath
	}
	if strings.Contains(path, "\x00") || strings.Contains(upper, "%00") {
		return Result{}, ErrNullByteInPath
	}
	if strings.Contains(path, "%") {
		if err := validatePercentEscapes(path); err != nil {
			return Result{}, err
		}
	}

	original := path
	segments := strings.Split(path, "/")
	out := make([]string, 0, len(segments))

	for _, seg := range segments {
		switch seg {
		case "", ".":
			continue
		case "..":
			if len(out) == 0 {
				return Result{}, ErrPathEscapesRoot
			}
			out = out[:len(out)-1]
		default:
			out = append(out, seg)
		}
	}

	path = "/" + strings.Join(out, "/")

	return Result{
		Path:    path,
		Query:   query,
		Changed: path != original,
	}, nil
}

// Clean returns the canonical form of path, or path itself when it cannot be
// canonicalized. Intended for display and logging.
func Clean(path string) string {
	res, err := Canonicalize(path)
	if err != nil {
		return path
	}
	return res.Path
}

// validatePercentEscapes checks that every "%" is followed by two hex digits.
func validatePercentEscapes(path string) error {
	for i := 0; i < len(path); i++ {
		if path[i] != '%' {
			continue
		}
		if i+2 >= len(path) || !isHexDigit(path[i+1]) || !isHexDigit(path[i+2]) {
			return ErrInvalidPercentEscape
		}
		i += 2
	}
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
