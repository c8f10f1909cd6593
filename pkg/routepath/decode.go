package routepath

import (
	"errors"
	"net/url"
	"strings"
)

// Decoding errors.
var (
	ErrEncodedSlash      = errors.New("path segment contains encoded slash")
	ErrEncodedDotSegment = errors.New("path contains encoded dot segment")
)

// Decode unescapes a canonical path one segment at a time, so that
// "/docs/%EC%84%A4%EC%B9%98" and "/docs/설치" name the same route. Escapes
// that would change the segment structure once decoded ("%2F", "%2E%2E")
// are rejected.
func Decode(path string) (string, error) {
	if !strings.Contains(path, "%") {
		return path, nil
	}

	segments := strings.Split(path, "/")
	for i, seg := range segments {
		if !strings.Contains(seg, "%") {
			continue
		}
		dec, err := url.PathUnescape(seg)
		if err != nil {
			return "", ErrInvalidPercentEscape
		}
		switch {
		case strings.Contains(dec, "/"):
			return "", ErrEncodedSlash
		case dec == "." || dec == "..":
			return "", ErrEncodedDotSegment
		}
		segments[i] = dec
	}
	return strings.Join(segments, "/"), nil
}

// Normalize canonicalizes input and decodes the resulting path. It is the
// form route tables are keyed by and Resolve expects.
func Normalize(input string) (Result, error) {
	res, err := Canonicalize(input)
	if err != nil {
		return Result{}, err
	}
	if res.Path, err = Decode(res.Path); err != nil {
		return Result{}, err
	}
	return res, nil
}
