package routepath

import "strings"

// HasSegmentPrefix reports whether prefix matches path on a segment
// boundary: path equals prefix, or the byte following prefix in path is "/".
// "/docs" is a segment prefix of "/docs/next" but not of "/docs-extra".
// Root "/" is a segment prefix of every absolute path.
//
// Both arguments are expected in canonical form.
func HasSegmentPrefix(path, prefix string) bool {
	if prefix == "" {
		return false
	}
	if prefix == "/" {
		return strings.HasPrefix(path, "/")
	}
	if !strings.HasPrefix(path, prefix) {
		return false
	}
	return len(path) == len(prefix) || path[len(prefix)] == '/'
}

// Join resolves child against parent. An absolute child (leading "/") is
// canonicalized on its own; a relative child is appended below parent.
func Join(parent, child string) (string, error) {
	if strings.HasPrefix(child, "/") {
		res, err := Canonicalize(child)
		if err != nil {
			return "", err
		}
		return res.Path, nil
	}
	if parent == "" {
		parent = "/"
	}
	res, err := Canonicalize(strings.TrimSuffix(parent, "/") + "/" + child)
	if err != nil {
		return "", err
	}
	return res.Path, nil
}
