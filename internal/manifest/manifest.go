package manifest

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"maps"
	"path"
	"slices"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"gopkg.in/yaml.v3"

	"github.com/opendid-docs/docroutes/internal/errors"
	"github.com/opendid-docs/docroutes/pkg/router"
)

// Format identifies the encoding of a manifest.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"

	// FormatRoutesJS is the routes.js module a Docusaurus build emits.
	FormatRoutesJS Format = "routes.js"
)

// FormatOf picks the format from a file name, sniffing data when the
// extension is not conclusive.
func FormatOf(name string, data []byte) Format {
	switch strings.ToLower(path.Ext(name)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	case ".js", ".mjs":
		return FormatRoutesJS
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '[' || trimmed[0] == '{') {
		return FormatJSON
	}
	return FormatYAML
}

// Manifest is one decoded manifest document.
type Manifest struct {
	// Name is the optional "name" of an object-form document.
	Name string

	// Source is where the manifest was read from.
	Source string

	Routes []router.RouteNode
}

// Keys with a fixed meaning on a route entry.
var (
	componentKeys = []string{"component", "componentRef"}
	childrenKeys  = []string{"routes", "children"}
)

// Parse decodes a manifest document. source is only used in error messages.
func Parse(data []byte, format Format, source string) (*Manifest, error) {
	var doc any
	var err error
	switch format {
	case FormatJSON:
		err = json.Unmarshal(data, &doc)
	case FormatYAML:
		err = yaml.Unmarshal(data, &doc)
	case FormatRoutesJS:
		doc, err = parseRoutesJS(data, source)
	default:
		err = fmt.Errorf("unknown manifest format %q", format)
	}
	if err != nil {
		return nil, parseError(source, data, err)
	}

	m := &Manifest{Source: source}
	var list []any
	switch v := doc.(type) {
	case []any:
		list = v
	case map[string]any:
		if name, ok := v["name"]; ok {
			m.Name = scalarString(name)
		}
		routes, ok := v["routes"]
		if !ok {
			return nil, shapeError(source, "document object has no \"routes\" key")
		}
		if list, ok = routes.([]any); !ok {
			return nil, shapeError(source, "\"routes\" must be a list")
		}
	case nil:
		return nil, shapeError(source, "manifest is empty")
	default:
		return nil, shapeError(source, "manifest must be a list of routes or an object with \"routes\"")
	}

	m.Routes, err = decodeList(list, "routes")
	if err != nil {
		return nil, shapeError(source, err.Error())
	}
	return m, nil
}

func decodeList(list []any, at string) ([]router.RouteNode, error) {
	nodes := make([]router.RouteNode, 0, len(list))
	for i, item := range list {
		node, err := decodeNode(item, fmt.Sprintf("%s[%d]", at, i))
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func decodeNode(item any, at string) (router.RouteNode, error) {
	var node router.RouteNode

	entry, ok := item.(map[string]any)
	if !ok {
		return node, fmt.Errorf("%s: route must be an object, got %s", at, kindOf(item))
	}

	folded := make(map[string]string)
	for _, key := range slices.Sorted(maps.Keys(entry)) {
		value := entry[key]
		switch {
		case key == "path":
			s, ok := value.(string)
			if !ok {
				return node, fmt.Errorf("%s.path: must be a string, got %s", at, kindOf(value))
			}
			node.Path = s

		case slices.Contains(componentKeys, key):
			s, ok := value.(string)
			if !ok {
				return node, fmt.Errorf("%s.%s: must be a string, got %s", at, key, kindOf(value))
			}
			node.ComponentRef = s

		case key == "exact":
			b, ok := value.(bool)
			if !ok {
				return node, fmt.Errorf("%s.exact: must be a boolean, got %s", at, kindOf(value))
			}
			node.Exact = b

		case slices.Contains(childrenKeys, key):
			if value == nil {
				continue
			}
			list, ok := value.([]any)
			if !ok {
				return node, fmt.Errorf("%s.%s: must be a list, got %s", at, key, kindOf(value))
			}
			children, err := decodeList(list, at+"."+key)
			if err != nil {
				return node, err
			}
			node.Children = append(node.Children, children...)

		case key == "metadata":
			if value == nil {
				continue
			}
			meta, ok := value.(map[string]any)
			if !ok {
				return node, fmt.Errorf("%s.metadata: must be an object, got %s", at, kindOf(value))
			}
			for k, v := range meta {
				if !isScalar(v) {
					return node, fmt.Errorf("%s.metadata.%s: must be a scalar, got %s", at, k, kindOf(v))
				}
				setMeta(&node, k, scalarString(v))
			}

		default:
			if !isScalar(value) {
				return node, fmt.Errorf("%s.%s: unsupported %s value", at, key, kindOf(value))
			}
			folded[key] = scalarString(value)
		}
	}

	// Keys under "metadata" win over folded ones.
	for k, v := range folded {
		if _, explicit := node.Metadata[k]; !explicit {
			setMeta(&node, k, v)
		}
	}

	if _, ok := entry["path"]; !ok {
		return node, fmt.Errorf("%s: missing \"path\"", at)
	}
	return node, nil
}

func setMeta(node *router.RouteNode, key, value string) {
	if node.Metadata == nil {
		node.Metadata = make(map[string]string)
	}
	node.Metadata[key] = value
}

func isScalar(v any) bool {
	switch v.(type) {
	case string, bool, int, int64, uint64, float64, nil:
		return true
	}
	return false
}

func scalarString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		return strconv.FormatBool(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case map[string]any:
		return "object"
	case []any:
		return "list"
	case string:
		return "string"
	case bool:
		return "boolean"
	default:
		return "number"
	}
}

// parseError converts a decoder error into a D004 error with the position
// of the problem when the decoder reports one.
func parseError(source string, data []byte, err error) *errors.Error {
	e := errors.New("D004").
		Wrap(err).
		WithSuggestion("Regenerate the manifest or check it with 'docroutes validate'")

	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	var jsErr participle.Error
	switch {
	case stderrors.As(err, &jsErr):
		pos := jsErr.Position()
		e.WithLocation(source, pos.Line, pos.Column)
	case stderrors.As(err, &syntaxErr):
		line, col := lineCol(data, syntaxErr.Offset)
		e.WithLocation(source, line, col)
	case stderrors.As(err, &typeErr):
		line, col := lineCol(data, typeErr.Offset)
		e.WithLocation(source, line, col)
	default:
		if line := yamlLine(err); line > 0 {
			e.WithLocation(source, line, 0)
		}
	}
	return e
}

func shapeError(source, detail string) *errors.Error {
	return errors.New("D004").
		WithDetail(source + ": " + detail)
}

// lineCol converts a byte offset into a 1-based line and column.
func lineCol(data []byte, offset int64) (int, int) {
	if offset > int64(len(data)) {
		offset = int64(len(data))
	}
	line, col := 1, 1
	for _, b := range data[:offset] {
		if b == '\n' {
			line++
			col = 1
			continue
		}
		col++
	}
	return line, col
}

func yamlLine(err error) int {
	msg := err.Error()
	idx := strings.Index(msg, "line ")
	if idx < 0 {
		return 0
	}
	var line int
	if _, scanErr := fmt.Sscanf(msg[idx:], "line %d", &line); scanErr != nil {
		return 0
	}
	return line
}
