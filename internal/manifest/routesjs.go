package manifest

import (
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// routesModule is a Docusaurus .docusaurus/routes.js file: import lines
// followed by "export default [ ... ];". Component values are
// ComponentCreator(path, hash) calls.
type routesModule struct {
	Imports []jsImport  `@@*`
	Routes  []*jsObject `"export" "default" "[" ( @@ ","? )* "]" ";"?`
}

type jsImport struct {
	Parts []string `"import" ( @Ident | @String | @"{" | @"}" | @"," | @"*" )* ";"`
}

type jsObject struct {
	Props []*jsProperty `"{" ( @@ ","? )* "}"`
}

type jsProperty struct {
	Key   string   `( @Ident | @String ) ":"`
	Value *jsValue `@@`
}

type jsValue struct {
	Bool   *string     `  @( "true" | "false" )`
	Null   bool        `| @"null"`
	Call   *jsCall     `| @@`
	Str    *string     `| @String`
	Number *string     `| @Number`
	List   []*jsValue  `| "[" ( @@ ","? )* "]"`
	Object *jsObject   `| @@`
}

type jsCall struct {
	Func string   `@Ident "("`
	Args []string `( @String ","? )* ")"`
}

var routesLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Comment", Pattern: `//[^\n]*|/\*([^*]|\*+[^*/])*\*+/`},
	{Name: "String", Pattern: `'(\\.|[^'\\])*'|"(\\.|[^"\\])*"`},
	{Name: "Number", Pattern: `-?\d+(\.\d+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_$][a-zA-Z0-9_$]*`},
	{Name: "Punct", Pattern: `[{}\[\](),:;*]`},
	{Name: "Whitespace", Pattern: `\s+`},
})

var routesParser = participle.MustBuild[routesModule](
	participle.Lexer(routesLexer),
	participle.Elide("Comment", "Whitespace"),
)

// parseRoutesJS reads the route array of a routes.js file into the same
// generic form the JSON and YAML decoders produce.
func parseRoutesJS(data []byte, source string) (any, error) {
	mod, err := routesParser.ParseBytes(source, data)
	if err != nil {
		return nil, err
	}
	list := make([]any, 0, len(mod.Routes))
	for _, obj := range mod.Routes {
		list = append(list, obj.value())
	}
	return list, nil
}

func (o *jsObject) value() map[string]any {
	out := make(map[string]any, len(o.Props))
	for _, p := range o.Props {
		out[unquoteJS(p.Key)] = p.Value.value()
	}
	return out
}

func (v *jsValue) value() any {
	switch {
	case v.Bool != nil:
		return *v.Bool == "true"
	case v.Call != nil:
		return v.Call.component()
	case v.Str != nil:
		return unquoteJS(*v.Str)
	case v.Number != nil:
		f, _ := strconv.ParseFloat(*v.Number, 64)
		return f
	case v.Object != nil:
		return v.Object.value()
	case v.List != nil:
		list := make([]any, 0, len(v.List))
		for _, item := range v.List {
			list = append(list, item.value())
		}
		return list
	}
	return nil
}

// component returns the chunk hash of ComponentCreator(path, hash), or the
// path when no hash is given, as for the catch-all route.
func (c *jsCall) component() string {
	switch len(c.Args) {
	case 0:
		return ""
	case 1:
		return unquoteJS(c.Args[0])
	default:
		return unquoteJS(c.Args[1])
	}
}

// unquoteJS strips the quotes of a single- or double-quoted literal.
// Identifiers are returned as they are.
func unquoteJS(s string) string {
	if len(s) < 2 || (s[0] != '\'' && s[0] != '"') {
		return s
	}
	inner := s[1 : len(s)-1]
	if s[0] == '\'' {
		inner = strings.ReplaceAll(inner, `\'`, `'`)
		inner = strings.ReplaceAll(inner, `"`, `\"`)
	}
	if out, err := strconv.Unquote(`"` + inner + `"`); err == nil {
		return out
	}
	return inner
}
