package main

import (
	"bytes"
	"fmt"
	"go/format"
	"go/token"
	"strings"
	"text/template"
	"unicode"

	"github.com/go-slark/svcindex/registry"
)

var stubTemplate = `// Code generated by stubgen. DO NOT EDIT.
// Service {{.Identity}} listening on {{.Address}}.

package {{.Package}}

// Address is where {{.Identity.Name}} {{.Identity.Version}} listens.
const Address = {{printf "%q" .Address}}
{{range .Aliases}}
// {{.Name}} stands in for the remote type {{.Remote}}, which has no Go mapping.
type {{.Name}} = any
{{end}}{{range .Methods}}
// {{.Name}} stands in for {{.Remote}}.
func {{.Name}}({{range $i, $a := .Args}}{{if $i}}, {{end}}{{$a.Name}} {{$a.Type}}{{end}}){{if .Returns}} {{.Returns}}{{end}} {
	panic({{printf "%s.%s: not implemented" $.Identity.Name .Remote | printf "%q"}})
}
{{end}}`

var tmpl = template.Must(template.New("stub").Parse(stubTemplate))

type stubArg struct {
	Name string
	Type string
}

type stubMethod struct {
	Name    string
	Remote  string
	Args    []stubArg
	Returns string
}

type stubAlias struct {
	Name   string
	Remote string
}

type stubFile struct {
	Package  string
	Identity registry.Identity
	Address  string
	Aliases  []stubAlias
	Methods  []stubMethod
}

// builtin maps the common wire type tags onto Go types. "unit" means no
// result at all.
var builtin = map[string]string{
	"bool": "bool", "string": "string", "str": "string", "bytes": "[]byte", "unit": "",
	"u8": "uint8", "u16": "uint16", "u32": "uint32", "u64": "uint64",
	"i8": "int8", "i16": "int16", "i32": "int32", "i64": "int64",
	"f32": "float32", "f64": "float64",
}

// goType reports whether tag is a builtin. Other tags are emitted as
// aliases of any named after the tag.
func goType(tag registry.TypeTag) (string, bool) {
	if tag == "" {
		return "", true
	}
	if t, ok := builtin[strings.ToLower(string(tag))]; ok {
		return t, true
	}
	return exported(string(tag)), false
}

// exported turns snake, kebab or dotted names into an exported identifier.
func exported(name string) string {
	parts := strings.FieldsFunc(name, func(r rune) bool { return !unicode.IsLetter(r) && !unicode.IsDigit(r) })
	var b strings.Builder
	for _, p := range parts {
		rs := []rune(p)
		rs[0] = unicode.ToUpper(rs[0])
		b.WriteString(string(rs))
	}
	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) {
		out = "X" + out
	}
	return out
}

func unexported(name string) string {
	rs := []rune(exported(name))
	rs[0] = unicode.ToLower(rs[0])
	out := string(rs)
	if token.IsKeyword(out) {
		out += "_"
	}
	return out
}

// packageName derives a package clause from the service name.
func packageName(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	out := b.String()
	if out == "" || unicode.IsDigit([]rune(out)[0]) || token.IsKeyword(out) {
		out = "svc" + out
	}
	return out
}

// Generate renders one stub function per method of d, gofmt'd.
func Generate(d registry.Descriptor, pkg string) ([]byte, error) {
	if pkg == "" {
		pkg = packageName(d.Identity.Name)
	}
	if !token.IsIdentifier(pkg) {
		return nil, fmt.Errorf("invalid package name %q", pkg)
	}
	f := stubFile{
		Package:  pkg,
		Identity: d.Identity,
		Address:  d.Address.String(),
	}
	aliases := make(map[string]bool)
	typeOf := func(tag registry.TypeTag) string {
		t, ok := goType(tag)
		if !ok && !aliases[t] {
			aliases[t] = true
			f.Aliases = append(f.Aliases, stubAlias{Name: t, Remote: string(tag)})
		}
		return t
	}
	seen := make(map[string]bool, len(d.Methods))
	for _, m := range d.Methods {
		sm := stubMethod{Name: exported(m.Name), Remote: m.Name, Returns: typeOf(m.Returns)}
		if seen[sm.Name] || sm.Name == "Address" {
			return nil, fmt.Errorf("method %q collides with another generated name", m.Name)
		}
		seen[sm.Name] = true
		for _, a := range m.Args {
			sm.Args = append(sm.Args, stubArg{Name: unexported(a.Name), Type: typeOf(a.Type)})
		}
		f.Methods = append(f.Methods, sm)
	}
	for _, a := range f.Aliases {
		if seen[a.Name] || a.Name == "Address" {
			return nil, fmt.Errorf("type %q collides with another generated name", a.Remote)
		}
	}

	buf := &bytes.Buffer{}
	if err := tmpl.Execute(buf, f); err != nil {
		return nil, err
	}
	src, err := format.Source(buf.Bytes())
	if err != nil {
		return nil, fmt.Errorf("format stub: %w", err)
	}
	return src, nil
}
