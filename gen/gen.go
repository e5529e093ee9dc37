// Package gen renders a declared layout type into Go source containing typed
// accessor wrappers. The generic path accessor on bitfield.Field and the
// generated code share the same field tree as source of truth; the wrappers
// only add static names and types on top of it.
package gen

import (
	"bytes"
	"embed"
	"fmt"
	"go/format"
	"strings"
	"text/template"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield"
)

//go:embed templates/*
var f embed.FS
var templates *template.Template

func init() {
	t, err := template.ParseFS(f, "templates/*.tmpl")
	if err != nil {
		panic(err)
	}
	templates = t
}

// templateData is the root payload handed to the template.
type templateData struct {
	Package string
	Structs []structDef
	Root    structDef
}

// structDef describes one generated wrapper type.
type structDef struct {
	Name   string
	Fields []fieldDef
}

// fieldDef describes one accessor pair on a wrapper type.
type fieldDef struct {
	// Name is the field name in the layout.
	Name string
	// GoName is the exported accessor name.
	GoName string

	// Leaf is set for scalar fields; GoType is the accessor's value type,
	// Reader is the bitfield.Field method that produces it and Zero is the
	// value returned alongside errors.
	Leaf   bool
	GoType string
	Reader string
	Zero   string

	// Struct is set when the field is a nested struct of wrapper type Wrap.
	Struct bool
	// Array is set for array fields; accessors then take an index. Exactly
	// one of Leaf/Struct may be set alongside it, describing the element.
	Array bool
	Wrap  string
}

// Generate renders Go source for a layout. name is the exported wrapper name
// for the root struct type, pkg the target package name. The type must be a
// struct at its root.
func Generate(pkg, name string, t *bitfield.Type) ([]byte, error) {
	if t.Kind() != bitfield.KindStruct {
		return nil, errors.Wrapf(bitfield.ErrInvalidType, "can only generate accessors for struct types, got %s", t)
	}

	data := templateData{Package: pkg}
	root, err := collect(&data, name, t)
	if err != nil {
		return nil, err
	}
	data.Root = root

	buff := bytes.Buffer{}
	if err := templates.ExecuteTemplate(&buff, "gen.tmpl", data); err != nil {
		return nil, err
	}
	src, err := format.Source(buff.Bytes())
	if err != nil {
		return nil, errors.Wrap(err, "generated source does not format")
	}
	return src, nil
}

// collect walks the type, appending a structDef per nested struct type and
// returning the def for t itself.
func collect(data *templateData, name string, t *bitfield.Type) (structDef, error) {
	def := structDef{Name: name}

	for i := 0; i < t.NumFields(); i++ {
		sf := t.Field(i)
		fd := fieldDef{Name: sf.Name, GoName: goName(sf.Name)}

		ft := sf.Type
		if ft.Kind() == bitfield.KindArray {
			fd.Array = true
			ft = ft.Elem()
		}

		switch ft.Kind() {
		case bitfield.KindStruct:
			fd.Struct = true
			fd.Wrap = name + fd.GoName
			sub, err := collect(data, fd.Wrap, ft)
			if err != nil {
				return structDef{}, err
			}
			data.Structs = append(data.Structs, sub)
		case bitfield.KindArray:
			return structDef{}, errors.Wrapf(bitfield.ErrInvalidType, "cannot generate accessors for nested array field %q", sf.Name)
		default:
			fd.Leaf = true
			fd.GoType, fd.Reader, fd.Zero = leafAccess(ft)
		}
		def.Fields = append(def.Fields, fd)
	}
	return def, nil
}

func leafAccess(t *bitfield.Type) (goType, reader, zero string) {
	switch t.Kind() {
	case bitfield.KindSint:
		return "int64", "Int", "0"
	case bitfield.KindEnum, bitfield.KindUtf8:
		return "string", "Str", `""`
	case bitfield.KindFixed:
		return "float64", "Float", "0"
	case bitfield.KindUint:
		if t.Width() <= 64 {
			return "uint64", "Uint64", "0"
		}
	}
	return "any", "Value", "nil"
}

// goName converts a layout field name such as "cause_of_death" to an
// exported Go name.
func goName(s string) string {
	parts := strings.Split(s, "_")
	b := strings.Builder{}
	for _, p := range parts {
		if p == "" {
			continue
		}
		b.WriteString(strings.ToUpper(p[:1]))
		b.WriteString(p[1:])
	}
	if b.Len() == 0 {
		return fmt.Sprintf("Field%d", len(s))
	}
	return b.String()
}
