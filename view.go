package bitfield

import (
	"fmt"
	"iter"
	"math/big"
	"regexp"
	"strings"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield/internal/bits"
	"github.com/bearlytools/bitfield/internal/field"
	"github.com/bearlytools/bitfield/internal/path"
)

// Cell holds the mutable raw integer an interface is bound to. All views
// bound to the same cell observe every mutation immediately. A Cell is not
// safe for concurrent mutation; that is the caller's responsibility.
type Cell struct {
	raw *big.Int
}

// NewCell returns a zeroed cell.
func NewCell() *Cell {
	return &Cell{raw: new(big.Int)}
}

var (
	rHex = regexp.MustCompile(`^\s*(?:0x|0X)?([0-9a-fA-F]+)(?:[Uu]?[Ll]{1,2}|H|h)?\s*$`)
	rBin = regexp.MustCompile(`^\s*(?:0b|0B)?([01]+)(?:[Uu]?[Ll]{1,2})?\s*$`)
)

// Field binds a field node to a raw cell and exposes read/write access to
// the node's bit window. A Field is a view: it holds no decoded state, so
// sibling views stay coherent under mutation.
type Field struct {
	node *Node
	cell *Cell
}

// Bind builds the field tree for t and binds it to a fresh zeroed cell,
// returning the root view.
func Bind(t *Type) *Field {
	return &Field{node: Instantiate(t), cell: NewCell()}
}

// BindRaw is Bind with an initial raw value. The value must satisfy
// 0 <= n < 2^width.
func BindRaw(t *Type, n *big.Int) (*Field, error) {
	if n.Sign() < 0 || n.BitLen() > t.Width() {
		return nil, errors.Wrapf(ErrOverflow, "raw value of %d bits bound to %d bit interface", n.BitLen(), t.Width())
	}
	f := Bind(t)
	f.cell.raw.Set(n)
	return f, nil
}

// BindNode binds an existing field node to a cell. The node's tree and the
// cell must belong together; this is how sibling views are constructed.
func BindNode(n *Node, c *Cell) *Field {
	return &Field{node: n, cell: c}
}

// Node returns the field node this view projects.
func (f *Field) Node() *Node { return f.node }

// Type returns the type descriptor of the field.
func (f *Field) Type() *Type { return f.node.typ }

// Size returns the field width in bits.
func (f *Field) Size() int { return f.node.width }

// Offset returns the absolute bit offset of the field.
func (f *Field) Offset() int { return f.node.offset }

// Path returns the dotted path of the field from the interface root.
func (f *Field) Path() string { return f.node.path }

// Raw returns the window-relative raw unsigned integer:
// (cell >> offset) & ((1<<width)-1).
func (f *Field) Raw() *big.Int {
	return bits.Window(f.cell.raw, uint(f.node.offset), uint(f.node.width))
}

// Uint64 returns the window raw value as a uint64. It fails with ErrOverflow
// if the window value needs more than 64 bits.
func (f *Field) Uint64() (uint64, error) {
	w := f.Raw()
	if w.BitLen() > 64 {
		return 0, errors.Wrapf(ErrOverflow, "raw value at %q exceeds 64 bits", f.node.path)
	}
	return w.Uint64(), nil
}

// SetRaw writes the low width bits of n into the field's window. Bits above
// the field width are truncated, matching raw-write semantics. n must be
// non-negative.
func (f *Field) SetRaw(n *big.Int) error {
	if n.Sign() < 0 {
		return errors.Wrapf(ErrOverflow, "negative raw value at %q", f.node.path)
	}
	f.cell.raw = bits.SetWindow(f.cell.raw, uint(f.node.offset), uint(f.node.width), n)
	return nil
}

// SetRawUint64 is SetRaw for values that fit a native word.
func (f *Field) SetRawUint64(n uint64) error {
	return f.SetRaw(new(big.Int).SetUint64(n))
}

// Value returns the decoded structured value: integers for numeric leaves,
// labels for mapped enum codes, strings for utf8, *Map for structs and
// []any for arrays.
func (f *Field) Value() (any, error) {
	return decode(f.node, f.Raw())
}

// SetValue writes a decoded value through the field. Writes are
// transactional: the new raw integer is computed completely before the cell
// is touched, so a failed write leaves the cell unchanged. Struct and array
// writes update only the keys or elements present in v.
func (f *Field) SetValue(v any) error {
	w, err := encode(f.node, f.Raw(), v)
	if err != nil {
		return err
	}
	f.cell.raw = bits.SetWindow(f.cell.raw, uint(f.node.offset), uint(f.node.width), w)
	return nil
}

// Int returns the decoded value of a signed or unsigned integer leaf as an
// int64. Enum leaves return their code.
func (f *Field) Int() (int64, error) {
	if !field.IsInteger(f.node.typ.kind) {
		return 0, errors.Wrapf(ErrSchemaMismatch, "field %q of type %s is not an integer", f.node.path, f.node.typ)
	}
	v := f.Raw()
	if f.node.typ.kind == KindSint {
		v = bits.SignExtend(v, uint(f.node.width))
	}
	if !v.IsInt64() {
		return 0, errors.Wrapf(ErrOverflow, "value at %q exceeds int64", f.node.path)
	}
	return v.Int64(), nil
}

// Str returns the decoded value of a utf8 or enum leaf as a string. Enum
// codes missing from the table format as the decimal code.
func (f *Field) Str() (string, error) {
	switch f.node.typ.kind {
	case KindUtf8, KindEnum:
		v, err := f.Value()
		if err != nil {
			return "", err
		}
		if s, ok := v.(string); ok {
			return s, nil
		}
		return fmt.Sprintf("%d", v), nil
	}
	return "", errors.Wrapf(ErrSchemaMismatch, "field %q of type %s is not a string", f.node.path, f.node.typ)
}

// Float returns the decoded value of a fixed-point leaf.
func (f *Field) Float() (float64, error) {
	if f.node.typ.kind != KindFixed {
		return 0, errors.Wrapf(ErrSchemaMismatch, "field %q of type %s is not fixed-point", f.node.path, f.node.typ)
	}
	v, err := f.Value()
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// Bin returns the window raw value as a binary string zero padded to the
// field width, without a prefix.
func (f *Field) Bin() string {
	s := f.Raw().Text(2)
	if pad := f.node.width - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

// SetBin reads a binary string, ignoring the usual prefixes and suffixes.
// Overflow bits are truncated.
func (f *Field) SetBin(s string) error {
	m := rBin.FindStringSubmatch(s)
	if m == nil {
		return errors.Wrapf(ErrSchemaMismatch, "expected binary string, got %q", s)
	}
	n, _ := new(big.Int).SetString(m[1], 2)
	return f.SetRaw(n)
}

// Hex returns the window raw value as a hex string zero padded to the field
// width, without a prefix.
func (f *Field) Hex() string {
	s := f.Raw().Text(16)
	if pad := (f.node.width+3)/4 - len(s); pad > 0 {
		s = strings.Repeat("0", pad) + s
	}
	return s
}

// SetHex reads a hex string, ignoring the usual prefixes and suffixes.
// Overflow bits are truncated.
func (f *Field) SetHex(s string) error {
	m := rHex.FindStringSubmatch(s)
	if m == nil {
		return errors.Wrapf(ErrSchemaMismatch, "expected hex string, got %q", s)
	}
	n, _ := new(big.Int).SetString(m[1], 16)
	return f.SetRaw(n)
}

// Child returns the view of a struct child field.
func (f *Field) Child(name string) (*Field, error) {
	c, ok := f.node.Child(name)
	if !ok {
		return nil, errors.Wrapf(ErrNoField, "%q has no field %q", f.node.path, name)
	}
	return &Field{node: c, cell: f.cell}, nil
}

// Index returns the view of an array element.
func (f *Field) Index(i int) (*Field, error) {
	if f.node.typ.kind != KindArray {
		return nil, errors.Wrapf(ErrNoField, "%q of type %s is not indexable", f.node.path, f.node.typ)
	}
	if i < 0 || i >= len(f.node.children) {
		return nil, errors.Wrapf(ErrRange, "index %d at %q, array length %d", i, f.node.path, len(f.node.children))
	}
	return &Field{node: f.node.children[i], cell: f.cell}, nil
}

// Len reports the element count of an array field or the field count of a
// struct field.
func (f *Field) Len() int {
	return len(f.node.children)
}

// Get navigates a dotted path such as "knights[2].name" and returns the
// view at that path.
func (f *Field) Get(p string) (*Field, error) {
	segs, err := path.Parse(p)
	if err != nil {
		return nil, errors.Wrapf(ErrNoField, "path %q: %v", p, err)
	}
	out := f
	for _, seg := range segs {
		if seg.IsIndex {
			out, err = out.Index(seg.Index)
		} else {
			out, err = out.Child(seg.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Slice returns a view over the contiguous array elements [from, to). The
// slice view aliases the same cell; writes through it land in the parent
// array's window.
func (f *Field) Slice(from, to int) (*Field, error) {
	t := f.node.typ
	if t.kind != KindArray {
		return nil, errors.Wrapf(ErrNoField, "%q of type %s is not sliceable", f.node.path, t)
	}
	if from < 0 || to < from || to > t.length {
		return nil, errors.Wrapf(ErrRange, "slice [%d:%d] at %q, array length %d", from, to, f.node.path, t.length)
	}
	st, err := ArrayOf(t.elem, to-from)
	if err != nil {
		return nil, err
	}
	node := build(st, fmt.Sprintf("%d_%d", from, to), fmt.Sprintf("%s[%d:%d]", f.node.path, from, to), f.node, f.node.offset+from*t.elem.width)
	return &Field{node: node, cell: f.cell}, nil
}

// Children iterates the direct child views in declaration or element order.
func (f *Field) Children() iter.Seq[*Field] {
	return func(yield func(*Field) bool) {
		for _, c := range f.node.children {
			if !yield(&Field{node: c, cell: f.cell}) {
				return
			}
		}
	}
}

// EqualValue reports whether the field's decoded value equals v. Integer
// leaves compare numerically, enum leaves admit both label and code, utf8
// leaves compare as strings, arrays compare elementwise against slices and
// structs compare against maps.
func (f *Field) EqualValue(v any) bool {
	t := f.node.typ
	if t.kind == KindFixed {
		fv, ok := toFloat(v)
		if !ok {
			return false
		}
		got, err := f.Float()
		return err == nil && got == fv
	}
	if iv, ok := toBig(v); ok {
		if t.kind == KindSint {
			return bits.SignExtend(f.Raw(), uint(t.width)).Cmp(iv) == 0
		}
		return f.Raw().Cmp(iv) == 0
	}
	if s, ok := v.(string); ok {
		switch t.kind {
		case KindEnum:
			code, ok := t.enum.Code(s)
			return ok && f.Raw().IsUint64() && f.Raw().Uint64() == code
		case KindUtf8:
			got, err := f.Str()
			return err == nil && got == s
		}
		return false
	}

	got, err := f.Value()
	if err != nil {
		return false
	}
	return valueEqual(got, v, f)
}

func valueEqual(got, want any, f *Field) bool {
	switch w := want.(type) {
	case []any:
		if f.Len() != len(w) {
			return false
		}
		for i, wv := range w {
			c, err := f.Index(i)
			if err != nil || !c.EqualValue(wv) {
				return false
			}
		}
		return true
	case map[string]any:
		m, ok := got.(*Map)
		if !ok || m.Len() != len(w) {
			return false
		}
		for k, wv := range w {
			c, err := f.Child(k)
			if err != nil || !c.EqualValue(wv) {
				return false
			}
		}
		return true
	case *Map:
		m, ok := got.(*Map)
		if !ok || m.Len() != w.Len() {
			return false
		}
		for _, k := range w.Keys() {
			wv, _ := w.Get(k)
			c, err := f.Child(k)
			if err != nil || !c.EqualValue(wv) {
				return false
			}
		}
		return true
	}
	return false
}
