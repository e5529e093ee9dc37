package bitfield

import (
	"fmt"
	"hash/fnv"
	"io"
	"math/big"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/bearlytools/bitfield/internal/field"
)

// Kind represents the kind of value a Type describes.
type Kind = field.Kind

const (
	KindUnknown = field.KindUnknown
	KindUint    = field.KindUint
	KindSint    = field.KindSint
	KindEnum    = field.KindEnum
	KindStruct  = field.KindStruct
	KindArray   = field.KindArray
	KindUtf8    = field.KindUtf8
	KindFixed   = field.KindFixed
	KindCustom  = field.KindCustom
)

// reservedMarker is the trailing marker that separates accessor names from
// field names. Field names must not end with it.
const reservedMarker = "_"

// Enum is a forward label -> code mapping used to construct enumerated
// unsigned integer types.
type Enum map[string]uint64

// EnumOf builds an Enum assigning codes to labels by position.
func EnumOf(labels ...string) Enum {
	e := make(Enum, len(labels))
	for i, l := range labels {
		e[l] = uint64(i)
	}
	return e
}

// EnumTable holds the forward and reverse mapping for an enumerated type.
// The two maps are total inverses on their supports.
type EnumTable struct {
	forward map[string]uint64
	reverse map[uint64]string
}

func newEnumTable(e Enum, width int) (*EnumTable, error) {
	t := &EnumTable{
		forward: make(map[string]uint64, len(e)),
		reverse: make(map[uint64]string, len(e)),
	}
	for label, code := range e {
		if big.NewInt(0).SetUint64(code).BitLen() > width {
			return nil, errors.Wrapf(ErrInvalidType, "enum code %d for label %q does not fit in %d bits", code, label, width)
		}
		if prev, ok := t.reverse[code]; ok {
			return nil, errors.Wrapf(ErrInvalidType, "enum labels %q and %q share code %d", prev, label, code)
		}
		t.forward[label] = code
		t.reverse[code] = label
	}
	return t, nil
}

// Code returns the code for a label.
func (t *EnumTable) Code(label string) (uint64, bool) {
	c, ok := t.forward[label]
	return c, ok
}

// Label returns the label for a code.
func (t *EnumTable) Label(code uint64) (string, bool) {
	l, ok := t.reverse[code]
	return l, ok
}

// Len reports the number of label/code pairs.
func (t *EnumTable) Len() int {
	return len(t.forward)
}

// Labels returns all labels ordered by code.
func (t *EnumTable) Labels() []string {
	codes := maps.Keys(t.reverse)
	slices.Sort(codes)
	out := make([]string, 0, len(codes))
	for _, c := range codes {
		out = append(out, t.reverse[c])
	}
	return out
}

// CustomCodec supplies the encode/decode/jsonify triple for a registered
// custom leaf type. Encode must produce a value that fits the declared
// width and Decode must consume exactly that window.
type CustomCodec struct {
	// Encode converts a user value to the unsigned window integer.
	Encode func(v any) (*big.Int, error)
	// Decode converts the unsigned window integer back to a user value.
	Decode func(n *big.Int) (any, error)
	// JSON converts a decoded user value to a JSON-encodable value
	// (string, float64, bool, int64, uint64 or *big.Int).
	JSON func(v any) (any, error)
}

// StructField is a single (name, type) pair in a struct declaration.
type StructField struct {
	Name string
	Type *Type
}

// Type is an immutable descriptor that computes the width and encode/decode
// rule of a bit range. Types may be freely shared between interfaces.
type Type struct {
	kind  Kind
	width int

	enum    *EnumTable // KindEnum
	fields  []StructField
	byName  map[string]int // KindStruct
	elem    *Type          // KindArray
	length  int            // KindArray
	byteLen int            // KindUtf8

	precision int     // KindFixed
	base      int     // KindFixed
	divisor   float64 // KindFixed

	customName string // KindCustom
	codec      *CustomCodec
}

// Kind returns the kind of the type.
func (t *Type) Kind() Kind { return t.kind }

// Width returns the width of the type in bits.
func (t *Type) Width() int { return t.width }

// Enum returns the enum table for KindEnum types, else nil.
func (t *Type) Enum() *EnumTable { return t.enum }

// NumFields reports the number of declared fields for struct types.
func (t *Type) NumFields() int { return len(t.fields) }

// Field returns the ith declared field of a struct type.
func (t *Type) Field(i int) StructField { return t.fields[i] }

// FieldByName returns the declared field with the given name.
func (t *Type) FieldByName(name string) (StructField, bool) {
	i, ok := t.byName[name]
	if !ok {
		return StructField{}, false
	}
	return t.fields[i], true
}

// Elem returns the element type for array types, else nil.
func (t *Type) Elem() *Type { return t.elem }

// Len returns the element count for array types.
func (t *Type) Len() int { return t.length }

// ByteLen returns the byte capacity for utf8 types.
func (t *Type) ByteLen() int { return t.byteLen }

// CustomName returns the registered name for custom types, else "".
func (t *Type) CustomName() string { return t.customName }

// Codec returns the registered codec for custom types, else nil.
func (t *Type) Codec() *CustomCodec { return t.codec }

// Uint returns an unsigned integer type of the given bit width.
func Uint(width int) (*Type, error) {
	if width <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "uint width %d", width)
	}
	return &Type{kind: KindUint, width: width}, nil
}

// UintEnum returns an unsigned integer type whose values decode through the
// given enum table. Codes absent from the table decode to the raw integer.
func UintEnum(width int, e Enum) (*Type, error) {
	if width <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "uint width %d", width)
	}
	table, err := newEnumTable(e, width)
	if err != nil {
		return nil, err
	}
	return &Type{kind: KindEnum, width: width, enum: table}, nil
}

// Sint returns a two's-complement signed integer type of the given bit width.
func Sint(width int) (*Type, error) {
	if width <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "sint width %d", width)
	}
	return &Type{kind: KindSint, width: width}, nil
}

// Utf8 returns a UTF-8 string type occupying 8*byteLen bits. The string's
// bytes are stored as a big-endian integer: its last byte sits in the lowest
// byte of the window, and a shorter string leaves the unused high bytes zero.
func Utf8(byteLen int) (*Type, error) {
	if byteLen <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "utf8 byte length %d", byteLen)
	}
	return &Type{kind: KindUtf8, width: 8 * byteLen, byteLen: byteLen}, nil
}

// Fixed returns a fixed-point type stored as a width-bit two's-complement
// integer scaled by base^precision. Values decode to float64.
func Fixed(width, precision, base int) (*Type, error) {
	if width <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "fixed width %d", width)
	}
	if precision < 0 || base < 2 {
		return nil, errors.Wrapf(ErrInvalidType, "fixed precision %d base %d", precision, base)
	}
	divisor := 1.0
	for i := 0; i < precision; i++ {
		divisor *= float64(base)
	}
	return &Type{kind: KindFixed, width: width, precision: precision, base: base, divisor: divisor}, nil
}

// Decimal returns a fixed-point decimal type: Decimal(16, 2) holds 16 bits
// with 2 decimal places.
func Decimal(width, precision int) (*Type, error) {
	return Fixed(width, precision, 10)
}

// StructOf returns a struct type laying out fields in declaration order.
// The first declared field occupies the low-order bits of the raw integer.
func StructOf(fields []StructField) (*Type, error) {
	byName := make(map[string]int, len(fields))
	width := 0
	for i, f := range fields {
		if f.Name == "" || strings.HasSuffix(f.Name, reservedMarker) {
			return nil, errors.Wrapf(ErrReservedName, "field %q", f.Name)
		}
		if _, ok := byName[f.Name]; ok {
			return nil, errors.Wrapf(ErrDuplicateName, "field %q", f.Name)
		}
		if f.Type == nil {
			return nil, errors.Wrapf(ErrInvalidType, "field %q has nil type", f.Name)
		}
		byName[f.Name] = i
		width += f.Type.width
	}
	out := &Type{kind: KindStruct, width: width, fields: slices.Clone(fields), byName: byName}
	return out, nil
}

// ArrayOf returns an array type of n contiguous elements.
func ArrayOf(elem *Type, n int) (*Type, error) {
	if elem == nil {
		return nil, errors.Wrap(ErrInvalidType, "array of nil type")
	}
	if n < 0 {
		return nil, errors.Wrapf(ErrInvalidType, "array length %d", n)
	}
	return &Type{kind: KindArray, width: elem.width * n, elem: elem, length: n}, nil
}

// Array is sugar for ArrayOf(t, n).
func (t *Type) Array(n int) (*Type, error) {
	return ArrayOf(t, n)
}

// Equal reports structural equality on the computed payload. Custom types
// compare by registered name and width.
func (t *Type) Equal(o *Type) bool {
	if t == o {
		return true
	}
	if t == nil || o == nil {
		return false
	}
	if t.kind != o.kind || t.width != o.width {
		return false
	}
	switch t.kind {
	case KindEnum:
		if t.enum.Len() != o.enum.Len() {
			return false
		}
		for label, code := range t.enum.forward {
			oc, ok := o.enum.forward[label]
			if !ok || oc != code {
				return false
			}
		}
	case KindStruct:
		if len(t.fields) != len(o.fields) {
			return false
		}
		for i := range t.fields {
			if t.fields[i].Name != o.fields[i].Name || !t.fields[i].Type.Equal(o.fields[i].Type) {
				return false
			}
		}
	case KindArray:
		return t.length == o.length && t.elem.Equal(o.elem)
	case KindUtf8:
		return t.byteLen == o.byteLen
	case KindFixed:
		return t.precision == o.precision && t.base == o.base
	case KindCustom:
		return t.customName == o.customName
	}
	return true
}

// Hash returns a hash mirroring Equal, so type interning is legal.
func (t *Type) Hash() uint64 {
	h := fnv.New64a()
	t.writeShape(h)
	return h.Sum64()
}

func (t *Type) writeShape(w io.Writer) {
	fmt.Fprintf(w, "%d:%d;", t.kind, t.width)
	switch t.kind {
	case KindEnum:
		labels := maps.Keys(t.enum.forward)
		sort.Strings(labels)
		for _, l := range labels {
			fmt.Fprintf(w, "%s=%d,", l, t.enum.forward[l])
		}
	case KindStruct:
		for _, f := range t.fields {
			io.WriteString(w, f.Name+":")
			f.Type.writeShape(w)
		}
	case KindArray:
		fmt.Fprintf(w, "[%d]", t.length)
		t.elem.writeShape(w)
	case KindUtf8:
		fmt.Fprintf(w, "b%d", t.byteLen)
	case KindFixed:
		fmt.Fprintf(w, "p%db%d", t.precision, t.base)
	case KindCustom:
		io.WriteString(w, t.customName)
	}
}

// String returns a constructor-shaped representation of the type.
func (t *Type) String() string {
	switch t.kind {
	case KindUint:
		return fmt.Sprintf("uint(%d)", t.width)
	case KindSint:
		return fmt.Sprintf("sint(%d)", t.width)
	case KindEnum:
		return fmt.Sprintf("uint(%d, enum)", t.width)
	case KindUtf8:
		return fmt.Sprintf("utf8(%d)", t.byteLen)
	case KindFixed:
		if t.base == 10 {
			return fmt.Sprintf("decimal(%d, %d)", t.width, t.precision)
		}
		return fmt.Sprintf("fixed(%d, %d, %d)", t.width, t.precision, t.base)
	case KindArray:
		return fmt.Sprintf("%s[%d]", t.elem, t.length)
	case KindStruct:
		b := strings.Builder{}
		b.WriteString("struct([")
		for i, f := range t.fields {
			if i != 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "('%s', %s)", f.Name, f.Type)
		}
		b.WriteString("])")
		return b.String()
	case KindCustom:
		return fmt.Sprintf("%s(%d)", t.customName, t.width)
	}
	return "unknown"
}
