package bitfield

import (
	"math/big"
	"reflect"
	"unicode/utf8"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield/internal/bits"
)

// decode projects a window-relative raw value to the structured value for a
// node. Integer leaves that fit a native word decode to uint64/int64; wider
// leaves decode to *big.Int.
func decode(n *Node, window *big.Int) (any, error) {
	t := n.typ
	switch t.kind {
	case KindUint:
		return decodeUnsigned(window, t.width), nil
	case KindEnum:
		if window.BitLen() <= 64 {
			if label, ok := t.enum.Label(window.Uint64()); ok {
				return label, nil
			}
		}
		return decodeUnsigned(window, t.width), nil
	case KindSint:
		v := bits.SignExtend(window, uint(t.width))
		if v.IsInt64() {
			return v.Int64(), nil
		}
		return v, nil
	case KindFixed:
		v := bits.SignExtend(window, uint(t.width))
		f, _ := new(big.Float).SetInt(v).Float64()
		return f / t.divisor, nil
	case KindUtf8:
		b := window.Bytes()
		if len(b) > t.byteLen {
			return nil, errors.Wrapf(ErrOverflow, "utf8 field %q holds %d bytes, capacity %d", n.path, len(b), t.byteLen)
		}
		if !utf8.Valid(b) {
			return nil, errors.Wrapf(ErrInvalidEncoding, "utf8 field %q", n.path)
		}
		return string(b), nil
	case KindCustom:
		v, err := t.codec.Decode(new(big.Int).Set(window))
		if err != nil {
			return nil, errors.Wrapf(err, "custom type %q at %q", t.customName, n.path)
		}
		return v, nil
	case KindStruct:
		m := NewMap()
		for _, c := range n.children {
			cw := bits.Window(window, uint(c.offset-n.offset), uint(c.width))
			v, err := decode(c, cw)
			if err != nil {
				return nil, err
			}
			m.Set(c.name, v)
		}
		return m, nil
	case KindArray:
		out := make([]any, len(n.children))
		for i, c := range n.children {
			cw := bits.Window(window, uint(c.offset-n.offset), uint(c.width))
			v, err := decode(c, cw)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}
	return nil, errors.Wrapf(ErrInvalidType, "cannot decode kind %v", t.kind)
}

func decodeUnsigned(window *big.Int, width int) any {
	if width <= 64 {
		return window.Uint64()
	}
	return new(big.Int).Set(window)
}

// encode computes the new window-relative raw value for a node given the
// current window value and an incoming value. The current value matters for
// compound writes, which update only the keys or elements present in v.
// encode never mutates cur; a failure leaves the bound cell untouched.
func encode(n *Node, cur *big.Int, v any) (*big.Int, error) {
	t := n.typ

	// An integer assigned to any field other than a sint, fixed or custom
	// leaf is a window-relative raw write.
	if iv, ok := toBig(v); ok && t.kind != KindSint && t.kind != KindFixed && t.kind != KindCustom {
		if !bits.Fits(iv, uint(t.width)) {
			return nil, errors.Wrapf(ErrOverflow, "value %v exceeds %d bits at %q", iv, t.width, n.path)
		}
		return new(big.Int).Set(iv), nil
	}

	switch t.kind {
	case KindUint:
		return nil, errors.Wrapf(ErrSchemaMismatch, "uint field %q given %T", n.path, v)
	case KindEnum:
		label, ok := v.(string)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "enum field %q given %T", n.path, v)
		}
		code, ok := t.enum.Code(label)
		if !ok {
			return nil, errors.Wrapf(ErrUnknownLabel, "label %q at %q", label, n.path)
		}
		return new(big.Int).SetUint64(code), nil
	case KindSint:
		iv, ok := toBig(v)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "sint field %q given %T", n.path, v)
		}
		if !bits.FitsSigned(iv, uint(t.width)) {
			return nil, errors.Wrapf(ErrOverflow, "value %v exceeds sint(%d) at %q", iv, t.width, n.path)
		}
		return bits.WrapSigned(iv, uint(t.width)), nil
	case KindFixed:
		f, ok := toFloat(v)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "fixed field %q given %T", n.path, v)
		}
		max := maxFixed(t)
		if f < -max || f > max {
			return nil, errors.Wrapf(ErrOverflow, "value %v out of range [%v, %v] at %q", f, -max, max, n.path)
		}
		scaled := big.NewInt(int64(f * t.divisor))
		if scaled.Sign() < 0 {
			return bits.WrapSigned(scaled, uint(t.width)), nil
		}
		return scaled, nil
	case KindUtf8:
		s, ok := v.(string)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "utf8 field %q given %T", n.path, v)
		}
		if !utf8.ValidString(s) {
			return nil, errors.Wrapf(ErrInvalidEncoding, "utf8 field %q", n.path)
		}
		if len(s) > t.byteLen {
			return nil, errors.Wrapf(ErrOverflow, "%d bytes exceeds utf8(%d) at %q", len(s), t.byteLen, n.path)
		}
		return new(big.Int).SetBytes([]byte(s)), nil
	case KindCustom:
		w, err := t.codec.Encode(v)
		if err != nil {
			return nil, errors.Wrapf(err, "custom type %q at %q", t.customName, n.path)
		}
		if !bits.Fits(w, uint(t.width)) {
			return nil, errors.Wrapf(ErrInvalidType, "custom type %q encoded %d bits, declared %d", t.customName, w.BitLen(), t.width)
		}
		return w, nil
	case KindStruct:
		return encodeStruct(n, cur, v)
	case KindArray:
		return encodeArray(n, cur, v)
	}
	return nil, errors.Wrapf(ErrInvalidType, "cannot encode kind %v", t.kind)
}

func encodeStruct(n *Node, cur *big.Int, v any) (*big.Int, error) {
	type kv struct {
		k string
		v any
	}
	var items []kv
	switch m := v.(type) {
	case *Map:
		for _, k := range m.Keys() {
			mv, _ := m.Get(k)
			items = append(items, kv{k, mv})
		}
	case map[string]any:
		// Declaration order keeps failures deterministic.
		for _, f := range n.typ.fields {
			if mv, ok := m[f.Name]; ok {
				items = append(items, kv{f.Name, mv})
			}
		}
		for k := range m {
			if _, ok := n.byName[k]; !ok {
				return nil, errors.Wrapf(ErrSchemaMismatch, "struct %q has no field %q", n.path, k)
			}
		}
	default:
		return nil, errors.Wrapf(ErrSchemaMismatch, "struct field %q given %T", n.path, v)
	}

	out := new(big.Int).Set(cur)
	for _, it := range items {
		i, ok := n.byName[it.k]
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "struct %q has no field %q", n.path, it.k)
		}
		c := n.children[i]
		off := uint(c.offset - n.offset)
		cw := bits.Window(out, off, uint(c.width))
		nw, err := encode(c, cw, it.v)
		if err != nil {
			return nil, err
		}
		out = bits.SetWindow(out, off, uint(c.width), nw)
	}
	return out, nil
}

func encodeArray(n *Node, cur *big.Int, v any) (*big.Int, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, errors.Wrapf(ErrSchemaMismatch, "array field %q given %T", n.path, v)
	}
	if rv.Len() > len(n.children) {
		return nil, errors.Wrapf(ErrRange, "%d elements exceeds array length %d at %q", rv.Len(), len(n.children), n.path)
	}

	out := new(big.Int).Set(cur)
	for i := 0; i < rv.Len(); i++ {
		c := n.children[i]
		off := uint(c.offset - n.offset)
		cw := bits.Window(out, off, uint(c.width))
		nw, err := encode(c, cw, rv.Index(i).Interface())
		if err != nil {
			return nil, err
		}
		out = bits.SetWindow(out, off, uint(c.width), nw)
	}
	return out, nil
}

func maxFixed(t *Type) float64 {
	m := new(big.Int).Lsh(big.NewInt(1), uint(t.width-1))
	m.Sub(m, big.NewInt(1))
	f, _ := new(big.Float).SetInt(m).Float64()
	return f / t.divisor
}

func toBig(v any) (*big.Int, bool) {
	switch x := v.(type) {
	case int:
		return big.NewInt(int64(x)), true
	case int8:
		return big.NewInt(int64(x)), true
	case int16:
		return big.NewInt(int64(x)), true
	case int32:
		return big.NewInt(int64(x)), true
	case int64:
		return big.NewInt(x), true
	case uint:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint8:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint16:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint32:
		return new(big.Int).SetUint64(uint64(x)), true
	case uint64:
		return new(big.Int).SetUint64(x), true
	case *big.Int:
		return x, true
	}
	return nil, false
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case float32:
		return float64(x), true
	case float64:
		return x, true
	}
	if iv, ok := toBig(v); ok {
		f, _ := new(big.Float).SetInt(iv).Float64()
		return f, true
	}
	return 0, false
}
