// Package bfjson bridges bound bitfield interfaces to and from JSON. Structs
// serialize as objects with declared-order keys, arrays as lists, enum leaves
// as their label when the code is mapped (else the integer code), signed
// integers as signed numbers and utf8 leaves as strings.
package bfjson

import (
	"bytes"
	"io"
	"math/big"
	"strconv"

	"github.com/go-json-experiment/json/jsontext"
	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield"
)

// marshalOptions provides options for writing bitfield output to JSON.
type marshalOptions struct {
	UseEnumNumbers bool
}

// MarshalOption provides options for marshaling bound fields to JSON.
type MarshalOption func(marshalOptions) (marshalOptions, error)

// WithUseEnumNumbers configures whether enum values are emitted as numbers
// instead of label strings.
func WithUseEnumNumbers(use bool) MarshalOption {
	return func(m marshalOptions) (marshalOptions, error) {
		m.UseEnumNumbers = use
		return m, nil
	}
}

// Marshal marshals the field's decoded value to JSON. The result carries no
// trailing newline.
func Marshal(f *bitfield.Field, options ...MarshalOption) ([]byte, error) {
	var buf bytes.Buffer
	if err := MarshalWriter(f, &buf, options...); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// MarshalWriter marshals the field's decoded value to JSON, writing to the
// provided io.Writer.
func MarshalWriter(f *bitfield.Field, w io.Writer, options ...MarshalOption) error {
	opts := marshalOptions{}
	for _, opt := range options {
		var err error
		opts, err = opt(opts)
		if err != nil {
			return err
		}
	}

	enc := jsontext.NewEncoder(w)
	for tok := range f.Walk() {
		if tok.Err != nil {
			return tok.Err
		}
		if tok.Name != "" {
			if err := enc.WriteToken(jsontext.String(tok.Name)); err != nil {
				return err
			}
		}
		var err error
		switch tok.Kind {
		case bitfield.TokenStructStart:
			err = enc.WriteToken(jsontext.BeginObject)
		case bitfield.TokenStructEnd:
			err = enc.WriteToken(jsontext.EndObject)
		case bitfield.TokenArrayStart:
			err = enc.WriteToken(jsontext.BeginArray)
		case bitfield.TokenArrayEnd:
			err = enc.WriteToken(jsontext.EndArray)
		case bitfield.TokenLeaf:
			err = writeLeaf(enc, tok, opts)
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeLeaf(enc *jsontext.Encoder, tok bitfield.Token, opts marshalOptions) error {
	t := tok.Node.Type()

	v := tok.Value
	if t.Kind() == bitfield.KindEnum && opts.UseEnumNumbers {
		if label, ok := v.(string); ok {
			code, _ := t.Enum().Code(label)
			v = code
		}
	}
	if t.Kind() == bitfield.KindCustom {
		var err error
		v, err = t.Codec().JSON(v)
		if err != nil {
			return errors.Wrapf(err, "jsonify at %q", tok.Node.Path())
		}
	}

	switch x := v.(type) {
	case string:
		return enc.WriteToken(jsontext.String(x))
	case bool:
		return enc.WriteToken(jsontext.Bool(x))
	case int64:
		return enc.WriteToken(jsontext.Int(x))
	case uint64:
		return enc.WriteToken(jsontext.Uint(x))
	case float64:
		return enc.WriteToken(jsontext.Float(x))
	case *big.Int:
		return enc.WriteValue(jsontext.Value(x.String()))
	}
	return errors.Wrapf(bitfield.ErrSchemaMismatch, "cannot marshal %T at %q", v, tok.Node.Path())
}

// Unmarshal parses JSON into the field. The document must match the field's
// type shape; unknown object keys fail with ErrSchemaMismatch. The write is
// transactional: a parse or range failure leaves the bound cell unchanged.
func Unmarshal(f *bitfield.Field, data []byte) error {
	dec := jsontext.NewDecoder(bytes.NewReader(data))
	v, err := readValue(dec, f.Type(), f.Path())
	if err != nil {
		return err
	}
	return f.SetValue(v)
}

func readValue(dec *jsontext.Decoder, t *bitfield.Type, at string) (any, error) {
	switch t.Kind() {
	case bitfield.KindStruct:
		return readStruct(dec, t, at)
	case bitfield.KindArray:
		return readArray(dec, t, at)
	}
	return readLeaf(dec, t, at)
}

func readStruct(dec *jsontext.Decoder, t *bitfield.Type, at string) (any, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
	}
	if tok.Kind() != '{' {
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "expected object at %q, got %v", at, tok.Kind())
	}

	m := bitfield.NewMap()
	for dec.PeekKind() != '}' {
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
		}
		name := tok.String()
		sf, ok := t.FieldByName(name)
		if !ok {
			return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "object at %q has unknown key %q", at, name)
		}
		v, err := readValue(dec, sf.Type, at+"."+name)
		if err != nil {
			return nil, err
		}
		m.Set(name, v)
	}
	if _, err := dec.ReadToken(); err != nil { // consume '}'
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
	}
	return m, nil
}

func readArray(dec *jsontext.Decoder, t *bitfield.Type, at string) (any, error) {
	tok, err := dec.ReadToken()
	if err != nil {
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
	}
	if tok.Kind() != '[' {
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "expected array at %q, got %v", at, tok.Kind())
	}

	var out []any
	for dec.PeekKind() != ']' {
		if len(out) == t.Len() {
			return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "array at %q longer than %d", at, t.Len())
		}
		v, err := readValue(dec, t.Elem(), at+"["+strconv.Itoa(len(out))+"]")
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	if _, err := dec.ReadToken(); err != nil { // consume ']'
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
	}
	return out, nil
}

func readLeaf(dec *jsontext.Decoder, t *bitfield.Type, at string) (any, error) {
	switch dec.PeekKind() {
	case '"':
		tok, err := dec.ReadToken()
		if err != nil {
			return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
		}
		return tok.String(), nil
	case '0':
		raw, err := dec.ReadValue()
		if err != nil {
			return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
		}
		return parseNumber(t, string(raw), at)
	case 't', 'f':
		if t.Kind() == bitfield.KindCustom {
			tok, err := dec.ReadToken()
			if err != nil {
				return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "at %q: %v", at, err)
			}
			return tok.Bool(), nil
		}
	}
	return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "unexpected %v at %q", dec.PeekKind(), at)
}

func parseNumber(t *bitfield.Type, raw, at string) (any, error) {
	switch t.Kind() {
	case bitfield.KindFixed:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "bad number %q at %q", raw, at)
		}
		return f, nil
	case bitfield.KindCustom:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f, nil
		}
	}
	n, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, errors.Wrapf(bitfield.ErrSchemaMismatch, "bad integer %q at %q", raw, at)
	}
	return n, nil
}
