package bitfield

import (
	"github.com/pkg/errors"
)

// Sentinel errors returned by type construction and field access. Callers
// should match with errors.Is, as returned errors usually carry call-site
// context added with github.com/pkg/errors.
var (
	// ErrInvalidWidth indicates a type was constructed with width <= 0.
	ErrInvalidWidth = errors.New("invalid width")
	// ErrInvalidType indicates a type payload is internally inconsistent,
	// such as a custom type whose codec does not honor its declared width.
	ErrInvalidType = errors.New("invalid type")
	// ErrDuplicateName indicates colliding struct field names.
	ErrDuplicateName = errors.New("duplicate field name")
	// ErrReservedName indicates a field name ending in the reserved "_" marker.
	ErrReservedName = errors.New("reserved field name")
	// ErrOverflow indicates a value exceeds the capacity of its field.
	ErrOverflow = errors.New("value overflows field")
	// ErrUnknownLabel indicates an enum label not present in the enum table.
	ErrUnknownLabel = errors.New("unknown enum label")
	// ErrSchemaMismatch indicates a document or value tree that does not
	// match the target type's shape.
	ErrSchemaMismatch = errors.New("schema mismatch")
	// ErrInvalidEncoding indicates malformed UTF-8 at read or write time.
	ErrInvalidEncoding = errors.New("invalid utf-8 encoding")
	// ErrNoField indicates navigation to a field that does not exist.
	ErrNoField = errors.New("no such field")
	// ErrRange indicates an array index or slice outside the array bounds.
	ErrRange = errors.New("index out of range")
)
