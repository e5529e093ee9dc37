package bitfield

import (
	"github.com/pkg/errors"
)

// Registry holds custom leaf types registered by a caller. It is scoped to
// the caller, not process-wide, so custom types stay testable in isolation.
// A Registry must not be mutated after the types it produced are in use.
type Registry struct {
	types map[string]*Type
}

// NewRegistry returns an empty custom type registry.
func NewRegistry() *Registry {
	return &Registry{types: map[string]*Type{}}
}

// Register creates a custom leaf type with the given name, bit width and
// codec. The codec must honor the round-trip law over the declared width.
func (r *Registry) Register(name string, width int, codec CustomCodec) (*Type, error) {
	if name == "" {
		return nil, errors.Wrap(ErrInvalidType, "custom type with empty name")
	}
	if width <= 0 {
		return nil, errors.Wrapf(ErrInvalidWidth, "custom type %q width %d", name, width)
	}
	if codec.Encode == nil || codec.Decode == nil || codec.JSON == nil {
		return nil, errors.Wrapf(ErrInvalidType, "custom type %q has a nil codec func", name)
	}
	if _, ok := r.types[name]; ok {
		return nil, errors.Wrapf(ErrDuplicateName, "custom type %q", name)
	}

	c := codec
	t := &Type{kind: KindCustom, width: width, customName: name, codec: &c}
	r.types[name] = t
	return t, nil
}

// Lookup returns a previously registered type by name.
func (r *Registry) Lookup(name string) (*Type, bool) {
	t, ok := r.types[name]
	return t, ok
}
