package bitfield

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"testing"

	"github.com/pkg/errors"
)

// ipv4Codec stores dotted-quad addresses in a 32 bit window.
var ipv4Codec = CustomCodec{
	Encode: func(v any) (*big.Int, error) {
		s, ok := v.(string)
		if !ok {
			return nil, errors.Wrapf(ErrSchemaMismatch, "ipv4 given %T", v)
		}
		parts := strings.Split(s, ".")
		if len(parts) != 4 {
			return nil, errors.Wrapf(ErrSchemaMismatch, "bad ipv4 %q", s)
		}
		n := uint64(0)
		for _, p := range parts {
			o, err := strconv.ParseUint(p, 10, 8)
			if err != nil {
				return nil, errors.Wrapf(ErrSchemaMismatch, "bad ipv4 octet %q", p)
			}
			n = n<<8 | o
		}
		return new(big.Int).SetUint64(n), nil
	},
	Decode: func(n *big.Int) (any, error) {
		v := n.Uint64()
		return fmt.Sprintf("%d.%d.%d.%d", v>>24&0xff, v>>16&0xff, v>>8&0xff, v&0xff), nil
	},
	JSON: func(v any) (any, error) {
		return v, nil
	},
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	ipv4, err := r.Register("ipv4", 32, ipv4Codec)
	if err != nil {
		t.Fatalf("TestRegistry(Register): %s", err)
	}

	if got, ok := r.Lookup("ipv4"); !ok || got != ipv4 {
		t.Fatalf("TestRegistry(Lookup): registered type not found")
	}
	if ipv4.Width() != 32 || ipv4.Kind() != KindCustom {
		t.Fatalf("TestRegistry(shape): got (%d, %v)", ipv4.Width(), ipv4.Kind())
	}

	ty := mustT(t)(StructOf([]StructField{
		{Name: "src", Type: ipv4},
		{Name: "ttl", Type: mustT(t)(Uint(8))},
	}))
	f := Bind(ty)

	if err := f.SetValue(map[string]any{"src": "10.0.0.1", "ttl": 64}); err != nil {
		t.Fatalf("TestRegistry(SetValue): %s", err)
	}
	src, err := f.Get("src")
	if err != nil {
		t.Fatalf("TestRegistry(Get): %s", err)
	}
	v, err := src.Value()
	if err != nil {
		t.Fatalf("TestRegistry(Value): %s", err)
	}
	if v != "10.0.0.1" {
		t.Errorf("TestRegistry(round trip): got %v, want 10.0.0.1", v)
	}
	if got := src.Raw().Uint64(); got != 0x0a000001 {
		t.Errorf("TestRegistry(raw): got %#x, want 0x0a000001", got)
	}
}

func TestRegistryErrors(t *testing.T) {
	r := NewRegistry()

	if _, err := r.Register("bad", 0, ipv4Codec); !errors.Is(err, ErrInvalidWidth) {
		t.Errorf("TestRegistryErrors(zero width): got %v, want ErrInvalidWidth", err)
	}
	if _, err := r.Register("bad", 8, CustomCodec{}); !errors.Is(err, ErrInvalidType) {
		t.Errorf("TestRegistryErrors(nil codec): got %v, want ErrInvalidType", err)
	}
	if _, err := r.Register("ipv4", 32, ipv4Codec); err != nil {
		t.Fatalf("TestRegistryErrors(first register): %s", err)
	}
	if _, err := r.Register("ipv4", 32, ipv4Codec); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("TestRegistryErrors(duplicate): got %v, want ErrDuplicateName", err)
	}
}

func TestRegistryWidthMismatch(t *testing.T) {
	r := NewRegistry()
	// The codec produces more bits than the declared width, which is an
	// inconsistent type, not an overflow.
	lying, err := r.Register("lying", 4, CustomCodec{
		Encode: func(v any) (*big.Int, error) { return big.NewInt(0xff), nil },
		Decode: func(n *big.Int) (any, error) { return n.Uint64(), nil },
		JSON:   func(v any) (any, error) { return v.(uint64), nil },
	})
	if err != nil {
		t.Fatalf("TestRegistryWidthMismatch(Register): %s", err)
	}

	f := Bind(lying)
	if err := f.SetValue("anything"); !errors.Is(err, ErrInvalidType) {
		t.Errorf("TestRegistryWidthMismatch: got %v, want ErrInvalidType", err)
	}
}
