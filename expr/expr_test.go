package expr

import (
	"math/big"
	"testing"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield"
)

// mustT unwraps a type constructor result inside tests.
func mustT(t testing.TB) func(ty *bitfield.Type, err error) *bitfield.Type {
	return func(ty *bitfield.Type, err error) *bitfield.Type {
		t.Helper()
		if err != nil {
			t.Fatalf("type construction: %s", err)
		}
		return ty
	}
}

// mustE unwraps an expression builder result inside tests.
func mustE(t testing.TB) func(e Expr, err error) Expr {
	return func(e Expr, err error) Expr {
		t.Helper()
		if err != nil {
			t.Fatalf("expression construction: %s", err)
		}
		return e
	}
}

// fooType builds struct([("hdr", uint(5)), ("page", uint(6)[4])]).
func fooType(t testing.TB) *bitfield.Type {
	return mustT(t)(bitfield.StructOf([]bitfield.StructField{
		{Name: "hdr", Type: mustT(t)(bitfield.Uint(5))},
		{Name: "page", Type: mustT(t)(mustT(t)(bitfield.Uint(6)).Array(4))},
	}))
}

func TestLowerRender(t *testing.T) {
	foo := bitfield.Bind(fooType(t))

	page2 := mustE(t)(Path(Sym(foo), "page[2]"))
	cmp := mustE(t)(Eq(page2, Int(42)))

	ir, err := Lower(cmp)
	if err != nil {
		t.Fatalf("TestLowerRender(Lower): %s", err)
	}
	got := Render(ir)
	want := "(((n >> 17) & 0x3f) == 42)"
	if got != want {
		t.Errorf("TestLowerRender: got %q, want %q", got, want)
	}
}

func TestLowerRenderAgreesWithTree(t *testing.T) {
	ty := fooType(t)
	foo := bitfield.Bind(ty)

	page2 := mustE(t)(Path(Sym(foo), "page[2]"))
	cmp := mustE(t)(Eq(page2, Int(42)))
	ir, err := Lower(cmp)
	if err != nil {
		t.Fatalf("TestLowerRenderAgreesWithTree(Lower): %s", err)
	}

	// Sweep a deterministic sample of the 29 bit raw domain plus the
	// boundary values, comparing the lowered form against the field tree.
	limit := new(big.Int).Lsh(big.NewInt(1), uint(ty.Width()))
	samples := []*big.Int{big.NewInt(0), new(big.Int).Sub(limit, big.NewInt(1))}
	for n := int64(1); n < 1<<29; n = n*3 + 7 {
		samples = append(samples, big.NewInt(n))
	}

	for _, raw := range samples {
		got, err := Eval(ir, raw)
		if err != nil {
			t.Fatalf("TestLowerRenderAgreesWithTree(Eval %s): %s", raw, err)
		}

		f, err := bitfield.BindRaw(ty, raw)
		if err != nil {
			t.Fatalf("TestLowerRenderAgreesWithTree(BindRaw %s): %s", raw, err)
		}
		p2, err := f.Get("page[2]")
		if err != nil {
			t.Fatalf("TestLowerRenderAgreesWithTree(Get): %s", err)
		}
		want := int64(0)
		if p2.EqualValue(42) {
			want = 1
		}
		if got.Int64() != want {
			t.Errorf("TestLowerRenderAgreesWithTree(raw %s): got %d, want %d", raw, got.Int64(), want)
		}
	}
}

func TestLowerSigned(t *testing.T) {
	ty := mustT(t)(bitfield.StructOf([]bitfield.StructField{
		{Name: "temp", Type: mustT(t)(bitfield.Sint(4))},
	}))
	f := bitfield.Bind(ty)

	temp := mustE(t)(Member(Sym(f), "temp"))
	ir, err := Lower(temp)
	if err != nil {
		t.Fatalf("TestLowerSigned(Lower): %s", err)
	}
	got := Render(ir)
	want := "(((n & 0xf) ^ 0x8) - 0x8)"
	if got != want {
		t.Errorf("TestLowerSigned(render): got %q, want %q", got, want)
	}

	// The adjustment reproduces two's-complement decoding for every raw value.
	for n := int64(0); n < 16; n++ {
		v, err := Eval(ir, big.NewInt(n))
		if err != nil {
			t.Fatalf("TestLowerSigned(Eval %d): %s", n, err)
		}
		want := n
		if n >= 8 {
			want = n - 16
		}
		if v.Int64() != want {
			t.Errorf("TestLowerSigned(%d): got %d, want %d", n, v.Int64(), want)
		}
	}
}

func TestLowerArithmetic(t *testing.T) {
	ty := mustT(t)(bitfield.StructOf([]bitfield.StructField{
		{Name: "a", Type: mustT(t)(bitfield.Uint(3))},
		{Name: "b", Type: mustT(t)(bitfield.Uint(4))},
	}))
	f := bitfield.Bind(ty)

	a := mustE(t)(Member(Sym(f), "a"))
	b := mustE(t)(Member(Sym(f), "b"))
	ir, err := Lower(Mul(a, b))
	if err != nil {
		t.Fatalf("TestLowerArithmetic(Lower): %s", err)
	}

	got := Render(ir)
	want := "((n & 0x7) * ((n >> 3) & 0xf))"
	if got != want {
		t.Errorf("TestLowerArithmetic(render): got %q, want %q", got, want)
	}

	// a = 5, b = 11 gives 55.
	raw := big.NewInt(5 | 11<<3)
	v, err := Eval(ir, raw)
	if err != nil {
		t.Fatalf("TestLowerArithmetic(Eval): %s", err)
	}
	if v.Int64() != 55 {
		t.Errorf("TestLowerArithmetic(eval): got %d, want 55", v.Int64())
	}
}

func TestLowerWordIndexed(t *testing.T) {
	foo := bitfield.Bind(fooType(t))

	page2 := mustE(t)(Path(Sym(foo), "page[2]"))
	ir, err := Lower(page2, WithWordWidth(16))
	if err != nil {
		t.Fatalf("TestLowerWordIndexed(Lower): %s", err)
	}
	got := Render(ir)
	want := "((n[1] >> 1) & 0x3f)"
	if got != want {
		t.Errorf("TestLowerWordIndexed(render): got %q, want %q", got, want)
	}
}

func TestLowerWordStraddle(t *testing.T) {
	ty := mustT(t)(bitfield.StructOf([]bitfield.StructField{
		{Name: "a", Type: mustT(t)(bitfield.Uint(12))},
		{Name: "b", Type: mustT(t)(bitfield.Uint(8))},
	}))
	f := bitfield.Bind(ty)

	b := mustE(t)(Member(Sym(f), "b"))
	ir, err := Lower(b, WithWordWidth(16))
	if err != nil {
		t.Fatalf("TestLowerWordStraddle(Lower): %s", err)
	}
	got := Render(ir)
	want := "(((n[0] >> 12) | (n[1] << 4)) & 0xff)"
	if got != want {
		t.Errorf("TestLowerWordStraddle(render): got %q, want %q", got, want)
	}

	// Splitting the raw record into 16 bit words gives the same field value
	// as reading the unbounded record.
	for n := int64(0); n < 1<<20; n += 9973 {
		words := []*big.Int{big.NewInt(n & 0xffff), big.NewInt(n >> 16)}
		v, err := Eval(ir, words...)
		if err != nil {
			t.Fatalf("TestLowerWordStraddle(Eval %d): %s", n, err)
		}
		if want := (n >> 12) & 0xff; v.Int64() != want {
			t.Errorf("TestLowerWordStraddle(%d): got %d, want %d", n, v.Int64(), want)
		}
	}

	// A field wider than the word cannot be expressed.
	wide := mustT(t)(bitfield.StructOf([]bitfield.StructField{
		{Name: "w", Type: mustT(t)(bitfield.Uint(20))},
	}))
	wf := bitfield.Bind(wide)
	w := mustE(t)(Member(Sym(wf), "w"))
	if _, err := Lower(w, WithWordWidth(16)); !errors.Is(err, bitfield.ErrInvalidType) {
		t.Errorf("TestLowerWordStraddle(too wide): got %v, want ErrInvalidType", err)
	}
}

func TestEnumLabelResolution(t *testing.T) {
	ty := mustT(t)(bitfield.StructOf([]bitfield.StructField{
		{Name: "status", Type: mustT(t)(bitfield.UintEnum(2, bitfield.Enum{"dead": 0, "pining": 1, "resting": 2}))},
	}))
	f := bitfield.Bind(ty)
	status := mustE(t)(Member(Sym(f), "status"))

	// A known label collapses to an integer equality at build time.
	cmp, err := Eq(status, Str("resting"))
	if err != nil {
		t.Fatalf("TestEnumLabelResolution(Eq): %s", err)
	}
	ir, err := Lower(cmp)
	if err != nil {
		t.Fatalf("TestEnumLabelResolution(Lower): %s", err)
	}
	if got, want := Render(ir), "((n & 0x3) == 2)"; got != want {
		t.Errorf("TestEnumLabelResolution(render): got %q, want %q", got, want)
	}

	// Unknown labels fail at build time, not at render.
	if _, err := Eq(status, Str("ex")); !errors.Is(err, bitfield.ErrUnknownLabel) {
		t.Errorf("TestEnumLabelResolution(unknown): got %v, want ErrUnknownLabel", err)
	}

	// Labels against non-enum expressions are invalid.
	if _, err := Eq(Int(1), Str("resting")); !errors.Is(err, bitfield.ErrInvalidType) {
		t.Errorf("TestEnumLabelResolution(non-enum): got %v, want ErrInvalidType", err)
	}

	// An unresolved string constant cannot be lowered.
	if _, err := Lower(Str("resting")); !errors.Is(err, bitfield.ErrInvalidType) {
		t.Errorf("TestEnumLabelResolution(lower string): got %v, want ErrInvalidType", err)
	}
}

func TestMemberIndexErrors(t *testing.T) {
	foo := bitfield.Bind(fooType(t))

	if _, err := Member(Sym(foo), "nope"); !errors.Is(err, bitfield.ErrNoField) {
		t.Errorf("TestMemberIndexErrors(member): got %v, want ErrNoField", err)
	}
	page := mustE(t)(Member(Sym(foo), "page"))
	if _, err := Index(page, 4); !errors.Is(err, bitfield.ErrRange) {
		t.Errorf("TestMemberIndexErrors(index): got %v, want ErrRange", err)
	}
	hdr := mustE(t)(Member(Sym(foo), "hdr"))
	if _, err := Index(hdr, 0); !errors.Is(err, bitfield.ErrNoField) {
		t.Errorf("TestMemberIndexErrors(index leaf): got %v, want ErrNoField", err)
	}
	if _, err := Member(Int(3), "x"); !errors.Is(err, bitfield.ErrNoField) {
		t.Errorf("TestMemberIndexErrors(member const): got %v, want ErrNoField", err)
	}
}

func TestLogicalAndUnary(t *testing.T) {
	foo := bitfield.Bind(fooType(t))
	hdr := mustE(t)(Member(Sym(foo), "hdr"))

	gt, err := Gt(hdr, Int(3))
	if err != nil {
		t.Fatalf("TestLogicalAndUnary(Gt): %s", err)
	}
	lt, err := Lt(hdr, Int(30))
	if err != nil {
		t.Fatalf("TestLogicalAndUnary(Lt): %s", err)
	}
	ir, err := Lower(LAnd(gt, lt))
	if err != nil {
		t.Fatalf("TestLogicalAndUnary(Lower): %s", err)
	}
	want := "(((n & 0x1f) > 3) && ((n & 0x1f) < 30))"
	if got := Render(ir); got != want {
		t.Errorf("TestLogicalAndUnary(render): got %q, want %q", got, want)
	}

	for _, n := range []int64{0, 3, 4, 29, 30, 31} {
		v, err := Eval(ir, big.NewInt(n))
		if err != nil {
			t.Fatalf("TestLogicalAndUnary(Eval %d): %s", n, err)
		}
		want := int64(0)
		if n > 3 && n < 30 {
			want = 1
		}
		if v.Int64() != want {
			t.Errorf("TestLogicalAndUnary(%d): got %d, want %d", n, v.Int64(), want)
		}
	}

	nir, err := Lower(Not(gt))
	if err != nil {
		t.Fatalf("TestLogicalAndUnary(Lower Not): %s", err)
	}
	if got, want := Render(nir), "!((n & 0x1f) > 3)"; got != want {
		t.Errorf("TestLogicalAndUnary(render Not): got %q, want %q", got, want)
	}
}
