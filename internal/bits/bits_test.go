package bits

import (
	"math/big"
	"testing"
)

func TestMask64(t *testing.T) {
	tests := []struct {
		start, end uint64
		want       uint64
	}{
		{0, 1, 0x1},
		{0, 8, 0xff},
		{4, 8, 0xf0},
		{17, 24, 0xfe0000},
		{0, 64, 0xffffffffffffffff},
	}

	for _, test := range tests {
		got := Mask64(test.start, test.end)
		if got != test.want {
			t.Errorf("TestMask64(%d, %d): got %#x, want %#x", test.start, test.end, got, test.want)
		}
	}
}

func TestWindow(t *testing.T) {
	tests := []struct {
		desc  string
		raw   *big.Int
		off   uint
		width uint
		want  int64
	}{
		{desc: "low window", raw: big.NewInt(0b1_0101010101010_01011), off: 0, width: 5, want: 0b01011},
		{desc: "high window", raw: big.NewInt(0b1010101010101_01011), off: 5, width: 13, want: 0b1010101010101},
		{desc: "middle of three", raw: big.NewInt((42 << 14) | (7 << 7) | 3), off: 7, width: 7, want: 7},
		{desc: "window past bit length", raw: big.NewInt(3), off: 10, width: 4, want: 0},
	}

	for _, test := range tests {
		got := Window(test.raw, test.off, test.width)
		if got.Int64() != test.want {
			t.Errorf("TestWindow(%s): got %d, want %d", test.desc, got.Int64(), test.want)
		}
	}
}

func TestWindowWide(t *testing.T) {
	// A 100 bit raw value exercises the big.Int path.
	raw := new(big.Int).Lsh(big.NewInt(0x3f), 90)
	raw.Or(raw, big.NewInt(0b101))

	got := Window(raw, 90, 6)
	if got.Int64() != 0x3f {
		t.Errorf("TestWindowWide(high): got %d, want %d", got.Int64(), 0x3f)
	}
	got = Window(raw, 0, 3)
	if got.Int64() != 0b101 {
		t.Errorf("TestWindowWide(low): got %d, want %d", got.Int64(), 0b101)
	}
}

func TestSetWindow(t *testing.T) {
	tests := []struct {
		desc  string
		raw   int64
		off   uint
		width uint
		val   int64
		want  int64
	}{
		{desc: "set into zero", raw: 0, off: 5, width: 13, val: 5461, want: 5461 << 5},
		{desc: "clear existing bits", raw: 0b11111 | (5461 << 5), off: 0, width: 5, val: 0, want: 5461 << 5},
		{desc: "overwrite middle", raw: (42 << 14) | (7 << 7) | 3, off: 7, width: 7, val: 99, want: (42 << 14) | (99 << 7) | 3},
		{desc: "value truncated to width", raw: 0, off: 0, width: 4, val: 0xff, want: 0xf},
	}

	for _, test := range tests {
		raw := big.NewInt(test.raw)
		got := SetWindow(raw, test.off, test.width, big.NewInt(test.val))
		if got.Int64() != test.want {
			t.Errorf("TestSetWindow(%s): got %#x, want %#x", test.desc, got.Int64(), test.want)
		}
		if raw.Int64() != test.raw {
			t.Errorf("TestSetWindow(%s): input raw was modified", test.desc)
		}
	}
}

func TestSetWindowWide(t *testing.T) {
	// A 100 bit raw value exercises the big.Int path; the fast path above is
	// covered by TestSetWindow.
	raw := new(big.Int).Lsh(big.NewInt(0x3f), 90)
	raw.Or(raw, big.NewInt(0b101))

	got := SetWindow(raw, 90, 6, big.NewInt(0x2a))
	if w := Window(got, 90, 6); w.Int64() != 0x2a {
		t.Errorf("TestSetWindowWide(high window): got %#x, want 0x2a", w.Int64())
	}
	if w := Window(got, 0, 3); w.Int64() != 0b101 {
		t.Errorf("TestSetWindowWide(low bits disturbed): got %#b, want 0b101", w.Int64())
	}

	// A write into a word-sized window of a wide raw must also take the
	// big.Int path and leave the high bits alone.
	got = SetWindow(raw, 0, 3, big.NewInt(0b010))
	if w := Window(got, 0, 3); w.Int64() != 0b010 {
		t.Errorf("TestSetWindowWide(low window): got %#b, want 0b010", w.Int64())
	}
	if w := Window(got, 90, 6); w.Int64() != 0x3f {
		t.Errorf("TestSetWindowWide(high bits disturbed): got %#x, want 0x3f", w.Int64())
	}
}

func TestSignExtend(t *testing.T) {
	tests := []struct {
		v     int64
		width uint
		want  int64
	}{
		{0b1111, 4, -1},
		{0b1000, 4, -8},
		{0b0111, 4, 7},
		{0, 4, 0},
	}

	for _, test := range tests {
		got := SignExtend(big.NewInt(test.v), test.width)
		if got.Int64() != test.want {
			t.Errorf("TestSignExtend(%#b, %d): got %d, want %d", test.v, test.width, got.Int64(), test.want)
		}
	}
}

func TestFitsSigned(t *testing.T) {
	tests := []struct {
		v     int64
		width uint
		want  bool
	}{
		{-8, 4, true},
		{7, 4, true},
		{8, 4, false},
		{-9, 4, false},
	}

	for _, test := range tests {
		got := FitsSigned(big.NewInt(test.v), test.width)
		if got != test.want {
			t.Errorf("TestFitsSigned(%d, %d): got %v, want %v", test.v, test.width, got, test.want)
		}
	}
}

func TestWrapSigned(t *testing.T) {
	tests := []struct {
		v     int64
		width uint
		want  int64
	}{
		{-1, 4, 0b1111},
		{-8, 4, 0b1000},
		{7, 4, 0b0111},
	}

	for _, test := range tests {
		got := WrapSigned(big.NewInt(test.v), test.width)
		if got.Int64() != test.want {
			t.Errorf("TestWrapSigned(%d, %d): got %#b, want %#b", test.v, test.width, got.Int64(), test.want)
		}
	}
}
