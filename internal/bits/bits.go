// Package bits provides the shift-and kernel used to project bit windows in and
// out of an unbounded raw integer. A window is described by its absolute bit
// offset and width. Windows that end within bit 64 of a raw value that itself
// fits in 64 bits take a uint64 fast path.
package bits

import (
	"math/big"

	"golang.org/x/exp/constraints"
)

// SetValue stores "val" in unsigned number "store" starting at bit "start" and
// ending at bit "end" (exclusive). If start >= end, this panics.
func SetValue[I, U constraints.Unsigned](val I, store U, start, end uint64) U {
	if start >= end {
		panic("start cannot be >= end")
	}

	c := U(val) << start

	return store | c
}

// GetValue retrieves a value we stored with SetValue. store is the unsigned
// number we stored the value in. bitMask is the mask to apply to retrieve the
// value. start tells us the starting position we stored in (we need to shift
// the number this many bits).
func GetValue[U, U1 constraints.Unsigned](store U, bitMask U, start uint64) U1 {
	return U1((store & bitMask) >> start)
}

// Mask64 creates a mask with bits [start, end) set. Index starts at 0, so
// Mask64(1, 4) includes bits at locations 1 to 3. If start >= end or
// end > 64, this panics.
func Mask64(start, end uint64) uint64 {
	if start >= end {
		panic("start cannot be >= end")
	}
	if end > 64 {
		panic("end cannot be > 64 for a 64 bit mask")
	}
	var r uint64
	for x := start; x < end; x++ {
		r |= uint64(1) << x
	}
	return r
}

var one = big.NewInt(1)

// Mask returns (1<<width)-1 as a new big.Int.
func Mask(width uint) *big.Int {
	m := new(big.Int).Lsh(one, width)
	return m.Sub(m, one)
}

// Window extracts (raw >> off) & ((1<<width)-1) as a new big.Int.
func Window(raw *big.Int, off, width uint) *big.Int {
	if fastOK(raw, off, width) {
		w := raw.Uint64()
		return new(big.Int).SetUint64(GetValue[uint64, uint64](w, Mask64(uint64(off), uint64(off+width)), uint64(off)))
	}
	v := new(big.Int).Rsh(raw, off)
	return v.And(v, Mask(width))
}

// SetWindow returns a new raw with the window at [off, off+width) cleared and
// replaced by val's low width bits: (raw &^ (mask<<off)) | ((val&mask) << off).
// raw is not modified.
func SetWindow(raw *big.Int, off, width uint, val *big.Int) *big.Int {
	if fastOK(raw, off, width) && val.Sign() >= 0 && val.IsUint64() {
		cleared := raw.Uint64() &^ Mask64(uint64(off), uint64(off+width))
		vm := val.Uint64() & Mask64(0, uint64(width))
		return new(big.Int).SetUint64(SetValue(vm, cleared, uint64(off), uint64(off+width)))
	}

	mask := Mask(width)
	v := new(big.Int).And(val, mask)
	v.Lsh(v, off)

	hole := mask.Lsh(mask, off)
	out := new(big.Int).AndNot(raw, hole)
	return out.Or(out, v)
}

// SignExtend interprets v (a width-bit unsigned window value) as a
// two's-complement signed integer and returns it. v is not modified.
func SignExtend(v *big.Int, width uint) *big.Int {
	if width == 0 || v.Bit(int(width-1)) == 0 {
		return new(big.Int).Set(v)
	}
	m := new(big.Int).Lsh(one, width)
	return new(big.Int).Sub(v, m)
}

// Fits reports whether v can be stored in an unsigned window of the given
// width. Negative values never fit.
func Fits(v *big.Int, width uint) bool {
	if v.Sign() < 0 {
		return false
	}
	return uint(v.BitLen()) <= width
}

// FitsSigned reports whether v fits a two's-complement signed window of the
// given width: -2^(width-1) <= v < 2^(width-1).
func FitsSigned(v *big.Int, width uint) bool {
	if width == 0 {
		return false
	}
	limit := new(big.Int).Lsh(one, width-1)
	if v.Sign() < 0 {
		return new(big.Int).Neg(limit).Cmp(v) <= 0
	}
	return v.Cmp(limit) < 0
}

// WrapSigned converts a signed value to its two's-complement window
// representation of the given width. The caller must check FitsSigned first.
func WrapSigned(v *big.Int, width uint) *big.Int {
	if v.Sign() >= 0 {
		return new(big.Int).Set(v)
	}
	m := new(big.Int).Lsh(one, width)
	return m.Add(m, v)
}

// fastOK reports whether the window read can run on native uint64 math.
func fastOK(raw *big.Int, off, width uint) bool {
	return raw.Sign() >= 0 && raw.BitLen() <= 64 && off+width <= 64 && width > 0
}
