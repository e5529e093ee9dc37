package expr

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield"
)

// IR is a node in the lowered bitwise form. The only leaves are integer
// literals and the raw-record symbol, so an IR is directly translatable.
type IR interface {
	ir()
}

// SymIR is the raw-record symbol: n, or n[k] when lowering was word-indexed.
type SymIR struct {
	Word    int
	Indexed bool
}

// IntIR is an integer literal. Hex selects the rendered base; masks and sign
// bits render in hex, offsets and resolved codes in decimal.
type IntIR struct {
	V   *big.Int
	Hex bool
}

// BinIR applies a binary operator.
type BinIR struct {
	Op   Op
	L, R IR
}

// UnIR applies a unary operator.
type UnIR struct {
	Op Op
	X  IR
}

func (SymIR) ir() {}
func (IntIR) ir() {}
func (BinIR) ir() {}
func (UnIR) ir()  {}

type lowerOpts struct {
	wordWidth int
}

// LowerOption configures Lower.
type LowerOption func(lowerOpts) (lowerOpts, error)

// WithWordWidth switches lowering from the unbounded symbol n to an array of
// fixed-width words n[k], where k = offset / width and the effective offset
// becomes offset % width.
func WithWordWidth(w int) LowerOption {
	return func(o lowerOpts) (lowerOpts, error) {
		if w <= 0 {
			return o, errors.Wrapf(bitfield.ErrInvalidWidth, "word width %d", w)
		}
		o.wordWidth = w
		return o, nil
	}
}

// Lower reduces a symbolic expression to the bitwise IR. Every field
// reference becomes (n >> offset) & mask, signed references gain the
// two's-complement adjustment ((v ^ s) - s), and string constants must have
// been resolved during construction.
func Lower(e Expr, options ...LowerOption) (IR, error) {
	opts := lowerOpts{}
	for _, opt := range options {
		var err error
		opts, err = opt(opts)
		if err != nil {
			return nil, err
		}
	}
	return lower(e, opts)
}

func lower(e Expr, opts lowerOpts) (IR, error) {
	switch v := e.(type) {
	case Ref:
		return lowerRef(v.Node, opts.wordWidth)
	case Const:
		if v.IsStr {
			return nil, errors.Wrapf(bitfield.ErrInvalidType, "string constant %q was not resolved against an enum", v.Str)
		}
		return IntIR{V: new(big.Int).Set(v.Int)}, nil
	case Binop:
		l, err := lower(v.L, opts)
		if err != nil {
			return nil, err
		}
		r, err := lower(v.R, opts)
		if err != nil {
			return nil, err
		}
		return BinIR{Op: v.Op, L: l, R: r}, nil
	case Unop:
		x, err := lower(v.X, opts)
		if err != nil {
			return nil, err
		}
		return UnIR{Op: v.Op, X: x}, nil
	}
	return nil, errors.Wrapf(bitfield.ErrInvalidType, "unknown expression node %T", e)
}

func lowerRef(n *bitfield.Node, wordWidth int) (IR, error) {
	o, w := n.Offset(), n.Width()
	mask := new(big.Int).Lsh(big.NewInt(1), uint(w))
	mask.Sub(mask, big.NewInt(1))

	var v IR
	switch {
	case wordWidth == 0:
		v = shiftAnd(SymIR{}, o, mask)
	case w > wordWidth:
		return nil, errors.Wrapf(bitfield.ErrInvalidType, "field %q is %d bits, wider than the %d bit word", n.Path(), w, wordWidth)
	default:
		j, k := o/wordWidth, o%wordWidth
		if k+w <= wordWidth {
			v = shiftAnd(SymIR{Word: j, Indexed: true}, k, mask)
		} else {
			// The window straddles two words: OR the high bits of word j
			// with the low bits of word j+1, then mask.
			lo := shift(SymIR{Word: j, Indexed: true}, OpShr, k)
			hi := shift(SymIR{Word: j + 1, Indexed: true}, OpShl, wordWidth-k)
			v = BinIR{Op: OpAnd, L: BinIR{Op: OpOr, L: lo, R: hi}, R: IntIR{V: mask, Hex: true}}
		}
	}

	switch n.Type().Kind() {
	case bitfield.KindSint, bitfield.KindFixed:
		sign := new(big.Int).Lsh(big.NewInt(1), uint(w-1))
		v = BinIR{
			Op: OpSub,
			L:  BinIR{Op: OpXor, L: v, R: IntIR{V: sign, Hex: true}},
			R:  IntIR{V: new(big.Int).Set(sign), Hex: true},
		}
	}
	return v, nil
}

func shiftAnd(sym IR, off int, mask *big.Int) IR {
	return BinIR{Op: OpAnd, L: shift(sym, OpShr, off), R: IntIR{V: mask, Hex: true}}
}

func shift(sym IR, op Op, count int) IR {
	if count == 0 {
		return sym
	}
	return BinIR{Op: op, L: sym, R: IntIR{V: big.NewInt(int64(count))}}
}
