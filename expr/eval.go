package expr

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield"
)

// Eval evaluates a lowered IR against concrete raw data. words[k] supplies
// n[k] for word-indexed IR; words[0] supplies the unbounded symbol n.
// Comparison and logical operators yield 0 or 1.
func Eval(ir IR, words ...*big.Int) (*big.Int, error) {
	switch v := ir.(type) {
	case SymIR:
		i := 0
		if v.Indexed {
			i = v.Word
		}
		if i >= len(words) {
			return nil, errors.Wrapf(bitfield.ErrRange, "eval needs word %d, have %d words", i, len(words))
		}
		return new(big.Int).Set(words[i]), nil
	case IntIR:
		return new(big.Int).Set(v.V), nil
	case BinIR:
		l, err := Eval(v.L, words...)
		if err != nil {
			return nil, err
		}
		r, err := Eval(v.R, words...)
		if err != nil {
			return nil, err
		}
		return evalBin(v.Op, l, r)
	case UnIR:
		x, err := Eval(v.X, words...)
		if err != nil {
			return nil, err
		}
		switch v.Op {
		case OpNeg:
			return new(big.Int).Neg(x), nil
		case OpBNot:
			return new(big.Int).Not(x), nil
		case OpNot:
			return boolInt(x.Sign() == 0), nil
		}
		return nil, errors.Wrapf(bitfield.ErrInvalidType, "unary op %s", v.Op)
	}
	return nil, errors.Wrapf(bitfield.ErrInvalidType, "unknown IR node %T", ir)
}

func evalBin(op Op, l, r *big.Int) (*big.Int, error) {
	switch op {
	case OpAdd:
		return new(big.Int).Add(l, r), nil
	case OpSub:
		return new(big.Int).Sub(l, r), nil
	case OpMul:
		return new(big.Int).Mul(l, r), nil
	case OpDiv:
		if r.Sign() == 0 {
			return nil, errors.New("division by zero")
		}
		return new(big.Int).Quo(l, r), nil
	case OpMod:
		if r.Sign() == 0 {
			return nil, errors.New("division by zero")
		}
		return new(big.Int).Rem(l, r), nil
	case OpShl, OpShr:
		if r.Sign() < 0 || !r.IsUint64() || r.Uint64() > 1<<20 {
			return nil, errors.Errorf("bad shift count %s", r)
		}
		if op == OpShl {
			return new(big.Int).Lsh(l, uint(r.Uint64())), nil
		}
		return new(big.Int).Rsh(l, uint(r.Uint64())), nil
	case OpAnd:
		return new(big.Int).And(l, r), nil
	case OpOr:
		return new(big.Int).Or(l, r), nil
	case OpXor:
		return new(big.Int).Xor(l, r), nil
	case OpLT:
		return boolInt(l.Cmp(r) < 0), nil
	case OpLTEQ:
		return boolInt(l.Cmp(r) <= 0), nil
	case OpGT:
		return boolInt(l.Cmp(r) > 0), nil
	case OpGTEQ:
		return boolInt(l.Cmp(r) >= 0), nil
	case OpEQ:
		return boolInt(l.Cmp(r) == 0), nil
	case OpNotEQ:
		return boolInt(l.Cmp(r) != 0), nil
	case OpLAnd:
		return boolInt(l.Sign() != 0 && r.Sign() != 0), nil
	case OpLOr:
		return boolInt(l.Sign() != 0 || r.Sign() != 0), nil
	}
	return nil, errors.Errorf("binary op %s", op)
}

func boolInt(b bool) *big.Int {
	if b {
		return big.NewInt(1)
	}
	return big.NewInt(0)
}
