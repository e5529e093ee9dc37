// Package expr lifts navigation and comparison over bound bit fields into a
// symbolic expression tree, lowers the tree to a closed-form bitwise IR over
// a named raw-integer symbol, and renders the IR as portable source text.
//
// The pipeline is Symbolic -> Lowered -> Rendered; every transition is a pure
// function. References lower to (n >> offset) & mask; when a word width is
// requested the symbol becomes the subscripted n[k] with k = offset / width.
package expr

import (
	"math/big"

	"github.com/pkg/errors"

	"github.com/bearlytools/bitfield"
	"github.com/bearlytools/bitfield/internal/path"
)

//go:generate stringer -type=Op -linecomment

// Op identifies a unary or binary operator. The names are the operator's
// spelling in the rendered source form.
type Op uint8

const (
	OpAdd   Op = iota // +
	OpSub             // -
	OpMul             // *
	OpDiv             // /
	OpMod             // %
	OpShl             // <<
	OpShr             // >>
	OpAnd             // &
	OpOr              // |
	OpXor             // ^
	OpLT              // <
	OpLTEQ            // <=
	OpGT              // >
	OpGTEQ            // >=
	OpEQ              // ==
	OpNotEQ           // !=
	OpLAnd            // &&
	OpLOr             // ||
	OpNeg             // -
	OpBNot            // ~
	OpNot             // !
)

// Expr is a node in the symbolic expression tree.
type Expr interface {
	expr()
}

// Ref is a reference to a field node. Member and Index refine it.
type Ref struct {
	Node *bitfield.Node
}

// Const is an integer or string constant. String constants are only legal as
// the comparand of an enum reference, where they resolve to their code at
// build time.
type Const struct {
	Int   *big.Int
	Str   string
	IsStr bool
}

// Binop applies a binary operator to two subexpressions.
type Binop struct {
	Op   Op
	L, R Expr
}

// Unop applies a unary operator to a subexpression.
type Unop struct {
	Op Op
	X  Expr
}

func (Ref) expr()   {}
func (Const) expr() {}
func (Binop) expr() {}
func (Unop) expr()  {}

// Sym returns a reference expression for a bound field. The binding's data
// is not captured; only the field node's offset and width matter.
func Sym(f *bitfield.Field) Expr {
	return Ref{Node: f.Node()}
}

// NodeRef returns a reference expression for a field node.
func NodeRef(n *bitfield.Node) Expr {
	return Ref{Node: n}
}

// Int returns an integer constant.
func Int(v int64) Expr {
	return Const{Int: big.NewInt(v)}
}

// Uint returns an unsigned integer constant.
func Uint(v uint64) Expr {
	return Const{Int: new(big.Int).SetUint64(v)}
}

// Big returns an arbitrary-width integer constant.
func Big(v *big.Int) Expr {
	return Const{Int: new(big.Int).Set(v)}
}

// Str returns a string constant, usable only against enum references.
func Str(s string) Expr {
	return Const{Str: s, IsStr: true}
}

// Member refines a struct reference to one of its fields.
func Member(e Expr, name string) (Expr, error) {
	r, ok := e.(Ref)
	if !ok {
		return nil, errors.Wrapf(bitfield.ErrNoField, "member %q of non-reference expression", name)
	}
	c, ok := r.Node.Child(name)
	if !ok {
		return nil, errors.Wrapf(bitfield.ErrNoField, "%q has no field %q", r.Node.Path(), name)
	}
	return Ref{Node: c}, nil
}

// Index refines an array reference to one of its elements.
func Index(e Expr, i int) (Expr, error) {
	r, ok := e.(Ref)
	if !ok {
		return nil, errors.Wrap(bitfield.ErrNoField, "index of non-reference expression")
	}
	if r.Node.Type().Kind() != bitfield.KindArray {
		return nil, errors.Wrapf(bitfield.ErrNoField, "%q of type %s is not indexable", r.Node.Path(), r.Node.Type())
	}
	if i < 0 || i >= r.Node.NumChildren() {
		return nil, errors.Wrapf(bitfield.ErrRange, "index %d at %q, array length %d", i, r.Node.Path(), r.Node.NumChildren())
	}
	return Ref{Node: r.Node.ChildAt(i)}, nil
}

// Path refines a reference through a dotted path such as "knights[2].name".
func Path(e Expr, p string) (Expr, error) {
	segs, err := path.Parse(p)
	if err != nil {
		return nil, errors.Wrapf(bitfield.ErrNoField, "path %q: %v", p, err)
	}
	out := e
	for _, seg := range segs {
		if seg.IsIndex {
			out, err = Index(out, seg.Index)
		} else {
			out, err = Member(out, seg.Name)
		}
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Arithmetic and bitwise builders.

func Add(l, r Expr) Expr { return Binop{Op: OpAdd, L: l, R: r} }
func Sub(l, r Expr) Expr { return Binop{Op: OpSub, L: l, R: r} }
func Mul(l, r Expr) Expr { return Binop{Op: OpMul, L: l, R: r} }
func Div(l, r Expr) Expr { return Binop{Op: OpDiv, L: l, R: r} }
func Mod(l, r Expr) Expr { return Binop{Op: OpMod, L: l, R: r} }
func Shl(l, r Expr) Expr { return Binop{Op: OpShl, L: l, R: r} }
func Shr(l, r Expr) Expr { return Binop{Op: OpShr, L: l, R: r} }
func And(l, r Expr) Expr { return Binop{Op: OpAnd, L: l, R: r} }
func Or(l, r Expr) Expr  { return Binop{Op: OpOr, L: l, R: r} }
func Xor(l, r Expr) Expr { return Binop{Op: OpXor, L: l, R: r} }

// Logical builders. Operands are truthy when nonzero.

func LAnd(l, r Expr) Expr { return Binop{Op: OpLAnd, L: l, R: r} }
func LOr(l, r Expr) Expr  { return Binop{Op: OpLOr, L: l, R: r} }

// Unary builders.

func Neg(x Expr) Expr  { return Unop{Op: OpNeg, X: x} }
func BNot(x Expr) Expr { return Unop{Op: OpBNot, X: x} }
func Not(x Expr) Expr  { return Unop{Op: OpNot, X: x} }

// Comparison builders. A string constant compared against an enum reference
// resolves to its integer code here, at build time, so rendered expressions
// are always label free.

func Eq(l, r Expr) (Expr, error) { return compare(OpEQ, l, r) }
func Ne(l, r Expr) (Expr, error) { return compare(OpNotEQ, l, r) }
func Lt(l, r Expr) (Expr, error) { return compare(OpLT, l, r) }
func Le(l, r Expr) (Expr, error) { return compare(OpLTEQ, l, r) }
func Gt(l, r Expr) (Expr, error) { return compare(OpGT, l, r) }
func Ge(l, r Expr) (Expr, error) { return compare(OpGTEQ, l, r) }

func compare(op Op, l, r Expr) (Expr, error) {
	var err error
	if l, err = resolveLabel(l, r); err != nil {
		return nil, err
	}
	if r, err = resolveLabel(r, l); err != nil {
		return nil, err
	}
	return Binop{Op: op, L: l, R: r}, nil
}

// resolveLabel converts a string constant to its enum code using the enum
// table of the other side's reference.
func resolveLabel(e, other Expr) (Expr, error) {
	c, ok := e.(Const)
	if !ok || !c.IsStr {
		return e, nil
	}
	r, ok := other.(Ref)
	if !ok || r.Node.Type().Kind() != bitfield.KindEnum {
		return nil, errors.Wrapf(bitfield.ErrInvalidType, "string constant %q compared to a non-enum expression", c.Str)
	}
	code, ok := r.Node.Type().Enum().Code(c.Str)
	if !ok {
		return nil, errors.Wrapf(bitfield.ErrUnknownLabel, "label %q at %q", c.Str, r.Node.Path())
	}
	return Const{Int: new(big.Int).SetUint64(code)}, nil
}
