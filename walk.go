package bitfield

import (
	"iter"

	"github.com/bearlytools/bitfield/internal/field"
)

// TokenKind represents the type of token in the walk stream.
type TokenKind uint8

const (
	TokenStructStart TokenKind = iota // Beginning of a struct
	TokenStructEnd                    // End of a struct
	TokenArrayStart                   // Beginning of an array
	TokenArrayEnd                     // End of an array
	TokenLeaf                         // A decoded leaf value
)

// Token represents a single event in the walk stream. Encoders such as
// bfjson consume the stream without walking the tree themselves.
type Token struct {
	// Kind is the type of token.
	Kind TokenKind
	// Name is the field name within the enclosing struct, or "" for array
	// elements and the root.
	Name string
	// Node is the field node the token was produced from.
	Node *Node
	// Value is the decoded leaf value (for TokenLeaf).
	Value any
	// Err reports a decode failure. The stream ends after an error token.
	Err error
}

// Walk yields the token stream for the field's subtree in declaration order.
// Leaf values are decoded from the bound cell as the walk reaches them.
func (f *Field) Walk() iter.Seq[Token] {
	return func(yield func(Token) bool) {
		walk(f.node, f, yield)
	}
}

func walk(n *Node, f *Field, yield func(Token) bool) bool {
	name := ""
	if n != f.node && n.parent != nil && n.parent.typ.kind == KindStruct {
		name = n.name
	}

	if field.IsCompound(n.typ.kind) {
		start, end := TokenArrayStart, TokenArrayEnd
		if n.typ.kind == KindStruct {
			start, end = TokenStructStart, TokenStructEnd
		}
		if !yield(Token{Kind: start, Name: name, Node: n}) {
			return false
		}
		for _, c := range n.children {
			if !walk(c, f, yield) {
				return false
			}
		}
		return yield(Token{Kind: end, Node: n})
	}

	v, err := decode(n, BindNode(n, f.cell).Raw())
	if err != nil {
		yield(Token{Kind: TokenLeaf, Name: name, Node: n, Err: err})
		return false
	}
	return yield(Token{Kind: TokenLeaf, Name: name, Node: n, Value: v})
}
