package bitfield

import (
	"fmt"
)

// Node is a named, offset-annotated instantiation of a Type inside an
// interface. Nodes are immutable once Instantiate returns.
type Node struct {
	name string
	path string
	typ  *Type

	// offset is the absolute bit offset from interface bit 0. Bit 0 of the
	// raw integer is the low-order bit of the first declared field.
	offset int
	width  int

	parent   *Node
	children []*Node
	byName   map[string]int
}

// Instantiate builds the field tree for a type. The root node sits at
// offset 0 and spans the full width of the type.
func Instantiate(t *Type) *Node {
	return build(t, "", "", nil, 0)
}

func build(t *Type, name, path string, parent *Node, offset int) *Node {
	n := &Node{
		name:   name,
		path:   path,
		typ:    t,
		offset: offset,
		width:  t.width,
		parent: parent,
	}

	switch t.kind {
	case KindStruct:
		n.children = make([]*Node, len(t.fields))
		n.byName = make(map[string]int, len(t.fields))
		z := offset
		for i, f := range t.fields {
			n.children[i] = build(f.Type, f.Name, joinPath(path, f.Name), n, z)
			n.byName[f.Name] = i
			z += f.Type.width
		}
	case KindArray:
		n.children = make([]*Node, t.length)
		for i := 0; i < t.length; i++ {
			n.children[i] = build(t.elem, fmt.Sprintf("%d", i), fmt.Sprintf("%s[%d]", path, i), n, offset+i*t.elem.width)
		}
	}
	return n
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// Name returns the node's field name. The root node has an empty name.
func (n *Node) Name() string { return n.name }

// Path returns the dotted path of the node from the interface root.
func (n *Node) Path() string { return n.path }

// Type returns the type descriptor shared by this node.
func (n *Node) Type() *Type { return n.typ }

// Offset returns the absolute bit offset from interface bit 0.
func (n *Node) Offset() int { return n.offset }

// Width returns the node's width in bits.
func (n *Node) Width() int { return n.width }

// Parent returns the parent node, or nil for the root.
func (n *Node) Parent() *Node { return n.parent }

// NumChildren reports the number of child nodes.
func (n *Node) NumChildren() int { return len(n.children) }

// ChildAt returns the ith child node. For structs the order is declaration
// order; for arrays it is element order. It panics if out of bounds.
func (n *Node) ChildAt(i int) *Node { return n.children[i] }

// Child returns the struct child with the given name.
func (n *Node) Child(name string) (*Node, bool) {
	i, ok := n.byName[name]
	if !ok {
		return nil, false
	}
	return n.children[i], true
}
