// Package tree provides the labeled constituency tree produced by the bridge.
package tree

import (
	"errors"
	"strings"
)

// ErrEmptyLabel is returned when an internal node would carry an empty label.
var ErrEmptyLabel = errors.New("tree: internal node has an empty label")

// Tree is either an internal *Node or a Leaf.
type Tree interface {
	// Label returns the node label, or the token text for a leaf.
	Label() string
	// Children returns the ordered children. Leaves have none.
	Children() []Tree
	// IsLeaf reports whether the tree is a leaf.
	IsLeaf() bool
	// String returns the parenthesized prefix notation.
	String() string

	writeTo(sb *strings.Builder)
}

// Leaf is a terminal token.
type Leaf string

// Label returns the token text.
func (l Leaf) Label() string { return string(l) }

// Children always returns nil for a leaf.
func (l Leaf) Children() []Tree { return nil }

// IsLeaf returns true.
func (l Leaf) IsLeaf() bool { return true }

// String returns the bare token text.
func (l Leaf) String() string { return string(l) }

func (l Leaf) writeTo(sb *strings.Builder) {
	sb.WriteString(string(l))
}

// Node is an internal constituent with a syntactic category label.
type Node struct {
	label    string
	children []Tree
}

// NewNode creates an internal node. The label must be non-empty.
func NewNode(label string, children ...Tree) (*Node, error) {
	if label == "" {
		return nil, ErrEmptyLabel
	}
	return &Node{label: label, children: children}, nil
}

// MustNode is like NewNode but panics on an empty label. Intended for literals in tests and fixtures.
func MustNode(label string, children ...Tree) *Node {
	n, err := NewNode(label, children...)
	if err != nil {
		panic(err)
	}
	return n
}

// Label returns the syntactic category.
func (n *Node) Label() string { return n.label }

// Children returns the ordered children.
func (n *Node) Children() []Tree { return n.children }

// IsLeaf returns false.
func (n *Node) IsLeaf() bool { return false }

// String returns the tree as (LABEL child child ...).
func (n *Node) String() string {
	var sb strings.Builder
	n.writeTo(&sb)
	return sb.String()
}

func (n *Node) writeTo(sb *strings.Builder) {
	sb.WriteByte('(')
	sb.WriteString(n.label)
	for _, c := range n.children {
		sb.WriteByte(' ')
		c.writeTo(sb)
	}
	sb.WriteByte(')')
}

// Ensure both variants implement Tree.
var (
	_ Tree = Leaf("")
	_ Tree = (*Node)(nil)
)

// Leaves returns the leaf tokens in left-to-right order.
func Leaves(t Tree) []string {
	var out []string
	Walk(t, func(sub Tree) bool {
		if sub.IsLeaf() {
			out = append(out, sub.Label())
		}
		return true
	})
	return out
}

// Walk visits t and its descendants depth-first, pre-order.
// Returning false from fn skips the children of the visited tree.
func Walk(t Tree, fn func(Tree) bool) {
	if t == nil {
		return
	}
	if !fn(t) {
		return
	}
	for _, c := range t.Children() {
		Walk(c, fn)
	}
}

// Height returns the number of edges on the longest root-to-leaf path.
func Height(t Tree) int {
	h := 0
	for _, c := range t.Children() {
		if ch := Height(c) + 1; ch > h {
			h = ch
		}
	}
	return h
}

// Equal reports whether two trees have identical labels and shape.
func Equal(a, b Tree) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.IsLeaf() != b.IsLeaf() || a.Label() != b.Label() {
		return false
	}
	ac, bc := a.Children(), b.Children()
	if len(ac) != len(bc) {
		return false
	}
	for i := range ac {
		if !Equal(ac[i], bc[i]) {
			return false
		}
	}
	return true
}
