package parser

import (
	"fmt"

	"github.com/aqua777/go-treebridge/tree"
)

// ToTree copies a parser tree into a tree.Tree of identical shape.
// Internal nodes must carry a label.
func ToTree(n *Node) (tree.Tree, error) {
	if n == nil {
		return nil, fmt.Errorf("parser: nil tree")
	}
	if n.IsLeaf() {
		return tree.Leaf(n.Label), nil
	}
	children := make([]tree.Tree, len(n.Children))
	for i, c := range n.Children {
		child, err := ToTree(c)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	node, err := tree.NewNode(n.Label, children...)
	if err != nil {
		return nil, fmt.Errorf("parser: %w", err)
	}
	return node, nil
}

// ToTrees converts a batch of parser trees, stopping at the first failure.
func ToTrees(nodes []*Node) ([]tree.Tree, error) {
	out := make([]tree.Tree, len(nodes))
	for i, n := range nodes {
		t, err := ToTree(n)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		out[i] = t
	}
	return out, nil
}

// FromTree is the inverse of ToTree.
func FromTree(t tree.Tree) *Node {
	if t.IsLeaf() {
		return NewLeaf(t.Label())
	}
	children := make([]*Node, len(t.Children()))
	for i, c := range t.Children() {
		children[i] = FromTree(c)
	}
	return NewInternal(t.Label(), children...)
}
