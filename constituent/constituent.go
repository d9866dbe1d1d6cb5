// Package constituent builds a navigable, offset-annotated constituent tree over a whole
// document from per-sentence parse results. The root is labeled DOC and has one child per
// sentence.
package constituent

import (
	"fmt"
	"strings"

	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/tree"
)

// RootLabel is the value of the document root.
const RootLabel = "DOC"

// Range is a half-open [Start, End) interval.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns End - Start.
func (r Range) Len() int {
	return r.End - r.Start
}

// Shift returns r moved by offset.
func (r Range) Shift(offset int) Range {
	return Range{Start: r.Start + offset, End: r.End + offset}
}

// Contains reports whether o lies within r.
func (r Range) Contains(o Range) bool {
	return o.Start >= r.Start && o.End <= r.End && o.Start <= o.End
}

// Constituent is a node of the document tree. Offsets are relative to the parent's start,
// in the same unit as the token offsets the tree was built from.
type Constituent struct {
	Parent *Constituent `json:"-"`
	// Level is the number of ancestors. The root has level 0.
	Level int `json:"level"`
	// Index is the position among the parent's children.
	Index  int    `json:"index"`
	Offset int    `json:"offset"`
	Length int    `json:"length"`
	Value  string `json:"value"`

	Children []*Constituent `json:"children,omitempty"`
}

// Build assembles the document tree. Leaves take their offsets from the sentence's tokens in
// order, so each tree must have exactly as many leaves as its result has tokens.
//
// A node with a single child is replaced by that child's children. When the child is a leaf
// the node also takes its value, so preterminals collapse into their word.
func Build(results []schema.Result) (*Constituent, error) {
	root := &Constituent{Value: RootLabel}
	start, end := 0, 0

	for i, r := range results {
		if r.Tree == nil {
			return nil, fmt.Errorf("sentence %d: missing tree", i)
		}
		b := &builder{tokens: r.Tokens}
		c, s, e, err := b.build(r.Tree)
		if err != nil {
			return nil, fmt.Errorf("sentence %d: %w", i, err)
		}
		if b.next != len(b.tokens) {
			return nil, fmt.Errorf("sentence %d: tree has %d leaves but %d tokens", i, b.next, len(b.tokens))
		}
		if i == 0 || s < start {
			start = s
		}
		if i == 0 || e > end {
			end = e
		}
		c.Offset = s
		root.Children = append(root.Children, c)
	}

	root.Offset = start
	root.Length = end - start
	for _, c := range root.Children {
		c.Offset -= start
	}
	link(root, nil, 0, 0)
	return root, nil
}

type builder struct {
	tokens []schema.Token
	next   int
}

// build returns the constituent for t with its absolute start and end. Children offsets are
// relative to that start; the caller sets the constituent's own offset.
func (b *builder) build(t tree.Tree) (*Constituent, int, int, error) {
	if t.IsLeaf() {
		if b.next >= len(b.tokens) {
			return nil, 0, 0, fmt.Errorf("tree has more leaves than the %d tokens", len(b.tokens))
		}
		tok := b.tokens[b.next]
		b.next++
		return &Constituent{Value: t.Label(), Length: tok.Len()}, tok.Start, tok.End, nil
	}

	kids := t.Children()
	if len(kids) == 0 {
		return nil, 0, 0, fmt.Errorf("node %q has no children", t.Label())
	}

	children := make([]*Constituent, len(kids))
	starts := make([]int, len(kids))
	start, end := 0, 0
	for i, k := range kids {
		c, s, e, err := b.build(k)
		if err != nil {
			return nil, 0, 0, err
		}
		children[i], starts[i] = c, s
		if i == 0 || s < start {
			start = s
		}
		if i == 0 || e > end {
			end = e
		}
	}
	for i, c := range children {
		c.Offset = starts[i] - start
	}

	value := t.Label()
	if len(children) == 1 {
		only := children[0]
		if only.IsLeaf() {
			value = only.Value
		}
		children = only.Children
	}

	return &Constituent{Value: value, Length: end - start, Children: children}, start, end, nil
}

// link sets parent pointers, levels and indices after unary collapsing moved nodes around.
func link(c, parent *Constituent, level, index int) {
	c.Parent = parent
	c.Level = level
	c.Index = index
	for i, child := range c.Children {
		link(child, c, level+1, i)
	}
}

// IsLeaf reports whether c has no children.
func (c *Constituent) IsLeaf() bool {
	return len(c.Children) == 0
}

// Range is c's extent relative to its parent's start.
func (c *Constituent) Range() Range {
	return Range{Start: c.Offset, End: c.Offset + c.Length}
}

// AbsoluteRange is c's extent in the document.
func (c *Constituent) AbsoluteRange() Range {
	if c.Parent == nil {
		return c.Range()
	}
	return c.Range().Shift(c.Parent.AbsoluteRange().Start)
}

// Height is 0 for a leaf and one more than the tallest child otherwise.
func (c *Constituent) Height() int {
	if c.IsLeaf() {
		return 0
	}
	h := 0
	for _, child := range c.Children {
		if ch := child.Height(); ch > h {
			h = ch
		}
	}
	return h + 1
}

// Root returns the document root.
func (c *Constituent) Root() *Constituent {
	for c.Parent != nil {
		c = c.Parent
	}
	return c
}

// Leaves returns the leaf constituents in document order.
func (c *Constituent) Leaves() []*Constituent {
	if c.IsLeaf() {
		return []*Constituent{c}
	}
	var out []*Constituent
	for _, child := range c.Children {
		out = append(out, child.Leaves()...)
	}
	return out
}

// Descendant returns the smallest constituent under c (or c itself) that contains r, where r
// is relative to c's parent, or nil if c does not contain r. On the root, r is a document range.
func (c *Constituent) Descendant(r Range) *Constituent {
	r = r.Shift(-c.Offset)
	if !(Range{End: c.Length}).Contains(r) {
		return nil
	}
	for _, child := range c.Children {
		if d := child.Descendant(r); d != nil {
			return d
		}
	}
	return c
}

// FindChild descends up to level branching steps towards a constituent containing r, where r is
// relative to c's start. Steps through single-child nodes do not count. It returns the
// constituent found and its offset from c, or nil if c does not contain r.
func (c *Constituent) FindChild(r Range, level int) (*Constituent, int) {
	if !(Range{End: c.Length}).Contains(r) {
		return nil, 0
	}
	if level > 0 {
		lower := level
		if len(c.Children) > 1 {
			lower = level - 1
		}
		for _, child := range c.Children {
			if found, off := child.FindChild(r.Shift(-child.Offset), lower); found != nil {
				return found, off + child.Offset
			}
		}
	}
	return c, 0
}

// LeftNeighbour returns the closest constituent left of c at c's level or above.
func (c *Constituent) LeftNeighbour() *Constituent {
	n := c.neighbour(-1)
	if n == nil {
		return nil
	}
	return n.slide(c.Level, false)
}

// RightNeighbour returns the closest constituent right of c at c's level or above.
func (c *Constituent) RightNeighbour() *Constituent {
	n := c.neighbour(1)
	if n == nil {
		return nil
	}
	return n.slide(c.Level, true)
}

// neighbour returns the sibling at index+step, climbing to ancestors at the edges.
func (c *Constituent) neighbour(step int) *Constituent {
	if c.Parent == nil {
		return nil
	}
	i := c.Index + step
	if i >= 0 && i < len(c.Parent.Children) {
		return c.Parent.Children[i]
	}
	return c.Parent.neighbour(step)
}

// slide walks down the first (or last) children until level is reached.
func (c *Constituent) slide(level int, first bool) *Constituent {
	node := c
	for node.Level < level && !node.IsLeaf() {
		if first {
			node = node.Children[0]
		} else {
			node = node.Children[len(node.Children)-1]
		}
	}
	return node
}

// String prints "(offset length Llevel value children...)".
func (c *Constituent) String() string {
	var sb strings.Builder
	c.writeTo(&sb)
	return sb.String()
}

func (c *Constituent) writeTo(sb *strings.Builder) {
	fmt.Fprintf(sb, "(%d %d L%d %s", c.Offset, c.Length, c.Level, c.Value)
	for _, child := range c.Children {
		sb.WriteByte(' ')
		child.writeTo(sb)
	}
	sb.WriteByte(')')
}
