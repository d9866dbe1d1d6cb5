package tree

import (
	"fmt"
	"strings"
)

// ParseBracketed reads a tree in Penn Treebank bracketed form, e.g. "(S (NP (DT The) (NN cat)) (. .))".
// A preterminal such as (DT The) becomes a Node with one Leaf child.
func ParseBracketed(s string) (Tree, error) {
	p := &bracketParser{src: s}
	p.skipSpace()
	if p.pos >= len(p.src) {
		return nil, fmt.Errorf("tree: empty input")
	}
	t, err := p.parseTree()
	if err != nil {
		return nil, err
	}
	p.skipSpace()
	if p.pos != len(p.src) {
		return nil, fmt.Errorf("tree: unexpected trailing input at offset %d", p.pos)
	}
	return t, nil
}

type bracketParser struct {
	src string
	pos int
}

func (p *bracketParser) skipSpace() {
	for p.pos < len(p.src) && isSpace(p.src[p.pos]) {
		p.pos++
	}
}

func (p *bracketParser) parseTree() (Tree, error) {
	if p.src[p.pos] != '(' {
		atom := p.readAtom()
		if atom == "" {
			return nil, fmt.Errorf("tree: expected token at offset %d", p.pos)
		}
		return Leaf(atom), nil
	}
	open := p.pos
	p.pos++
	p.skipSpace()

	label := p.readAtom()
	if label == "" {
		// nltk writes an unlabeled outer bracket as "( (S ...))"
		return nil, fmt.Errorf("tree: node at offset %d: %w", open, ErrEmptyLabel)
	}

	var children []Tree
	for {
		p.skipSpace()
		if p.pos >= len(p.src) {
			return nil, fmt.Errorf("tree: unbalanced parenthesis opened at offset %d", open)
		}
		if p.src[p.pos] == ')' {
			p.pos++
			break
		}
		child, err := p.parseTree()
		if err != nil {
			return nil, err
		}
		children = append(children, child)
	}
	return &Node{label: label, children: children}, nil
}

func (p *bracketParser) readAtom() string {
	start := p.pos
	for p.pos < len(p.src) {
		c := p.src[p.pos]
		if c == '(' || c == ')' || isSpace(c) {
			break
		}
		p.pos++
	}
	return strings.Clone(p.src[start:p.pos])
}

// isSpace only matches ASCII whitespace so multi-byte UTF-8 tokens are never split.
func isSpace(c byte) bool {
	switch c {
	case ' ', '\t', '\n', '\r', '\f', '\v':
		return true
	}
	return false
}
