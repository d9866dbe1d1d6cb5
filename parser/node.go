package parser

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/aqua777/go-treebridge/tree"
)

// Node is the parser's native tree: an internal node with a label and ordered children,
// or a leaf whose label is the token and which has no children.
type Node struct {
	Label    string  `json:"label"`
	Children []*Node `json:"children"`
}

// NewLeaf creates a leaf node.
func NewLeaf(token string) *Node {
	return &Node{Label: token}
}

// NewInternal creates an internal node.
func NewInternal(label string, children ...*Node) *Node {
	return &Node{Label: label, Children: children}
}

// IsLeaf reports whether n has no children.
func (n *Node) IsLeaf() bool {
	return len(n.Children) == 0
}

// UnmarshalJSON accepts both {"label": ..., "children": [...]} and a bare string leaf.
func (n *Node) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Node{Label: s}
		return nil
	}
	type plain Node
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*n = Node(p)
	return nil
}

// decodeTree reads one predicted tree. A JSON object is a native node; a JSON string is a
// tree in bracketed form, which is how nltk-backed parsers print their output.
func decodeTree(raw json.RawMessage) (*Node, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("failed to decode bracketed tree: %w", err)
		}
		t, err := tree.ParseBracketed(s)
		if err != nil {
			return nil, err
		}
		return FromTree(t), nil
	}
	var n Node
	if err := json.Unmarshal(raw, &n); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	return &n, nil
}

func decodeTrees(raws []json.RawMessage) ([]*Node, error) {
	nodes := make([]*Node, len(raws))
	for i, raw := range raws {
		n, err := decodeTree(raw)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		nodes[i] = n
	}
	return nodes, nil
}

// predictRequest is the body sent to HTTP and command parsers.
type predictRequest struct {
	Op        string     `json:"op,omitempty"`
	Model     string     `json:"model"`
	Sentences [][]string `json:"sentences,omitempty"`
}

// predictResponse is the body a parser answers with. Error is only used by command parsers,
// which cannot signal failure through an HTTP status.
type predictResponse struct {
	Trees []json.RawMessage `json:"trees"`
	Error string            `json:"error,omitempty"`
}

const (
	opLoad    = "load"
	opPredict = "predict"
)
