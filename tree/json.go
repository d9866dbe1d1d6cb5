package tree

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// jsonTree is the serialized shape of both variants. Leaves carry an empty children list,
// which is the form hosts of the bridge decode.
type jsonTree struct {
	Label    string            `json:"label"`
	Children []json.RawMessage `json:"children"`
}

// MarshalJSON encodes the node as {"label": ..., "children": [...]}.
func (n *Node) MarshalJSON() ([]byte, error) {
	children := make([]json.RawMessage, len(n.children))
	for i, c := range n.children {
		b, err := json.Marshal(c)
		if err != nil {
			return nil, err
		}
		children[i] = b
	}
	return json.Marshal(jsonTree{Label: n.label, Children: children})
}

// MarshalJSON encodes the leaf as {"label": token, "children": []}.
func (l Leaf) MarshalJSON() ([]byte, error) {
	return json.Marshal(jsonTree{Label: string(l), Children: []json.RawMessage{}})
}

// Decode reads a tree written by MarshalJSON. A bare JSON string is also accepted as a leaf.
func Decode(data []byte) (Tree, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, fmt.Errorf("tree: empty JSON")
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, fmt.Errorf("failed to decode leaf: %w", err)
		}
		return Leaf(s), nil
	}

	var raw jsonTree
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode tree: %w", err)
	}
	if len(raw.Children) == 0 {
		return Leaf(raw.Label), nil
	}
	if raw.Label == "" {
		return nil, ErrEmptyLabel
	}

	children := make([]Tree, len(raw.Children))
	for i, c := range raw.Children {
		child, err := Decode(c)
		if err != nil {
			return nil, err
		}
		children[i] = child
	}
	return &Node{label: raw.Label, children: children}, nil
}
