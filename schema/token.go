// Package schema defines the values the bridge hands to its host: token spans and per-sentence results.
package schema

import (
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/aqua777/go-treebridge/tree"
)

// Token is a half-open [Start, End) offset interval into the source text.
type Token struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Len returns the span width.
func (t Token) Len() int {
	return t.End - t.Start
}

// Shift returns the span moved by offset.
func (t Token) Shift(offset int) Token {
	return Token{Start: t.Start + offset, End: t.End + offset}
}

// Text returns the surface form of the token in text. Offsets are byte offsets.
func (t Token) Text(text string) string {
	return text[t.Start:t.End]
}

// String formats the span as "start--end".
func (t Token) String() string {
	return fmt.Sprintf("%d--%d", t.Start, t.End)
}

// Result is the parse of one sentence: its tree and its tokens in document coordinates.
type Result struct {
	Tree   tree.Tree `json:"tree"`
	Tokens []Token   `json:"tokens"`
}

// UnmarshalJSON restores the interface-typed Tree field.
func (r *Result) UnmarshalJSON(data []byte) error {
	var raw struct {
		Tree   json.RawMessage `json:"tree"`
		Tokens []Token         `json:"tokens"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	t, err := tree.Decode(raw.Tree)
	if err != nil {
		return err
	}
	r.Tree = t
	r.Tokens = raw.Tokens
	return nil
}

// OffsetUnit selects how token offsets count positions in the text.
type OffsetUnit string

const (
	// OffsetBytes counts UTF-8 bytes. This is what the pipelines produce.
	OffsetBytes OffsetUnit = "byte"
	// OffsetRunes counts Unicode code points.
	OffsetRunes OffsetUnit = "rune"
)

// ParseOffsetUnit validates an offset unit name. The empty string selects OffsetBytes.
func ParseOffsetUnit(s string) (OffsetUnit, error) {
	switch OffsetUnit(s) {
	case "", OffsetBytes:
		return OffsetBytes, nil
	case OffsetRunes:
		return OffsetRunes, nil
	}
	return "", fmt.Errorf("unknown offset unit %q", s)
}

// ToRuneOffsets returns a copy of results whose token spans count code points instead of bytes.
// Trees are shared with the input.
func ToRuneOffsets(text string, results []Result) []Result {
	// byte offset -> rune offset, including the end-of-text position
	index := make(map[int]int, utf8.RuneCountInString(text)+1)
	n := 0
	for i := range text {
		index[i] = n
		n++
	}
	index[len(text)] = n

	out := make([]Result, len(results))
	for i, r := range results {
		tokens := make([]Token, len(r.Tokens))
		for j, tok := range r.Tokens {
			tokens[j] = Token{Start: index[tok.Start], End: index[tok.End]}
		}
		out[i] = Result{Tree: r.Tree, Tokens: tokens}
	}
	return out
}

// Convert returns results with offsets in the requested unit.
func Convert(text string, results []Result, unit OffsetUnit) []Result {
	if unit == OffsetRunes {
		return ToRuneOffsets(text, results)
	}
	return results
}
