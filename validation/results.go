package validation

import (
	"fmt"
	"unicode/utf8"

	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/tree"
)

// DefaultLimit caps the errors reported for one document.
const DefaultLimit = 10

// ValidateResults checks byte-offset results for text: every tree has as many leaves as its
// sentence has tokens, and tokens are non-empty, in bounds, on rune boundaries and strictly
// increasing across the whole document.
func ValidateResults(text string, results []schema.Result) error {
	v := NewValidator(DefaultLimit)
	prevEnd := 0

	for i, r := range results {
		field := fmt.Sprintf("results[%d]", i)
		if r.Tree == nil {
			v.AddError(field+".tree", "must not be nil", nil)
			continue
		}
		if n := len(tree.Leaves(r.Tree)); n != len(r.Tokens) {
			v.AddError(field+".tree", fmt.Sprintf("has %d leaves for %d tokens", n, len(r.Tokens)), nil)
		}

		for j, tok := range r.Tokens {
			tf := fmt.Sprintf("%s.tokens[%d]", field, j)
			if tok.Start < 0 || tok.End > len(text) {
				v.AddError(tf, fmt.Sprintf("out of bounds for text of %d bytes", len(text)), tok)
				continue
			}
			v.Require(tok.Start < tok.End, tf, "must not be empty", tok)
			v.Require(tok.Start >= prevEnd, tf, "overlaps or precedes the previous token", tok)
			v.Require(onBoundary(text, tok.Start) && onBoundary(text, tok.End), tf, "splits a UTF-8 sequence", tok)
			prevEnd = tok.End
		}
	}
	return v.Error()
}

func onBoundary(text string, i int) bool {
	return i == len(text) || utf8.RuneStart(text[i])
}
