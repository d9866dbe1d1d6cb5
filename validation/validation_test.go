package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/tree"
)

func flat(words ...string) tree.Tree {
	pre := make([]tree.Tree, len(words))
	for i, w := range words {
		pre[i] = tree.MustNode("XX", tree.Leaf(w))
	}
	return tree.MustNode("TOP", tree.MustNode("S", pre...))
}

func TestValidateResults(t *testing.T) {
	text := "The cat sat. 我爱"

	tests := []struct {
		name    string
		results []schema.Result
		wantErr string
	}{
		{
			name: "valid",
			results: []schema.Result{
				{Tree: flat("The", "cat", "sat", "."), Tokens: []schema.Token{{Start: 0, End: 3}, {Start: 4, End: 7}, {Start: 8, End: 11}, {Start: 11, End: 12}}},
				{Tree: flat("我", "爱"), Tokens: []schema.Token{{Start: 13, End: 16}, {Start: 16, End: 19}}},
			},
		},
		{
			name:    "no results",
			results: nil,
		},
		{
			name:    "leaf count",
			results: []schema.Result{{Tree: flat("The", "cat"), Tokens: []schema.Token{{Start: 0, End: 3}}}},
			wantErr: "has 2 leaves for 1 tokens",
		},
		{
			name:    "out of bounds",
			results: []schema.Result{{Tree: flat("x"), Tokens: []schema.Token{{Start: 18, End: 40}}}},
			wantErr: "out of bounds",
		},
		{
			name:    "empty token",
			results: []schema.Result{{Tree: flat("x"), Tokens: []schema.Token{{Start: 3, End: 3}}}},
			wantErr: "must not be empty",
		},
		{
			name: "overlap across sentences",
			results: []schema.Result{
				{Tree: flat("The", "cat"), Tokens: []schema.Token{{Start: 0, End: 3}, {Start: 4, End: 7}}},
				{Tree: flat("cat"), Tokens: []schema.Token{{Start: 4, End: 7}}},
			},
			wantErr: "results[1].tokens[0]: overlaps",
		},
		{
			name:    "rune boundary",
			results: []schema.Result{{Tree: flat("x"), Tokens: []schema.Token{{Start: 14, End: 16}}}},
			wantErr: "splits a UTF-8 sequence",
		},
		{
			name:    "nil tree",
			results: []schema.Result{{Tokens: []schema.Token{{Start: 0, End: 3}}}},
			wantErr: "results[0].tree: must not be nil",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateResults(text, tt.results)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)

			var verrs ValidationErrors
			assert.True(t, errors.As(err, &verrs))
		})
	}
}

func TestValidatorLimit(t *testing.T) {
	v := NewValidator(2)
	for i := 0; i < 5; i++ {
		v.AddError("field", "bad", i)
	}
	assert.Len(t, v.Errors(), 2)

	v = NewValidator(0)
	assert.NoError(t, v.Error())
	v.Require(false, "f", "must hold", nil)
	assert.EqualError(t, v.Error(), "validation failed: f: must hold")
}
