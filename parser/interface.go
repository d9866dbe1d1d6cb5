// Package parser is the boundary to the external constituency parser: loading pretrained
// models, batched inference, and conversion of the parser's trees into tree.Tree.
package parser

import (
	"context"
	"errors"
	"fmt"
)

// ModelPrefix is prepended to a language code to name its pretrained model, e.g. "crf-con-en".
const ModelPrefix = "crf-con-"

// ErrTreeCount is returned when a parser answers with a different number of trees than sentences.
var ErrTreeCount = errors.New("parser returned a different number of trees than sentences")

// ModelName returns the pretrained model name for a language code.
func ModelName(lang string) string {
	return ModelPrefix + lang
}

// Parser predicts constituency trees for pre-tokenized sentences.
type Parser interface {
	// Predict parses every sentence in one batch. The result has one tree per sentence,
	// in the same order, and the leaves of each tree are that sentence's words.
	Predict(ctx context.Context, sentences [][]string) ([]*Node, error)
}

// Loader loads a pretrained parser model by name.
type Loader interface {
	Load(ctx context.Context, model string) (Parser, error)
}

// LoaderFunc adapts a function to the Loader interface.
type LoaderFunc func(ctx context.Context, model string) (Parser, error)

// Load calls f.
func (f LoaderFunc) Load(ctx context.Context, model string) (Parser, error) {
	return f(ctx, model)
}

// checkCount verifies that a response carries one tree per sentence.
func checkCount(trees []*Node, sentences [][]string) error {
	if len(trees) != len(sentences) {
		return fmt.Errorf("%w: got %d, want %d", ErrTreeCount, len(trees), len(sentences))
	}
	return nil
}
