package parser

import (
	"context"
	"fmt"
	"sync"
)

// MockParser is a Parser that needs no model. By default every sentence becomes a flat tree
// (TOP (S (XX w1) (XX w2) ...)), which keeps leaf order and count intact.
type MockParser struct {
	// Err is the error to return (if any).
	Err error
	// PredictFunc replaces the default flat trees when set.
	PredictFunc func(sentences [][]string) ([]*Node, error)

	mu    sync.Mutex
	calls [][][]string
}

// NewMockParser creates a MockParser that returns flat trees.
func NewMockParser() *MockParser {
	return &MockParser{}
}

// NewMockParserWithError creates a MockParser that fails every prediction.
func NewMockParserWithError(err error) *MockParser {
	return &MockParser{Err: err}
}

// Predict records the call and returns one tree per sentence.
func (m *MockParser) Predict(ctx context.Context, sentences [][]string) ([]*Node, error) {
	m.mu.Lock()
	m.calls = append(m.calls, sentences)
	m.mu.Unlock()

	if m.Err != nil {
		return nil, m.Err
	}
	if m.PredictFunc != nil {
		return m.PredictFunc(sentences)
	}
	trees := make([]*Node, len(sentences))
	for i, words := range sentences {
		trees[i] = FlatTree(words)
	}
	return trees, nil
}

// Calls returns the batches passed to Predict, in call order.
func (m *MockParser) Calls() [][][]string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][][]string(nil), m.calls...)
}

// FlatTree builds (TOP (S (XX w1) (XX w2) ...)).
func FlatTree(words []string) *Node {
	pre := make([]*Node, len(words))
	for i, w := range words {
		pre[i] = NewInternal("XX", NewLeaf(w))
	}
	return NewInternal("TOP", NewInternal("S", pre...))
}

// MockLoader hands out parsers from a map keyed by model name.
type MockLoader struct {
	// Parsers maps model names to the parser returned for them.
	Parsers map[string]Parser
	// Err is the error to return (if any).
	Err error

	mu     sync.Mutex
	loaded []string
}

// NewMockLoader creates a loader that knows the English and Chinese models.
func NewMockLoader() *MockLoader {
	return &MockLoader{Parsers: map[string]Parser{
		ModelName("en"): NewMockParser(),
		ModelName("zh"): NewMockParser(),
	}}
}

// Load returns the parser registered for model.
func (l *MockLoader) Load(ctx context.Context, model string) (Parser, error) {
	l.mu.Lock()
	l.loaded = append(l.loaded, model)
	l.mu.Unlock()

	if l.Err != nil {
		return nil, l.Err
	}
	p, ok := l.Parsers[model]
	if !ok {
		return nil, fmt.Errorf("model not found: %s", model)
	}
	return p, nil
}

// Loaded returns the model names requested so far.
func (l *MockLoader) Loaded() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.loaded...)
}

// Ensure the mocks implement the parser interfaces.
var (
	_ Parser = (*MockParser)(nil)
	_ Loader = (*MockLoader)(nil)
)
