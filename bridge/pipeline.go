package bridge

import (
	"context"
	"fmt"

	"github.com/aqua777/go-treebridge/callbacks"
	"github.com/aqua777/go-treebridge/parser"
	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/textsplitter"
)

// Pipeline turns text into results with an already loaded parser.
type Pipeline interface {
	Parse(ctx context.Context, p parser.Parser, text string) ([]schema.Result, error)
}

// PipelineOption configures the built-in pipelines.
type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	splitter  textsplitter.SentenceSplitter
	tokenizer textsplitter.WordTokenizer
	callbacks *callbacks.Manager
}

// WithSentenceSplitter replaces the sentence splitter. The Chinese pipeline ignores it.
func WithSentenceSplitter(s textsplitter.SentenceSplitter) PipelineOption {
	return func(c *pipelineConfig) {
		c.splitter = s
	}
}

// WithWordTokenizer replaces the word tokenizer (English) or segmenter (Chinese).
func WithWordTokenizer(t textsplitter.WordTokenizer) PipelineOption {
	return func(c *pipelineConfig) {
		c.tokenizer = t
	}
}

// WithPipelineCallbacks reports pipeline stages to m.
func WithPipelineCallbacks(m *callbacks.Manager) PipelineOption {
	return func(c *pipelineConfig) {
		c.callbacks = m
	}
}

// EnglishPipeline splits text into Punkt sentences, tokenizes each the Treebank way and
// parses all sentences in one batch.
type EnglishPipeline struct {
	pipelineConfig
}

// NewEnglishPipeline creates the English pipeline. Without options it uses the bundled
// English Punkt model and a parenthesis-converting Treebank tokenizer.
func NewEnglishPipeline(opts ...PipelineOption) (*EnglishPipeline, error) {
	p := &EnglishPipeline{}
	for _, opt := range opts {
		opt(&p.pipelineConfig)
	}
	if p.splitter == nil {
		splitter, err := textsplitter.NewPunktSentenceSplitter(nil)
		if err != nil {
			return nil, err
		}
		p.splitter = splitter
	}
	if p.tokenizer == nil {
		p.tokenizer = textsplitter.NewTreebankWordTokenizer()
	}
	return p, nil
}

// Parse returns one result per sentence, in document order.
func (p *EnglishPipeline) Parse(ctx context.Context, prs parser.Parser, text string) ([]schema.Result, error) {
	cb := p.callbacks

	_, splitEvent := cb.Start(ctx, callbacks.EventSentenceSplit, nil)
	spans := p.splitter.SplitSpans(text)
	cb.End(splitEvent, map[string]any{string(callbacks.PayloadSentences): len(spans)}, nil)

	var (
		sentences [][]string
		tokens    [][]schema.Token
	)
	for _, span := range spans {
		_, tokEvent := cb.Start(ctx, callbacks.EventTokenize, map[string]any{string(callbacks.PayloadText): span.Text})
		words, err := p.tokenizer.TokenizeSpans(span.Text)
		if err != nil {
			err = fmt.Errorf("failed to tokenize sentence at offset %d: %w", span.Start, err)
			cb.End(tokEvent, nil, err)
			return nil, err
		}
		cb.End(tokEvent, map[string]any{string(callbacks.PayloadTokens): len(words)}, nil)

		if len(words) == 0 {
			continue
		}
		sentences = append(sentences, textsplitter.Texts(words))
		tokens = append(tokens, documentTokens(words, span.Start))
	}

	return predict(ctx, cb, prs, sentences, tokens)
}

// ChinesePipeline segments the whole text as one unit and parses it as a single sentence.
// Multi-sentence Chinese input therefore yields one tree.
type ChinesePipeline struct {
	pipelineConfig
}

// NewChinesePipeline creates the Chinese pipeline. Without options it loads gse's embedded dictionary.
func NewChinesePipeline(opts ...PipelineOption) (*ChinesePipeline, error) {
	p := &ChinesePipeline{}
	for _, opt := range opts {
		opt(&p.pipelineConfig)
	}
	if p.tokenizer == nil {
		seg, err := textsplitter.NewGSESegmenter()
		if err != nil {
			return nil, err
		}
		p.tokenizer = seg
	}
	return p, nil
}

// Parse returns a single result for any text containing a word, and none otherwise.
func (p *ChinesePipeline) Parse(ctx context.Context, prs parser.Parser, text string) ([]schema.Result, error) {
	cb := p.callbacks

	_, segEvent := cb.Start(ctx, callbacks.EventSegment, map[string]any{string(callbacks.PayloadText): text})
	words, err := p.tokenizer.TokenizeSpans(text)
	if err != nil {
		err = fmt.Errorf("failed to segment text: %w", err)
		cb.End(segEvent, nil, err)
		return nil, err
	}
	cb.End(segEvent, map[string]any{string(callbacks.PayloadTokens): len(words)}, nil)

	if len(words) == 0 {
		return []schema.Result{}, nil
	}
	return predict(ctx, cb, prs, [][]string{textsplitter.Texts(words)}, [][]schema.Token{documentTokens(words, 0)})
}

func documentTokens(words []textsplitter.Word, offset int) []schema.Token {
	out := make([]schema.Token, len(words))
	for i, w := range words {
		out[i] = schema.Token{Start: w.Start, End: w.End}.Shift(offset)
	}
	return out
}

// predict runs one batched parser call and zips the converted trees with their tokens.
func predict(ctx context.Context, cb *callbacks.Manager, prs parser.Parser, sentences [][]string, tokens [][]schema.Token) ([]schema.Result, error) {
	if len(sentences) == 0 {
		return []schema.Result{}, nil
	}

	_, predEvent := cb.Start(ctx, callbacks.EventPredict, map[string]any{string(callbacks.PayloadSentences): len(sentences)})
	nodes, err := prs.Predict(ctx, sentences)
	if err == nil && len(nodes) != len(sentences) {
		err = fmt.Errorf("%w: got %d, want %d", parser.ErrTreeCount, len(nodes), len(sentences))
	}
	if err != nil {
		err = fmt.Errorf("failed to parse %d sentences: %w", len(sentences), err)
		cb.End(predEvent, nil, err)
		return nil, err
	}
	cb.End(predEvent, map[string]any{string(callbacks.PayloadTrees): len(nodes)}, nil)

	_, convEvent := cb.Start(ctx, callbacks.EventConvert, nil)
	trees, err := parser.ToTrees(nodes)
	if err != nil {
		err = fmt.Errorf("failed to convert parser output: %w", err)
		cb.End(convEvent, nil, err)
		return nil, err
	}
	cb.End(convEvent, nil, nil)

	results := make([]schema.Result, len(trees))
	for i, t := range trees {
		results[i] = schema.Result{Tree: t, Tokens: tokens[i]}
	}
	return results, nil
}

// Ensure the built-in pipelines implement Pipeline.
var (
	_ Pipeline = (*EnglishPipeline)(nil)
	_ Pipeline = (*ChinesePipeline)(nil)
)
