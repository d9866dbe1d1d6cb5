package textsplitter

import (
	"fmt"
	"os"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
)

// DefaultSentenceRegex cuts after runs of sentence-final punctuation, including CJK full-width forms.
const DefaultSentenceRegex = `[^.!?。？！]+[.!?。？！]*|[.!?。？！]+`

// RegexSentenceSplitter uses a regex for sentence splitting.
type RegexSentenceSplitter struct {
	split func(string) []Span
}

// NewRegexSentenceSplitter creates a regex splitter. An empty regexStr selects DefaultSentenceRegex.
func NewRegexSentenceSplitter(regexStr string) *RegexSentenceSplitter {
	if regexStr == "" {
		regexStr = DefaultSentenceRegex
	}
	return &RegexSentenceSplitter{split: SpansByRegex(regexStr)}
}

// SplitSpans returns the regex matches of text as sentences.
func (s *RegexSentenceSplitter) SplitSpans(text string) []Span {
	return s.split(text)
}

// PunktSentenceSplitter uses the Punkt algorithm from neurosnap/sentences.
type PunktSentenceSplitter struct {
	tokenizer *sentences.DefaultSentenceTokenizer
}

// NewPunktSentenceSplitter creates a splitter from Punkt JSON training data.
// If trainingData is empty, it uses the English model bundled with neurosnap/sentences.
func NewPunktSentenceSplitter(trainingData []byte) (*PunktSentenceSplitter, error) {
	if len(trainingData) == 0 {
		tokenizer, err := english.NewSentenceTokenizer(nil)
		if err != nil {
			return nil, fmt.Errorf("failed to load english training data: %w", err)
		}
		return &PunktSentenceSplitter{tokenizer: tokenizer}, nil
	}

	storage, err := sentences.LoadTraining(trainingData)
	if err != nil {
		return nil, fmt.Errorf("failed to load training data: %w", err)
	}
	return &PunktSentenceSplitter{tokenizer: sentences.NewSentenceTokenizer(storage)}, nil
}

// NewPunktSentenceSplitterFromFile creates a splitter by reading training data from a file.
func NewPunktSentenceSplitterFromFile(path string) (*PunktSentenceSplitter, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read training data from %s: %w", path, err)
	}
	return NewPunktSentenceSplitter(b)
}

// SplitSpans returns the Punkt sentences of text with document offsets.
func (s *PunktSentenceSplitter) SplitSpans(text string) []Span {
	sents := s.tokenizer.Tokenize(text)
	spans := make([]Span, 0, len(sents))
	for _, sent := range sents {
		// punkt sentences keep the whitespace that preceded them
		start, end := clamp(sent.Start, 0, len(text)), clamp(sent.End, 0, len(text))
		start, end, ok := trimSpan(text, start, end)
		if !ok {
			continue
		}
		spans = append(spans, Span{Text: text[start:end], Start: start, End: end})
	}
	return spans
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Ensure both splitters implement SentenceSplitter.
var (
	_ SentenceSplitter = (*RegexSentenceSplitter)(nil)
	_ SentenceSplitter = (*PunktSentenceSplitter)(nil)
)
