// Package textsplitter cuts text into sentences and words while keeping track of where every piece came from.
package textsplitter

// Span is a piece of text together with its [Start, End) byte offsets in the text it was cut from.
type Span struct {
	Text  string
	Start int
	End   int
}

// Word is a token for the parser. Text is the form handed to the parser (for example
// "-LRB-" or "``"), while Start and End locate the surface form in the source text.
type Word struct {
	Text  string
	Start int
	End   int
}

// SentenceSplitter is the interface for sentence segmentation.
type SentenceSplitter interface {
	// SplitSpans returns the sentences of text in order, without surrounding whitespace.
	SplitSpans(text string) []Span
}

// WordTokenizer is the interface for word tokenization.
type WordTokenizer interface {
	// TokenizeSpans returns the words of text in order with offsets relative to text.
	TokenizeSpans(text string) ([]Word, error)
}

// Tokenizer encodes text into a list of string tokens.
type Tokenizer interface {
	Encode(text string) []string
}

// Texts returns the parser forms of words.
func Texts(words []Word) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = w.Text
	}
	return out
}
