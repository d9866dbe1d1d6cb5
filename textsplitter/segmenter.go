package textsplitter

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"github.com/go-ego/gse"
)

// GSESegmenter segments Chinese text into words with go-ego/gse's dictionary segmenter.
// It is safe for concurrent use once constructed.
type GSESegmenter struct {
	seg *gse.Segmenter
}

// NewGSESegmenter loads the dictionary embedded in gse. Loading takes a moment, so
// construct one segmenter and share it.
func NewGSESegmenter() (*GSESegmenter, error) {
	seg := &gse.Segmenter{SkipLog: true}
	if err := seg.LoadDictEmbed(); err != nil {
		return nil, fmt.Errorf("failed to load gse dictionary: %w", err)
	}
	return &GSESegmenter{seg: seg}, nil
}

// NewGSESegmenterFromFiles loads user dictionaries from files instead of the embedded one.
func NewGSESegmenterFromFiles(files ...string) (*GSESegmenter, error) {
	seg := &gse.Segmenter{SkipLog: true}
	if err := seg.LoadDict(files...); err != nil {
		return nil, fmt.Errorf("failed to load gse dictionary %v: %w", files, err)
	}
	return &GSESegmenter{seg: seg}, nil
}

// TokenizeSpans returns the dictionary words of text. Whitespace-only segments are dropped.
func (s *GSESegmenter) TokenizeSpans(text string) ([]Word, error) {
	segments := s.seg.Segment([]byte(text))
	words := make([]Word, 0, len(segments))
	for _, sg := range segments {
		start, end := sg.Start(), sg.End()
		if start < 0 || end > len(text) || start >= end {
			return nil, fmt.Errorf("gse returned invalid segment [%d, %d) for text of length %d", start, end, len(text))
		}
		surface := text[start:end]
		if isBlank(surface) {
			continue
		}
		words = append(words, Word{Text: surface, Start: start, End: end})
	}
	return words, nil
}

// CharSegmenter treats every non-space character as a word. It needs no dictionary and
// is a fallback when dictionary segmentation does not suit the parser model.
type CharSegmenter struct{}

func NewCharSegmenter() *CharSegmenter {
	return &CharSegmenter{}
}

// TokenizeSpans returns one word per non-space rune.
func (s *CharSegmenter) TokenizeSpans(text string) ([]Word, error) {
	var words []Word
	for i := 0; i < len(text); {
		r, size := utf8.DecodeRuneInString(text[i:])
		if !unicode.IsSpace(r) {
			words = append(words, Word{Text: text[i : i+size], Start: i, End: i + size})
		}
		i += size
	}
	return words, nil
}

// Ensure both segmenters implement WordTokenizer.
var (
	_ WordTokenizer = (*GSESegmenter)(nil)
	_ WordTokenizer = (*CharSegmenter)(nil)
)
