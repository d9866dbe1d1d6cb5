package textsplitter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// trimSpan narrows [start, end) of text so it neither starts nor ends with whitespace.
// ok is false when nothing but whitespace is left.
func trimSpan(text string, start, end int) (int, int, bool) {
	for start < end {
		r, size := utf8.DecodeRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		start += size
	}
	for end > start {
		r, size := utf8.DecodeLastRuneInString(text[start:end])
		if !unicode.IsSpace(r) {
			break
		}
		end -= size
	}
	return start, end, start < end
}

// SpansByRegex returns a function that yields every match of regexStr as a span.
func SpansByRegex(regexStr string) func(string) []Span {
	// Panics on an invalid pattern; the patterns are configuration, not input.
	re := regexp.MustCompile(regexStr)
	return func(text string) []Span {
		var spans []Span
		for _, loc := range re.FindAllStringIndex(text, -1) {
			start, end, ok := trimSpan(text, loc[0], loc[1])
			if !ok {
				continue
			}
			spans = append(spans, Span{Text: text[start:end], Start: start, End: end})
		}
		return spans
	}
}

// isBlank reports whether s consists only of whitespace.
func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
