package textsplitter

import (
	"fmt"
	"regexp"
	"strings"
)

// SimpleTokenizer tokenizes text by splitting on whitespace.
type SimpleTokenizer struct{}

func NewSimpleTokenizer() *SimpleTokenizer {
	return &SimpleTokenizer{}
}

func (t *SimpleTokenizer) Encode(text string) []string {
	return strings.Fields(text)
}

// TokenizeSpans returns the whitespace-separated fields of text with their offsets.
func (t *SimpleTokenizer) TokenizeSpans(text string) ([]Word, error) {
	var words []Word
	start := -1
	for i, r := range text {
		space := r == ' ' || r == '\t' || r == '\n' || r == '\r' || r == '\f' || r == '\v'
		switch {
		case space && start >= 0:
			words = append(words, Word{Text: text[start:i], Start: start, End: i})
			start = -1
		case !space && start < 0:
			start = i
		}
	}
	if start >= 0 {
		words = append(words, Word{Text: text[start:], Start: start, End: len(text)})
	}
	return words, nil
}

type rewrite struct {
	re   *regexp.Regexp
	repl string
}

func rw(pattern, repl string) rewrite {
	return rewrite{re: regexp.MustCompile(pattern), repl: repl}
}

func apply(text string, rules []rewrite) string {
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.repl)
	}
	return text
}

// Penn Treebank tokenization rules, applied in order.
var (
	startingQuotes = []rewrite{
		rw(`^"`, "``"),
		rw("(``)", " ${1} "),
		rw(`([ (\[{<])("|'{2})`, "${1} `` "),
	}

	punctuation = []rewrite{
		rw(`([:,])([^\d])`, " ${1} ${2}"),
		rw(`([:,])$`, " ${1} "),
		rw(`\.\.\.`, " ... "),
		rw(`[;@#$%&]`, " ${0} "),
		rw(`([^.])(\.)([\])}>"']*)\s*$`, "${1} ${2}${3} "),
		rw(`[?!]`, " ${0} "),
		rw(`([^'])' `, "${1} ' "),
	}

	parensBrackets = rw(`[\]\[(){}<>]`, " ${0} ")

	doubleDashes = rw(`--`, " -- ")

	endingQuotes = []rewrite{
		rw(`''`, " '' "),
		rw(`"`, " '' "),
		rw(`([^' ])('[sS]|'[mM]|'[dD]|') `, "${1} ${2} "),
		rw(`([^' ])('ll|'LL|'re|'RE|'ve|'VE|n't|N'T) `, "${1} ${2} "),
	}

	contractions = []rewrite{
		rw(`(?i)\b(can)(not)\b`, " ${1} ${2} "),
		rw(`(?i)\b(d)('ye)\b`, " ${1} ${2} "),
		rw(`(?i)\b(gim)(me)\b`, " ${1} ${2} "),
		rw(`(?i)\b(gon)(na)\b`, " ${1} ${2} "),
		rw(`(?i)\b(got)(ta)\b`, " ${1} ${2} "),
		rw(`(?i)\b(lem)(me)\b`, " ${1} ${2} "),
		rw(`(?i)\b(more)('n)\b`, " ${1} ${2} "),
		rw(`(?i)\b(wan)(na)\s`, " ${1} ${2} "),
		rw(`(?i) ('t)(is)\b`, " ${1} ${2} "),
		rw(`(?i) ('t)(was)\b`, " ${1} ${2} "),
	}

	quoteRe = regexp.MustCompile("``|'{2}|\"")
)

// parenWords maps bracket characters to the forms treebank-trained parsers expect.
var parenWords = map[string]string{
	"(": "-LRB-",
	")": "-RRB-",
	"[": "-LSB-",
	"]": "-RSB-",
	"{": "-LCB-",
	"}": "-RCB-",
}

// TreebankWordTokenizer splits a sentence the way the Penn Treebank does: punctuation and
// clitics ("n't", "'s") become tokens, double quotes become `` and ''.
type TreebankWordTokenizer struct {
	// ConvertParentheses rewrites bracket tokens to -LRB-, -RRB- and friends.
	ConvertParentheses bool
}

// NewTreebankWordTokenizer creates a tokenizer that converts parentheses, which is what
// treebank-trained constituency parsers expect.
func NewTreebankWordTokenizer() *TreebankWordTokenizer {
	return &TreebankWordTokenizer{ConvertParentheses: true}
}

// Encode returns the tokens of text without offsets.
func (t *TreebankWordTokenizer) Encode(text string) []string {
	raw := t.tokenize(text)
	if !t.ConvertParentheses {
		return raw
	}
	out := make([]string, len(raw))
	for i, tok := range raw {
		out[i] = t.parserForm(tok)
	}
	return out
}

func (t *TreebankWordTokenizer) tokenize(text string) []string {
	text = apply(text, startingQuotes)
	text = apply(text, punctuation)
	text = parensBrackets.re.ReplaceAllString(text, parensBrackets.repl)
	text = doubleDashes.re.ReplaceAllString(text, doubleDashes.repl)

	// padding lets the ending-quote and contraction rules anchor on spaces
	text = " " + text + " "
	text = apply(text, endingQuotes)
	text = apply(text, contractions)
	return strings.Fields(text)
}

func (t *TreebankWordTokenizer) parserForm(tok string) string {
	if !t.ConvertParentheses {
		return tok
	}
	if w, ok := parenWords[tok]; ok {
		return w
	}
	return tok
}

// TokenizeSpans tokenizes text and aligns every token back to its position in text.
func (t *TreebankWordTokenizer) TokenizeSpans(text string) ([]Word, error) {
	raw := t.tokenize(text)

	// Quotes were rewritten to `` and '', so align them against the quote
	// characters that actually occur in text, in order.
	surface := raw
	if strings.Contains(text, `"`) || strings.Contains(text, "''") {
		matched := quoteRe.FindAllString(text, -1)
		surface = make([]string, len(raw))
		for i, tok := range raw {
			if (tok == `"` || tok == "``" || tok == "''") && len(matched) > 0 {
				surface[i] = matched[0]
				matched = matched[1:]
				continue
			}
			surface[i] = tok
		}
	}

	words := make([]Word, 0, len(raw))
	point := 0
	for i, tok := range surface {
		idx := strings.Index(text[point:], tok)
		if idx < 0 {
			return nil, fmt.Errorf("failed to align token %q at offset %d", tok, point)
		}
		start := point + idx
		end := start + len(tok)
		words = append(words, Word{Text: t.parserForm(raw[i]), Start: start, End: end})
		point = end
	}
	return words, nil
}

// Ensure the tokenizers implement the word tokenizer interfaces.
var (
	_ Tokenizer     = (*SimpleTokenizer)(nil)
	_ Tokenizer     = (*TreebankWordTokenizer)(nil)
	_ WordTokenizer = (*SimpleTokenizer)(nil)
	_ WordTokenizer = (*TreebankWordTokenizer)(nil)
)
