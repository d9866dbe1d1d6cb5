// Package bridge turns raw text into constituency trees with token offsets. A Session holds
// the active language and its loaded parser; each language has one Pipeline.
package bridge

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aqua777/go-treebridge/parser"
)

// Language is a supported input language.
type Language string

const (
	English Language = "en"
	Chinese Language = "zh"
)

var (
	// ErrUnsupportedLanguage is returned for language codes outside the supported set.
	ErrUnsupportedLanguage = errors.New("unsupported language")
	// ErrNoLanguage is returned by Parse before any language was loaded.
	ErrNoLanguage = errors.New("no language loaded")
	// ErrInvalidResults is returned when parser output does not fit the tokens it was given.
	ErrInvalidResults = errors.New("invalid parse results")
)

// Languages returns every supported language.
func Languages() []Language {
	return []Language{English, Chinese}
}

// ParseLanguage maps a language code to a Language. Codes are case-insensitive.
func ParseLanguage(code string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(code))) {
	case English:
		return English, nil
	case Chinese:
		return Chinese, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, code)
}

// Model returns the name of the pretrained parser model for l.
func (l Language) Model() string {
	return parser.ModelName(string(l))
}

func (l Language) String() string {
	return string(l)
}
