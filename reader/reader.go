// Package reader extracts plain text to parse from document files.
package reader

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnsupportedFormat is returned for file extensions no extractor handles.
var ErrUnsupportedFormat = errors.New("unsupported format")

// Extractor turns the contents of one document into plain text. Paragraph-like blocks are
// separated by blank lines.
type Extractor interface {
	Extract(r io.Reader) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(r io.Reader) (string, error)

// Extract calls f.
func (f ExtractorFunc) Extract(r io.Reader) (string, error) {
	return f(r)
}

var extractors = map[string]Extractor{
	".txt":      ExtractorFunc(extractText),
	".text":     ExtractorFunc(extractText),
	".md":       ExtractorFunc(extractMarkdown),
	".markdown": ExtractorFunc(extractMarkdown),
	".html":     ExtractorFunc(extractHTML),
	".htm":      ExtractorFunc(extractHTML),
	".pdf":      ExtractorFunc(extractPDF),
	".docx":     ExtractorFunc(extractDOCX),
}

// SupportedExtensions returns the handled file extensions, sorted.
func SupportedExtensions() []string {
	exts := make([]string, 0, len(extractors))
	for ext := range extractors {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ForFile returns the extractor for filename's extension.
func ForFile(filename string) (Extractor, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	e, ok := extractors[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// ReadText extracts the text of a document whose format is given by filename's extension.
func ReadText(r io.Reader, filename string) (string, error) {
	e, err := ForFile(filename)
	if err != nil {
		return "", NewReaderError(filename, "cannot read file", err)
	}
	text, err := e.Extract(r)
	if err != nil {
		return "", NewReaderError(filename, "failed to extract text", err)
	}
	return text, nil
}

// LoadText reads the file at path and extracts its text.
func LoadText(path string) (string, error) {
	if _, err := ForFile(path); err != nil {
		return "", NewReaderError(path, "cannot read file", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return "", NewReaderError(path, "failed to open file", err)
	}
	defer f.Close()

	return ReadText(f, path)
}

// ReaderError represents an error while loading a document.
type ReaderError struct {
	Source  string // File path that caused the error
	Message string
	Err     error
}

func (e *ReaderError) Error() string {
	if e.Err != nil {
		return e.Source + ": " + e.Message + ": " + e.Err.Error()
	}
	return e.Source + ": " + e.Message
}

func (e *ReaderError) Unwrap() error {
	return e.Err
}

// NewReaderError creates a new ReaderError.
func NewReaderError(source, message string, err error) *ReaderError {
	return &ReaderError{
		Source:  source,
		Message: message,
		Err:     err,
	}
}

// joinBlocks trims blocks, drops empty ones and joins the rest with blank lines.
func joinBlocks(blocks []string) string {
	kept := blocks[:0:0]
	for _, b := range blocks {
		if b = strings.TrimSpace(b); b != "" {
			kept = append(kept, b)
		}
	}
	return strings.Join(kept, "\n\n")
}
