package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aqua777/go-treebridge/constituent"
	"github.com/aqua777/go-treebridge/reader"
	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/krait"
)

func runParse(args []string) error {
	ctx := context.Background()

	format := krait.GetString(KeyFormat)
	if err := checkFormat(format); err != nil {
		return err
	}
	unit, err := schema.ParseOffsetUnit(krait.GetString(KeyOffsets))
	if err != nil {
		return err
	}

	text, err := inputText(args, os.Stdin)
	if err != nil {
		return err
	}

	app, err := NewApp()
	if err != nil {
		return fmt.Errorf("failed to initialize: %w", err)
	}

	if err := app.session.LoadLanguage(ctx, krait.GetString(KeyLanguage)); err != nil {
		return fmt.Errorf("failed to load language: %w", err)
	}

	results, err := app.session.Parse(ctx, text)
	if err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}

	if err := writeResults(os.Stdout, text, schema.Convert(text, results, unit), format); err != nil {
		return err
	}

	if app.verbose {
		app.PrintStats(os.Stderr)
	}
	return app.Close()
}

// inputText picks the text to parse: --text, then --file, then positional
// arguments, then stdin.
func inputText(args []string, stdin io.Reader) (string, error) {
	if text := krait.GetString("text"); text != "" {
		return text, nil
	}
	if path := krait.GetString("file"); path != "" {
		text, err := reader.LoadText(path)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", path, err)
		}
		return text, nil
	}
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("failed to read stdin: %w", err)
	}
	return string(data), nil
}

func checkFormat(format string) error {
	switch format {
	case FormatJSON, FormatBracket, FormatConstituents:
		return nil
	}
	return fmt.Errorf("unknown format %q (want %s, %s or %s)", format, FormatJSON, FormatBracket, FormatConstituents)
}

// parseOutput is the json format. Text is the parsed text, which for --file is the
// extracted document text rather than the file's bytes; token offsets index into it.
type parseOutput struct {
	Text    string          `json:"text"`
	Results []schema.Result `json:"results"`
}

// writeResults prints results in the requested format.
func writeResults(w io.Writer, text string, results []schema.Result, format string) error {
	switch format {
	case FormatBracket:
		for _, r := range results {
			if _, err := fmt.Fprintln(w, r.Tree.String()); err != nil {
				return err
			}
		}
		return nil

	case FormatConstituents:
		doc, err := constituent.Build(results)
		if err != nil {
			return fmt.Errorf("failed to build constituents: %w", err)
		}
		return encodeJSON(w, doc)

	case FormatJSON:
		if results == nil {
			results = []schema.Result{}
		}
		return encodeJSON(w, parseOutput{Text: text, Results: results})
	}
	return checkFormat(format)
}

func encodeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
