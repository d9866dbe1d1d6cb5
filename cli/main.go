package main

import (
	"context"
	"fmt"
	"os"

	"github.com/aqua777/go-treebridge/reader"
	"github.com/aqua777/go-treebridge/server"
	"github.com/aqua777/krait"
)

func main() {
	parseCmd := krait.New("parse", "Parse text into constituency trees", "Split text into sentences and tokens, parse each sentence and print the trees").
		WithStringP("text", "Text to parse", "text", "t", "TREEBRIDGE_TEXT", "").
		WithStringP("file", "Document to parse ("+fmt.Sprint(reader.SupportedExtensions())+")", "file", "f", "TREEBRIDGE_FILE", "").
		WithStringP(KeyFormat, "Output format: json, bracket or constituents", "format", "o", "TREEBRIDGE_FORMAT", DefaultFormat).
		WithStringP(KeyOffsets, "Token offset unit: byte or rune", "offsets", "", "TREEBRIDGE_OFFSETS", DefaultOffsets).
		WithRun(runParse)

	checkCmd := krait.New("check", "Check the parser", "Load the model for the selected language and report whether it worked").
		WithNoArgs().
		WithRun(runCheck)

	serveCmd := krait.New("serve", "Run the HTTP API", "Serve the parsing session over HTTP").
		WithStringP(KeyAddr, "Listen address", "addr", "a", "TREEBRIDGE_ADDR", DefaultAddr).
		WithIntP(KeyMaxUpload, "Largest accepted upload in bytes", "max-upload", "", "TREEBRIDGE_MAX_UPLOAD", server.DefaultMaxUploadBytes).
		WithNoArgs().
		WithRun(runServe)

	app := krait.App(TreeBridge, "Constituency parsing tool", "Turn raw English or Chinese text into constituency trees with token offsets").
		WithConfig("", "config", "", "TREEBRIDGE_CONFIG").
		// Global options (shared across subcommands)
		WithStringP(KeyParserURL, "Parser service URL", "parser-url", "", "TREEBRIDGE_PARSER_URL", DefaultParserURL).
		WithStringP(KeyParserCommand, "Run this command as the parser instead of calling the service", "parser-command", "", "TREEBRIDGE_PARSER_COMMAND", "").
		WithStringP(KeyLanguage, "Language code (en or zh)", "language", "l", "TREEBRIDGE_LANGUAGE", DefaultLanguage).
		WithBoolP(KeyCache, "Cache parse results on disk", "cache", "", "TREEBRIDGE_CACHE", false).
		WithStringP(KeyCacheDir, "Cache directory for persistence", "cache-dir", "", "TREEBRIDGE_CACHE_DIR", DefaultCacheDir()).
		WithBoolP(KeyVerbose, "Enable verbose output", "verbose", "v", "TREEBRIDGE_VERBOSE", false).
		WithCommand(parseCmd).
		WithCommand(checkCmd).
		WithCommand(serveCmd).
		WithRun(func(args []string) error {
			// Default action: show help
			fmt.Println("TreeBridge CLI - Use 'treebridge parse --help' to parse text")
			return nil
		})

	if err := app.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func runCheck(args []string) error {
	app, err := NewApp()
	if err != nil {
		return err
	}

	code := krait.GetString(KeyLanguage)
	if err := app.session.LoadLanguage(context.Background(), code); err != nil {
		return fmt.Errorf("parser check failed: %w", err)
	}

	lang, _ := app.session.Language()
	fmt.Printf("Parser loaded successfully (language %s, model %s)\n", lang, lang.Model())
	return nil
}
