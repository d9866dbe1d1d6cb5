package main

import (
	"os"
	"path/filepath"

	"github.com/aqua777/go-treebridge/parser"
)

const (
	TreeBridge    = "treebridge"
	TreeBridgeCli = "treebridge-cli"
)

// Default configuration values
const (
	DefaultParserURL = parser.DefaultParserURL
	DefaultLanguage  = "en"
	DefaultFormat    = FormatJSON
	DefaultOffsets   = "byte"
	DefaultAddr      = ":8080"
)

// Output formats for the parse command
const (
	FormatJSON         = "json"
	FormatBracket      = "bracket"
	FormatConstituents = "constituents"
)

// Config keys for krait
const (
	KeyCacheDir      = "cache.dir"
	KeyCache         = "cache.enabled"
	KeyParserURL     = "parser.url"
	KeyParserCommand = "parser.command"
	KeyLanguage      = "language"
	KeyFormat        = "format"
	KeyOffsets       = "offsets"
	KeyAddr          = "server.addr"
	KeyMaxUpload     = "server.max-upload"
	KeyVerbose       = "verbose"
)

// DefaultCacheDir returns the default cache directory.
func DefaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + TreeBridgeCli
	}
	return filepath.Join(home, ".cache", TreeBridgeCli)
}

// ParseCachePath returns the path of the persisted parse cache.
func ParseCachePath(cacheDir string) string {
	return filepath.Join(cacheDir, "parses.json")
}
