package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/aqua777/go-treebridge/bridge"
	"github.com/aqua777/go-treebridge/callbacks"
	"github.com/aqua777/go-treebridge/parser"
	"github.com/aqua777/krait"
)

// App holds the session and its supporting pieces, built from krait config.
type App struct {
	session   *bridge.Session
	cache     *bridge.ParseCache
	cachePath string
	stats     *callbacks.StatsHandler
	logger    *slog.Logger
	verbose   bool
}

// AppConfig is the subset of settings an App is built from.
type AppConfig struct {
	ParserURL     string
	ParserCommand string
	CacheEnabled  bool
	CacheDir      string
	Verbose       bool
}

// ConfigFromKrait reads AppConfig from the current krait settings.
func ConfigFromKrait() AppConfig {
	return AppConfig{
		ParserURL:     krait.GetString(KeyParserURL),
		ParserCommand: krait.GetString(KeyParserCommand),
		CacheEnabled:  krait.GetBool(KeyCache),
		CacheDir:      krait.GetString(KeyCacheDir),
		Verbose:       krait.GetBool(KeyVerbose),
	}
}

// NewApp creates an App from the current krait settings.
func NewApp() (*App, error) {
	return NewAppWithConfig(ConfigFromKrait())
}

// NewAppWithConfig creates an App from cfg. With the cache enabled, a missing cache
// file starts an empty cache that Close will create.
func NewAppWithConfig(cfg AppConfig) (*App, error) {
	verbose := cfg.Verbose
	logger := newLogger(verbose)

	a := &App{
		logger:  logger,
		verbose: verbose,
		stats:   callbacks.NewStatsHandler(),
	}

	handlers := []callbacks.Handler{a.stats}
	if verbose {
		handlers = append(handlers, callbacks.NewLoggingHandler(
			callbacks.WithLogger(logger),
			callbacks.WithVerbose(true),
		))
	}

	opts := []bridge.SessionOption{
		bridge.WithLoader(newLoader(cfg, logger)),
		bridge.WithLogger(logger),
		bridge.WithCallbackManager(callbacks.NewManager(callbacks.WithHandlers(handlers...))),
	}

	if cfg.CacheEnabled {
		if err := os.MkdirAll(cfg.CacheDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
		a.cachePath = ParseCachePath(cfg.CacheDir)
		cache, err := bridge.OpenParseCache(a.cachePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load parse cache: %w", err)
		}
		a.cache = cache
		opts = append(opts, bridge.WithCache(cache))
	}

	a.session = bridge.NewSession(opts...)
	return a, nil
}

// Close persists the parse cache, if enabled.
func (a *App) Close() error {
	if a.cache == nil {
		return nil
	}
	if err := a.cache.Persist(a.cachePath); err != nil {
		return fmt.Errorf("failed to persist parse cache: %w", err)
	}
	return nil
}

// PrintStats writes per-stage timings collected during the run.
func (a *App) PrintStats(w io.Writer) {
	all := a.stats.AllStats()
	types := make([]string, 0, len(all))
	for t := range all {
		types = append(types, string(t))
	}
	sort.Strings(types)

	for _, t := range types {
		s := all[callbacks.EventType(t)]
		fmt.Fprintf(w, "%-16s count=%d errors=%d total=%.3fs avg=%.3fs\n",
			t, s.TotalCount, s.ErrorCount, s.TotalSecs, s.AverageSecs)
	}
}

// newLoader prefers a local parser command over the HTTP service when one is configured.
func newLoader(cfg AppConfig, logger *slog.Logger) parser.Loader {
	if fields := strings.Fields(cfg.ParserCommand); len(fields) > 0 {
		return parser.NewCommandLoader(fields[0],
			parser.WithCommandArgs(fields[1:]...),
			parser.WithCommandLogger(logger),
		)
	}
	opts := []parser.HTTPOption{parser.WithLogger(logger)}
	if cfg.ParserURL != "" {
		opts = append(opts, parser.WithBaseURL(cfg.ParserURL))
	}
	return parser.NewHTTPLoader(opts...)
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}
