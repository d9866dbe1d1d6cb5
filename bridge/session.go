package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/aqua777/go-treebridge/callbacks"
	"github.com/aqua777/go-treebridge/parser"
	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/validation"
)

// Session holds the active language and the parser loaded for it. It is safe for
// concurrent use. Parse works on a snapshot of the language and parser, so a
// concurrent LoadLanguage never changes a parse already running.
type Session struct {
	mu       sync.RWMutex
	language Language
	parser   parser.Parser

	loader    parser.Loader
	pipelines map[Language]Pipeline
	cache     *ParseCache
	callbacks *callbacks.Manager
	logger    *slog.Logger
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithLoader sets the model loader. Defaults to parser.NewHTTPLoader().
func WithLoader(loader parser.Loader) SessionOption {
	return func(s *Session) {
		s.loader = loader
	}
}

// WithPipeline replaces the built-in pipeline for lang.
func WithPipeline(lang Language, p Pipeline) SessionOption {
	return func(s *Session) {
		s.pipelines[lang] = p
	}
}

// WithCache serves repeated parses from c.
func WithCache(c *ParseCache) SessionOption {
	return func(s *Session) {
		s.cache = c
	}
}

// WithCallbackManager reports loading and parsing stages to m.
func WithCallbackManager(m *callbacks.Manager) SessionOption {
	return func(s *Session) {
		s.callbacks = m
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) SessionOption {
	return func(s *Session) {
		s.logger = logger
	}
}

// NewSession creates a session with no language loaded.
func NewSession(opts ...SessionOption) *Session {
	s := &Session{
		pipelines: make(map[Language]Pipeline),
		logger:    slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.loader == nil {
		s.loader = parser.NewHTTPLoader(parser.WithLogger(s.logger))
	}

	return s
}

// LoadLanguage makes code the active language and loads its parser model. On any
// failure the previously loaded language and parser stay active.
func (s *Session) LoadLanguage(ctx context.Context, code string) error {
	lang, err := ParseLanguage(code)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.pipelineLocked(lang); err != nil {
		return fmt.Errorf("failed to prepare %s pipeline: %w", lang, err)
	}

	model := lang.Model()
	s.logger.Info("LoadLanguage called", "language", string(lang), "model", model)

	var p parser.Parser
	err = s.callbacks.WithEvent(ctx, callbacks.EventLoadModel, map[string]any{
		string(callbacks.PayloadLanguage): string(lang),
		string(callbacks.PayloadModel):    model,
	}, func(ctx context.Context) (map[string]any, error) {
		var err error
		p, err = s.loader.Load(ctx, model)
		return nil, err
	})
	if err != nil {
		return fmt.Errorf("failed to load model %s: %w", model, err)
	}

	s.language = lang
	s.parser = p
	return nil
}

// must hold write lock
func (s *Session) pipelineLocked(lang Language) (Pipeline, error) {
	if p, ok := s.pipelines[lang]; ok {
		return p, nil
	}

	var (
		p   Pipeline
		err error
	)
	switch lang {
	case English:
		p, err = NewEnglishPipeline(WithPipelineCallbacks(s.callbacks))
	case Chinese:
		p, err = NewChinesePipeline(WithPipelineCallbacks(s.callbacks))
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedLanguage, string(lang))
	}
	if err != nil {
		return nil, err
	}
	s.pipelines[lang] = p
	return p, nil
}

// Language returns the active language and whether one is loaded.
func (s *Session) Language() (Language, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.language, s.parser != nil
}

// Parse runs the active language's pipeline over text. It returns one result per sentence
// for English and a single result for Chinese. Session state is never changed by Parse.
func (s *Session) Parse(ctx context.Context, text string) ([]schema.Result, error) {
	results, _, err := s.ParseWithLanguage(ctx, text)
	return results, err
}

// ParseWithLanguage is Parse that also reports the language text was parsed as, which a
// concurrent LoadLanguage may already have replaced.
func (s *Session) ParseWithLanguage(ctx context.Context, text string) ([]schema.Result, Language, error) {
	s.mu.RLock()
	lang, prs, pipeline := s.language, s.parser, s.pipelines[s.language]
	s.mu.RUnlock()

	if prs == nil || pipeline == nil {
		return nil, "", ErrNoLanguage
	}

	ctx, event := s.callbacks.Start(ctx, callbacks.EventParse, map[string]any{
		string(callbacks.PayloadLanguage): string(lang),
		string(callbacks.PayloadText):     text,
	})

	if s.cache != nil {
		if results, ok := s.cache.Get(lang, text); ok {
			s.callbacks.End(event, map[string]any{
				string(callbacks.PayloadResults):  len(results),
				string(callbacks.PayloadCacheHit): true,
			}, nil)
			return results, lang, nil
		}
	}

	results, err := pipeline.Parse(ctx, prs, text)
	if err == nil {
		if verr := validation.ValidateResults(text, results); verr != nil {
			err = fmt.Errorf("%w: %w", ErrInvalidResults, verr)
		}
	}
	if err != nil {
		s.callbacks.End(event, nil, err)
		return nil, lang, err
	}
	s.callbacks.End(event, map[string]any{
		string(callbacks.PayloadResults):  len(results),
		string(callbacks.PayloadCacheHit): false,
	}, nil)

	if s.cache != nil {
		s.cache.Put(lang, text, results)
	}
	return results, lang, nil
}
