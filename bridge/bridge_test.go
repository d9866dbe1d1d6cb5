package bridge

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/aqua777/go-treebridge/callbacks"
	"github.com/aqua777/go-treebridge/parser"
	"github.com/aqua777/go-treebridge/schema"
	"github.com/aqua777/go-treebridge/textsplitter"
	"github.com/aqua777/go-treebridge/tree"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestParseLanguage(t *testing.T) {
	tests := []struct {
		code    string
		want    Language
		wantErr bool
	}{
		{"en", English, false},
		{"zh", Chinese, false},
		{" ZH ", Chinese, false},
		{"fr", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			got, err := ParseLanguage(tt.code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnsupportedLanguage)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, "crf-con-en", English.Model())
	assert.Equal(t, "crf-con-zh", Chinese.Model())
	assert.Equal(t, []Language{English, Chinese}, Languages())
}

func TestParseCache(t *testing.T) {
	results := []schema.Result{{
		Tree:   tree.MustNode("TOP", tree.MustNode("XX", tree.Leaf("hi"))),
		Tokens: []schema.Token{{Start: 0, End: 2}},
	}}

	c := NewParseCache()
	_, ok := c.Get(English, "hi")
	assert.False(t, ok)

	c.Put(English, "hi", results)
	assert.True(t, c.HasKey(English, "hi"))
	assert.False(t, c.HasKey(Chinese, "hi"))
	assert.NotEqual(t, CacheKey(English, "hi"), CacheKey(Chinese, "hi"))

	got, ok := c.Get(English, "hi")
	require.True(t, ok)
	assert.Equal(t, results, got)

	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, c.Persist(path))

	loaded, err := NewParseCacheFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
	got, ok = loaded.Get(English, "hi")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.True(t, tree.Equal(results[0].Tree, got[0].Tree))
	assert.Equal(t, results[0].Tokens, got[0].Tokens)

	c.Clear()
	assert.Equal(t, 0, c.Len())

	_, err = NewParseCacheFromPath(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestOpenParseCache(t *testing.T) {
	path := filepath.Join(t.TempDir(), "parses.json")

	c, err := OpenParseCache(path)
	require.NoError(t, err)
	assert.Equal(t, 0, c.Len())

	c.Put(English, "hi", []schema.Result{{
		Tree:   tree.MustNode("TOP", tree.MustNode("XX", tree.Leaf("hi"))),
		Tokens: []schema.Token{{Start: 0, End: 2}},
	}})
	require.NoError(t, c.Persist(path))

	reopened, err := OpenParseCache(path)
	require.NoError(t, err)
	assert.True(t, reopened.HasKey(English, "hi"))

	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0644))
	_, err = OpenParseCache(path)
	assert.Error(t, err)
}

func TestParseCacheCopiesTokens(t *testing.T) {
	tokens := []schema.Token{{Start: 0, End: 2}}
	c := NewParseCache()
	c.Put(English, "hi", []schema.Result{{
		Tree:   tree.MustNode("TOP", tree.MustNode("XX", tree.Leaf("hi"))),
		Tokens: tokens,
	}})

	tokens[0].End = 99
	got, ok := c.Get(English, "hi")
	require.True(t, ok)
	assert.Equal(t, 2, got[0].Tokens[0].End)

	got[0].Tokens[0] = got[0].Tokens[0].Shift(10)
	again, _ := c.Get(English, "hi")
	assert.Equal(t, schema.Token{Start: 0, End: 2}, again[0].Tokens[0])
}

type SessionTestSuite struct {
	suite.Suite
	english *parser.MockParser
	chinese *parser.MockParser
	loader  *parser.MockLoader
	session *Session
}

func TestSessionTestSuite(t *testing.T) {
	suite.Run(t, new(SessionTestSuite))
}

func (s *SessionTestSuite) SetupTest() {
	s.english = parser.NewMockParser()
	s.chinese = parser.NewMockParser()
	s.loader = &parser.MockLoader{Parsers: map[string]parser.Parser{
		"crf-con-en": s.english,
		"crf-con-zh": s.chinese,
	}}

	zh, err := NewChinesePipeline(WithWordTokenizer(textsplitter.NewCharSegmenter()))
	s.Require().NoError(err)

	s.session = NewSession(
		WithLoader(s.loader),
		WithPipeline(Chinese, zh),
		WithLogger(quietLogger),
	)
}

func (s *SessionTestSuite) TestParseBeforeLoad() {
	_, err := s.session.Parse(context.Background(), "The cat sat.")
	s.ErrorIs(err, ErrNoLanguage)

	_, loaded := s.session.Language()
	s.False(loaded)
}

func (s *SessionTestSuite) TestLoadLanguage() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))
	lang, loaded := s.session.Language()
	s.True(loaded)
	s.Equal(English, lang)
	s.Equal([]string{"crf-con-en"}, s.loader.Loaded())
}

func (s *SessionTestSuite) TestLoadUnknownLanguage() {
	err := s.session.LoadLanguage(context.Background(), "xx")
	s.ErrorIs(err, ErrUnsupportedLanguage)
	s.Empty(s.loader.Loaded())
}

func (s *SessionTestSuite) TestFailedLoadKeepsPreviousLanguage() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	boom := errors.New("model not found")
	s.loader.Err = boom
	err := s.session.LoadLanguage(context.Background(), "zh")
	s.ErrorIs(err, boom)

	lang, loaded := s.session.Language()
	s.True(loaded)
	s.Equal(English, lang)

	results, err := s.session.Parse(context.Background(), "The cat sat.")
	s.Require().NoError(err)
	s.Len(results, 1)
}

func (s *SessionTestSuite) TestEnglishSingleSentence() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	text := "The cat sat."
	results, err := s.session.Parse(context.Background(), text)
	s.Require().NoError(err)
	s.Require().Len(results, 1)

	s.True(strings.HasPrefix(results[0].Tree.String(), "(TOP"))
	s.Equal([]schema.Token{{Start: 0, End: 3}, {Start: 4, End: 7}, {Start: 8, End: 11}, {Start: 11, End: 12}}, results[0].Tokens)
	s.Equal([]string{"The", "cat", "sat", "."}, tree.Leaves(results[0].Tree))

	calls := s.english.Calls()
	s.Require().Len(calls, 1)
	s.Equal([][]string{{"The", "cat", "sat", "."}}, calls[0])
}

func (s *SessionTestSuite) TestEnglishMultipleSentences() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	text := "The cat sat. The dog (a big one) ran away."
	results, err := s.session.Parse(context.Background(), text)
	s.Require().NoError(err)
	s.Require().Len(results, 2)

	// one batched call for both sentences
	s.Len(s.english.Calls(), 1)

	second := results[1]
	s.Equal(13, second.Tokens[0].Start)
	s.Contains(tree.Leaves(second.Tree), "-LRB-")

	for _, r := range results {
		s.Equal(len(tree.Leaves(r.Tree)), len(r.Tokens))
		prev := 0
		for _, tok := range r.Tokens {
			s.GreaterOrEqual(tok.Start, prev)
			s.Less(tok.Start, tok.End)
			s.LessOrEqual(tok.End, len(text))
			prev = tok.End
		}
	}
	s.Equal("(", second.Tokens[2].Text(text))
}

func (s *SessionTestSuite) TestEmptyTextSkipsParser() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	results, err := s.session.Parse(context.Background(), "   ")
	s.Require().NoError(err)
	s.Empty(results)
	s.Empty(s.english.Calls())
}

func (s *SessionTestSuite) TestChineseSingleResult() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "zh"))

	text := "我爱北京。天安门很大。"
	results, err := s.session.Parse(context.Background(), text)
	s.Require().NoError(err)
	s.Require().Len(results, 1)

	tokens := results[0].Tokens
	s.Len(tokens, 11)
	s.Equal("我", tokens[0].Text(text))
	s.Equal(schema.Token{Start: 3, End: 6}, tokens[1])
	s.Equal(len(text), tokens[len(tokens)-1].End)
}

func (s *SessionTestSuite) TestParserFailureKeepsState() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	boom := errors.New("inference failed")
	s.english.Err = boom
	_, err := s.session.Parse(context.Background(), "The cat sat.")
	s.ErrorIs(err, boom)

	lang, loaded := s.session.Language()
	s.True(loaded)
	s.Equal(English, lang)
}

func (s *SessionTestSuite) TestTreeCountMismatch() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	s.english.PredictFunc = func(sentences [][]string) ([]*parser.Node, error) {
		return nil, nil
	}
	_, err := s.session.Parse(context.Background(), "The cat sat.")
	s.ErrorIs(err, parser.ErrTreeCount)
}

func (s *SessionTestSuite) TestBadTreeFromParser() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	s.english.PredictFunc = func(sentences [][]string) ([]*parser.Node, error) {
		return []*parser.Node{parser.NewInternal("", parser.NewLeaf("x"))}, nil
	}
	_, err := s.session.Parse(context.Background(), "The cat sat.")
	s.ErrorIs(err, tree.ErrEmptyLabel)
}

func (s *SessionTestSuite) TestLeafCountMismatch() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	s.english.PredictFunc = func(sentences [][]string) ([]*parser.Node, error) {
		trees := make([]*parser.Node, len(sentences))
		for i, words := range sentences {
			trees[i] = parser.FlatTree(words[:1])
		}
		return trees, nil
	}
	_, err := s.session.Parse(context.Background(), "The cat sat.")
	s.ErrorIs(err, ErrInvalidResults)
	s.Contains(err.Error(), "has 1 leaves for 4 tokens")
}

func (s *SessionTestSuite) TestParseReportsLanguageUsed() {
	ctx := context.Background()
	s.Require().NoError(s.session.LoadLanguage(ctx, "en"))

	s.english.PredictFunc = func(sentences [][]string) ([]*parser.Node, error) {
		// switch languages while this parse is in flight
		if err := s.session.LoadLanguage(ctx, "zh"); err != nil {
			return nil, err
		}
		trees := make([]*parser.Node, len(sentences))
		for i, words := range sentences {
			trees[i] = parser.FlatTree(words)
		}
		return trees, nil
	}

	results, lang, err := s.session.ParseWithLanguage(ctx, "The cat sat.")
	s.Require().NoError(err)
	s.Len(results, 1)
	s.Equal(English, lang)

	active, _ := s.session.Language()
	s.Equal(Chinese, active)
}

func (s *SessionTestSuite) TestConcurrentParse() {
	s.Require().NoError(s.session.LoadLanguage(context.Background(), "en"))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results, err := s.session.Parse(context.Background(), "The cat sat.")
			s.NoError(err)
			s.Len(results, 1)
		}()
	}
	wg.Wait()
	s.Len(s.english.Calls(), 8)
}

func TestSessionCache(t *testing.T) {
	mock := parser.NewMockParser()
	cache := NewParseCache()
	session := NewSession(
		WithLoader(parser.LoaderFunc(func(ctx context.Context, model string) (parser.Parser, error) {
			return mock, nil
		})),
		WithCache(cache),
		WithLogger(quietLogger),
	)
	require.NoError(t, session.LoadLanguage(context.Background(), "en"))

	first, err := session.Parse(context.Background(), "The cat sat.")
	require.NoError(t, err)
	second, err := session.Parse(context.Background(), "The cat sat.")
	require.NoError(t, err)

	assert.Len(t, mock.Calls(), 1)
	assert.Equal(t, first, second)
	assert.True(t, cache.HasKey(English, "The cat sat."))
}

func TestSessionCallbacks(t *testing.T) {
	rec := callbacks.NewRecordingHandler()
	manager := callbacks.NewManager(callbacks.WithHandlers(rec))
	session := NewSession(
		WithLoader(parser.NewMockLoader()),
		WithCallbackManager(manager),
		WithLogger(quietLogger),
	)
	require.NoError(t, session.LoadLanguage(context.Background(), "en"))

	_, err := session.Parse(context.Background(), "The cat sat. It slept.")
	require.NoError(t, err)

	assert.Equal(t, []callbacks.EventType{
		callbacks.EventLoadModel,
		callbacks.EventSentenceSplit,
		callbacks.EventTokenize,
		callbacks.EventTokenize,
		callbacks.EventPredict,
		callbacks.EventConvert,
		callbacks.EventParse,
	}, rec.Types())

	events := rec.Events()
	parse := events[len(events)-1]
	for _, e := range events[1 : len(events)-1] {
		assert.Equal(t, parse.ID, e.ParentID)
	}

	for i := 0; i < 200; i++ {
		_, err := session.Parse(context.Background(), "The cat sat. It slept.")
		require.NoError(t, err)
	}
	events = rec.Events()
	parse = events[len(events)-1]
	assert.Equal(t, []string{parse.ID}, manager.Children(callbacks.BaseTraceEvent))
	assert.Len(t, manager.Children(parse.ID), 5)
}

func TestSessionChineseDictionarySegmenter(t *testing.T) {
	mock := parser.NewMockParser()
	session := NewSession(
		WithLoader(&parser.MockLoader{Parsers: map[string]parser.Parser{Chinese.Model(): mock}}),
		WithLogger(quietLogger),
	)
	require.NoError(t, session.LoadLanguage(context.Background(), "zh"))

	text := "我爱北京天安门。 今天天气很好"
	results, err := session.Parse(context.Background(), text)
	require.NoError(t, err)
	require.Len(t, results, 1)

	var surface []string
	for _, tok := range results[0].Tokens {
		surface = append(surface, tok.Text(text))
	}
	assert.Equal(t, strings.ReplaceAll(text, " ", ""), strings.Join(surface, ""))
	assert.Contains(t, surface, "北京")
	assert.Less(t, len(surface), len([]rune(text))-1)
	assert.Equal(t, surface, tree.Leaves(results[0].Tree))
	require.Len(t, mock.Calls(), 1)
}

func TestCustomPipeline(t *testing.T) {
	en, err := NewEnglishPipeline(
		WithSentenceSplitter(textsplitter.NewRegexSentenceSplitter("")),
		WithWordTokenizer(textsplitter.NewSimpleTokenizer()),
	)
	require.NoError(t, err)

	mock := parser.NewMockParser()
	results, err := en.Parse(context.Background(), mock, "Hello world! Bye now.")
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, []string{"Bye", "now."}, tree.Leaves(results[1].Tree))
}
