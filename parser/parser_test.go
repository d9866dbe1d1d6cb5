package parser

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aqua777/go-treebridge/tree"
)

var quietLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func TestModelName(t *testing.T) {
	assert.Equal(t, "crf-con-en", ModelName("en"))
	assert.Equal(t, "crf-con-zh", ModelName("zh"))
}

func TestNodeJSON(t *testing.T) {
	t.Run("object form", func(t *testing.T) {
		var n Node
		err := json.Unmarshal([]byte(`{"label":"NP","children":[{"label":"DT","children":["The"]}]}`), &n)
		require.NoError(t, err)
		assert.Equal(t, "NP", n.Label)
		require.Len(t, n.Children, 1)
		assert.True(t, n.Children[0].Children[0].IsLeaf())
		assert.Equal(t, "The", n.Children[0].Children[0].Label)
	})

	t.Run("bracketed string tree", func(t *testing.T) {
		n, err := decodeTree(json.RawMessage(`"(TOP (S (NP (DT The) (NN cat))))"`))
		require.NoError(t, err)
		assert.Equal(t, "TOP", n.Label)
		tr, err := ToTree(n)
		require.NoError(t, err)
		assert.Equal(t, []string{"The", "cat"}, tree.Leaves(tr))
	})

	t.Run("bad bracketed tree", func(t *testing.T) {
		_, err := decodeTree(json.RawMessage(`"(TOP (S"`))
		assert.Error(t, err)
	})
}

func TestConvert(t *testing.T) {
	n := NewInternal("TOP",
		NewInternal("S",
			NewInternal("NP", NewInternal("DT", NewLeaf("The")), NewInternal("NN", NewLeaf("cat"))),
			NewInternal("VP", NewInternal("VBD", NewLeaf("sat"))),
			NewInternal(".", NewLeaf(".")),
		),
	)

	tr, err := ToTree(n)
	require.NoError(t, err)
	assert.Equal(t, "(TOP (S (NP (DT The) (NN cat)) (VP (VBD sat)) (. .)))", tr.String())
	assert.Equal(t, []string{"The", "cat", "sat", "."}, tree.Leaves(tr))

	s := tr.Children()[0]
	assert.Len(t, s.Children(), 3)

	back := FromTree(tr)
	assert.Equal(t, n, back)
}

func TestConvertErrors(t *testing.T) {
	_, err := ToTree(nil)
	assert.Error(t, err)

	_, err = ToTree(NewInternal("", NewLeaf("x")))
	assert.ErrorIs(t, err, tree.ErrEmptyLabel)

	_, err = ToTrees([]*Node{FlatTree([]string{"a"}), NewInternal("", NewLeaf("b"))})
	assert.ErrorContains(t, err, "tree 1")
}

func TestMockParser(t *testing.T) {
	m := NewMockParser()
	trees, err := m.Predict(context.Background(), [][]string{{"The", "cat"}, {"Hi"}})
	require.NoError(t, err)
	require.Len(t, trees, 2)

	tr, err := ToTree(trees[0])
	require.NoError(t, err)
	assert.Equal(t, "(TOP (S (XX The) (XX cat)))", tr.String())
	assert.Len(t, m.Calls(), 1)

	failing := NewMockParserWithError(errors.New("boom"))
	_, err = failing.Predict(context.Background(), [][]string{{"x"}})
	assert.EqualError(t, err, "boom")
}

func TestMockLoader(t *testing.T) {
	l := NewMockLoader()
	p, err := l.Load(context.Background(), "crf-con-en")
	require.NoError(t, err)
	assert.NotNil(t, p)

	_, err = l.Load(context.Background(), "crf-con-xx")
	assert.Error(t, err)
	assert.Equal(t, []string{"crf-con-en", "crf-con-xx"}, l.Loaded())
}

func TestHTTPParser(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		t.Setenv(ParserURLEnv, "")
		p := NewHTTPParser()
		assert.Equal(t, DefaultParserURL, p.BaseURL())
		assert.Equal(t, "crf-con-en", p.Model())
	})

	t.Run("environment override", func(t *testing.T) {
		t.Setenv(ParserURLEnv, "http://parser.internal:9000")
		p := NewHTTPParser()
		assert.Equal(t, "http://parser.internal:9000", p.BaseURL())
	})

	t.Run("load and predict with mock server", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "POST", r.Method)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

			var req predictRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			assert.Equal(t, "crf-con-en", req.Model)

			switch r.URL.Path {
			case "/load":
				w.Write([]byte(`{}`))
			case "/predict":
				trees := make([]any, len(req.Sentences))
				for i, words := range req.Sentences {
					if i%2 == 0 {
						trees[i] = FlatTree(words)
					} else {
						tr, _ := ToTree(FlatTree(words))
						trees[i] = tr.String()
					}
				}
				json.NewEncoder(w).Encode(map[string]any{"trees": trees})
			default:
				w.WriteHeader(http.StatusNotFound)
			}
		}))
		defer server.Close()

		loader := NewHTTPLoader(WithBaseURL(server.URL), WithLogger(quietLogger))
		p, err := loader.Load(context.Background(), "crf-con-en")
		require.NoError(t, err)

		trees, err := p.Predict(context.Background(), [][]string{{"The", "cat"}, {"It", "sat", "."}})
		require.NoError(t, err)
		require.Len(t, trees, 2)

		second, err := ToTree(trees[1])
		require.NoError(t, err)
		assert.Equal(t, []string{"It", "sat", "."}, tree.Leaves(second))
	})

	t.Run("API error", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
			w.Write([]byte("model not found"))
		}))
		defer server.Close()

		loader := NewHTTPLoader(WithBaseURL(server.URL), WithLogger(quietLogger))
		_, err := loader.Load(context.Background(), "crf-con-xx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parser API error (500)")
		assert.Contains(t, err.Error(), "model not found")
	})

	t.Run("tree count mismatch", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"trees": ["(TOP (XX a))"]}`))
		}))
		defer server.Close()

		p := NewHTTPParser(WithBaseURL(server.URL), WithLogger(quietLogger))
		_, err := p.Predict(context.Background(), [][]string{{"a"}, {"b"}})
		assert.ErrorIs(t, err, ErrTreeCount)
	})
}

// TestHelperProcess is not a real test. It acts as a parser command when
// GO_WANT_HELPER_PROCESS is set.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}
	defer os.Exit(0)

	var req predictRequest
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		fmt.Fprintf(os.Stderr, "bad request: %v", err)
		os.Exit(2)
	}
	if req.Model != "crf-con-en" {
		json.NewEncoder(os.Stdout).Encode(predictResponse{Error: "unknown model " + req.Model})
		return
	}
	switch req.Op {
	case opLoad:
		os.Stdout.Write([]byte(`{"trees": []}`))
	case opPredict:
		trees := make([]*Node, len(req.Sentences))
		for i, words := range req.Sentences {
			trees[i] = FlatTree(words)
		}
		json.NewEncoder(os.Stdout).Encode(map[string]any{"trees": trees})
	}
}

func helperLoader() *CommandLoader {
	return NewCommandLoader(os.Args[0],
		WithCommandArgs("-test.run=TestHelperProcess", "--"),
		WithCommandEnv("GO_WANT_HELPER_PROCESS=1"),
		WithCommandLogger(quietLogger),
	)
}

func TestCommandParser(t *testing.T) {
	t.Run("load and predict", func(t *testing.T) {
		p, err := helperLoader().Load(context.Background(), "crf-con-en")
		require.NoError(t, err)

		trees, err := p.Predict(context.Background(), [][]string{{"The", "cat", "sat", "."}})
		require.NoError(t, err)
		require.Len(t, trees, 1)

		tr, err := ToTree(trees[0])
		require.NoError(t, err)
		assert.Equal(t, []string{"The", "cat", "sat", "."}, tree.Leaves(tr))
	})

	t.Run("error reported by command", func(t *testing.T) {
		_, err := helperLoader().Load(context.Background(), "crf-con-xx")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown model crf-con-xx")
	})

	t.Run("missing program", func(t *testing.T) {
		p := NewCommandParser("treebridge-no-such-parser", WithCommandLogger(quietLogger))
		err := p.Load(context.Background())
		assert.Error(t, err)
	})
}
