package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
)

const (
	// DefaultParserURL is the default endpoint of the parser service.
	DefaultParserURL = "http://localhost:8765"
	// ParserURLEnv overrides DefaultParserURL.
	ParserURLEnv = "TREEBRIDGE_PARSER_URL"
)

// HTTPParser talks to a parser service that holds pretrained models in memory.
//
// The service answers POST /load {"model"} and
// POST /predict {"model", "sentences"} -> {"trees": [...]}.
type HTTPParser struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *slog.Logger
}

// HTTPOption configures an HTTPParser.
type HTTPOption func(*HTTPParser)

// WithBaseURL sets the service URL.
func WithBaseURL(baseURL string) HTTPOption {
	return func(p *HTTPParser) {
		p.baseURL = baseURL
	}
}

// WithModel sets the model name.
func WithModel(model string) HTTPOption {
	return func(p *HTTPParser) {
		p.model = model
	}
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(client *http.Client) HTTPOption {
	return func(p *HTTPParser) {
		p.httpClient = client
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) HTTPOption {
	return func(p *HTTPParser) {
		p.logger = logger
	}
}

// NewHTTPParser creates a client. The URL defaults to $TREEBRIDGE_PARSER_URL, then DefaultParserURL,
// and the model to the English one.
func NewHTTPParser(opts ...HTTPOption) *HTTPParser {
	baseURL := os.Getenv(ParserURLEnv)
	if baseURL == "" {
		baseURL = DefaultParserURL
	}

	p := &HTTPParser{
		baseURL:    baseURL,
		model:      ModelName("en"),
		httpClient: http.DefaultClient,
		logger:     slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}

	for _, opt := range opts {
		opt(p)
	}

	return p
}

// Model returns the model name the client asks for.
func (p *HTTPParser) Model() string {
	return p.model
}

// BaseURL returns the service URL.
func (p *HTTPParser) BaseURL() string {
	return p.baseURL
}

// Load asks the service to load the model.
func (p *HTTPParser) Load(ctx context.Context) error {
	p.logger.Info("Load called", "model", p.model)

	var resp predictResponse
	return p.do(ctx, "/load", predictRequest{Model: p.model}, &resp)
}

// Predict parses sentences in one request.
func (p *HTTPParser) Predict(ctx context.Context, sentences [][]string) ([]*Node, error) {
	p.logger.Info("Predict called", "model", p.model, "sentences", len(sentences))

	var resp predictResponse
	if err := p.do(ctx, "/predict", predictRequest{Model: p.model, Sentences: sentences}, &resp); err != nil {
		return nil, err
	}

	trees, err := decodeTrees(resp.Trees)
	if err != nil {
		return nil, err
	}
	if err := checkCount(trees, sentences); err != nil {
		return nil, err
	}
	return trees, nil
}

func (p *HTTPParser) do(ctx context.Context, path string, body predictRequest, out *predictResponse) error {
	jsonBody, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+path, bytes.NewReader(jsonBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("parser API error (%d): %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil && err != io.EOF {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// HTTPLoader loads models through a parser service.
type HTTPLoader struct {
	opts []HTTPOption
}

// NewHTTPLoader creates a loader whose parsers share opts. The model option is set per load.
func NewHTTPLoader(opts ...HTTPOption) *HTTPLoader {
	return &HTTPLoader{opts: opts}
}

// Load creates a client for model and asks the service to load it.
func (l *HTTPLoader) Load(ctx context.Context, model string) (Parser, error) {
	opts := append(append([]HTTPOption{}, l.opts...), WithModel(model))
	p := NewHTTPParser(opts...)
	if err := p.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", model, err)
	}
	return p, nil
}

// Ensure HTTPParser and HTTPLoader implement the parser interfaces.
var (
	_ Parser = (*HTTPParser)(nil)
	_ Loader = (*HTTPLoader)(nil)
)
