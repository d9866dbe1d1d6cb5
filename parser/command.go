package parser

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// CommandParser runs an external program for every request. The program reads one JSON
// request from stdin ({"op": "load"|"predict", "model", "sentences"}) and writes one
// JSON response ({"trees": [...]} or {"error": "..."}) to stdout.
type CommandParser struct {
	name   string
	args   []string
	env    []string
	model  string
	logger *slog.Logger
}

// CommandOption configures a CommandParser.
type CommandOption func(*CommandParser)

// WithCommandArgs sets arguments passed to the program.
func WithCommandArgs(args ...string) CommandOption {
	return func(p *CommandParser) {
		p.args = args
	}
}

// WithCommandEnv adds environment variables ("KEY=value") on top of the current environment.
func WithCommandEnv(env ...string) CommandOption {
	return func(p *CommandParser) {
		p.env = env
	}
}

// WithCommandModel sets the model name.
func WithCommandModel(model string) CommandOption {
	return func(p *CommandParser) {
		p.model = model
	}
}

// WithCommandLogger sets the logger.
func WithCommandLogger(logger *slog.Logger) CommandOption {
	return func(p *CommandParser) {
		p.logger = logger
	}
}

// NewCommandParser creates a parser that runs name.
func NewCommandParser(name string, opts ...CommandOption) *CommandParser {
	p := &CommandParser{
		name:   name,
		model:  ModelName("en"),
		logger: slog.New(slog.NewJSONHandler(os.Stderr, nil)),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Model returns the model name.
func (p *CommandParser) Model() string {
	return p.model
}

// Load runs the program with a load request so a missing model fails early.
func (p *CommandParser) Load(ctx context.Context) error {
	p.logger.Info("Load called", "command", p.name, "model", p.model)
	_, err := p.run(ctx, predictRequest{Op: opLoad, Model: p.model})
	return err
}

// Predict runs the program with a predict request.
func (p *CommandParser) Predict(ctx context.Context, sentences [][]string) ([]*Node, error) {
	p.logger.Info("Predict called", "command", p.name, "model", p.model, "sentences", len(sentences))

	resp, err := p.run(ctx, predictRequest{Op: opPredict, Model: p.model, Sentences: sentences})
	if err != nil {
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

func (p *CommandParser) run(ctx context.Context, body predictRequest) (*predictResponse, error) {
	input, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	cmd := exec.CommandContext(ctx, p.name, p.args...)
	cmd.Stdin = bytes.NewReader(input)
	if len(p.env) > 0 {
		cmd.Env = append(os.Environ(), p.env...)
	}
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("parser command %s failed: %w: %s", p.name, err, strings.TrimSpace(stderr.String()))
	}

	var resp predictResponse
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("failed to decode parser command output: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("parser command error: %s", resp.Error)
	}
	return &resp, nil
}

// CommandLoader loads models by running a parser program.
type CommandLoader struct {
	name string
	opts []CommandOption
}

// NewCommandLoader creates a loader for the program name.
func NewCommandLoader(name string, opts ...CommandOption) *CommandLoader {
	return &CommandLoader{name: name, opts: opts}
}

// Load creates a CommandParser for model and runs its load request.
func (l *CommandLoader) Load(ctx context.Context, model string) (Parser, error) {
	opts := append(append([]CommandOption{}, l.opts...), WithCommandModel(model))
	p := NewCommandParser(l.name, opts...)
	if err := p.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load model %s: %w", model, err)
	}
	return p, nil
}

// Ensure CommandParser and CommandLoader implement the parser interfaces.
var (
	_ Parser = (*CommandParser)(nil)
	_ Loader = (*CommandLoader)(nil)
)
