package strategy

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/thinkroute/internal/execution"
	"github.com/spboyer/thinkroute/internal/models"
)

// Synthesizer merges several candidate answers into one.
type Synthesizer interface {
	Synthesize(ctx context.Context, question string, candidates []Answer) (*Answer, error)
}

// SynthesizerFunc adapts a function to Synthesizer.
type SynthesizerFunc func(ctx context.Context, question string, candidates []Answer) (*Answer, error)

func (f SynthesizerFunc) Synthesize(ctx context.Context, question string, candidates []Answer) (*Answer, error) {
	return f(ctx, question, candidates)
}

const bestAnswerToolName = "submit_best_answer"

// EngineSynthesizer asks a model to pick or merge the best answer and to
// report it through the submit_best_answer tool.
type EngineSynthesizer struct {
	engine  execution.Engine
	model   string
	timeout time.Duration
}

func NewEngineSynthesizer(engine execution.Engine, model string, timeout time.Duration) *EngineSynthesizer {
	return &EngineSynthesizer{engine: engine, model: model, timeout: timeout}
}

// Synthesize implements [Synthesizer]. The result is tagged MULTI_STRATEGY.
func (s *EngineSynthesizer) Synthesize(ctx context.Context, question string, candidates []Answer) (*Answer, error) {
	if len(candidates) == 0 {
		return nil, &models.StrategyExecutionError{Mode: models.ModeMultiStrategy, Err: errors.New("no candidate answers")}
	}

	sub := &bestAnswer{}
	prompt := fmt.Sprintf("Several reasoning strategies answered the same question. "+
		"Compare them, resolve disagreements and produce the single best answer. "+
		"Report it by calling the %s tool.\n\nQuestion:\n%s\n\nCandidate answers:\n%s",
		bestAnswerToolName, question, FormatCandidates(candidates))

	resp, err := s.engine.Execute(ctx, &execution.Request{
		Prompt:  prompt,
		ModelID: s.model,
		Tools:   []copilot.Tool{sub.tool()},
		Timeout: s.timeout,
	})
	if err != nil {
		return nil, &models.StrategyExecutionError{Mode: models.ModeMultiStrategy, Err: err}
	}

	text, reasoning := sub.get()
	if strings.TrimSpace(text) == "" {
		text, reasoning = splitAnswer(resp.TrimmedOutput())
	}
	if strings.TrimSpace(text) == "" {
		return nil, &models.StrategyExecutionError{Mode: models.ModeMultiStrategy, Err: errors.New("empty synthesis")}
	}

	return &Answer{
		Mode:     models.ModeMultiStrategy,
		Text:     strings.TrimSpace(text),
		Trace:    reasoning,
		Duration: resp.Duration,
	}, nil
}

// FormatCandidates renders answers as "[MODE] text" blocks.
func FormatCandidates(candidates []Answer) string {
	parts := make([]string, 0, len(candidates))
	for _, c := range candidates {
		parts = append(parts, fmt.Sprintf("[%s] %s", c.Mode, c.Text))
	}
	return strings.Join(parts, "\n\n")
}

type bestAnswer struct {
	mu        sync.Mutex
	text      string
	reasoning string
}

func (b *bestAnswer) tool() copilot.Tool {
	return copilot.Tool{
		Name:        bestAnswerToolName,
		Description: "Submit the synthesized best answer.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"best_answer": map[string]any{"type": "string"},
				"reasoning":   map[string]any{"type": "string"},
			},
			"required": []string{"best_answer"},
		},
		Handler: func(invocation copilot.ToolInvocation) (copilot.ToolResult, error) {
			var decoded struct {
				BestAnswer string `mapstructure:"best_answer"`
				Reasoning  string `mapstructure:"reasoning"`
			}
			if err := mapstructure.WeakDecode(invocation.Arguments, &decoded); err != nil {
				return copilot.ToolResult{}, nil
			}
			b.mu.Lock()
			defer b.mu.Unlock()
			b.text = decoded.BestAnswer
			b.reasoning = decoded.Reasoning
			return copilot.ToolResult{}, nil
		},
	}
}

func (b *bestAnswer) get() (string, string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text, b.reasoning
}
