package oracle

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spboyer/thinkroute/internal/execution"
	"github.com/spboyer/thinkroute/internal/models"
)

const scoreToolName = "submit_dimensional_scores"

// CopilotOracle asks a model, through an execution.Engine, to submit its
// scores with a tool call. If the model answers in prose instead, the
// final text is parsed.
type CopilotOracle struct {
	engine      execution.Engine
	model       string
	instruction string
	timeout     time.Duration
}

// CopilotOracleOptions configures NewCopilotOracle. Zero values fall back
// to the engine's model, DefaultInstruction and execution.DefaultTimeout.
type CopilotOracleOptions struct {
	Model       string
	Instruction string
	Timeout     time.Duration
}

func NewCopilotOracle(engine execution.Engine, opts CopilotOracleOptions) *CopilotOracle {
	return &CopilotOracle{
		engine:      engine,
		model:       opts.Model,
		instruction: opts.Instruction,
		timeout:     opts.Timeout,
	}
}

// Name implements [Named].
func (o *CopilotOracle) Name() string {
	return fmt.Sprintf("%s/%s", BackendCopilot, o.model)
}

// Score implements [Oracle].
func (o *CopilotOracle) Score(ctx context.Context, question string) (*models.OracleResponse, error) {
	start := time.Now()
	submission := &scoreSubmission{}

	prompt := buildPrompt(o.instruction, question) +
		fmt.Sprintf("\n\nReport your answer by calling the %s tool exactly once.", scoreToolName)

	resp, err := o.engine.Execute(ctx, &execution.Request{
		Prompt:  prompt,
		ModelID: o.model,
		Tools:   []copilot.Tool{submission.tool()},
		Timeout: o.timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("scoring oracle: %w", err)
	}

	var parsed *models.OracleResponse
	raw, ok, decodeErr := submission.get()
	switch {
	case ok:
		parsed, err = raw.toResponse()
	case decodeErr != nil:
		err = &models.OracleParseError{Field: "tool arguments", Err: decodeErr}
	default:
		if !resp.Invoked(scoreToolName) {
			slog.Debug("score tool not called, parsing assistant text", "model", o.model)
		}
		parsed, err = ParseText(resp.Output)
	}
	if err != nil {
		return nil, err
	}

	parsed.Latency = time.Since(start)
	return parsed, nil
}

// scoreSubmission captures the arguments of the score tool. The handler
// runs on the SDK's goroutine.
type scoreSubmission struct {
	mu   sync.Mutex
	raw  rawScores
	done bool
	err  error
}

func (s *scoreSubmission) tool() copilot.Tool {
	return copilot.Tool{
		Name:        scoreToolName,
		Description: "Submit the breadth and depth scores for the question. Call this exactly once.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"breadth": map[string]any{
					"type":        "number",
					"description": "0-1, how much the question spans interconnected topics",
				},
				"depth": map[string]any{
					"type":        "number",
					"description": "0-1, how much the question needs first-principles understanding",
				},
				"mode_guess": map[string]any{
					"type": "string",
					"enum": []string{"DIRECT", "COT", "TOT", "GOT", "AOT", "COMBINED"},
				},
				"confidence": map[string]any{
					"type":        "number",
					"description": "0-1, confidence in the suggested mode",
				},
				"rationale": map[string]any{
					"type":        "string",
					"description": "One sentence explaining the scores",
				},
			},
			"required": []string{"breadth", "depth"},
		},
		Handler: func(invocation copilot.ToolInvocation) (copilot.ToolResult, error) {
			var raw rawScores
			err := mapstructure.WeakDecode(invocation.Arguments, &raw)

			s.mu.Lock()
			defer s.mu.Unlock()
			if err != nil {
				s.err = err
				return copilot.ToolResult{}, nil
			}
			s.raw = raw
			s.done = true
			return copilot.ToolResult{}, nil
		},
	}
}

func (s *scoreSubmission) get() (rawScores, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.raw, s.done, s.err
}
