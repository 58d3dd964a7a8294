package strategy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spboyer/thinkroute/internal/execution"
	"github.com/spboyer/thinkroute/internal/models"
)

// personas are the system prompts for each reasoning strategy.
var personas = map[models.Mode]string{
	models.ModeDirect: "Answer the question directly and concisely. Do not show your reasoning.",
	models.ModeCOT: "Think step by step. Write your reasoning as numbered steps, " +
		"then give the final answer on a line starting with \"Answer:\".",
	models.ModeTOT: "Explore three distinct approaches to the question. For each, sketch the line of reasoning " +
		"and rate how promising it is. Pursue the best one and give the final answer on a line starting with \"Answer:\".",
	models.ModeGOT: "List the key concepts involved in the question and how they connect to each other. " +
		"Reason over those connections and give the final answer on a line starting with \"Answer:\".",
	models.ModeAOT: "Break the question into its fundamental premises. Check that each premise is irreducible, " +
		"build the answer up from them and give the final answer on a line starting with \"Answer:\".",
	models.ModeCombined: "The question has several facets. Identify the relevant concepts and how they interact, " +
		"then reason about each from first principles. Give the final answer on a line starting with \"Answer:\".",
}

// Persona returns the system prompt used for mode.
func Persona(mode models.Mode) string {
	return personas[mode]
}

// PromptExecutor answers by sending a strategy persona and the question to
// an execution.Engine.
type PromptExecutor struct {
	engine  execution.Engine
	mode    models.Mode
	model   string
	timeout time.Duration
}

func NewPromptExecutor(engine execution.Engine, mode models.Mode, model string, timeout time.Duration) *PromptExecutor {
	return &PromptExecutor{engine: engine, mode: mode, model: model, timeout: timeout}
}

// Execute implements [Executor].
func (e *PromptExecutor) Execute(ctx context.Context, question string) (*Answer, error) {
	prompt := fmt.Sprintf("%s\n\nQuestion:\n%s", Persona(e.mode), question)

	resp, err := e.engine.Execute(ctx, &execution.Request{
		Prompt:  prompt,
		ModelID: e.model,
		Timeout: e.timeout,
	})
	if err != nil {
		return nil, &models.StrategyExecutionError{Mode: e.mode, Err: err}
	}

	text := resp.TrimmedOutput()
	if text == "" {
		return nil, &models.StrategyExecutionError{Mode: e.mode, Err: errors.New("empty answer")}
	}

	answer, trace := splitAnswer(text)
	return &Answer{
		Mode:     e.mode,
		Text:     answer,
		Trace:    trace,
		Duration: resp.Duration,
	}, nil
}

// NewEngineTable builds an executor for every canonical mode on engine.
func NewEngineTable(engine execution.Engine, model string, timeout time.Duration) Table {
	t := make(Table, len(models.CanonicalModes))
	for _, mode := range models.CanonicalModes {
		t[mode] = NewPromptExecutor(engine, mode, model, timeout)
	}
	return t
}
