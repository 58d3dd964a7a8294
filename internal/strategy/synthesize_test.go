package strategy

import (
	"context"
	"testing"

	"github.com/spboyer/thinkroute/internal/execution"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var candidates = []Answer{
	{Mode: models.ModeCOT, Text: "42"},
	{Mode: models.ModeGOT, Text: "forty-two"},
}

func TestEngineSynthesizer_Tool(t *testing.T) {
	engine := execution.NewMockEngine("m").WithToolCall(bestAnswerToolName, map[string]any{
		"best_answer": "42",
		"reasoning":   "both agree",
	})

	got, err := NewEngineSynthesizer(engine, "", 0).Synthesize(context.Background(), "What is six times seven?", candidates)
	require.NoError(t, err)

	assert.Equal(t, models.ModeMultiStrategy, got.Mode)
	assert.Equal(t, "42", got.Text)
	assert.Equal(t, "both agree", got.Trace)

	prompt := engine.Requests()[0].Prompt
	assert.Contains(t, prompt, "[COT] 42")
	assert.Contains(t, prompt, "[GOT] forty-two")
}

func TestEngineSynthesizer_TextFallback(t *testing.T) {
	engine := execution.NewMockEngine("m").WithResponder(func(req *execution.Request) (string, error) {
		return "They agree.\nAnswer: 42", nil
	})

	got, err := NewEngineSynthesizer(engine, "", 0).Synthesize(context.Background(), "q", candidates)
	require.NoError(t, err)
	assert.Equal(t, "42", got.Text)
	assert.Equal(t, "They agree.", got.Trace)
}

func TestEngineSynthesizer_Errors(t *testing.T) {
	_, err := NewEngineSynthesizer(execution.NewMockEngine("m"), "", 0).Synthesize(context.Background(), "q", nil)
	var stratErr *models.StrategyExecutionError
	require.ErrorAs(t, err, &stratErr)

	empty := execution.NewMockEngine("m").WithResponder(func(req *execution.Request) (string, error) { return "", nil })
	_, err = NewEngineSynthesizer(empty, "", 0).Synthesize(context.Background(), "q", candidates)
	require.ErrorAs(t, err, &stratErr)
	assert.Equal(t, models.ModeMultiStrategy, stratErr.Mode)
}

func TestFormatCandidates(t *testing.T) {
	assert.Equal(t, "[COT] 42\n\n[GOT] forty-two", FormatCandidates(candidates))
	assert.Empty(t, FormatCandidates(nil))
}
