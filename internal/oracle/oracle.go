// Package oracle scores questions along the breadth and depth dimensions.
//
// The scoring itself is done by a language model; this package owns the
// call contract, response parsing and the retry/rate-limit/timeout
// decorators that make the call safe to use from a batch.
package oracle

import (
	"context"
	"fmt"
	"os"

	"github.com/spboyer/thinkroute/internal/models"
)

// Oracle scores a single question.
type Oracle interface {
	Score(ctx context.Context, question string) (*models.OracleResponse, error)
}

// Named is implemented by oracles that can identify their backend and
// model. The identity keys the persistent score cache.
type Named interface {
	Name() string
}

// NameOf returns o's name, or its Go type when it has none.
func NameOf(o Oracle) string {
	if n, ok := o.(Named); ok {
		return n.Name()
	}
	return fmt.Sprintf("%T", o)
}

// Func adapts a plain function to Oracle.
type Func func(ctx context.Context, question string) (*models.OracleResponse, error)

func (f Func) Score(ctx context.Context, question string) (*models.OracleResponse, error) {
	return f(ctx, question)
}

// Backend names a scoring oracle implementation.
type Backend string

const (
	BackendCopilot Backend = "copilot"
	BackendGenAI   Backend = "genai"
	BackendMock    Backend = "mock"
)

// RecommendedModels lists models known to follow the scoring instructions
// well, best first.
var RecommendedModels = map[Backend][]string{
	BackendCopilot: {"gpt-4.1", "claude-sonnet-4.5", "gpt-4o"},
	BackendGenAI:   {"gemini-2.5-flash", "gemini-2.5-pro"},
}

// GenAIAPIKey returns the Gemini API key from GEMINI_API_KEY or
// GOOGLE_API_KEY.
func GenAIAPIKey() (string, bool) {
	for _, name := range []string{"GEMINI_API_KEY", "GOOGLE_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			return v, true
		}
	}
	return "", false
}

// DefaultInstruction is the persona given to model-backed oracles.
const DefaultInstruction = `You classify questions for a reasoning router.
Score the question on two independent dimensions, each from 0 to 1:
- breadth: how much the question spans several interconnected topics or systems.
- depth: how much it needs foundational, first-principles understanding rather than recall.
Also suggest the reasoning mode that fits best, one of:
DIRECT (simple fact), COT (step by step), TOT (several valid paths or creative),
GOT (interconnected or systemic), AOT (first principles), COMBINED (multi-faceted).
Give an overall confidence from 0 to 1 and a one sentence rationale.`

func buildPrompt(instruction, question string) string {
	if instruction == "" {
		instruction = DefaultInstruction
	}
	return fmt.Sprintf("%s\n\nQuestion:\n%s", instruction, question)
}
