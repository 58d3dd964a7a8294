// Package execution sends prompts to a language model backend. The scoring
// oracle, the strategy executors and the synthesis step all go through an
// [Engine].
package execution

import (
	"context"
	"strings"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

// Engine runs a single prompt against a model.
type Engine interface {
	// Initialize sets up the engine
	Initialize(ctx context.Context) error

	// Execute sends one prompt and waits for the model to go idle.
	Execute(ctx context.Context, req *Request) (*Response, error)

	// Shutdown cleans up resources
	Shutdown(ctx context.Context) error
}

// Request is one prompt.
type Request struct {
	Prompt string
	// ModelID overrides the engine's default model when set.
	ModelID string
	// Tools are offered to the model for the duration of the request.
	Tools   []copilot.Tool
	Timeout time.Duration
}

// Response is what came back from the model.
type Response struct {
	Output    string
	ModelID   string
	SessionID string
	Duration  time.Duration
	// ToolCalls names the tools the model invoked, in order.
	ToolCalls []string
}

// Invoked reports whether the model called the named tool.
func (r *Response) Invoked(tool string) bool {
	for _, name := range r.ToolCalls {
		if name == tool {
			return true
		}
	}
	return false
}

// TrimmedOutput is Output without surrounding whitespace.
func (r *Response) TrimmedOutput() string {
	return strings.TrimSpace(r.Output)
}
