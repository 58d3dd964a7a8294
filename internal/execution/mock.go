package execution

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
)

// MockEngine is a scripted Engine for tests and offline runs. It never
// contacts a model.
type MockEngine struct {
	modelID string

	mu sync.Mutex
	// respond produces the output text for a request. When nil the engine
	// echoes the prompt.
	respond func(req *Request) (string, error)
	// toolArgs holds arguments to feed to offered tools, keyed by tool name.
	toolArgs map[string]map[string]any
	requests []Request
}

// NewMockEngine creates a new mock engine
func NewMockEngine(modelID string) *MockEngine {
	return &MockEngine{
		modelID:  modelID,
		toolArgs: map[string]map[string]any{},
	}
}

// WithResponder sets the function that produces output text.
func (m *MockEngine) WithResponder(fn func(req *Request) (string, error)) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.respond = fn
	return m
}

// WithToolCall makes the engine invoke the named tool with args whenever a
// request offers it.
func (m *MockEngine) WithToolCall(tool string, args map[string]any) *MockEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.toolArgs[tool] = args
	return m
}

// Requests returns a copy of every request seen so far.
func (m *MockEngine) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Request(nil), m.requests...)
}

func (m *MockEngine) Initialize(ctx context.Context) error {
	return nil
}

func (m *MockEngine) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request passed to MockEngine.Execute")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()

	m.mu.Lock()
	m.requests = append(m.requests, *req)
	respond := m.respond
	toolArgs := make(map[string]map[string]any, len(m.toolArgs))
	for k, v := range m.toolArgs {
		toolArgs[k] = v
	}
	m.mu.Unlock()

	var called []string
	for _, tool := range req.Tools {
		args, ok := toolArgs[tool.Name]
		if !ok || tool.Handler == nil {
			continue
		}
		if _, err := tool.Handler(copilot.ToolInvocation{ToolName: tool.Name, Arguments: args}); err != nil {
			return nil, fmt.Errorf("tool %s: %w", tool.Name, err)
		}
		called = append(called, tool.Name)
	}

	output := fmt.Sprintf("Mock response for: %s", req.Prompt)
	if respond != nil {
		var err error
		if output, err = respond(req); err != nil {
			return nil, err
		}
	}

	modelID := m.modelID
	if req.ModelID != "" {
		modelID = req.ModelID
	}

	return &Response{
		Output:    output,
		ModelID:   modelID,
		SessionID: "mock-session",
		Duration:  time.Since(start),
		ToolCalls: called,
	}, nil
}

func (m *MockEngine) Shutdown(ctx context.Context) error {
	return nil
}
