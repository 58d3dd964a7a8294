package execution

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/spboyer/thinkroute/internal/logging"
)

// DefaultTimeout bounds a request that doesn't set its own.
const DefaultTimeout = 2 * time.Minute

// CopilotEngine talks to models through the GitHub Copilot SDK. One client
// is shared by every request; each request gets its own session so calls
// can run concurrently.
type CopilotEngine struct {
	defaultModelID string

	client copilotClient

	startOnce sync.Once
	startErr  error
}

// CopilotEngineBuilder builds a CopilotEngine with options
type CopilotEngineBuilder struct {
	engine *CopilotEngine
}

type CopilotEngineBuilderOptions struct {
	NewCopilotClient func(clientOptions *copilot.ClientOptions) copilotClient
}

// NewCopilotEngineBuilder creates a builder for CopilotEngine.
//   - defaultModelID - used when a request doesn't name a model. Can be blank, which lets
//     the copilot CLI pick its own fallback model.
func NewCopilotEngineBuilder(defaultModelID string, options *CopilotEngineBuilderOptions) *CopilotEngineBuilder {
	copilotOptions := &copilot.ClientOptions{
		LogLevel:  "error",
		AutoStart: copilot.Bool(false),
	}

	var client copilotClient
	if options == nil || options.NewCopilotClient == nil {
		client = newCopilotClient(copilotOptions)
	} else {
		client = options.NewCopilotClient(copilotOptions)
	}

	return &CopilotEngineBuilder{
		engine: &CopilotEngine{
			defaultModelID: defaultModelID,
			client:         client,
		},
	}
}

func (b *CopilotEngineBuilder) Build() *CopilotEngine {
	return b.engine
}

// Initialize is a no-op; the client starts lazily on the first Execute.
func (e *CopilotEngine) Initialize(ctx context.Context) error {
	return ctx.Err()
}

// Execute sends req.Prompt in a fresh session.
func (e *CopilotEngine) Execute(ctx context.Context, req *Request) (*Response, error) {
	if req == nil {
		return nil, errors.New("nil request passed to CopilotEngine.Execute")
	}

	e.startOnce.Do(func() {
		// the client's autostart races when several goroutines trigger it at once
		e.startErr = e.client.Start(ctx)
	})
	if e.startErr != nil {
		return nil, fmt.Errorf("copilot failed to start: %w", e.startErr)
	}

	modelID := e.defaultModelID
	if req.ModelID != "" {
		modelID = req.ModelID
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()

	session, err := e.client.CreateSession(ctx, &copilot.SessionConfig{
		Model:               modelID,
		Tools:               req.Tools,
		OnPermissionRequest: allowAllTools,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	collector := &sessionCollector{}
	unsubscribe := session.On(collector.On)
	defer unsubscribe()

	unsubscribe = session.On(logging.SessionToSlog)
	defer unsubscribe()

	final, err := session.SendAndWait(ctx, copilot.MessageOptions{
		Prompt: req.Prompt,
		Mode:   "enqueue",
	})
	if err != nil {
		return nil, fmt.Errorf("copilot session %s: %w", session.SessionID(), err)
	}
	if msg := collector.ErrorMessage(); msg != "" {
		return nil, fmt.Errorf("copilot session %s: %s", session.SessionID(), msg)
	}

	output := collector.Output()
	if output == "" && final != nil && final.Data.Content != nil {
		output = *final.Data.Content
	}

	return &Response{
		Output:    output,
		ModelID:   modelID,
		SessionID: session.SessionID(),
		Duration:  time.Since(start),
		ToolCalls: collector.ToolCalls(),
	}, nil
}

// Shutdown stops the copilot client.
func (e *CopilotEngine) Shutdown(ctx context.Context) error {
	if err := e.client.Stop(); err != nil {
		slog.Info("failed to stop client", "error", err)
	}
	return nil
}

func allowAllTools(request copilot.PermissionRequest, invocation copilot.PermissionInvocation) (copilot.PermissionRequestResult, error) {
	return copilot.PermissionRequestResult{Kind: "approved"}, nil
}

// sessionCollector gathers assistant text and tool starts from session
// events. Handlers can be called from the SDK's reader goroutine.
type sessionCollector struct {
	mu        sync.Mutex
	parts     []string
	toolCalls []string
	errorMsg  string
}

func (c *sessionCollector) On(event copilot.SessionEvent) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch event.Type {
	case copilot.AssistantMessage:
		if event.Data.Content != nil {
			c.parts = append(c.parts, *event.Data.Content)
		}
	case copilot.ToolExecutionStart:
		if event.Data.ToolName != nil {
			c.toolCalls = append(c.toolCalls, *event.Data.ToolName)
		}
	case copilot.SessionError:
		if event.Data.Message == nil || *event.Data.Message == "" {
			c.errorMsg = "session failed with unknown error"
		} else {
			c.errorMsg = *event.Data.Message
		}
	}
}

func (c *sessionCollector) Output() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return strings.Join(c.parts, "")
}

func (c *sessionCollector) ToolCalls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.toolCalls...)
}

func (c *sessionCollector) ErrorMessage() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errorMsg
}
