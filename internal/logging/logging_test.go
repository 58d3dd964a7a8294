package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	copilot "github.com/github/copilot-sdk/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keepDefault(t *testing.T) {
	old := slog.Default()
	t.Cleanup(func() { slog.SetDefault(old) })
}

func TestNew_HasComponent(t *testing.T) {
	keepDefault(t)
	var buf bytes.Buffer
	Init(slog.LevelDebug, "text", &buf)

	New("harness").Info("sweep started")

	assert.Contains(t, buf.String(), "component=harness")
	assert.Contains(t, buf.String(), "sweep started")
}

func TestInit_JSONFormat(t *testing.T) {
	keepDefault(t)
	var buf bytes.Buffer
	Init(slog.LevelInfo, "json", &buf)

	New("oracle").Info("scored")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "INFO", entry["level"])
	assert.Equal(t, "oracle", entry["component"])
}

func TestInit_LevelGating(t *testing.T) {
	keepDefault(t)
	var buf bytes.Buffer
	Init(slog.LevelWarn, "text", &buf)

	New("gate").Info("suppressed")
	assert.Zero(t, buf.Len())

	New("gate").Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestParseLevel(t *testing.T) {
	lvl, err := ParseLevel("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, lvl)

	lvl, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, lvl)

	_, err = ParseLevel("loud")
	require.Error(t, err)
}

func TestSessionToSlog(t *testing.T) {
	keepDefault(t)

	var buf bytes.Buffer
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelInfo})))
	SessionToSlog(copilot.SessionEvent{Type: copilot.SessionEventType("message")})
	assert.Zero(t, buf.Len(), "nothing logged below debug")

	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	content := "breadth 0.8"
	toolName := "submit_dimensional_scores"
	SessionToSlog(copilot.SessionEvent{
		Type: copilot.SessionEventType("message"),
		Data: copilot.Data{Content: &content, ToolName: &toolName},
	})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "copilot event", entry["msg"])
	assert.Equal(t, content, entry["content"])
	assert.Equal(t, toolName, entry["toolName"])
	assert.NotContains(t, entry, "toolCallID")
}
