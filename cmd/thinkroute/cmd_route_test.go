package main

import (
	"encoding/json"
	"testing"

	"github.com/spboyer/thinkroute/internal/execution"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/oracle"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouteCommand_JSON(t *testing.T) {
	setupProject(t)

	stdout, _, err := runCLI(t, "route", "How do supply chains and politics interact?", "--breadth", "0.6", "--depth", "0.5", "--json")
	require.NoError(t, err)

	var d models.RoutingDecision
	require.NoError(t, json.Unmarshal([]byte(stdout), &d))
	assert.Equal(t, models.ThresholdConfig{Breadth: 0.6, Depth: 0.5}, d.Thresholds)
	assert.Contains(t, []models.Mode{models.ModeCOT, models.ModeGOT, models.ModeAOT, models.ModeCombined}, d.PredictedMode)
	assert.NotEmpty(t, d.Rationale)
}

func TestRouteCommand_IsDeterministic(t *testing.T) {
	setupProject(t)

	first, _, err := runCLI(t, "route", "Why is the sky blue?", "--json")
	require.NoError(t, err)
	second, _, err := runCLI(t, "route", "Why is the sky blue?", "--json")
	require.NoError(t, err)
	assert.JSONEq(t, first, second)
}

func TestRouteCommand_TextAndExecute(t *testing.T) {
	setupProject(t)

	stdout, _, err := runCLI(t, "route", "Why is the sky blue?", "--execute")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Mode:")
	assert.Contains(t, stdout, "Scores:")
	assert.Contains(t, stdout, "Mock response for:")
}

func TestRouteCommand_Errors(t *testing.T) {
	setupProject(t)

	_, _, err := runCLI(t, "route")
	assert.Error(t, err)

	_, _, err = runCLI(t, "route", "q", "--breadth", "1.5")
	assert.Error(t, err)

	_, _, err = runCLI(t, "route", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "routing failed")
}

func TestThresholdsFromFlags(t *testing.T) {
	assert.Equal(t, models.ThresholdConfig{Breadth: 0.8, Depth: 0.7}, thresholdsFromFlags(0.8, 0.7, 0, 0))
	assert.Equal(t, models.ThresholdConfig{Breadth: 0.5, Depth: 0.7}, thresholdsFromFlags(0.8, 0.7, 0.5, 0))
	assert.Equal(t, models.ThresholdConfig{Breadth: 0.8, Depth: 0.4}, thresholdsFromFlags(0.8, 0.7, 0, 0.4))
}

func TestMockScores(t *testing.T) {
	req := &execution.Request{Prompt: "How many moons does Jupiter have?"}

	first, err := mockScores(req)
	require.NoError(t, err)
	second, err := mockScores(req)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	resp, err := oracle.ParseText(first)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, resp.Scores.Breadth, 0.05)
	assert.LessOrEqual(t, resp.Scores.Breadth, 0.95)
	assert.GreaterOrEqual(t, resp.Scores.Depth, 0.05)
	assert.LessOrEqual(t, resp.Scores.Depth, 0.95)
	require.NotNil(t, resp.Confidence)
	assert.Less(t, *resp.Confidence, 1.0)
	assert.True(t, resp.ModeGuess.IsCanonical())
}
