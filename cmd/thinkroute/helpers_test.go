package main

import (
	"bytes"
	"testing"

	"github.com/spboyer/thinkroute/internal/dataset"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/projectconfig"
	"github.com/stretchr/testify/require"
)

// sampleExamples includes DIRECT and TOT labels, which the decision table
// never produces, so no configuration can reach 100% accuracy.
var sampleExamples = []models.LabeledExample{
	{ID: "d1", Question: "What is the capital of France?", ExpectedMode: models.ModeDirect},
	{ID: "c1", Question: "If a train leaves at 3pm going 60mph, when does it cover 150 miles?", ExpectedMode: models.ModeCOT},
	{ID: "t1", Question: "Plan three different routes for a weekend road trip and pick one.", ExpectedMode: models.ModeTOT},
	{ID: "g1", Question: "How do monetary policy, housing and employment influence each other?", ExpectedMode: models.ModeGOT},
	{ID: "a1", Question: "Derive the quadratic formula from first principles.", ExpectedMode: models.ModeAOT},
	{ID: "x1", Question: "Explain how climate, trade and migration shaped the Roman economy in depth.", ExpectedMode: models.ModeCombined},
}

// setupProject creates a mock-backed project in a temp dir and changes
// into it.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	cfg := projectconfig.New()
	cfg.Oracle.Backend = "mock"
	cfg.Oracle.MaxAttempts = 1
	_, err := projectconfig.Write(dir, cfg)
	require.NoError(t, err)
	require.NoError(t, dataset.WritePartitioned(dir+"/"+projectconfig.DefaultDatasetDir, sampleExamples))

	t.Chdir(dir)
	return dir
}

// runCLI runs the root command with args and returns stdout and stderr.
func runCLI(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}
