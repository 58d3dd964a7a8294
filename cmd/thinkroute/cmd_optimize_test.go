package main

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/optimize"
	"github.com/spboyer/thinkroute/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOptimizeCommand_AllCriteria(t *testing.T) {
	dir := setupProject(t)
	sweep := runQuickSweep(t, dir, "--no-history")
	recs := filepath.Join(dir, "recs.json")
	matrix := filepath.Join(dir, "matrix.json")
	report := filepath.Join(dir, "report.txt")

	stdout, _, err := runCLI(t, "optimize", sweep, "-o", recs, "--matrix", matrix, "--report", report)
	require.NoError(t, err)
	assert.Contains(t, stdout, "THRESHOLD OPTIMIZATION REPORT")

	set, err := validation.LoadRecommendations(recs)
	require.NoError(t, err)
	assert.Len(t, set.Recommendations, 3)

	data, err := os.ReadFile(matrix)
	require.NoError(t, err)
	var m optimize.AccuracyMatrix
	require.NoError(t, json.Unmarshal(data, &m))
	assert.Len(t, m, 3)
	assert.Contains(t, m, "0.50")

	text, err := os.ReadFile(report)
	require.NoError(t, err)
	assert.Contains(t, string(text), "Breadth threshold sensitivity")
}

func TestOptimizeCommand_SingleCriterionJSON(t *testing.T) {
	dir := setupProject(t)
	sweep := runQuickSweep(t, dir, "--no-history")

	stdout, _, err := runCLI(t, "optimize", sweep, "--criterion", "Accuracy", "--format", "json")
	require.NoError(t, err)

	var set models.RecommendationSet
	require.NoError(t, json.Unmarshal([]byte(stdout), &set))
	require.Len(t, set.Recommendations, 1)
	rec := set.Recommendations[models.CriterionAccuracy]
	assert.Len(t, rec.Candidates, 9)
	assert.Equal(t, 1, rec.Candidates[0].Rank)
	assert.Equal(t, rec.Chosen, rec.Candidates[0].Thresholds)
}

func TestOptimizeCommand_FromHistory(t *testing.T) {
	dir := setupProject(t)
	runQuickSweep(t, dir)

	stdout, _, err := runCLI(t, "history", "--json")
	require.NoError(t, err)
	var runs []struct{ ID string }
	require.NoError(t, json.Unmarshal([]byte(stdout), &runs))
	require.Len(t, runs, 1)

	stdout, _, err = runCLI(t, "optimize", "--run", runs[0].ID, "--criterion", "stability")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Top candidates (stability)")
}

func TestOptimizeCommand_Errors(t *testing.T) {
	dir := setupProject(t)
	sweep := runQuickSweep(t, dir, "--no-history")

	tests := []struct {
		name    string
		args    []string
		wantErr string
	}{
		{"no input", []string{"optimize"}, "a sweep file or --run is required"},
		{"both inputs", []string{"optimize", sweep, "--run", "abc"}, "not both"},
		{"bad criterion", []string{"optimize", sweep, "--criterion", "fastest"}, "unknown criterion"},
		{"bad format", []string{"optimize", sweep, "--format", "xml"}, "unsupported format"},
		{"missing file", []string{"optimize", filepath.Join(dir, "nope.json")}, "failed to load"},
		{"unknown run", []string{"optimize", "--run", "abc"}, "not found"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := runCLI(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOptimizeCommand_RejectsInvalidArtifact(t *testing.T) {
	dir := setupProject(t)
	bad := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte(`{"examples": 1, "results": [{"accuracy": 3}]}`), 0o644))

	_, _, err := runCLI(t, "optimize", bad)
	var schemaErr *validation.SchemaError
	require.ErrorAs(t, err, &schemaErr)
}
