package main

import (
	"path/filepath"
	"testing"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/projectconfig"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitCommand_CreatesProjectStructure(t *testing.T) {
	target := filepath.Join(t.TempDir(), "my-project")

	stdout, _, err := runCLI(t, "init", target)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Created "+filepath.Join(target, projectconfig.FileName))

	assert.FileExists(t, filepath.Join(target, projectconfig.FileName))
	for _, mode := range models.CanonicalModes {
		assert.DirExists(t, filepath.Join(target, projectconfig.DefaultDatasetDir, mode.DatasetDir()))
	}

	cfg, err := projectconfig.Load(target)
	require.NoError(t, err)
	assert.Equal(t, projectconfig.DefaultBackend, cfg.Oracle.Backend)
}

func TestInitCommand_RefusesToOverwrite(t *testing.T) {
	target := t.TempDir()

	_, _, err := runCLI(t, "init", target)
	require.NoError(t, err)

	_, _, err = runCLI(t, "init", target)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")

	_, _, err = runCLI(t, "init", target, "--force")
	assert.NoError(t, err)
}

func TestHistoryCommand_Empty(t *testing.T) {
	setupProject(t)

	stdout, _, err := runCLI(t, "history")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No runs recorded yet.")
}
