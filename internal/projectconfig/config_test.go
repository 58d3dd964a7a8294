package projectconfig

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNew_ReturnsAllDefaults(t *testing.T) {
	cfg := New()

	// Paths
	assertEqual(t, "Paths.Dataset", "data/", cfg.Paths.Dataset)
	assertEqual(t, "Paths.Results", "results/", cfg.Paths.Results)
	assertEqual(t, "Paths.History", ".thinkroute/history.db", cfg.Paths.History)

	// Oracle
	assertEqual(t, "Oracle.Backend", "copilot", cfg.Oracle.Backend)
	assertEqual(t, "Oracle.Model", "gpt-4.1", cfg.Oracle.Model)
	assertEqual(t, "Oracle.Instruction", "", cfg.Oracle.Instruction)
	assertEqualInt(t, "Oracle.Timeout", 120, cfg.Oracle.Timeout)
	assertEqualInt(t, "Oracle.MaxAttempts", 3, cfg.Oracle.MaxAttempts)
	assertEqualFloat(t, "Oracle.RateLimit", 0, cfg.Oracle.RateLimit)

	// Routing
	assertEqualFloat(t, "Routing.Breadth", 0.8, cfg.Routing.Breadth)
	assertEqualFloat(t, "Routing.Depth", 0.7, cfg.Routing.Depth)
	assertEqualFloat(t, "Routing.ConfidenceThreshold", 0.7, cfg.Routing.ConfidenceThreshold)

	// Sweep
	assertEqual(t, "Sweep.Grid", "full", cfg.Sweep.Grid)
	assertBoolPtr(t, "Sweep.Parallel", false, cfg.Sweep.Parallel)
	assertEqualInt(t, "Sweep.Workers", 4, cfg.Sweep.Workers)

	// Cache
	assertBoolPtr(t, "Cache.Enabled", false, cfg.Cache.Enabled)
	assertEqual(t, "Cache.Dir", ".thinkroute-cache", cfg.Cache.Dir)

	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoad_FullConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
paths:
  dataset: "datasets/routing"
  results: "out/"
  history: "hist.db"
oracle:
  backend: genai
  model: gemini-2.5-flash
  instruction: "Score it."
  timeout: 30
  max_attempts: 5
  rate_limit: 2.5
routing:
  breadth: 0.6
  depth: 0.5
  confidence_threshold: 0.4
strategy:
  model: gpt-4o
  timeout: 60
sweep:
  grid: quick
  parallel: true
  workers: 8
  min_accuracy: 0.65
  seed: 7
cache:
  enabled: true
  dir: ".my-cache"
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Paths.Dataset", "datasets/routing", cfg.Paths.Dataset)
	assertEqual(t, "Paths.Results", "out/", cfg.Paths.Results)
	assertEqual(t, "Paths.History", "hist.db", cfg.Paths.History)
	assertEqual(t, "Oracle.Backend", "genai", cfg.Oracle.Backend)
	assertEqual(t, "Oracle.Model", "gemini-2.5-flash", cfg.Oracle.Model)
	assertEqual(t, "Oracle.Instruction", "Score it.", cfg.Oracle.Instruction)
	assertEqualInt(t, "Oracle.Timeout", 30, cfg.Oracle.Timeout)
	assertEqualInt(t, "Oracle.MaxAttempts", 5, cfg.Oracle.MaxAttempts)
	assertEqualFloat(t, "Oracle.RateLimit", 2.5, cfg.Oracle.RateLimit)
	assertEqualFloat(t, "Routing.Breadth", 0.6, cfg.Routing.Breadth)
	assertEqualFloat(t, "Routing.Depth", 0.5, cfg.Routing.Depth)
	assertEqualFloat(t, "Routing.ConfidenceThreshold", 0.4, cfg.Routing.ConfidenceThreshold)
	assertEqual(t, "Strategy.Model", "gpt-4o", cfg.Strategy.Model)
	assertEqualInt(t, "Strategy.Timeout", 60, cfg.Strategy.Timeout)
	assertEqual(t, "Sweep.Grid", "quick", cfg.Sweep.Grid)
	assertBoolPtr(t, "Sweep.Parallel", true, cfg.Sweep.Parallel)
	assertEqualInt(t, "Sweep.Workers", 8, cfg.Sweep.Workers)
	assertEqualFloat(t, "Sweep.MinAccuracy", 0.65, cfg.Sweep.MinAccuracy)
	if cfg.Sweep.Seed != 7 {
		t.Errorf("Sweep.Seed = %d, want 7", cfg.Sweep.Seed)
	}
	assertBoolPtr(t, "Cache.Enabled", true, cfg.Cache.Enabled)
	assertEqual(t, "Cache.Dir", ".my-cache", cfg.Cache.Dir)
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
oracle:
  backend: mock
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	// Overridden
	assertEqual(t, "Oracle.Backend", "mock", cfg.Oracle.Backend)

	// Defaults preserved
	assertEqual(t, "Oracle.Model", "gpt-4.1", cfg.Oracle.Model)
	assertEqual(t, "Paths.Dataset", "data/", cfg.Paths.Dataset)
	assertEqualFloat(t, "Routing.Breadth", 0.8, cfg.Routing.Breadth)
	assertBoolPtr(t, "Sweep.Parallel", false, cfg.Sweep.Parallel)
}

func TestLoad_MissingFile_ReturnsDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	defaults := New()
	assertEqual(t, "Oracle.Backend", defaults.Oracle.Backend, cfg.Oracle.Backend)
	assertEqualInt(t, "Oracle.Timeout", defaults.Oracle.Timeout, cfg.Oracle.Timeout)
	assertEqual(t, "Sweep.Grid", defaults.Sweep.Grid, cfg.Sweep.Grid)
}

func TestLoad_InvalidYAML_ReturnsError(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
oracle:
  backend: [not valid yaml
    this is broken
`)

	if _, err := Load(dir); err == nil {
		t.Fatal("Load() should return error for invalid YAML")
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"unknown backend", "oracle:\n  backend: openai\n"},
		{"unknown grid", "sweep:\n  grid: huge\n"},
		{"breadth at 1", "routing:\n  breadth: 1.0\n"},
		{"negative depth", "routing:\n  depth: -0.2\n"},
		{"confidence above 1", "routing:\n  confidence_threshold: 1.5\n"},
		{"min accuracy above 1", "sweep:\n  min_accuracy: 2\n"},
		{"negative rate", "oracle:\n  rate_limit: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			writeFile(t, dir, FileName, tt.yaml)
			if _, err := Load(dir); err == nil {
				t.Fatal("Load() should reject invalid values")
			}
		})
	}
}

func TestLoad_WalksUpDirectories(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, FileName, `
oracle:
  model: found-it
`)

	child := filepath.Join(root, "a", "b", "c")
	if err := os.MkdirAll(child, 0o755); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(child)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}

	assertEqual(t, "Oracle.Model", "found-it", cfg.Oracle.Model)
	assertEqual(t, "Oracle.Backend", "copilot", cfg.Oracle.Backend)
}

func TestBoolPointerFields(t *testing.T) {
	t.Run("explicitly false", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, `
sweep:
  parallel: false
cache:
  enabled: false
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Sweep.Parallel", false, cfg.Sweep.Parallel)
		assertBoolPtr(t, "Cache.Enabled", false, cfg.Cache.Enabled)
	})

	t.Run("explicitly true", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, FileName, `
sweep:
  parallel: true
cache:
  enabled: true
`)
		cfg, err := Load(dir)
		if err != nil {
			t.Fatalf("Load() error: %v", err)
		}
		assertBoolPtr(t, "Sweep.Parallel", true, cfg.Sweep.Parallel)
		assertBoolPtr(t, "Cache.Enabled", true, cfg.Cache.Enabled)
	})
}

func TestWrite_RoundTrips(t *testing.T) {
	dir := t.TempDir()
	cfg := New()
	cfg.Oracle.Backend = "genai"
	cfg.Routing.Breadth = 0.6
	cfg.Sweep.Parallel = boolPtr(true)

	p, err := Write(dir, cfg)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	assertEqual(t, "path", filepath.Join(dir, FileName), p)

	loaded, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	assertEqual(t, "Oracle.Backend", "genai", loaded.Oracle.Backend)
	assertEqualFloat(t, "Routing.Breadth", 0.6, loaded.Routing.Breadth)
	assertBoolPtr(t, "Sweep.Parallel", true, loaded.Sweep.Parallel)
}

func TestLoad_Hooks(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, FileName, `
hooks:
  before_sweep:
    - command: "make dataset"
      working_directory: tools
      error_on_fail: true
  after_sweep:
    - command: "./publish.sh"
      exit_codes: [0, 3]
`)

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if len(cfg.Hooks.BeforeSweep) != 1 || len(cfg.Hooks.AfterSweep) != 1 {
		t.Fatalf("hooks = %+v, want one before and one after", cfg.Hooks)
	}
	before := cfg.Hooks.BeforeSweep[0]
	assertEqual(t, "BeforeSweep.Command", "make dataset", before.Command)
	assertEqual(t, "BeforeSweep.WorkingDirectory", "tools", before.WorkingDirectory)
	if !before.ErrorOnFail {
		t.Error("BeforeSweep.ErrorOnFail = false, want true")
	}
	after := cfg.Hooks.AfterSweep[0]
	if len(after.ExitCodes) != 2 || after.ExitCodes[1] != 3 {
		t.Errorf("AfterSweep.ExitCodes = %v, want [0 3]", after.ExitCodes)
	}
	if !New().Hooks.Empty() {
		t.Error("defaults should have no hooks")
	}
}

// --- test helpers ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func assertEqual(t *testing.T, field, want, got string) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %q, want %q", field, got, want)
	}
}

func assertEqualInt(t *testing.T, field string, want, got int) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %d, want %d", field, got, want)
	}
}

func assertEqualFloat(t *testing.T, field string, want, got float64) {
	t.Helper()
	if got != want {
		t.Errorf("%s = %v, want %v", field, got, want)
	}
}

func assertBoolPtr(t *testing.T, field string, want bool, got *bool) {
	t.Helper()
	if got == nil {
		t.Errorf("%s is nil, want *%v", field, want)
		return
	}
	if *got != want {
		t.Errorf("%s = %v, want %v", field, *got, want)
	}
}
