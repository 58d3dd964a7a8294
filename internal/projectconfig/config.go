// Package projectconfig provides the ProjectConfig struct and loader for
// .thinkroute.yaml project-level configuration files.
package projectconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/thinkroute/internal/hooks"
	"gopkg.in/yaml.v3"
)

// FileName is the project configuration file looked up by Load.
const FileName = ".thinkroute.yaml"

// Default values for project configuration. New() references them and no
// other code should duplicate them.
const (
	DefaultDatasetDir  = "data/"
	DefaultResultsDir  = "results/"
	DefaultHistoryPath = ".thinkroute/history.db"

	DefaultBackend     = "copilot"
	DefaultModel       = "gpt-4.1"
	DefaultTimeout     = 120
	DefaultMaxAttempts = 3

	DefaultBreadth             = 0.8
	DefaultDepth               = 0.7
	DefaultConfidenceThreshold = 0.7

	DefaultGrid    = "full"
	DefaultWorkers = 4

	DefaultCacheDir = ".thinkroute-cache"
)

// Grid names accepted by sweep.grid.
const (
	GridFull  = "full"
	GridQuick = "quick"
)

// Backends lists the supported oracle.backend values.
var Backends = []string{"copilot", "genai", "mock"}

// PathsConfig holds the dataset, results and history locations.
type PathsConfig struct {
	Dataset string `yaml:"dataset,omitempty"`
	Results string `yaml:"results,omitempty"`
	History string `yaml:"history,omitempty"`
}

// OracleConfig selects and tunes the scoring oracle.
type OracleConfig struct {
	Backend     string `yaml:"backend,omitempty"`
	Model       string `yaml:"model,omitempty"`
	Instruction string `yaml:"instruction,omitempty"`
	// Timeout is per call, in seconds.
	Timeout     int     `yaml:"timeout,omitempty"`
	MaxAttempts int     `yaml:"max_attempts,omitempty"`
	RateLimit   float64 `yaml:"rate_limit,omitempty"`
}

// RoutingConfig holds the thresholds used outside of a sweep.
type RoutingConfig struct {
	Breadth             float64 `yaml:"breadth,omitempty"`
	Depth               float64 `yaml:"depth,omitempty"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold,omitempty"`
}

// StrategyConfig configures the reasoning strategy executors.
type StrategyConfig struct {
	Model   string `yaml:"model,omitempty"`
	Timeout int    `yaml:"timeout,omitempty"`
}

// SweepConfig holds harness defaults.
type SweepConfig struct {
	Grid        string  `yaml:"grid,omitempty"`
	Parallel    *bool   `yaml:"parallel,omitempty"`
	Workers     int     `yaml:"workers,omitempty"`
	MinAccuracy float64 `yaml:"min_accuracy,omitempty"`
	// Seed for the bootstrap accuracy intervals. Zero keeps the built-in seed.
	Seed int64 `yaml:"seed,omitempty"`
}

// CacheConfig holds persistent score cache settings.
type CacheConfig struct {
	Enabled *bool  `yaml:"enabled,omitempty"`
	Dir     string `yaml:"dir,omitempty"`
}

// ProjectConfig is the top-level configuration loaded from .thinkroute.yaml.
type ProjectConfig struct {
	Paths    PathsConfig    `yaml:"paths,omitempty"`
	Oracle   OracleConfig   `yaml:"oracle,omitempty"`
	Routing  RoutingConfig  `yaml:"routing,omitempty"`
	Strategy StrategyConfig `yaml:"strategy,omitempty"`
	Sweep    SweepConfig    `yaml:"sweep,omitempty"`
	Cache    CacheConfig    `yaml:"cache,omitempty"`
	Hooks    hooks.Config   `yaml:"hooks,omitempty"`
}

// New returns a ProjectConfig with all hard-coded defaults populated.
func New() *ProjectConfig {
	return &ProjectConfig{
		Paths: PathsConfig{
			Dataset: DefaultDatasetDir,
			Results: DefaultResultsDir,
			History: DefaultHistoryPath,
		},
		Oracle: OracleConfig{
			Backend:     DefaultBackend,
			Model:       DefaultModel,
			Timeout:     DefaultTimeout,
			MaxAttempts: DefaultMaxAttempts,
		},
		Routing: RoutingConfig{
			Breadth:             DefaultBreadth,
			Depth:               DefaultDepth,
			ConfidenceThreshold: DefaultConfidenceThreshold,
		},
		Strategy: StrategyConfig{
			Model:   DefaultModel,
			Timeout: DefaultTimeout,
		},
		Sweep: SweepConfig{
			Grid:     DefaultGrid,
			Parallel: boolPtr(false),
			Workers:  DefaultWorkers,
		},
		Cache: CacheConfig{
			Enabled: boolPtr(false),
			Dir:     DefaultCacheDir,
		},
	}
}

// Load finds .thinkroute.yaml by walking up from startDir (max 10 levels),
// unmarshals it, and fills in missing fields with defaults.
// If no config file is found, returns defaults with a nil error.
// Real I/O errors (e.g. permission denied) are returned to the caller.
func Load(startDir string) (*ProjectConfig, error) {
	cfg := New()

	data, err := findConfigFile(startDir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("loading %s: %w", FileName, err)
	}

	var fileCfg ProjectConfig
	if err := yaml.Unmarshal(data, &fileCfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", FileName, err)
	}

	mergeConfig(cfg, &fileCfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", FileName, err)
	}
	return cfg, nil
}

// Validate checks values that defaults cannot repair.
func (c *ProjectConfig) Validate() error {
	if !contains(Backends, c.Oracle.Backend) {
		return fmt.Errorf("oracle.backend %q is not one of %v", c.Oracle.Backend, Backends)
	}
	if c.Sweep.Grid != GridFull && c.Sweep.Grid != GridQuick {
		return fmt.Errorf("sweep.grid %q must be %q or %q", c.Sweep.Grid, GridFull, GridQuick)
	}
	for name, v := range map[string]float64{"routing.breadth": c.Routing.Breadth, "routing.depth": c.Routing.Depth} {
		if v <= 0 || v >= 1 {
			return fmt.Errorf("%s %v must be strictly between 0 and 1", name, v)
		}
	}
	if c.Routing.ConfidenceThreshold < 0 || c.Routing.ConfidenceThreshold > 1 {
		return fmt.Errorf("routing.confidence_threshold %v must be in [0,1]", c.Routing.ConfidenceThreshold)
	}
	if c.Sweep.MinAccuracy < 0 || c.Sweep.MinAccuracy > 1 {
		return fmt.Errorf("sweep.min_accuracy %v must be in [0,1]", c.Sweep.MinAccuracy)
	}
	if c.Oracle.RateLimit < 0 {
		return fmt.Errorf("oracle.rate_limit %v must not be negative", c.Oracle.RateLimit)
	}
	return nil
}

// Write stores cfg as dir/.thinkroute.yaml and returns the path.
func Write(dir string, cfg *ProjectConfig) (string, error) {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return "", fmt.Errorf("encoding %s: %w", FileName, err)
	}
	p := filepath.Join(dir, FileName)
	if err := os.WriteFile(p, data, 0o644); err != nil {
		return "", fmt.Errorf("writing %q: %w", p, err)
	}
	return p, nil
}

// findConfigFile walks up from dir looking for .thinkroute.yaml (max 10
// levels). Returns os.ErrNotExist if no config file is found.
func findConfigFile(dir string) ([]byte, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path %q: %w", dir, err)
	}
	dir = absDir

	for i := 0; i < 10; i++ {
		p := filepath.Join(dir, FileName)
		data, err := os.ReadFile(p)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("reading %q: %w", p, err)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}
	return nil, os.ErrNotExist
}

// mergeConfig overlays non-zero values from src onto dst.
func mergeConfig(dst, src *ProjectConfig) {
	// Paths
	if src.Paths.Dataset != "" {
		dst.Paths.Dataset = src.Paths.Dataset
	}
	if src.Paths.Results != "" {
		dst.Paths.Results = src.Paths.Results
	}
	if src.Paths.History != "" {
		dst.Paths.History = src.Paths.History
	}

	// Oracle
	if src.Oracle.Backend != "" {
		dst.Oracle.Backend = src.Oracle.Backend
	}
	if src.Oracle.Model != "" {
		dst.Oracle.Model = src.Oracle.Model
	}
	if src.Oracle.Instruction != "" {
		dst.Oracle.Instruction = src.Oracle.Instruction
	}
	if src.Oracle.Timeout != 0 {
		dst.Oracle.Timeout = src.Oracle.Timeout
	}
	if src.Oracle.MaxAttempts != 0 {
		dst.Oracle.MaxAttempts = src.Oracle.MaxAttempts
	}
	if src.Oracle.RateLimit != 0 {
		dst.Oracle.RateLimit = src.Oracle.RateLimit
	}

	// Routing
	if src.Routing.Breadth != 0 {
		dst.Routing.Breadth = src.Routing.Breadth
	}
	if src.Routing.Depth != 0 {
		dst.Routing.Depth = src.Routing.Depth
	}
	if src.Routing.ConfidenceThreshold != 0 {
		dst.Routing.ConfidenceThreshold = src.Routing.ConfidenceThreshold
	}

	// Strategy
	if src.Strategy.Model != "" {
		dst.Strategy.Model = src.Strategy.Model
	}
	if src.Strategy.Timeout != 0 {
		dst.Strategy.Timeout = src.Strategy.Timeout
	}

	// Sweep
	if src.Sweep.Grid != "" {
		dst.Sweep.Grid = src.Sweep.Grid
	}
	if src.Sweep.Parallel != nil {
		dst.Sweep.Parallel = src.Sweep.Parallel
	}
	if src.Sweep.Workers != 0 {
		dst.Sweep.Workers = src.Sweep.Workers
	}
	if src.Sweep.MinAccuracy != 0 {
		dst.Sweep.MinAccuracy = src.Sweep.MinAccuracy
	}
	if src.Sweep.Seed != 0 {
		dst.Sweep.Seed = src.Sweep.Seed
	}

	// Cache
	if src.Cache.Enabled != nil {
		dst.Cache.Enabled = src.Cache.Enabled
	}
	if src.Cache.Dir != "" {
		dst.Cache.Dir = src.Cache.Dir
	}

	// Hooks
	if len(src.Hooks.BeforeSweep) > 0 {
		dst.Hooks.BeforeSweep = src.Hooks.BeforeSweep
	}
	if len(src.Hooks.AfterSweep) > 0 {
		dst.Hooks.AfterSweep = src.Hooks.AfterSweep
	}
}

func contains(values []string, want string) bool {
	for _, v := range values {
		if v == want {
			return true
		}
	}
	return false
}

func boolPtr(b bool) *bool {
	return &b
}
