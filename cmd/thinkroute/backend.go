package main

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"log/slog"
	"time"

	"github.com/spboyer/thinkroute/internal/cache"
	"github.com/spboyer/thinkroute/internal/evaluation"
	"github.com/spboyer/thinkroute/internal/execution"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/oracle"
	"github.com/spboyer/thinkroute/internal/projectconfig"
	"github.com/spboyer/thinkroute/internal/store"
	"github.com/spboyer/thinkroute/internal/strategy"
)

// backend is the oracle and strategy engine built from one configuration.
type backend struct {
	cfg    *projectconfig.ProjectConfig
	oracle oracle.Oracle
	engine execution.Engine
}

// newBackend builds the scoring oracle named by cfg.Oracle.Backend and
// wraps it with the configured timeout, rate limit and retry policy.
func newBackend(ctx context.Context, cfg *projectconfig.ProjectConfig) (*backend, error) {
	timeout := time.Duration(cfg.Oracle.Timeout) * time.Second

	var (
		base   oracle.Oracle
		engine execution.Engine
	)
	switch oracle.Backend(cfg.Oracle.Backend) {
	case oracle.BackendMock:
		scoring := execution.NewMockEngine(cfg.Oracle.Model).WithResponder(mockScores)
		base = oracle.NewCopilotOracle(scoring, oracle.CopilotOracleOptions{
			Model:       cfg.Oracle.Model,
			Instruction: cfg.Oracle.Instruction,
		})
		engine = execution.NewMockEngine(cfg.Strategy.Model)
	case oracle.BackendCopilot:
		engine = execution.NewCopilotEngineBuilder(cfg.Oracle.Model, nil).Build()
		base = oracle.NewCopilotOracle(engine, oracle.CopilotOracleOptions{
			Model:       cfg.Oracle.Model,
			Instruction: cfg.Oracle.Instruction,
			Timeout:     timeout,
		})
	case oracle.BackendGenAI:
		key, ok := oracle.GenAIAPIKey()
		if !ok {
			return nil, errors.New("genai backend needs GEMINI_API_KEY or GOOGLE_API_KEY")
		}
		model := cfg.Oracle.Model
		if model == projectconfig.DefaultModel {
			// the shared default names a Copilot model
			model = ""
		}
		g, err := oracle.NewGenAIOracle(ctx, key, model, cfg.Oracle.Instruction)
		if err != nil {
			return nil, err
		}
		base = g
		engine = execution.NewCopilotEngineBuilder(cfg.Strategy.Model, nil).Build()
	default:
		return nil, fmt.Errorf("unknown oracle backend %q", cfg.Oracle.Backend)
	}

	if err := engine.Initialize(ctx); err != nil {
		return nil, fmt.Errorf("initializing engine: %w", err)
	}

	o := oracle.WithTimeout(base, timeout)
	o = oracle.WithRateLimit(o, oracle.NewLimiter(cfg.Oracle.RateLimit))
	o = oracle.WithRetry(o, cfg.Oracle.MaxAttempts, oracle.DefaultBackoffBase)

	slog.Debug("backend ready", "oracle", oracle.NameOf(o), "strategy_model", cfg.Strategy.Model)
	return &backend{cfg: cfg, oracle: o, engine: engine}, nil
}

func (b *backend) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := b.engine.Shutdown(ctx); err != nil {
		slog.Warn("engine shutdown failed", "error", err)
	}
}

func (b *backend) strategyTimeout() time.Duration {
	return time.Duration(b.cfg.Strategy.Timeout) * time.Second
}

func (b *backend) strategies() strategy.Table {
	return strategy.NewEngineTable(b.engine, b.cfg.Strategy.Model, b.strategyTimeout())
}

func (b *backend) synthesizer() strategy.Synthesizer {
	return strategy.NewEngineSynthesizer(b.engine, b.cfg.Strategy.Model, b.strategyTimeout())
}

// harness builds an evaluation harness honoring the sweep and cache
// sections. noCache overrides cache.enabled.
func (b *backend) harness(noCache bool) *evaluation.Harness {
	opts := []evaluation.HarnessOption{}
	if b.cfg.Sweep.Parallel != nil && *b.cfg.Sweep.Parallel {
		opts = append(opts,
			evaluation.WithWorkers(b.cfg.Sweep.Workers),
			evaluation.WithParallelGrid(true))
	}
	if !noCache && b.cfg.Cache.Enabled != nil && *b.cfg.Cache.Enabled {
		instruction := b.cfg.Oracle.Instruction
		if instruction == "" {
			instruction = oracle.DefaultInstruction
		}
		opts = append(opts, evaluation.WithCache(cache.New(b.cfg.Cache.Dir), instruction))
	}
	if b.cfg.Sweep.Seed != 0 {
		ci := evaluation.DefaultCI
		ci.Seed = b.cfg.Sweep.Seed
		opts = append(opts, evaluation.WithConfidenceInterval(ci))
	}
	return evaluation.NewHarness(b.oracle, opts...)
}

// mockScores derives stable scores from the prompt so the mock backend
// routes the same question the same way every time.
func mockScores(req *execution.Request) (string, error) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(req.Prompt))
	sum := h.Sum64()

	breadth := 0.05 + float64(sum%91)/100
	depth := 0.05 + float64((sum/91)%91)/100
	confidence := 0.5 + float64((sum/8281)%50)/100
	guess := models.CanonicalModes[(sum/414050)%uint64(len(models.CanonicalModes))]

	return fmt.Sprintf(`{"breadth": %.2f, "depth": %.2f, "confidence": %.2f, "mode_guess": %q, "rationale": "mock"}`,
		breadth, depth, confidence, guess), nil
}

func loadProjectConfig() (*projectconfig.ProjectConfig, error) {
	cfg, err := projectconfig.Load(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func openHistory(cfg *projectconfig.ProjectConfig) (*store.Store, error) {
	s, err := store.Open(cfg.Paths.History)
	if err != nil {
		return nil, fmt.Errorf("failed to open history: %w", err)
	}
	return s, nil
}
