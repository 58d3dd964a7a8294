// Package evaluation sweeps the dimensional router over a grid of
// threshold configurations against a labeled dataset.
//
// A run has two phases. Score calls the oracle once per distinct question
// and stores the responses in a ScoreTable. Sweep then replays those fixed
// scores through the decision table for every configuration, so the grid
// measures threshold sensitivity and not oracle variance.
package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spboyer/thinkroute/internal/cache"
	"github.com/spboyer/thinkroute/internal/logging"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/oracle"
	"github.com/spboyer/thinkroute/internal/router"
	"golang.org/x/sync/errgroup"
)

// Harness runs threshold sweeps.
type Harness struct {
	oracle      oracle.Oracle
	cache       *cache.Cache
	instruction string
	workers     int
	parallel    bool
	ci          CIOptions

	progressMu sync.Mutex
	listeners  []ProgressListener
}

// HarnessOption configures a Harness.
type HarnessOption func(*Harness)

// WithCache reuses oracle responses across runs. instruction is part of
// the cache key and should be whatever the oracle was built with.
func WithCache(c *cache.Cache, instruction string) HarnessOption {
	return func(h *Harness) {
		h.cache = c
		h.instruction = instruction
	}
}

// WithWorkers bounds concurrent oracle calls during scoring. Values below
// one mean sequential scoring.
func WithWorkers(n int) HarnessOption {
	return func(h *Harness) {
		h.workers = n
	}
}

// WithParallelGrid replays grid cells concurrently.
func WithParallelGrid(enabled bool) HarnessOption {
	return func(h *Harness) {
		h.parallel = enabled
	}
}

// WithConfidenceInterval sets the bootstrap interval attached to every
// result.
func WithConfidenceInterval(ci CIOptions) HarnessOption {
	return func(h *Harness) {
		h.ci = ci
	}
}

func NewHarness(o oracle.Oracle, opts ...HarnessOption) *Harness {
	h := &Harness{
		oracle:    o,
		workers:   1,
		ci:        DefaultCI,
		listeners: []ProgressListener{},
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.workers < 1 {
		h.workers = 1
	}
	return h
}

// OnProgress registers a progress listener
func (h *Harness) OnProgress(listener ProgressListener) {
	h.progressMu.Lock()
	defer h.progressMu.Unlock()
	h.listeners = append(h.listeners, listener)
}

// Evaluate scores examples once and sweeps grid over the cached scores.
// Results come back in grid order. Per-example scoring failures are
// reported as skipped; only invalid input or cancellation fail the run.
func (h *Harness) Evaluate(ctx context.Context, examples []models.LabeledExample, grid models.Grid) (*models.SweepOutcome, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}
	examples, err := PrepareExamples(examples)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	h.notifyProgress(ProgressEvent{
		EventType: EventSweepStart,
		Total:     len(examples),
		Details:   map[string]any{"configs": len(grid), "oracle": oracle.NameOf(h.oracle)},
	})

	table, err := h.Score(ctx, examples)
	if err != nil {
		return nil, err
	}

	results, err := h.Sweep(ctx, examples, table, grid)
	if err != nil {
		return nil, err
	}

	outcome := &models.SweepOutcome{
		RunID:      uuid.NewString(),
		Timestamp:  time.Now().UTC(),
		Oracle:     oracle.NameOf(h.oracle),
		Examples:   len(examples),
		Grid:       grid,
		Results:    results,
		DurationMs: time.Since(start).Milliseconds(),
	}
	if len(results) > 0 {
		outcome.Skipped = results[0].Skipped
	}

	h.notifyProgress(ProgressEvent{
		EventType:  EventSweepComplete,
		Num:        len(results),
		Total:      len(grid),
		DurationMs: outcome.DurationMs,
		Details:    map[string]any{"skipped": len(outcome.Skipped)},
	})
	return outcome, nil
}

// Score calls the oracle once per distinct question. Failed questions are
// recorded in the table rather than returned; the error is non-nil only
// when ctx is done.
func (h *Harness) Score(ctx context.Context, examples []models.LabeledExample) (*ScoreTable, error) {
	log := logging.New("evaluation")
	table := NewScoreTable()

	questions := distinctQuestions(examples)
	oracleName := oracle.NameOf(h.oracle)

	var (
		mu   sync.Mutex
		done int
	)
	finish := func(question string, typ EventType, details map[string]any) {
		mu.Lock()
		done++
		n := done
		mu.Unlock()
		h.notifyProgress(ProgressEvent{EventType: typ, Question: question, Num: n, Total: len(questions), Details: details})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(h.workers)

	for _, q := range questions {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := router.ValidateQuestion(q); err != nil {
				table.Fail(q, err)
				finish(q, EventExampleFailed, map[string]any{"error": err.Error()})
				return nil
			}

			key := cache.Key(oracleName, h.instruction, q)
			if resp, ok := h.cache.Get(key); ok {
				if err := table.Put(q, resp); err != nil {
					return err
				}
				finish(q, EventExampleCached, nil)
				return nil
			}

			resp, err := h.oracle.Score(gctx, q)
			if err != nil {
				log.Warn("scoring failed", "question", q, "error", err)
				table.Fail(q, err)
				finish(q, EventExampleFailed, map[string]any{"error": err.Error(), "kind": string(models.ClassifyError(err))})
				return nil
			}
			if err := table.Put(q, resp); err != nil {
				return err
			}
			if err := h.cache.Put(key, resp); err != nil {
				log.Warn("failed to cache oracle response", "error", err)
			}
			finish(q, EventExampleScored, map[string]any{
				"breadth":    resp.Scores.Breadth,
				"depth":      resp.Scores.Depth,
				"latency_ms": resp.Latency.Milliseconds(),
			})
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	h.notifyProgress(ProgressEvent{
		EventType: EventScoringComplete,
		Num:       table.Len(),
		Total:     len(questions),
	})
	return table, nil
}

// Sweep replays the scored examples for every configuration in grid. It
// never calls the oracle.
func (h *Harness) Sweep(ctx context.Context, examples []models.LabeledExample, table *ScoreTable, grid models.Grid) ([]models.EvaluationResult, error) {
	if err := grid.Validate(); err != nil {
		return nil, err
	}

	results := make([]models.EvaluationResult, len(grid))
	var (
		mu   sync.Mutex
		done int
	)

	replay := func(i int) {
		results[i] = EvaluateConfig(examples, table, grid[i], h.ci)

		mu.Lock()
		done++
		n := done
		mu.Unlock()
		h.notifyProgress(ProgressEvent{
			EventType: EventConfigComplete,
			Num:       n,
			Total:     len(grid),
			Details: map[string]any{
				"breadth_threshold": grid[i].Breadth,
				"depth_threshold":   grid[i].Depth,
				"accuracy":          results[i].Accuracy,
			},
		})
	}

	if !h.parallel {
		for i := range grid {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			replay(i)
		}
		return results, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(h.workers, 4))
	for i := range grid {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			replay(i)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// EvaluateConfig replays every example under tc using the cached scores.
func EvaluateConfig(examples []models.LabeledExample, table *ScoreTable, tc models.ThresholdConfig, ci CIOptions) models.EvaluationResult {
	outcomes := make([]ExampleOutcome, len(examples))
	for i, ex := range examples {
		outcomes[i] = ExampleOutcome{Example: ex}

		resp, err := table.Lookup(ex.Question)
		if err != nil {
			outcomes[i].Err = err
			continue
		}
		mode, why := router.Decide(resp.Scores, tc)
		outcomes[i].Predicted = mode
		outcomes[i].Rationale = why
		outcomes[i].Response = resp
	}
	return Summarize(tc, outcomes, ci)
}

// PrepareExamples checks examples and fills in missing IDs. It returns a
// copy; the input is not modified.
func PrepareExamples(examples []models.LabeledExample) ([]models.LabeledExample, error) {
	if len(examples) == 0 {
		return nil, &models.InvalidInputError{Field: "examples", Reason: "no examples to evaluate"}
	}

	out := make([]models.LabeledExample, len(examples))
	for i, ex := range examples {
		if !ex.ExpectedMode.IsCanonical() {
			return nil, &models.InvalidInputError{
				Field:  "expected_mode",
				Reason: fmt.Sprintf("example %d has non-routable mode %q", i, string(ex.ExpectedMode)),
			}
		}
		if ex.ID == "" {
			ex.ID = fmt.Sprintf("example-%03d", i+1)
		}
		out[i] = ex
	}
	return out, nil
}

func distinctQuestions(examples []models.LabeledExample) []string {
	seen := make(map[string]bool, len(examples))
	var out []string
	for _, ex := range examples {
		if seen[ex.Question] {
			continue
		}
		seen[ex.Question] = true
		out = append(out, ex.Question)
	}
	return out
}
