// Package aggregate runs one reasoning strategy when classification is
// confident and several strategies plus a synthesis step when it is not.
package aggregate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sethvargo/go-retry"
	"github.com/spboyer/thinkroute/internal/logging"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/router"
	"github.com/spboyer/thinkroute/internal/strategy"
	"golang.org/x/sync/errgroup"
)

// DefaultConfidenceThreshold is the confidence below which several
// strategies are run.
const DefaultConfidenceThreshold = 0.7

// Selector picks a mode and reports how confident it is.
// *router.Classifier implements it.
type Selector interface {
	Select(ctx context.Context, question string) (models.Mode, float64, error)
}

var _ Selector = (*router.Classifier)(nil)

// Plan is the execution decision for one question, made before any
// strategy runs.
type Plan struct {
	// Mode is the result tag: the selected mode or MULTI_STRATEGY.
	Mode       models.Mode   `json:"mode"`
	Selected   models.Mode   `json:"selected_mode"`
	Confidence float64       `json:"confidence"`
	Strategies []models.Mode `json:"strategies"`
}

// MultiStrategy reports whether the plan fans out.
func (p Plan) MultiStrategy() bool {
	return p.Mode == models.ModeMultiStrategy
}

// StrategyFailure is one executor failure omitted from synthesis.
type StrategyFailure struct {
	Mode  models.Mode      `json:"mode"`
	Kind  models.ErrorKind `json:"error_kind"`
	Error string           `json:"error"`
}

// Result is the outcome of Resolve.
type Result struct {
	Plan
	Answer     string            `json:"answer"`
	Trace      string            `json:"trace,omitempty"`
	Candidates []strategy.Answer `json:"candidates,omitempty"`
	Failures   []StrategyFailure `json:"failures,omitempty"`
	Duration   time.Duration     `json:"duration_ns"`
}

// Options tunes executor calls. Zero values mean one attempt and no
// per-call timeout.
type Options struct {
	MaxAttempts int
	Backoff     time.Duration
	CallTimeout time.Duration
}

// Aggregator resolves questions against a strategy table.
type Aggregator struct {
	selector    Selector
	table       strategy.Table
	synthesizer strategy.Synthesizer
	opts        Options
}

func New(selector Selector, table strategy.Table, synthesizer strategy.Synthesizer, opts Options) *Aggregator {
	if opts.MaxAttempts < 1 {
		opts.MaxAttempts = 1
	}
	if opts.Backoff <= 0 {
		opts.Backoff = 200 * time.Millisecond
	}
	return &Aggregator{selector: selector, table: table, synthesizer: synthesizer, opts: opts}
}

// Plan decides how a question selected as mode with confidence would be
// executed under threshold. It does not call anything.
func (a *Aggregator) Plan(mode models.Mode, confidence, threshold float64) Plan {
	return MakePlan(a.table, mode, confidence, threshold)
}

// MakePlan is Plan without an Aggregator. confidence >= threshold runs
// the selected mode (unmapped modes resolve to COT); anything lower runs
// strategy.FallbackModes.
func MakePlan(table strategy.Table, mode models.Mode, confidence, threshold float64) Plan {
	p := Plan{Selected: mode, Confidence: confidence}
	if confidence >= threshold {
		resolved := models.ModeCOT
		if table == nil {
			if mode.IsCanonical() {
				resolved = mode
			}
		} else if _, m, ok := table.Lookup(mode); ok {
			resolved = m
		}
		p.Mode = resolved
		p.Strategies = []models.Mode{resolved}
		return p
	}
	p.Mode = models.ModeMultiStrategy
	p.Strategies = append([]models.Mode(nil), strategy.FallbackModes...)
	return p
}

// Resolve answers question. A single executor failure in the fan-out path
// is tolerated; when every fallback executor fails the error is an
// *models.AllStrategiesFailedError.
func (a *Aggregator) Resolve(ctx context.Context, question string, threshold float64) (*Result, error) {
	if err := router.ValidateQuestion(question); err != nil {
		return nil, err
	}
	if threshold < 0 || threshold > 1 {
		return nil, &models.InvalidInputError{Field: "confidence_threshold", Reason: fmt.Sprintf("%v is outside [0,1]", threshold)}
	}

	start := time.Now()
	log := logging.New("aggregate")

	mode, confidence, err := a.selector.Select(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("selecting strategy: %w", err)
	}

	plan := a.Plan(mode, confidence, threshold)
	log.Debug("resolved plan", "selected", mode, "confidence", confidence, "mode", plan.Mode, "strategies", plan.Strategies)

	var result *Result
	if plan.MultiStrategy() {
		result, err = a.fanOut(ctx, question, plan)
	} else {
		result, err = a.single(ctx, question, plan)
	}
	if err != nil {
		return nil, err
	}
	result.Duration = time.Since(start)
	return result, nil
}

func (a *Aggregator) single(ctx context.Context, question string, plan Plan) (*Result, error) {
	ex, _, ok := a.table.Lookup(plan.Mode)
	if !ok {
		return nil, &models.StrategyExecutionError{Mode: plan.Mode, Err: fmt.Errorf("no executor for %s", plan.Mode)}
	}

	ans, err := a.call(ctx, plan.Mode, ex, question)
	if err != nil {
		return nil, err
	}
	return &Result{
		Plan:       plan,
		Answer:     ans.Text,
		Trace:      ans.Trace,
		Candidates: []strategy.Answer{*ans},
	}, nil
}

func (a *Aggregator) fanOut(ctx context.Context, question string, plan Plan) (*Result, error) {
	answers := make([]*strategy.Answer, len(plan.Strategies))
	errs := make([]error, len(plan.Strategies))

	// Failures are recorded per slot, so no goroutine returns an error
	// and one failure never cancels the others.
	var g errgroup.Group
	for i, mode := range plan.Strategies {
		ex, ok := a.table[mode]
		if !ok || ex == nil {
			errs[i] = &models.StrategyExecutionError{Mode: mode, Err: fmt.Errorf("no executor for %s", mode)}
			continue
		}
		g.Go(func() error {
			answers[i], errs[i] = a.call(ctx, mode, ex, question)
			return nil
		})
	}
	_ = g.Wait()

	result := &Result{Plan: plan}
	var failures []error
	for i, mode := range plan.Strategies {
		if errs[i] != nil {
			failures = append(failures, errs[i])
			result.Failures = append(result.Failures, StrategyFailure{
				Mode:  mode,
				Kind:  models.ClassifyError(errs[i]),
				Error: errs[i].Error(),
			})
			continue
		}
		result.Candidates = append(result.Candidates, *answers[i])
	}

	if len(result.Candidates) == 0 {
		return nil, &models.AllStrategiesFailedError{Failures: failures}
	}
	if len(failures) > 0 {
		logging.New("aggregate").Warn("strategies failed, synthesizing from the rest",
			"failed", len(failures), "succeeded", len(result.Candidates))
	}

	merged, err := a.synthesizer.Synthesize(ctx, question, result.Candidates)
	if err != nil {
		return nil, fmt.Errorf("synthesizing answers: %w", err)
	}
	result.Answer = merged.Text
	result.Trace = merged.Trace
	return result, nil
}

// call runs one executor with retries and the per-call timeout. A nil or
// empty answer is a failure.
func (a *Aggregator) call(ctx context.Context, mode models.Mode, ex strategy.Executor, question string) (*strategy.Answer, error) {
	backoff := retry.WithMaxRetries(uint64(a.opts.MaxAttempts-1), retry.NewExponential(a.opts.Backoff))

	var ans *strategy.Answer
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		callCtx := ctx
		if a.opts.CallTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, a.opts.CallTimeout)
			defer cancel()
		}

		got, err := ex.Execute(callCtx, question)
		if err == nil && (got == nil || got.Text == "") {
			err = &models.StrategyExecutionError{Mode: mode, Err: errors.New("empty answer")}
		}
		if err != nil {
			if models.IsRetryable(err) {
				return retry.RetryableError(err)
			}
			return err
		}
		ans = got
		return nil
	})
	if err != nil {
		var stratErr *models.StrategyExecutionError
		if !errors.As(err, &stratErr) {
			err = &models.StrategyExecutionError{Mode: mode, Err: err}
		}
		return nil, err
	}
	if ans.Mode == "" {
		ans.Mode = mode
	}
	return ans, nil
}
