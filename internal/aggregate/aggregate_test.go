package aggregate

import (
	"context"
	"errors"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/strategy"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fixedSelector struct {
	mode       models.Mode
	confidence float64
	err        error
}

func (s fixedSelector) Select(ctx context.Context, question string) (models.Mode, float64, error) {
	return s.mode, s.confidence, s.err
}

type recorder struct {
	mu    sync.Mutex
	calls []models.Mode
}

func (r *recorder) executor(mode models.Mode, err error) strategy.Executor {
	return strategy.ExecutorFunc(func(ctx context.Context, q string) (*strategy.Answer, error) {
		r.mu.Lock()
		r.calls = append(r.calls, mode)
		r.mu.Unlock()
		if err != nil {
			return nil, err
		}
		return &strategy.Answer{Mode: mode, Text: string(mode) + " answer"}, nil
	})
}

func (r *recorder) modes() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.calls))
	for _, m := range r.calls {
		out = append(out, string(m))
	}
	sort.Strings(out)
	return out
}

func table(r *recorder, failing ...models.Mode) strategy.Table {
	fail := map[models.Mode]bool{}
	for _, m := range failing {
		fail[m] = true
	}
	t := strategy.Table{}
	for _, m := range models.CanonicalModes {
		var err error
		if fail[m] {
			err = &models.StrategyExecutionError{Mode: m, Err: errors.New("boom")}
		}
		t[m] = r.executor(m, err)
	}
	return t
}

func joinSynth(seen *[]strategy.Answer) strategy.Synthesizer {
	return strategy.SynthesizerFunc(func(ctx context.Context, q string, candidates []strategy.Answer) (*strategy.Answer, error) {
		*seen = append([]strategy.Answer(nil), candidates...)
		return &strategy.Answer{Mode: models.ModeMultiStrategy, Text: "merged", Trace: strategy.FormatCandidates(candidates)}, nil
	})
}

func TestResolve_ConfidentRunsSelectedStrategy(t *testing.T) {
	rec := &recorder{}
	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeAOT, confidence: 0.9}, table(rec), joinSynth(&seen), Options{})

	got, err := agg.Resolve(context.Background(), "Why is ice slippery?", 0.7)
	require.NoError(t, err)

	assert.Equal(t, models.ModeAOT, got.Mode)
	assert.Equal(t, "AOT answer", got.Answer)
	assert.Equal(t, []string{"AOT"}, rec.modes())
	assert.Empty(t, seen, "no synthesis on the single path")
}

func TestResolve_ThresholdIsInclusive(t *testing.T) {
	rec := &recorder{}
	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeTOT, confidence: 0.7}, table(rec), joinSynth(&seen), Options{})

	got, err := agg.Resolve(context.Background(), "q", 0.7)
	require.NoError(t, err)
	assert.Equal(t, models.ModeTOT, got.Mode)
}

func TestResolve_UnknownSelectionFallsBackToCOT(t *testing.T) {
	rec := &recorder{}
	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeUnknown, confidence: 0.95}, table(rec), joinSynth(&seen), Options{})

	got, err := agg.Resolve(context.Background(), "q", 0.7)
	require.NoError(t, err)
	assert.Equal(t, models.ModeCOT, got.Mode)
	assert.Equal(t, models.ModeUnknown, got.Selected)
}

func TestResolve_LowConfidenceFansOut(t *testing.T) {
	rec := &recorder{}
	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeAOT, confidence: 0.3}, table(rec), joinSynth(&seen), Options{})

	got, err := agg.Resolve(context.Background(), "q", 0.7)
	require.NoError(t, err)

	assert.Equal(t, models.ModeMultiStrategy, got.Mode)
	assert.Equal(t, "merged", got.Answer)
	assert.Equal(t, []string{"COT", "GOT", "TOT"}, rec.modes())
	assert.Len(t, seen, 3)
	assert.Empty(t, got.Failures)
}

func TestResolve_PartialFailure(t *testing.T) {
	rec := &recorder{}
	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeGOT, confidence: 0.1}, table(rec, models.ModeTOT), joinSynth(&seen), Options{})

	got, err := agg.Resolve(context.Background(), "q", 0.7)
	require.NoError(t, err)

	assert.Equal(t, models.ModeMultiStrategy, got.Mode)
	require.Len(t, seen, 2)
	assert.Equal(t, models.ModeCOT, seen[0].Mode)
	assert.Equal(t, models.ModeGOT, seen[1].Mode)

	require.Len(t, got.Failures, 1)
	assert.Equal(t, models.ModeTOT, got.Failures[0].Mode)
	assert.Equal(t, models.ErrorKindStrategyExecution, got.Failures[0].Kind)
}

func TestResolve_AllFail(t *testing.T) {
	rec := &recorder{}
	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeGOT, confidence: 0.1},
		table(rec, models.ModeCOT, models.ModeTOT, models.ModeGOT), joinSynth(&seen), Options{})

	_, err := agg.Resolve(context.Background(), "q", 0.7)

	var allFailed *models.AllStrategiesFailedError
	require.ErrorAs(t, err, &allFailed)
	assert.Len(t, allFailed.Failures, 3)
	assert.Empty(t, seen, "synthesis must not run without candidates")
}

func TestResolve_EmptyAnswerIsFailure(t *testing.T) {
	tbl := strategy.Table{
		models.ModeCOT: strategy.ExecutorFunc(func(ctx context.Context, q string) (*strategy.Answer, error) {
			return &strategy.Answer{Text: ""}, nil
		}),
	}
	agg := New(fixedSelector{mode: models.ModeCOT, confidence: 1}, tbl, nil, Options{})

	_, err := agg.Resolve(context.Background(), "q", 0.5)
	var stratErr *models.StrategyExecutionError
	require.ErrorAs(t, err, &stratErr)
	assert.Equal(t, models.ModeCOT, stratErr.Mode)
}

func TestResolve_RetriesTransientFailures(t *testing.T) {
	var calls atomic.Int32
	tbl := strategy.Table{
		models.ModeCOT: strategy.ExecutorFunc(func(ctx context.Context, q string) (*strategy.Answer, error) {
			if calls.Add(1) < 3 {
				return nil, errors.New("503")
			}
			return &strategy.Answer{Text: "ok"}, nil
		}),
	}
	agg := New(fixedSelector{mode: models.ModeCOT, confidence: 1}, tbl, nil, Options{MaxAttempts: 3, Backoff: time.Millisecond})

	got, err := agg.Resolve(context.Background(), "q", 0.5)
	require.NoError(t, err)
	assert.Equal(t, "ok", got.Answer)
	assert.Equal(t, models.ModeCOT, got.Candidates[0].Mode)
	assert.Equal(t, int32(3), calls.Load())
}

func TestResolve_CallTimeout(t *testing.T) {
	slow := strategy.ExecutorFunc(func(ctx context.Context, q string) (*strategy.Answer, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	fast := strategy.ExecutorFunc(func(ctx context.Context, q string) (*strategy.Answer, error) {
		return &strategy.Answer{Mode: models.ModeCOT, Text: "fast"}, nil
	})
	tbl := strategy.Table{models.ModeCOT: fast, models.ModeTOT: slow, models.ModeGOT: slow}

	var seen []strategy.Answer
	agg := New(fixedSelector{mode: models.ModeCOT, confidence: 0}, tbl, joinSynth(&seen), Options{CallTimeout: 10 * time.Millisecond})

	got, err := agg.Resolve(context.Background(), "q", 0.5)
	require.NoError(t, err)
	require.Len(t, got.Failures, 2)
	assert.Equal(t, models.ErrorKindTimeout, got.Failures[0].Kind)
	require.Len(t, seen, 1)
	assert.Equal(t, "fast", seen[0].Text)
}

func TestResolve_InvalidInput(t *testing.T) {
	agg := New(fixedSelector{mode: models.ModeCOT, confidence: 1}, strategy.Table{}, nil, Options{})

	_, err := agg.Resolve(context.Background(), "", 0.5)
	var invalid *models.InvalidInputError
	require.ErrorAs(t, err, &invalid)

	_, err = agg.Resolve(context.Background(), "q", 1.5)
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, "confidence_threshold", invalid.Field)
}

func TestResolve_SelectorError(t *testing.T) {
	boom := errors.New("oracle down")
	agg := New(fixedSelector{err: boom}, strategy.Table{}, nil, Options{})

	_, err := agg.Resolve(context.Background(), "q", 0.5)
	require.ErrorIs(t, err, boom)
}

func TestMakePlan(t *testing.T) {
	p := MakePlan(nil, models.ModeDirect, 0.9, 0.8)
	assert.Equal(t, models.ModeDirect, p.Mode)
	assert.False(t, p.MultiStrategy())

	p = MakePlan(nil, models.ModeUnknown, 0.9, 0.8)
	assert.Equal(t, models.ModeCOT, p.Mode)

	p = MakePlan(nil, models.ModeDirect, 0.79, 0.8)
	assert.True(t, p.MultiStrategy())
	assert.Equal(t, strategy.FallbackModes, p.Strategies)

	// The same threshold always invokes the same strategies.
	assert.Equal(t, MakePlan(nil, models.ModeGOT, 0.1, 0.4).Strategies, MakePlan(nil, models.ModeAOT, 0.2, 0.4).Strategies)
}
