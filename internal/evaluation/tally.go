package evaluation

import (
	"time"

	"github.com/spboyer/thinkroute/internal/metrics"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/statistics"
)

// ExampleOutcome is one routed (or skipped) example.
type ExampleOutcome struct {
	Example   models.LabeledExample
	Predicted models.Mode
	// Response is the cached oracle response the prediction was made from.
	// It may be nil for routers that did not score.
	Response *models.OracleResponse
	// Rationale explains the prediction.
	Rationale string
	// Latency overrides Response.Latency when set.
	Latency time.Duration
	// Err marks the example as skipped.
	Err error
}

// Correct reports whether the example was routed to its expected mode.
func (o ExampleOutcome) Correct() bool {
	return o.Err == nil && o.Predicted == o.Example.ExpectedMode
}

func (o ExampleOutcome) latency() time.Duration {
	if o.Latency > 0 || o.Response == nil {
		return o.Latency
	}
	return o.Response.Latency
}

func (o ExampleOutcome) misrouting() models.Misrouting {
	m := models.Misrouting{
		ExampleID: o.Example.ID,
		Question:  o.Example.Question,
		Expected:  o.Example.ExpectedMode,
		Predicted: o.Predicted,
		Rationale: o.Rationale,
	}
	if o.Response != nil {
		m.Scores = o.Response.Scores
	}
	return m
}

// CIOptions controls the bootstrap interval attached to a result. A zero
// Level disables it.
type CIOptions struct {
	Level float64
	Seed  int64
}

// DefaultCI is a 95% interval with the fixed seed.
var DefaultCI = CIOptions{Level: 0.95, Seed: statistics.DefaultSeed}

// Summarize folds outcomes into an EvaluationResult. Skipped examples are
// listed but left out of every denominator; wrong predictions are listed
// in Misrouted, in input order.
func Summarize(tc models.ThresholdConfig, outcomes []ExampleOutcome, ci CIOptions) models.EvaluationResult {
	res := models.EvaluationResult{
		Thresholds:       tc,
		PerModeAccuracy:  map[models.Mode]float64{},
		Confusion:        models.NewConfusionMatrix(),
		ModeDistribution: map[models.Mode]int{},
		NExamples:        len(outcomes),
	}

	var (
		correct   []bool
		latencies []float64
		breadths  []float64
		depths    []float64
		perMode   = map[models.Mode]int{}
		perModeOK = map[models.Mode]int{}
	)

	for _, o := range outcomes {
		if o.Err != nil {
			res.Skipped = append(res.Skipped, models.NewSkippedExample(o.Example, o.Err))
			continue
		}

		expected := o.Example.ExpectedMode
		res.Confusion.Add(expected, o.Predicted)
		res.ModeDistribution[o.Predicted]++
		perMode[expected]++

		ok := o.Correct()
		correct = append(correct, ok)
		if ok {
			res.Correct++
			perModeOK[expected]++
		} else {
			res.Misrouted = append(res.Misrouted, o.misrouting())
		}

		latencies = append(latencies, float64(o.latency())/float64(time.Millisecond))
		if o.Response != nil {
			breadths = append(breadths, o.Response.Scores.Breadth)
			depths = append(depths, o.Response.Scores.Depth)
		}
	}

	evaluated := len(correct)
	res.Accuracy = metrics.SafeDivide(float64(res.Correct), float64(evaluated))
	for mode, n := range perMode {
		res.PerModeAccuracy[mode] = metrics.SafeDivide(float64(perModeOK[mode]), float64(n))
	}
	res.MeanLatencyMs = metrics.Mean(latencies)
	res.AverageScores = models.ScoreVector{
		Breadth: metrics.Mean(breadths),
		Depth:   metrics.Mean(depths),
	}

	if ci.Level > 0 && evaluated > 0 {
		interval := statistics.AccuracyCI(correct, ci.Level, ci.Seed)
		res.AccuracyCI = &interval
	}

	return res
}
