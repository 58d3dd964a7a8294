package models

import (
	"time"

	"github.com/spboyer/thinkroute/internal/statistics"
)

// EvaluationResult is the outcome of replaying a labeled example set under
// one threshold configuration (or through one named router).
type EvaluationResult struct {
	Thresholds       ThresholdConfig  `json:"threshold_config"`
	Accuracy         float64          `json:"accuracy"`
	PerModeAccuracy  map[Mode]float64 `json:"per_mode_accuracy"`
	Confusion        ConfusionMatrix  `json:"confusion"`
	ModeDistribution map[Mode]int     `json:"mode_distribution"`
	MeanLatencyMs    float64          `json:"mean_latency_ms"`
	NExamples        int              `json:"n_examples"`
	Correct          int              `json:"correct"`
	Skipped          []SkippedExample `json:"skipped,omitempty"`
	Misrouted        []Misrouting     `json:"misrouted,omitempty"`
	AverageScores    ScoreVector      `json:"average_scores"`

	AccuracyCI *statistics.ConfidenceInterval `json:"accuracy_ci,omitempty"`
}

// Misrouting is one evaluated example routed away from its expected mode.
type Misrouting struct {
	ExampleID string      `json:"example_id"`
	Question  string      `json:"question"`
	Expected  Mode        `json:"expected_mode"`
	Predicted Mode        `json:"predicted_mode"`
	Scores    ScoreVector `json:"scores"`
	Rationale string      `json:"rationale,omitempty"`
}

// SkippedCount is the number of examples excluded from the denominators.
func (r *EvaluationResult) SkippedCount() int {
	return len(r.Skipped)
}

// Evaluated is the number of examples that were actually routed.
func (r *EvaluationResult) Evaluated() int {
	return r.NExamples - len(r.Skipped)
}

// SweepOutcome is the result collection written by a harness run.
type SweepOutcome struct {
	RunID      string             `json:"run_id"`
	Timestamp  time.Time          `json:"timestamp"`
	Oracle     string             `json:"oracle"`
	Examples   int                `json:"examples"`
	Grid       Grid               `json:"grid"`
	Results    []EvaluationResult `json:"results"`
	Skipped    []SkippedExample   `json:"skipped,omitempty"`
	DurationMs int64              `json:"duration_ms"`
}

// ResultFor returns the result recorded for tc, if any.
func (o *SweepOutcome) ResultFor(tc ThresholdConfig) (*EvaluationResult, bool) {
	for i := range o.Results {
		if o.Results[i].Thresholds.Key() == tc.Key() {
			return &o.Results[i], true
		}
	}
	return nil, false
}

// Best returns the result with the highest accuracy, earliest grid entry
// on ties. It returns nil for an empty outcome.
func (o *SweepOutcome) Best() *EvaluationResult {
	var best *EvaluationResult
	for i := range o.Results {
		if best == nil || o.Results[i].Accuracy > best.Accuracy {
			best = &o.Results[i]
		}
	}
	return best
}
