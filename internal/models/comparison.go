package models

import (
	"time"

	"github.com/spboyer/thinkroute/internal/statistics"
)

// RouterResult is one router's evaluation inside a comparison.
type RouterResult struct {
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Result      EvaluationResult `json:"result"`
	Rank        int              `json:"rank"`
}

// RouterDelta compares one router against the baseline router.
type RouterDelta struct {
	Router        string          `json:"router"`
	AccuracyDelta float64         `json:"accuracy_delta"`
	Confusion     ConfusionMatrix `json:"confusion_delta"`
	// DeltaCI is a paired bootstrap interval over examples both routers
	// evaluated. Nil when fewer than two such examples exist.
	DeltaCI     *statistics.ConfidenceInterval `json:"delta_ci,omitempty"`
	Significant bool                           `json:"significant"`

	// NormalizedGain is the share of the baseline's remaining headroom
	// the router recovers.
	NormalizedGain float64 `json:"normalized_gain"`
}

// ComparisonReport is the output of the comparative benchmark.
type ComparisonReport struct {
	Timestamp        time.Time                   `json:"timestamp"`
	TotalExamples    int                         `json:"total_examples"`
	Baseline         string                      `json:"baseline"`
	Routers          []RouterResult              `json:"routers"`
	Rankings         []string                    `json:"rankings"`
	Best             string                      `json:"best"`
	PerModeBreakdown map[Mode]map[string]float64 `json:"per_mode_breakdown"`
	Deltas           []RouterDelta               `json:"deltas"`
}

// Router returns the named router's result.
func (r *ComparisonReport) Router(name string) (*RouterResult, bool) {
	for i := range r.Routers {
		if r.Routers[i].Name == name {
			return &r.Routers[i], true
		}
	}
	return nil, false
}

// Delta returns the named router's delta against the baseline.
func (r *ComparisonReport) Delta(name string) (*RouterDelta, bool) {
	for i := range r.Deltas {
		if r.Deltas[i].Router == name {
			return &r.Deltas[i], true
		}
	}
	return nil, false
}
