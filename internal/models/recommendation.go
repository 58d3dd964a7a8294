package models

import (
	"strings"
	"time"
)

// Criterion selects how the optimizer ranks threshold configurations.
type Criterion string

const (
	CriterionBalanced  Criterion = "balanced"
	CriterionAccuracy  Criterion = "accuracy"
	CriterionStability Criterion = "stability"
)

// Criteria lists every supported criterion.
var Criteria = []Criterion{CriterionBalanced, CriterionAccuracy, CriterionStability}

// ParseCriterion is case-insensitive and rejects unknown names.
func ParseCriterion(s string) (Criterion, error) {
	for _, c := range Criteria {
		if string(c) == normalizeCriterion(s) {
			return c, nil
		}
	}
	return "", &InvalidInputError{Field: "criterion", Reason: "unknown criterion " + s + " (want balanced, accuracy or stability)"}
}

// Recommendation is the threshold configuration chosen under one criterion.
type Recommendation struct {
	Chosen     ThresholdConfig   `json:"chosen_config"`
	Criterion  Criterion         `json:"criterion"`
	Score      float64           `json:"score"`
	Supporting SupportingMetrics `json:"supporting_metrics"`
	Reason     string            `json:"reason"`
	Candidates []CandidateScore  `json:"candidates"`
}

// SupportingMetrics are the raw numbers behind a recommendation.
type SupportingMetrics struct {
	Accuracy       float64 `json:"accuracy"`
	StabilityIndex float64 `json:"stability_index"`
	MeanLatencyMs  float64 `json:"mean_latency_ms"`
}

// CandidateScore is one ranked configuration.
type CandidateScore struct {
	Thresholds     ThresholdConfig `json:"threshold_config"`
	Score          float64         `json:"score"`
	Accuracy       float64         `json:"accuracy"`
	StabilityIndex float64         `json:"stability_index"`
	Rank           int             `json:"rank"`
}

// RecommendationSet is the recommendation artifact: one record per
// criterion, keyed by criterion name.
type RecommendationSet struct {
	RunID           string                       `json:"run_id,omitempty"`
	Timestamp       time.Time                    `json:"timestamp"`
	Recommendations map[Criterion]Recommendation `json:"recommendations"`
}

func normalizeCriterion(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
