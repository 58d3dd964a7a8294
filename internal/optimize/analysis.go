package optimize

import (
	"fmt"
	"sort"

	"github.com/spboyer/thinkroute/internal/metrics"
	"github.com/spboyer/thinkroute/internal/models"
)

// CandidateMinAccuracy is the accuracy a configuration needs to make the
// shortlist.
const CandidateMinAccuracy = 0.70

// ThresholdStats summarizes accuracy across every configuration sharing
// one threshold value.
type ThresholdStats struct {
	Threshold float64 `json:"threshold"`
	metrics.Summary
}

// Sensitivity shows how accuracy moves with each threshold on its own.
type Sensitivity struct {
	Breadth []ThresholdStats `json:"breadth_sensitivity"`
	Depth   []ThresholdStats `json:"depth_sensitivity"`
}

// ModeShare is one configuration's share of a predicted mode.
type ModeShare struct {
	Thresholds models.ThresholdConfig `json:"threshold_config"`
	Share      float64                `json:"share"`
	Count      int                    `json:"count"`
	Accuracy   float64                `json:"accuracy"`
}

// ModePattern describes how often a mode is predicted across the grid.
type ModePattern struct {
	Mode    models.Mode     `json:"mode"`
	Share   metrics.Summary `json:"share"`
	Favored []ModeShare     `json:"favoring_configurations"`
}

// AccuracyMatrix is accuracy keyed by breadth then depth threshold, both
// formatted with two decimals.
type AccuracyMatrix map[string]map[string]float64

// Analysis bundles everything the optimization report shows.
type Analysis struct {
	Configurations  int                                        `json:"total_configurations"`
	Recommendations map[models.Criterion]models.Recommendation `json:"recommendations"`
	Sensitivity     Sensitivity                                `json:"sensitivity"`
	ModePatterns    []ModePattern                              `json:"mode_patterns"`
	Matrix          AccuracyMatrix                             `json:"accuracy_matrix"`
	Shortlist       []models.EvaluationResult                  `json:"shortlist"`
}

// Analyze computes the full analysis for results.
func Analyze(results []models.EvaluationResult) (*Analysis, error) {
	set, err := RecommendAll("", results)
	if err != nil {
		return nil, err
	}
	return &Analysis{
		Configurations:  len(results),
		Recommendations: set.Recommendations,
		Sensitivity:     SensitivityOf(results),
		ModePatterns:    ModePatterns(results, 3),
		Matrix:          Matrix(results),
		Shortlist:       Shortlist(results, CandidateMinAccuracy),
	}, nil
}

// SensitivityOf groups accuracy by each breadth and each depth threshold.
func SensitivityOf(results []models.EvaluationResult) Sensitivity {
	byBreadth := map[float64][]float64{}
	byDepth := map[float64][]float64{}
	for _, r := range results {
		byBreadth[r.Thresholds.Breadth] = append(byBreadth[r.Thresholds.Breadth], r.Accuracy)
		byDepth[r.Thresholds.Depth] = append(byDepth[r.Thresholds.Depth], r.Accuracy)
	}
	return Sensitivity{
		Breadth: thresholdStats(byBreadth),
		Depth:   thresholdStats(byDepth),
	}
}

func thresholdStats(groups map[float64][]float64) []ThresholdStats {
	out := make([]ThresholdStats, 0, len(groups))
	for threshold, accs := range groups {
		out = append(out, ThresholdStats{Threshold: threshold, Summary: metrics.Summarize(accs)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// ModePatterns reports, for every predicted mode, its share of each
// configuration's predictions and the top configurations favoring it.
func ModePatterns(results []models.EvaluationResult, top int) []ModePattern {
	shares := map[models.Mode][]ModeShare{}
	for _, r := range results {
		total := 0
		for _, n := range r.ModeDistribution {
			total += n
		}
		for mode, n := range r.ModeDistribution {
			shares[mode] = append(shares[mode], ModeShare{
				Thresholds: r.Thresholds,
				Share:      metrics.SafeDivide(float64(n), float64(total)),
				Count:      n,
				Accuracy:   r.Accuracy,
			})
		}
	}

	modes := make([]models.Mode, 0, len(shares))
	for m := range shares {
		modes = append(modes, m)
	}
	models.SortModes(modes)

	out := make([]ModePattern, 0, len(modes))
	for _, mode := range modes {
		entries := shares[mode]
		values := make([]float64, len(entries))
		for i, e := range entries {
			values[i] = e.Share
		}

		favored := append([]ModeShare(nil), entries...)
		sort.SliceStable(favored, func(i, j int) bool { return favored[i].Share > favored[j].Share })
		if top > 0 && len(favored) > top {
			favored = favored[:top]
		}

		out = append(out, ModePattern{Mode: mode, Share: metrics.Summarize(values), Favored: favored})
	}
	return out
}

// Matrix lays accuracy out by breadth and depth threshold.
func Matrix(results []models.EvaluationResult) AccuracyMatrix {
	m := AccuracyMatrix{}
	for _, r := range results {
		b := fmt.Sprintf("%.2f", r.Thresholds.Breadth)
		d := fmt.Sprintf("%.2f", r.Thresholds.Depth)
		if m[b] == nil {
			m[b] = map[string]float64{}
		}
		m[b][d] = r.Accuracy
	}
	return m
}

// Shortlist returns the configurations at or above minAccuracy, best
// first by the accuracy rule.
func Shortlist(results []models.EvaluationResult, minAccuracy float64) []models.EvaluationResult {
	var entries []*scored
	for i := range results {
		if results[i].Accuracy+epsilon >= minAccuracy {
			entries = append(entries, &scored{result: &results[i]})
		}
	}
	sort.SliceStable(entries, func(i, j int) bool { return accuracyLess(entries[i], entries[j]) })

	out := make([]models.EvaluationResult, len(entries))
	for i, e := range entries {
		out[i] = *e.result
	}
	return out
}
