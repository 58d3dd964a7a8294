// Package optimize picks a recommended threshold configuration from the
// results of a sweep.
package optimize

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/spboyer/thinkroute/internal/metrics"
	"github.com/spboyer/thinkroute/internal/models"
)

const epsilon = 1e-9

// scored is one result with the numbers every criterion needs.
type scored struct {
	result   *models.EvaluationResult
	variance float64
	score    float64
}

func (s *scored) stabilityIndex() float64 {
	return 1 - s.variance
}

// Recommend chooses a configuration under criterion.
//
//   - accuracy: highest accuracy; ties go to lower mean latency, then to
//     the more symmetric thresholds, then to grid order.
//   - stability: lowest local accuracy variance over a configuration and
//     its one-step grid neighbours; ties use the accuracy rule.
//   - balanced: highest mean of min-max normalized accuracy and inverse
//     local variance; ties use the accuracy rule.
func Recommend(results []models.EvaluationResult, criterion models.Criterion) (*models.Recommendation, error) {
	if len(results) == 0 {
		return nil, &models.EmptyResultSetError{}
	}

	entries := score(results)

	var less func(a, b *scored) bool
	switch criterion {
	case models.CriterionAccuracy:
		for _, e := range entries {
			e.score = e.result.Accuracy
		}
		less = accuracyLess
	case models.CriterionStability:
		for _, e := range entries {
			e.score = e.stabilityIndex()
		}
		less = func(a, b *scored) bool {
			if !nearlyEqual(a.variance, b.variance) {
				return a.variance < b.variance
			}
			return accuracyLess(a, b)
		}
	case models.CriterionBalanced:
		accs := make([]float64, len(entries))
		vars := make([]float64, len(entries))
		for i, e := range entries {
			accs[i] = e.result.Accuracy
			vars[i] = e.variance
		}
		normAcc := metrics.NormalizeHigherBetter(accs)
		normStab := metrics.NormalizeLowerBetter(vars)
		for i, e := range entries {
			e.score = (normAcc[i] + normStab[i]) / 2
		}
		less = func(a, b *scored) bool {
			if !nearlyEqual(a.score, b.score) {
				return a.score > b.score
			}
			return accuracyLess(a, b)
		}
	default:
		return nil, &models.InvalidInputError{Field: "criterion", Reason: fmt.Sprintf("unknown criterion %q", string(criterion))}
	}

	sort.SliceStable(entries, func(i, j int) bool { return less(entries[i], entries[j]) })

	best := entries[0]
	rec := &models.Recommendation{
		Chosen:    best.result.Thresholds,
		Criterion: criterion,
		Score:     best.score,
		Supporting: models.SupportingMetrics{
			Accuracy:       best.result.Accuracy,
			StabilityIndex: best.stabilityIndex(),
			MeanLatencyMs:  best.result.MeanLatencyMs,
		},
		Reason: reason(criterion, best),
	}
	for i, e := range entries {
		rec.Candidates = append(rec.Candidates, models.CandidateScore{
			Thresholds:     e.result.Thresholds,
			Score:          e.score,
			Accuracy:       e.result.Accuracy,
			StabilityIndex: e.stabilityIndex(),
			Rank:           i + 1,
		})
	}
	return rec, nil
}

// RecommendAll runs Recommend for every criterion.
func RecommendAll(runID string, results []models.EvaluationResult) (*models.RecommendationSet, error) {
	set := &models.RecommendationSet{
		RunID:           runID,
		Timestamp:       time.Now().UTC(),
		Recommendations: map[models.Criterion]models.Recommendation{},
	}
	for _, c := range models.Criteria {
		rec, err := Recommend(results, c)
		if err != nil {
			return nil, err
		}
		set.Recommendations[c] = *rec
	}
	return set, nil
}

// LocalVariance returns, for each result, the population variance of
// accuracy over that configuration and its immediate grid neighbours
// (one step up or down in exactly one dimension). A configuration with no
// neighbours has zero variance.
func LocalVariance(results []models.EvaluationResult) []float64 {
	breadths, depths := axes(results)
	index := make(map[[2]int]int, len(results))
	pos := make([][2]int, len(results))
	for i, r := range results {
		p := [2]int{indexOf(breadths, r.Thresholds.Breadth), indexOf(depths, r.Thresholds.Depth)}
		pos[i] = p
		index[p] = i
	}

	out := make([]float64, len(results))
	for i, r := range results {
		accs := []float64{r.Accuracy}
		for _, delta := range [][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}} {
			if j, ok := index[[2]int{pos[i][0] + delta[0], pos[i][1] + delta[1]}]; ok {
				accs = append(accs, results[j].Accuracy)
			}
		}
		out[i] = metrics.Variance(accs)
	}
	return out
}

func score(results []models.EvaluationResult) []*scored {
	variances := LocalVariance(results)
	entries := make([]*scored, len(results))
	for i := range results {
		entries[i] = &scored{result: &results[i], variance: variances[i]}
	}
	return entries
}

// accuracyLess orders by the accuracy rule: accuracy desc, latency asc,
// asymmetry asc, then breadth and depth ascending.
func accuracyLess(a, b *scored) bool {
	ra, rb := a.result, b.result
	if !nearlyEqual(ra.Accuracy, rb.Accuracy) {
		return ra.Accuracy > rb.Accuracy
	}
	if !nearlyEqual(ra.MeanLatencyMs, rb.MeanLatencyMs) {
		return ra.MeanLatencyMs < rb.MeanLatencyMs
	}
	if !nearlyEqual(ra.Thresholds.Asymmetry(), rb.Thresholds.Asymmetry()) {
		return ra.Thresholds.Asymmetry() < rb.Thresholds.Asymmetry()
	}
	if ra.Thresholds.Breadth != rb.Thresholds.Breadth {
		return ra.Thresholds.Breadth < rb.Thresholds.Breadth
	}
	return ra.Thresholds.Depth < rb.Thresholds.Depth
}

func reason(c models.Criterion, best *scored) string {
	switch c {
	case models.CriterionAccuracy:
		return fmt.Sprintf("Maximum routing accuracy (%.1f%%)", best.result.Accuracy*100)
	case models.CriterionStability:
		return fmt.Sprintf("Lowest local accuracy variance (%.4f) among grid neighbours", best.variance)
	default:
		return fmt.Sprintf("Best balance of accuracy (%.1f%%) and stability (%.4f)", best.result.Accuracy*100, best.stabilityIndex())
	}
}

// axes returns the sorted distinct breadth and depth thresholds.
func axes(results []models.EvaluationResult) ([]float64, []float64) {
	var bs, ds []float64
	for _, r := range results {
		bs = appendUnique(bs, r.Thresholds.Breadth)
		ds = appendUnique(ds, r.Thresholds.Depth)
	}
	sort.Float64s(bs)
	sort.Float64s(ds)
	return bs, ds
}

func appendUnique(values []float64, v float64) []float64 {
	if indexOf(values, v) >= 0 {
		return values
	}
	return append(values, v)
}

func indexOf(values []float64, v float64) int {
	for i, x := range values {
		if nearlyEqual(x, v) {
			return i
		}
	}
	return -1
}

func nearlyEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}
