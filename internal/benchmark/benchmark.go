// Package benchmark compares the dimensional router with baseline routers
// on the same examples and the same cached oracle scores.
package benchmark

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/spboyer/thinkroute/internal/evaluation"
	"github.com/spboyer/thinkroute/internal/logging"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/statistics"
)

// Run scores examples once through h and compares routers on the result.
func Run(ctx context.Context, h *evaluation.Harness, examples []models.LabeledExample, routers []Router, baseline string) (*models.ComparisonReport, error) {
	prepared, err := evaluation.PrepareExamples(examples)
	if err != nil {
		return nil, err
	}
	if err := validateRouters(routers, baseline); err != nil {
		return nil, err
	}

	table, err := h.Score(ctx, prepared)
	if err != nil {
		return nil, err
	}
	return Compare(ctx, prepared, table, routers, baseline, evaluation.DefaultCI)
}

// Compare runs every example through every router. All routers read the
// same ScoreTable. Examples whose scoring failed, or that a router fails
// on, are skipped for that router only.
func Compare(ctx context.Context, examples []models.LabeledExample, table *evaluation.ScoreTable, routers []Router, baseline string, ci evaluation.CIOptions) (*models.ComparisonReport, error) {
	examples, err := evaluation.PrepareExamples(examples)
	if err != nil {
		return nil, err
	}
	if err := validateRouters(routers, baseline); err != nil {
		return nil, err
	}

	log := logging.New("benchmark")
	report := &models.ComparisonReport{
		Timestamp:        time.Now().UTC(),
		TotalExamples:    len(examples),
		Baseline:         baseline,
		PerModeBreakdown: map[models.Mode]map[string]float64{},
	}

	outcomes := make(map[string][]evaluation.ExampleOutcome, len(routers))
	for _, r := range routers {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		routed := make([]evaluation.ExampleOutcome, len(examples))
		for i, ex := range examples {
			routed[i] = evaluation.ExampleOutcome{Example: ex}

			resp, err := table.Lookup(ex.Question)
			if err != nil {
				routed[i].Err = err
				continue
			}
			routed[i].Response = resp

			mode, err := r.Predict(ctx, ex, resp)
			if err != nil {
				log.Warn("router failed on example", "router", r.Name(), "example", ex.ID, "error", err)
				routed[i].Err = err
				continue
			}
			routed[i].Predicted = mode
		}
		outcomes[r.Name()] = routed

		var tc models.ThresholdConfig
		if d, ok := r.(DimensionalRouter); ok {
			tc = d.Thresholds
		}
		rr := models.RouterResult{
			Name:   r.Name(),
			Result: evaluation.Summarize(tc, routed, ci),
		}
		if d, ok := r.(Described); ok {
			rr.Description = d.Description()
		}
		report.Routers = append(report.Routers, rr)
	}

	rank(report)
	breakdown(report)

	base, _ := report.Router(baseline)
	for _, rr := range report.Routers {
		if rr.Name == baseline {
			continue
		}
		report.Deltas = append(report.Deltas, delta(rr, *base, outcomes[rr.Name], outcomes[baseline], ci))
	}

	return report, nil
}

func validateRouters(routers []Router, baseline string) error {
	if len(routers) == 0 {
		return &models.InvalidInputError{Field: "routers", Reason: "no routers to compare"}
	}
	seen := map[string]bool{}
	for _, r := range routers {
		if seen[r.Name()] {
			return &models.InvalidInputError{Field: "routers", Reason: fmt.Sprintf("duplicate router name %q", r.Name())}
		}
		seen[r.Name()] = true
	}
	if !seen[baseline] {
		return &models.InvalidInputError{Field: "baseline", Reason: fmt.Sprintf("baseline %q is not among the routers", baseline)}
	}
	return nil
}

// rank orders routers by accuracy, keeping input order on ties.
func rank(report *models.ComparisonReport) {
	order := make([]int, len(report.Routers))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return report.Routers[order[a]].Result.Accuracy > report.Routers[order[b]].Result.Accuracy
	})

	report.Rankings = make([]string, len(order))
	for pos, idx := range order {
		report.Routers[idx].Rank = pos + 1
		report.Rankings[pos] = report.Routers[idx].Name
	}
	report.Best = report.Rankings[0]
}

// breakdown fills per-mode accuracy by router. A router with no evaluated
// example of a mode scores 0 for it.
func breakdown(report *models.ComparisonReport) {
	modes := map[models.Mode]bool{}
	for _, rr := range report.Routers {
		for m := range rr.Result.PerModeAccuracy {
			modes[m] = true
		}
	}
	for m := range modes {
		row := make(map[string]float64, len(report.Routers))
		for _, rr := range report.Routers {
			row[rr.Name] = rr.Result.PerModeAccuracy[m]
		}
		report.PerModeBreakdown[m] = row
	}
}

func delta(candidate, baseline models.RouterResult, cand, base []evaluation.ExampleOutcome, ci evaluation.CIOptions) models.RouterDelta {
	d := models.RouterDelta{
		Router:         candidate.Name,
		AccuracyDelta:  candidate.Result.Accuracy - baseline.Result.Accuracy,
		Confusion:      candidate.Result.Confusion.Subtract(baseline.Result.Confusion),
		NormalizedGain: statistics.NormalizedGain(baseline.Result.Accuracy, candidate.Result.Accuracy),
	}

	// Pair only examples both routers evaluated.
	var c, b []bool
	for i := range cand {
		if cand[i].Err != nil || base[i].Err != nil {
			continue
		}
		c = append(c, cand[i].Correct())
		b = append(b, base[i].Correct())
	}
	if len(c) >= 2 && ci.Level > 0 {
		interval := statistics.PairedDeltaCI(c, b, ci.Level, ci.Seed)
		d.DeltaCI = &interval
		d.Significant = statistics.IsSignificant(interval)
	}
	return d
}
