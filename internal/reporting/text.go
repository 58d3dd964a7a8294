package reporting

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/optimize"
	"github.com/spboyer/thinkroute/internal/statistics"
)

const topConfigs = 5

func banner(b *strings.Builder, title string) {
	rule := strings.Repeat("=", 80)
	fmt.Fprintf(b, "%s\n%s\n%s\n\n", rule, title, rule)
}

func section(b *strings.Builder, title string) {
	fmt.Fprintf(b, "%s\n%s\n", title, strings.Repeat("-", len(title)))
}

func ci(interval *statistics.ConfidenceInterval) string {
	if interval == nil || interval.NumBootstraps == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%s to %s", Percent(interval.Lower), Percent(interval.Upper))
}

// SweepText is the plain-text report for a sweep outcome.
func SweepText(outcome *models.SweepOutcome) string {
	var b strings.Builder
	banner(&b, "ROUTING EFFICIENCY REPORT")

	section(&b, "Summary")
	fmt.Fprintf(&b, "Run:                 %s\n", outcome.RunID)
	fmt.Fprintf(&b, "Oracle:              %s\n", outcome.Oracle)
	fmt.Fprintf(&b, "Examples:            %s\n", Count(outcome.Examples))
	fmt.Fprintf(&b, "Configurations:      %s\n", Count(len(outcome.Results)))
	fmt.Fprintf(&b, "Skipped examples:    %s\n", Count(len(outcome.Skipped)))
	fmt.Fprintf(&b, "Duration:            %v\n\n", time.Duration(outcome.DurationMs)*time.Millisecond)

	best := outcome.Best()
	if best == nil {
		b.WriteString("No configurations were evaluated.\n")
		return b.String()
	}

	section(&b, "Best configuration")
	fmt.Fprintf(&b, "Breadth threshold:   %.2f\n", best.Thresholds.Breadth)
	fmt.Fprintf(&b, "Depth threshold:     %.2f\n", best.Thresholds.Depth)
	fmt.Fprintf(&b, "Accuracy:            %s (CI %s)\n", Percent(best.Accuracy), ci(best.AccuracyCI))
	fmt.Fprintf(&b, "Mean latency:        %.1f ms\n", best.MeanLatencyMs)
	fmt.Fprintf(&b, "Tier:                %s\n\n", TierFor(best.Accuracy))

	section(&b, "Top configurations")
	ranked := append([]models.EvaluationResult(nil), outcome.Results...)
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Accuracy > ranked[j].Accuracy })
	t := newTable("#", "BREADTH / DEPTH", "ACCURACY", "CORRECT", "AVG SCORES")
	for i, r := range ranked[:min(topConfigs, len(ranked))] {
		t.add(
			fmt.Sprintf("%d", i+1),
			thresholds(r.Thresholds.Breadth, r.Thresholds.Depth),
			Percent(r.Accuracy),
			fmt.Sprintf("%d/%d", r.Correct, r.Evaluated()),
			fmt.Sprintf("b=%.2f d=%.2f", r.AverageScores.Breadth, r.AverageScores.Depth),
		)
	}
	t.write(&b, "")
	b.WriteString("\n")

	section(&b, "Mode distribution (averaged over configurations)")
	writeModeDistribution(&b, outcome.Results)
	b.WriteString("\n")

	section(&b, "Per-mode accuracy (best configuration)")
	pm := newTable("EXPECTED", "ACCURACY", "ROUTED AS")
	for _, mode := range sortedModes(best.PerModeAccuracy) {
		pm.add(string(mode), Percent(best.PerModeAccuracy[mode]), routedAs(best.Confusion, mode))
	}
	pm.write(&b, "")
	b.WriteString("\n")

	if len(best.Misrouted) > 0 {
		section(&b, "Misrouted examples (best configuration)")
		mt := newTable("EXAMPLE", "EXPECTED", "PREDICTED", "SCORES", "QUESTION")
		for _, m := range best.Misrouted {
			mt.add(m.ExampleID, string(m.Expected), string(m.Predicted),
				fmt.Sprintf("b=%.2f d=%.2f", m.Scores.Breadth, m.Scores.Depth), truncate(m.Question, 50))
		}
		mt.write(&b, "")
		b.WriteString("\n")
	}

	if len(outcome.Skipped) > 0 {
		section(&b, "Skipped examples")
		st := newTable("EXAMPLE", "EXPECTED", "KIND", "ERROR")
		for _, s := range outcome.Skipped {
			st.add(s.ExampleID, string(s.ExpectedMode), string(s.Kind), truncate(s.Error, 60))
		}
		st.write(&b, "")
		b.WriteString("\n")
	}

	section(&b, "Recommendations")
	b.WriteString(InterpretAccuracy(best.Accuracy) + "\n\n")
	b.WriteString("Suggested next steps:\n")
	b.WriteString("1. Validate the best configuration on additional data\n")
	b.WriteString("2. Compare against baseline routers (thinkroute compare)\n")
	b.WriteString("3. Review per-mode accuracy for targeted improvements\n")
	b.WriteString("4. Consider score calibration or a different oracle model\n")
	return b.String()
}

func writeModeDistribution(b *strings.Builder, results []models.EvaluationResult) {
	totals := map[models.Mode]int{}
	all := 0
	for _, r := range results {
		for mode, n := range r.ModeDistribution {
			totals[mode] += n
			all += n
		}
	}
	if all == 0 {
		b.WriteString("No mode distribution data present.\n")
		return
	}

	modes := make([]models.Mode, 0, len(totals))
	for m := range totals {
		modes = append(modes, m)
	}
	sort.SliceStable(modes, func(i, j int) bool {
		if totals[modes[i]] != totals[modes[j]] {
			return totals[modes[i]] > totals[modes[j]]
		}
		return modes[i] < modes[j]
	})

	t := newTable("MODE", "AVG PER CONFIG", "SHARE")
	for _, m := range modes {
		t.add(string(m),
			fmt.Sprintf("%.1f", float64(totals[m])/float64(len(results))),
			Percent(float64(totals[m])/float64(all)))
	}
	t.write(b, "")
}

func routedAs(cm models.ConfusionMatrix, expected models.Mode) string {
	var parts []string
	for _, e := range cm.Entries() {
		if e.Expected == expected {
			parts = append(parts, fmt.Sprintf("%s×%d", e.Predicted, e.Count))
		}
	}
	return strings.Join(parts, " ")
}

func sortedModes[V any](m map[models.Mode]V) []models.Mode {
	modes := make([]models.Mode, 0, len(m))
	for mode := range m {
		modes = append(modes, mode)
	}
	models.SortModes(modes)
	return modes
}

// ComparisonText is the plain-text report for a router comparison.
func ComparisonText(report *models.ComparisonReport) string {
	var b strings.Builder
	banner(&b, "COMPARATIVE ROUTING REPORT")

	fmt.Fprintf(&b, "Examples: %s    Baseline: %s    Best: %s\n\n", Count(report.TotalExamples), report.Baseline, report.Best)

	section(&b, "Overall rankings")
	t := newTable("#", "ROUTER", "ACCURACY", "CI", "SKIPPED", "DESCRIPTION")
	for _, name := range report.Rankings {
		rr, ok := report.Router(name)
		if !ok {
			continue
		}
		t.add(fmt.Sprintf("%d", rr.Rank), rr.Name, Percent(rr.Result.Accuracy), ci(rr.Result.AccuracyCI),
			fmt.Sprintf("%d", rr.Result.SkippedCount()), truncate(rr.Description, 50))
	}
	t.write(&b, "")
	b.WriteString("\n")

	top := report.Rankings[:min(3, len(report.Rankings))]
	section(&b, "Per-mode accuracy (top 3 routers)")
	pm := newTable(append([]string{"MODE"}, top...)...)
	for _, mode := range sortedModes(report.PerModeBreakdown) {
		row := []string{string(mode)}
		for _, name := range top {
			row = append(row, Percent(report.PerModeBreakdown[mode][name]))
		}
		pm.add(row...)
	}
	pm.write(&b, "")
	b.WriteString("\n")

	if len(report.Deltas) > 0 {
		section(&b, fmt.Sprintf("Against baseline %s", report.Baseline))
		dt := newTable("ROUTER", "Δ ACCURACY", "Δ CI", "SIGNIFICANT", "NORMALIZED GAIN")
		for _, d := range report.Deltas {
			sig := "no"
			if d.Significant {
				sig = "yes"
			}
			dt.add(d.Router, signedPercent(d.AccuracyDelta), deltaCI(d.DeltaCI), sig, fmt.Sprintf("%+.2f", d.NormalizedGain))
		}
		dt.write(&b, "")
	}
	return b.String()
}

func signedPercent(v float64) string {
	if v > 0 {
		return "+" + Percent(v)
	}
	return Percent(v)
}

func deltaCI(interval *statistics.ConfidenceInterval) string {
	if interval == nil || interval.NumBootstraps == 0 {
		return "n/a"
	}
	return fmt.Sprintf("%s to %s", signedPercent(interval.Lower), signedPercent(interval.Upper))
}

// OptimizationText is the plain-text report for an optimizer analysis.
func OptimizationText(a *optimize.Analysis) string {
	var b strings.Builder
	banner(&b, "THRESHOLD OPTIMIZATION REPORT")
	fmt.Fprintf(&b, "Configurations analyzed: %s\n\n", Count(a.Configurations))

	section(&b, "Recommendations")
	t := newTable("CRITERION", "BREADTH / DEPTH", "SCORE", "ACCURACY", "STABILITY", "REASON")
	for _, c := range models.Criteria {
		rec, ok := a.Recommendations[c]
		if !ok {
			continue
		}
		t.add(string(c), thresholds(rec.Chosen.Breadth, rec.Chosen.Depth), fmt.Sprintf("%.4f", rec.Score),
			Percent(rec.Supporting.Accuracy), fmt.Sprintf("%.4f", rec.Supporting.StabilityIndex), truncate(rec.Reason, 60))
	}
	t.write(&b, "")
	b.WriteString("\n")

	section(&b, "Breadth threshold sensitivity")
	writeSensitivity(&b, a.Sensitivity.Breadth)
	b.WriteString("\n")
	section(&b, "Depth threshold sensitivity")
	writeSensitivity(&b, a.Sensitivity.Depth)
	b.WriteString("\n")

	if len(a.ModePatterns) > 0 {
		section(&b, "Mode routing patterns")
		mt := newTable("MODE", "MEAN SHARE", "STD", "MOST FAVORED BY")
		for _, p := range a.ModePatterns {
			var favored []string
			for _, f := range p.Favored {
				favored = append(favored, fmt.Sprintf("%s (%s)", thresholds(f.Thresholds.Breadth, f.Thresholds.Depth), Percent(f.Share)))
			}
			mt.add(string(p.Mode), Percent(p.Share.Mean), Percent(p.Share.Std), strings.Join(favored, ", "))
		}
		mt.write(&b, "")
		b.WriteString("\n")
	}

	section(&b, fmt.Sprintf("Shortlist (accuracy >= %s)", Percent(optimize.CandidateMinAccuracy)))
	if len(a.Shortlist) == 0 {
		b.WriteString("No configuration reached the shortlist.\n")
		return b.String()
	}
	for _, r := range a.Shortlist {
		fmt.Fprintf(&b, "  %s  %s\n", thresholds(r.Thresholds.Breadth, r.Thresholds.Depth), Percent(r.Accuracy))
	}
	return b.String()
}

func writeSensitivity(b *strings.Builder, stats []optimize.ThresholdStats) {
	t := newTable("THRESHOLD", "MEAN", "STD", "MIN", "MAX", "N")
	for _, s := range stats {
		t.add(fmt.Sprintf("%.2f", s.Threshold), Percent(s.Mean), Percent(s.Std), Percent(s.Min), Percent(s.Max), fmt.Sprintf("%d", s.Count))
	}
	t.write(b, "")
}
