package reporting

import (
	"bytes"
	"fmt"
	"html"
	"sort"
	"strings"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// SweepMarkdown is the markdown report for a sweep outcome.
func SweepMarkdown(outcome *models.SweepOutcome) string {
	var b strings.Builder
	b.WriteString("# Routing efficiency report\n\n")
	fmt.Fprintf(&b, "- **Run:** `%s`\n", outcome.RunID)
	fmt.Fprintf(&b, "- **Oracle:** %s\n", outcome.Oracle)
	fmt.Fprintf(&b, "- **Examples:** %s\n", Count(outcome.Examples))
	fmt.Fprintf(&b, "- **Configurations:** %s\n", Count(len(outcome.Results)))
	fmt.Fprintf(&b, "- **Skipped examples:** %s\n\n", Count(len(outcome.Skipped)))

	best := outcome.Best()
	if best == nil {
		b.WriteString("No configurations were evaluated.\n")
		return b.String()
	}

	b.WriteString("## Best configuration\n\n")
	fmt.Fprintf(&b, "Breadth **%.2f**, depth **%.2f**: accuracy **%s** (%s).\n\n",
		best.Thresholds.Breadth, best.Thresholds.Depth, Percent(best.Accuracy), TierFor(best.Accuracy))
	b.WriteString(InterpretAccuracy(best.Accuracy) + "\n\n")

	b.WriteString("## All configurations\n\n")
	b.WriteString("| Breadth | Depth | Accuracy | Correct | Skipped | Mean latency (ms) |\n")
	b.WriteString("|---:|---:|---:|---:|---:|---:|\n")
	for _, r := range outcome.Results {
		fmt.Fprintf(&b, "| %.2f | %.2f | %s | %d/%d | %d | %.1f |\n",
			r.Thresholds.Breadth, r.Thresholds.Depth, Percent(r.Accuracy), r.Correct, r.Evaluated(), r.SkippedCount(), r.MeanLatencyMs)
	}
	b.WriteString("\n")

	b.WriteString("## Confusion (best configuration)\n\n")
	b.WriteString("| Expected | Predicted | Count |\n|---|---|---:|\n")
	for _, e := range best.Confusion.Entries() {
		fmt.Fprintf(&b, "| %s | %s | %d |\n", e.Expected, e.Predicted, e.Count)
	}

	if len(best.Misrouted) > 0 {
		b.WriteString("\n## Misrouted examples (best configuration)\n\n")
		b.WriteString("| Example | Expected | Predicted | Breadth | Depth | Question | Rationale |\n|---|---|---|---:|---:|---|---|\n")
		for _, m := range best.Misrouted {
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %.2f | %s | %s |\n", cell(m.ExampleID), m.Expected, m.Predicted,
				m.Scores.Breadth, m.Scores.Depth, cell(truncate(m.Question, 80)), cell(m.Rationale))
		}
	}

	if len(outcome.Skipped) > 0 {
		b.WriteString("\n## Skipped examples\n\n")
		b.WriteString("| Example | Expected | Kind | Error |\n|---|---|---|---|\n")
		for _, s := range outcome.Skipped {
			fmt.Fprintf(&b, "| %s | %s | %s | %s |\n", cell(s.ExampleID), s.ExpectedMode, s.Kind, cell(truncate(s.Error, 80)))
		}
	}
	return b.String()
}

// ComparisonMarkdown is the markdown report for a router comparison.
func ComparisonMarkdown(report *models.ComparisonReport) string {
	var b strings.Builder
	b.WriteString("# Comparative routing report\n\n")
	fmt.Fprintf(&b, "%s examples, baseline **%s**, best **%s**.\n\n", Count(report.TotalExamples), report.Baseline, report.Best)

	b.WriteString("## Rankings\n\n")
	b.WriteString("| Rank | Router | Accuracy | Skipped |\n|---:|---|---:|---:|\n")
	for _, name := range report.Rankings {
		if rr, ok := report.Router(name); ok {
			fmt.Fprintf(&b, "| %d | %s | %s | %d |\n", rr.Rank, cell(rr.Name), Percent(rr.Result.Accuracy), rr.Result.SkippedCount())
		}
	}

	b.WriteString("\n## Per-mode accuracy\n\n")
	b.WriteString("| Mode | " + strings.Join(report.Rankings, " | ") + " |\n")
	b.WriteString("|---|" + strings.Repeat("---:|", len(report.Rankings)) + "\n")
	modes := make([]models.Mode, 0, len(report.PerModeBreakdown))
	for m := range report.PerModeBreakdown {
		modes = append(modes, m)
	}
	models.SortModes(modes)
	for _, m := range modes {
		cells := make([]string, len(report.Rankings))
		for i, name := range report.Rankings {
			cells[i] = Percent(report.PerModeBreakdown[m][name])
		}
		fmt.Fprintf(&b, "| %s | %s |\n", m, strings.Join(cells, " | "))
	}

	if len(report.Deltas) > 0 {
		deltas := append([]models.RouterDelta(nil), report.Deltas...)
		sort.SliceStable(deltas, func(i, j int) bool { return deltas[i].AccuracyDelta > deltas[j].AccuracyDelta })

		fmt.Fprintf(&b, "\n## Against %s\n\n", report.Baseline)
		b.WriteString("| Router | Δ accuracy | Δ CI | Significant | Normalized gain |\n|---|---:|---|---|---:|\n")
		for _, d := range deltas {
			fmt.Fprintf(&b, "| %s | %s | %s | %t | %+.2f |\n", cell(d.Router), signedPercent(d.AccuracyDelta), deltaCI(d.DeltaCI), d.Significant, d.NormalizedGain)
		}
	}
	return b.String()
}

// cell escapes a value for a markdown table cell.
func cell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.ReplaceAll(s, "\n", " ")
}

// RenderHTML converts a markdown report into a standalone HTML page.
func RenderHTML(title, markdown string) ([]byte, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))

	var body bytes.Buffer
	if err := md.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("rendering markdown: %w", err)
	}

	var page bytes.Buffer
	fmt.Fprintf(&page, `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>%s</title>
<style>
body { font-family: system-ui, sans-serif; max-width: 960px; margin: 2rem auto; padding: 0 1rem; }
table { border-collapse: collapse; margin: 1rem 0; }
th, td { border: 1px solid #ccc; padding: 0.25rem 0.6rem; }
th { background: #f3f3f3; }
</style>
</head>
<body>
`, html.EscapeString(title))
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.Bytes(), nil
}
