// Package reporting turns sweep, comparison and optimization artifacts
// into text, markdown, HTML and JUnit reports.
package reporting

import (
	"fmt"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Tier is a coarse label for a routing accuracy.
type Tier string

const (
	TierExcellent   Tier = "excellent"
	TierGood        Tier = "good"
	TierNeedsTuning Tier = "needs tuning"
)

// TierFor maps accuracy to a Tier: above 0.75 is excellent, above 0.70 is
// good.
func TierFor(accuracy float64) Tier {
	switch {
	case accuracy > 0.75:
		return TierExcellent
	case accuracy > 0.70:
		return TierGood
	default:
		return TierNeedsTuning
	}
}

// InterpretAccuracy returns the one-line verdict shown under a report's
// recommendations.
func InterpretAccuracy(accuracy float64) string {
	switch TierFor(accuracy) {
	case TierExcellent:
		return "✅ Excellent performance."
	case TierGood:
		return "✅ Good performance; further tuning may help."
	default:
		return "❌ Suboptimal performance. Consider revisiting scoring or prompting."
	}
}

var printer = message.NewPrinter(language.English)

// Percent formats a [0,1] rate with one decimal.
func Percent(rate float64) string {
	return printer.Sprintf("%.1f%%", rate*100)
}

// Count formats an integer with digit grouping.
func Count(n int) string {
	return printer.Sprintf("%d", n)
}

func thresholds(b, d float64) string {
	return fmt.Sprintf("%.2f / %.2f", b, d)
}
