package main

import (
	"fmt"
	"io"
	"time"

	"github.com/spboyer/thinkroute/internal/evaluation"
)

// progressPrinter reports harness progress. Verbose mode prints every
// example; otherwise only phase boundaries.
func progressPrinter(w io.Writer, verbose bool) evaluation.ProgressListener {
	return func(event evaluation.ProgressEvent) {
		switch event.EventType {
		case evaluation.EventSweepStart:
			fmt.Fprintf(w, "Scoring %d example(s)...\n", event.Total)
		case evaluation.EventExampleScored:
			if verbose {
				fmt.Fprintf(w, "✓ [%d/%d] %s\n", event.Num, event.Total, truncate(event.Question, 60))
			}
		case evaluation.EventExampleCached:
			if verbose {
				fmt.Fprintf(w, "✓ [%d/%d] %s [cached]\n", event.Num, event.Total, truncate(event.Question, 60))
			}
		case evaluation.EventExampleFailed:
			msg := ""
			if e, ok := event.Details["error"].(string); ok {
				msg = ": " + e
			}
			fmt.Fprintf(w, "✗ [%d/%d] %s%s\n", event.Num, event.Total, truncate(event.Question, 60), msg)
		case evaluation.EventScoringComplete:
			fmt.Fprintf(w, "Scored %d/%d question(s)\n", event.Num, event.Total)
		case evaluation.EventConfigComplete:
			if verbose {
				fmt.Fprintf(w, "  config %d/%d done\n", event.Num, event.Total)
			}
		case evaluation.EventSweepComplete:
			fmt.Fprintf(w, "Sweep completed in %s\n\n", formatDuration(time.Duration(event.DurationMs)*time.Millisecond))
		}
	}
}

// truncate shortens s to maxLen runes, appending "..." if truncated.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
