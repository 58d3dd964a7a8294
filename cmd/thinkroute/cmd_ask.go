package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spboyer/thinkroute/internal/aggregate"
	"github.com/spboyer/thinkroute/internal/oracle"
	"github.com/spboyer/thinkroute/internal/router"
	"github.com/spboyer/thinkroute/internal/spinner"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var (
	askThreshold float64
	askJSON      bool
)

func newAskCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question, falling back to several strategies when unsure",
		Long: `Classify the question and answer it with the selected strategy. When the
classifier's confidence is below --confidence-threshold, chain-of-thought,
tree-of-thoughts and graph-of-thoughts all run and their answers are
synthesized into one.`,
		Args: cobra.ExactArgs(1),
		RunE: askCommandE,
	}

	cmd.Flags().Float64Var(&askThreshold, "confidence-threshold", -1, "Confidence below which several strategies run (default: routing.confidence_threshold from config)")
	cmd.Flags().BoolVar(&askJSON, "json", false, "Print the full result as JSON")

	return cmd
}

func askCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	threshold := cfg.Routing.ConfidenceThreshold
	if askThreshold >= 0 {
		threshold = askThreshold
	}

	ctx := cmd.Context()
	b, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	agg := aggregate.New(router.NewClassifier(b.oracle), b.strategies(), b.synthesizer(), aggregate.Options{
		MaxAttempts: cfg.Oracle.MaxAttempts,
		Backoff:     oracle.DefaultBackoffBase,
		CallTimeout: b.strategyTimeout(),
	})

	stop := startSpinner(cmd.ErrOrStderr(), "Thinking...")
	result, err := agg.Resolve(ctx, args[0], threshold)
	stop()
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if askJSON {
		return writeJSON(out, result)
	}
	printResult(out, result)
	return nil
}

func printResult(w io.Writer, r *aggregate.Result) {
	fmt.Fprintf(w, "Mode:       %s\n", r.Mode)
	fmt.Fprintf(w, "Selected:   %s (confidence %.2f)\n", r.Selected, r.Confidence)
	if r.MultiStrategy() {
		fmt.Fprintf(w, "Strategies: %v\n", r.Strategies)
		for _, f := range r.Failures {
			fmt.Fprintf(w, "  ✗ %s %s: %s\n", f.Mode, f.Kind, f.Error)
		}
	}
	fmt.Fprintf(w, "Duration:   %s\n\n", formatDuration(r.Duration))
	fmt.Fprintln(w, r.Answer)
}

// startSpinner only animates on a terminal.
func startSpinner(w io.Writer, message string) func() {
	f, ok := w.(*os.File)
	if !ok || !term.IsTerminal(int(f.Fd())) {
		return spinner.Noop
	}
	return spinner.Start(w, message)
}

// formatDuration formats a duration in a consistent, human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return d.Round(time.Millisecond).String()
}
