package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spboyer/thinkroute/internal/dataset"
	"github.com/spboyer/thinkroute/internal/hooks"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/projectconfig"
	"github.com/spboyer/thinkroute/internal/reporting"
	"github.com/spf13/cobra"
)

var (
	sweepDataset     string
	sweepQuick       bool
	sweepParallel    bool
	sweepWorkers     int
	sweepOutput      string
	sweepMinAccuracy float64
	sweepJUnit       string
	sweepNoCache     bool
	sweepNoHistory   bool
	sweepVerbose     bool
	sweepFormat      string
	sweepSeed        int64
)

func newSweepCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Grid-search breadth/depth thresholds against a labeled dataset",
		Long: `Score every labeled example once, then replay the scores under each threshold
configuration of the grid and report accuracy, per-mode accuracy and the
confusion matrix for each.

The full grid is 0.4..0.8 in steps of 0.1 on both axes; --quick uses 0.5,
0.6 and 0.7. With --min-accuracy the command exits with status 1
when the best configuration falls short.`,
		Args: cobra.NoArgs,
		RunE: sweepCommandE,
	}

	cmd.Flags().StringVar(&sweepDataset, "dataset", "", "Dataset directory, JSONL or CSV file (default: paths.dataset from config)")
	cmd.Flags().BoolVar(&sweepQuick, "quick", false, "Use the 3x3 quick grid")
	cmd.Flags().BoolVar(&sweepParallel, "parallel", false, "Score examples and replay grid cells concurrently")
	cmd.Flags().IntVar(&sweepWorkers, "workers", 0, "Number of concurrent oracle calls (default: sweep.workers, requires --parallel)")
	cmd.Flags().StringVarP(&sweepOutput, "output", "o", "", "Output JSON file for the sweep outcome")
	cmd.Flags().Float64Var(&sweepMinAccuracy, "min-accuracy", -1, "Fail when the best accuracy is below this value (default: sweep.min_accuracy)")
	cmd.Flags().StringVar(&sweepJUnit, "junit", "", "Write a JUnit XML report to this file")
	cmd.Flags().BoolVar(&sweepNoCache, "no-cache", false, "Ignore the persistent score cache")
	cmd.Flags().BoolVar(&sweepNoHistory, "no-history", false, "Do not record the run in the history database")
	cmd.Flags().BoolVarP(&sweepVerbose, "verbose", "v", false, "Print progress for every example")
	cmd.Flags().StringVar(&sweepFormat, "format", "text", "Output format: text, markdown or json")
	cmd.Flags().Int64Var(&sweepSeed, "seed", 0, "Seed for the bootstrap accuracy intervals (default: sweep.seed)")

	return cmd
}

func sweepCommandE(cmd *cobra.Command, _ []string) error {
	if sweepFormat != "text" && sweepFormat != "markdown" && sweepFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be text, markdown or json", sweepFormat)
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	applySweepFlags(cmd, cfg)

	examples, err := dataset.Load(cfg.Paths.Dataset)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	grid := models.FullGrid()
	if cfg.Sweep.Grid == projectconfig.GridQuick {
		grid = models.QuickGrid()
	}

	ctx := cmd.Context()
	b, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	h := b.harness(sweepNoCache)
	progressOut := cmd.ErrOrStderr()
	h.OnProgress(progressPrinter(progressOut, sweepVerbose))

	fmt.Fprintf(progressOut, "Dataset: %s (%d examples)\n", cfg.Paths.Dataset, len(examples))
	if sweepVerbose {
		counts := dataset.Counts(examples)
		for _, m := range models.CanonicalModes {
			if counts[m] > 0 {
				fmt.Fprintf(progressOut, "  %-9s %d\n", m, counts[m])
			}
		}
	}
	fmt.Fprintf(progressOut, "Grid: %s (%d configurations)\n", cfg.Sweep.Grid, len(grid))
	if cfg.Sweep.Parallel != nil && *cfg.Sweep.Parallel {
		fmt.Fprintf(progressOut, "Parallel: %d workers\n", cfg.Sweep.Workers)
	}
	if !cfg.Hooks.Empty() {
		fmt.Fprintf(progressOut, "Hooks: %d before, %d after\n", len(cfg.Hooks.BeforeSweep), len(cfg.Hooks.AfterSweep))
	}

	runner := &hooks.Runner{Output: progressOut, Env: map[string]string{
		"THINKROUTE_DATASET": cfg.Paths.Dataset,
		"THINKROUTE_GRID":    cfg.Sweep.Grid,
	}}
	if err := runner.Execute(ctx, hooks.BeforeSweep, cfg.Hooks.BeforeSweep); err != nil {
		return err
	}

	outcome, err := h.Evaluate(ctx, examples, grid)
	if err != nil {
		return fmt.Errorf("sweep failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if err := printSweep(out, outcome, sweepFormat); err != nil {
		return err
	}

	if sweepOutput != "" {
		if err := saveJSON(outcome, sweepOutput); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Fprintf(progressOut, "\nResults saved to: %s\n", sweepOutput)
	}
	if sweepJUnit != "" {
		if err := reporting.WriteJUnitXML(outcome, cfg.Sweep.MinAccuracy, sweepJUnit); err != nil {
			return fmt.Errorf("failed to write JUnit report: %w", err)
		}
	}
	runID := outcome.RunID
	if !sweepNoHistory {
		if runID, err = recordSweep(cmd, cfg, outcome); err != nil {
			return err
		}
	}

	if len(cfg.Hooks.AfterSweep) > 0 {
		runner.Env["THINKROUTE_RUN_ID"] = runID
		runner.Env["THINKROUTE_RESULTS"] = sweepOutput
		if best := outcome.Best(); best != nil {
			runner.Env["THINKROUTE_BEST_ACCURACY"] = fmt.Sprintf("%.4f", best.Accuracy)
			runner.Env["THINKROUTE_BEST_THRESHOLDS"] = best.Thresholds.String()
		}
		if err := runner.Execute(ctx, hooks.AfterSweep, cfg.Hooks.AfterSweep); err != nil {
			return err
		}
	}

	return accuracyGate(outcome, cfg.Sweep.MinAccuracy)
}

// applySweepFlags lets explicitly set flags override the config file.
func applySweepFlags(cmd *cobra.Command, cfg *projectconfig.ProjectConfig) {
	if sweepDataset != "" {
		cfg.Paths.Dataset = sweepDataset
	}
	if sweepQuick {
		cfg.Sweep.Grid = projectconfig.GridQuick
	}
	if cmd.Flags().Changed("parallel") {
		p := sweepParallel
		cfg.Sweep.Parallel = &p
	}
	if sweepWorkers > 0 {
		cfg.Sweep.Workers = sweepWorkers
	}
	if sweepMinAccuracy >= 0 {
		cfg.Sweep.MinAccuracy = sweepMinAccuracy
	}
	if sweepSeed != 0 {
		cfg.Sweep.Seed = sweepSeed
	}
}

func printSweep(w io.Writer, outcome *models.SweepOutcome, format string) error {
	switch format {
	case "json":
		return writeJSON(w, outcome)
	case "markdown":
		fmt.Fprint(w, reporting.SweepMarkdown(outcome))
	default:
		fmt.Fprint(w, reporting.SweepText(outcome))
	}
	return nil
}

func recordSweep(cmd *cobra.Command, cfg *projectconfig.ProjectConfig, outcome *models.SweepOutcome) (string, error) {
	s, err := openHistory(cfg)
	if err != nil {
		return "", err
	}
	defer s.Close()

	id, err := s.SaveSweep(cmd.Context(), outcome)
	if err != nil {
		return "", fmt.Errorf("failed to record run: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recorded run %s in %s\n", id, cfg.Paths.History)
	return id, nil
}

// accuracyGate returns a TestFailureError when the best accuracy is below
// minAccuracy. A zero minimum disables the gate.
func accuracyGate(outcome *models.SweepOutcome, minAccuracy float64) error {
	if minAccuracy <= 0 {
		return nil
	}
	best := outcome.Best()
	if best == nil {
		return &TestFailureError{Message: "sweep produced no results"}
	}
	if best.Accuracy < minAccuracy {
		return &TestFailureError{
			Message: fmt.Sprintf("best accuracy %s at %s is below the %s minimum",
				reporting.Percent(best.Accuracy), best.Thresholds, reporting.Percent(minAccuracy)),
		}
	}
	return nil
}

func saveJSON(v any, path string) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}
