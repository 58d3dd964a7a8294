package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/optimize"
	"github.com/spboyer/thinkroute/internal/reporting"
	"github.com/spboyer/thinkroute/internal/validation"
	"github.com/spf13/cobra"
)

const criterionAll = "all"

var (
	optimizeCriterion string
	optimizeRunID     string
	optimizeOutput    string
	optimizeMatrix    string
	optimizeReport    string
	optimizeFormat    string
)

func newOptimizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "optimize [sweep.json]",
		Short: "Recommend thresholds from a sweep outcome",
		Long: `Pick the best threshold configuration from a sweep outcome under one or all
criteria:

  accuracy   highest accuracy
  stability  lowest accuracy variance across neighbouring configurations
  balanced   0.7 x normalized accuracy + 0.3 x normalized stability

The outcome comes from a file written by "sweep -o" or, with --run, from
the history database.`,
		Args: cobra.MaximumNArgs(1),
		RunE: optimizeCommandE,
	}

	cmd.Flags().StringVar(&optimizeCriterion, "criterion", criterionAll, "Criterion: balanced, accuracy, stability or all")
	cmd.Flags().StringVar(&optimizeRunID, "run", "", "Load the sweep from the history database by run ID")
	cmd.Flags().StringVarP(&optimizeOutput, "output", "o", "", "Write recommendations JSON to this file")
	cmd.Flags().StringVar(&optimizeMatrix, "matrix", "", "Write the breadth x depth accuracy matrix JSON to this file")
	cmd.Flags().StringVar(&optimizeReport, "report", "", "Write the text optimization report to this file")
	cmd.Flags().StringVarP(&optimizeFormat, "format", "f", "text", "Output format: text or json")

	return cmd
}

func optimizeCommandE(cmd *cobra.Command, args []string) error {
	if optimizeFormat != "text" && optimizeFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be text or json", optimizeFormat)
	}
	criteria, err := parseCriteria(optimizeCriterion)
	if err != nil {
		return err
	}

	outcome, err := loadSweepOutcome(cmd, args)
	if err != nil {
		return err
	}

	set := &models.RecommendationSet{
		RunID:           outcome.RunID,
		Timestamp:       outcome.Timestamp,
		Recommendations: map[models.Criterion]models.Recommendation{},
	}
	for _, c := range criteria {
		rec, err := optimize.Recommend(outcome.Results, c)
		if err != nil {
			return fmt.Errorf("optimization failed: %w", err)
		}
		set.Recommendations[c] = *rec
	}

	analysis, err := optimize.Analyze(outcome.Results)
	if err != nil {
		return fmt.Errorf("optimization failed: %w", err)
	}
	analysis.Recommendations = set.Recommendations

	out := cmd.OutOrStdout()
	if optimizeFormat == "json" {
		if err := writeJSON(out, set); err != nil {
			return err
		}
	} else {
		fmt.Fprint(out, reporting.OptimizationText(analysis))
		if len(criteria) == 1 {
			fmt.Fprintf(out, "\nTop candidates (%s):\n", criteria[0])
			printCandidates(out, set.Recommendations[criteria[0]], 5)
		}
	}

	if optimizeOutput != "" {
		if err := saveJSON(set, optimizeOutput); err != nil {
			return fmt.Errorf("failed to save recommendations: %w", err)
		}
	}
	if optimizeMatrix != "" {
		if err := saveJSON(analysis.Matrix, optimizeMatrix); err != nil {
			return fmt.Errorf("failed to save matrix: %w", err)
		}
	}
	if optimizeReport != "" {
		if err := os.WriteFile(optimizeReport, []byte(reporting.OptimizationText(analysis)), 0o644); err != nil {
			return fmt.Errorf("failed to save report: %w", err)
		}
	}
	return nil
}

func parseCriteria(s string) ([]models.Criterion, error) {
	if strings.EqualFold(strings.TrimSpace(s), criterionAll) {
		return models.Criteria, nil
	}
	c, err := models.ParseCriterion(s)
	if err != nil {
		return nil, err
	}
	return []models.Criterion{c}, nil
}

// loadSweepOutcome reads the outcome named by the single argument or by
// --run. Files are schema-checked before they are decoded.
func loadSweepOutcome(cmd *cobra.Command, args []string) (*models.SweepOutcome, error) {
	switch {
	case len(args) == 1 && optimizeRunID != "":
		return nil, errors.New("pass either a sweep file or --run, not both")
	case len(args) == 1:
		outcome, err := validation.LoadSweep(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", args[0], err)
		}
		return outcome, nil
	case optimizeRunID != "":
		cfg, err := loadProjectConfig()
		if err != nil {
			return nil, err
		}
		s, err := openHistory(cfg)
		if err != nil {
			return nil, err
		}
		defer s.Close()
		return s.LoadSweep(cmd.Context(), optimizeRunID)
	default:
		return nil, errors.New("a sweep file or --run is required")
	}
}

func printCandidates(w io.Writer, rec models.Recommendation, limit int) {
	for i, c := range rec.Candidates {
		if i == limit {
			break
		}
		fmt.Fprintf(w, "  %d. %s  score=%.4f  accuracy=%s\n", c.Rank, c.Thresholds, c.Score, reporting.Percent(c.Accuracy))
	}
}
