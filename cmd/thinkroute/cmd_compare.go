package main

import (
	"errors"
	"fmt"

	"github.com/spboyer/thinkroute/internal/benchmark"
	"github.com/spboyer/thinkroute/internal/dataset"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/reporting"
	"github.com/spboyer/thinkroute/internal/validation"
	"github.com/spf13/cobra"
)

var (
	compareDataset   string
	compareBreadth   float64
	compareDepth     float64
	compareBaseline  string
	compareFormat    string
	compareOutput    string
	compareNoCache   bool
	compareNoHistory bool

	compareRecommendation string
	compareCriterion      string
)

func newCompareCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compare",
		Short: "Compare the dimensional router against the baseline routers",
		Long: `Score a labeled dataset once and evaluate every router on the same scores:
the dimensional router, the single-label classifier baseline and the
multi-strategy aggregator at three confidence thresholds.

Routers are ranked by accuracy; each non-baseline router gets an accuracy
delta, a confusion delta and a paired bootstrap interval against the
baseline.

With --recommendation the dimensional router uses the configuration chosen
by "thinkroute optimize -o" under --criterion instead of routing.breadth and
routing.depth.`,
		Args: cobra.NoArgs,
		RunE: compareCommandE,
	}

	cmd.Flags().StringVar(&compareDataset, "dataset", "", "Dataset directory, JSONL or CSV file (default: paths.dataset from config)")
	cmd.Flags().Float64Var(&compareBreadth, "breadth", 0, "Breadth threshold for the dimensional router (default: routing.breadth)")
	cmd.Flags().Float64Var(&compareDepth, "depth", 0, "Depth threshold for the dimensional router (default: routing.depth)")
	cmd.Flags().StringVar(&compareBaseline, "baseline", benchmark.NameAdaptive, "Router the others are compared against")
	cmd.Flags().StringVarP(&compareFormat, "format", "f", "table", "Output format: table, markdown or json")
	cmd.Flags().StringVarP(&compareOutput, "output", "o", "", "Output JSON file for the comparison report")
	cmd.Flags().BoolVar(&compareNoCache, "no-cache", false, "Ignore the persistent score cache")
	cmd.Flags().BoolVar(&compareNoHistory, "no-history", false, "Do not record the run in the history database")
	cmd.Flags().StringVar(&compareRecommendation, "recommendation", "", "Recommendations JSON from optimize; its chosen configuration sets the dimensional router thresholds")
	cmd.Flags().StringVar(&compareCriterion, "criterion", string(models.CriterionBalanced), "Recommendation criterion used with --recommendation")

	return cmd
}

func compareCommandE(cmd *cobra.Command, _ []string) error {
	if compareFormat != "table" && compareFormat != "markdown" && compareFormat != "json" {
		return fmt.Errorf("unsupported format %q: must be table, markdown or json", compareFormat)
	}

	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	if compareDataset != "" {
		cfg.Paths.Dataset = compareDataset
	}
	tc, err := compareThresholds(cmd, cfg.Routing.Breadth, cfg.Routing.Depth)
	if err != nil {
		return err
	}
	if err := tc.Validate(); err != nil {
		return err
	}

	examples, err := dataset.Load(cfg.Paths.Dataset)
	if err != nil {
		return fmt.Errorf("failed to load dataset: %w", err)
	}

	ctx := cmd.Context()
	b, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	h := b.harness(compareNoCache)
	h.OnProgress(progressPrinter(cmd.ErrOrStderr(), false))

	report, err := benchmark.Run(ctx, h, examples, benchmark.DefaultRouters(tc), compareBaseline)
	if err != nil {
		return fmt.Errorf("comparison failed: %w", err)
	}

	out := cmd.OutOrStdout()
	switch compareFormat {
	case "json":
		if err := writeJSON(out, report); err != nil {
			return err
		}
	case "markdown":
		fmt.Fprint(out, reporting.ComparisonMarkdown(report))
	default:
		fmt.Fprint(out, reporting.ComparisonText(report))
	}

	if compareOutput != "" {
		if err := saveJSON(report, compareOutput); err != nil {
			return fmt.Errorf("failed to save output: %w", err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "\nResults saved to: %s\n", compareOutput)
	}

	if compareNoHistory {
		return nil
	}
	s, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer s.Close()
	id, err := s.SaveComparison(ctx, report)
	if err != nil {
		return fmt.Errorf("failed to record run: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Recorded run %s in %s\n", id, cfg.Paths.History)
	return nil
}

// compareThresholds picks the dimensional router thresholds from
// --recommendation, or from the flags over the configured defaults.
func compareThresholds(cmd *cobra.Command, cfgBreadth, cfgDepth float64) (models.ThresholdConfig, error) {
	if compareRecommendation == "" {
		if cmd.Flags().Changed("criterion") {
			return models.ThresholdConfig{}, errors.New("--criterion needs --recommendation")
		}
		return thresholdsFromFlags(cfgBreadth, cfgDepth, compareBreadth, compareDepth), nil
	}
	if compareBreadth != 0 || compareDepth != 0 {
		return models.ThresholdConfig{}, errors.New("pass either --recommendation or --breadth/--depth, not both")
	}

	criterion, err := models.ParseCriterion(compareCriterion)
	if err != nil {
		return models.ThresholdConfig{}, err
	}
	set, err := validation.LoadRecommendations(compareRecommendation)
	if err != nil {
		return models.ThresholdConfig{}, fmt.Errorf("failed to load %s: %w", compareRecommendation, err)
	}
	rec, ok := set.Recommendations[criterion]
	if !ok {
		return models.ThresholdConfig{}, fmt.Errorf("%s has no %s recommendation", compareRecommendation, criterion)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Dimensional router: %s (%s recommendation from %s)\n", rec.Chosen, criterion, compareRecommendation)
	return rec.Chosen, nil
}
