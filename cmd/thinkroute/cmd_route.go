package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/router"
	"github.com/spboyer/thinkroute/internal/strategy"
	"github.com/spf13/cobra"
)

var (
	routeBreadth float64
	routeDepth   float64
	routeExecute bool
	routeJSON    bool
)

func newRouteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "route <question>",
		Short: "Score a question and pick a reasoning strategy",
		Long: `Score a question's breadth and depth with the configured oracle and route it
through the decision table. With --execute the chosen strategy also answers it.`,
		Args: cobra.ExactArgs(1),
		RunE: routeCommandE,
	}

	cmd.Flags().Float64Var(&routeBreadth, "breadth", 0, "Breadth threshold (default: routing.breadth from config)")
	cmd.Flags().Float64Var(&routeDepth, "depth", 0, "Depth threshold (default: routing.depth from config)")
	cmd.Flags().BoolVar(&routeExecute, "execute", false, "Run the selected strategy on the question")
	cmd.Flags().BoolVar(&routeJSON, "json", false, "Print the routing decision as JSON")

	return cmd
}

func routeCommandE(cmd *cobra.Command, args []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	tc := thresholdsFromFlags(cfg.Routing.Breadth, cfg.Routing.Depth, routeBreadth, routeDepth)
	if err := tc.Validate(); err != nil {
		return err
	}

	ctx := cmd.Context()
	b, err := newBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	decision, err := router.NewDimensional(b.oracle).Route(ctx, args[0], tc)
	if err != nil {
		return fmt.Errorf("routing failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if routeJSON {
		return writeJSON(out, decision)
	}
	printDecision(out, decision)

	if !routeExecute {
		return nil
	}
	exec, mode, ok := b.strategies().Lookup(decision.PredictedMode)
	if !ok {
		return fmt.Errorf("no strategy registered for %s", decision.PredictedMode)
	}
	answer, err := exec.Execute(ctx, args[0])
	if err != nil {
		return fmt.Errorf("strategy %s failed: %w", mode, err)
	}
	printAnswer(out, answer)
	return nil
}

func thresholdsFromFlags(cfgBreadth, cfgDepth, flagBreadth, flagDepth float64) models.ThresholdConfig {
	tc := models.ThresholdConfig{Breadth: cfgBreadth, Depth: cfgDepth}
	if flagBreadth != 0 {
		tc.Breadth = flagBreadth
	}
	if flagDepth != 0 {
		tc.Depth = flagDepth
	}
	return tc
}

func printDecision(w io.Writer, d *models.RoutingDecision) {
	fmt.Fprintf(w, "Mode:        %s\n", d.PredictedMode)
	fmt.Fprintf(w, "Scores:      breadth=%.2f depth=%.2f\n", d.Scores.Breadth, d.Scores.Depth)
	fmt.Fprintf(w, "Thresholds:  %s\n", d.Thresholds)
	fmt.Fprintf(w, "Confidence:  %.2f\n", d.Confidence)
	if d.ModeHint != "" && d.ModeHint != models.ModeUnknown {
		fmt.Fprintf(w, "Oracle hint: %s\n", d.ModeHint)
	}
	fmt.Fprintf(w, "Reason:      %s\n", d.Rationale)
	if d.OracleRationale != "" {
		fmt.Fprintf(w, "Oracle:      %s\n", d.OracleRationale)
	}
}

func printAnswer(w io.Writer, a *strategy.Answer) {
	fmt.Fprintf(w, "\n[%s] %s\n", a.Mode, a.Text)
	if a.Trace != "" {
		fmt.Fprintf(w, "\nTrace:\n%s\n", a.Trace)
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
