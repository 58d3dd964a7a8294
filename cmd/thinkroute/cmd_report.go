package main

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/reporting"
	"github.com/spboyer/thinkroute/internal/store"
	"github.com/spboyer/thinkroute/internal/validation"
	"github.com/spf13/cobra"
)

var (
	reportFormat string
	reportOutput string
	reportRunID  string
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report [result.json]",
		Short: "Render a sweep, comparison or recommendation artifact",
		Long: `Render a saved result as text, markdown or a standalone HTML page. The
artifact type is detected from the file and checked against its schema.
With --run the artifact is read from the history database instead.`,
		Args: cobra.MaximumNArgs(1),
		RunE: reportCommandE,
	}

	cmd.Flags().StringVar(&reportFormat, "format", "text", "Output format: text, markdown or html")
	cmd.Flags().StringVarP(&reportOutput, "output", "o", "", "Write the report to this file instead of stdout")
	cmd.Flags().StringVar(&reportRunID, "run", "", "Render a run from the history database")

	return cmd
}

func reportCommandE(cmd *cobra.Command, args []string) error {
	if reportFormat != "text" && reportFormat != "markdown" && reportFormat != "html" {
		return fmt.Errorf("unsupported format %q: must be text, markdown or html", reportFormat)
	}

	var (
		buf bytes.Buffer
		err error
	)
	switch {
	case len(args) == 1 && reportRunID != "":
		return errors.New("pass either a result file or --run, not both")
	case len(args) == 1:
		err = renderFile(&buf, args[0], reportFormat)
	case reportRunID != "":
		err = renderRun(cmd, &buf, reportRunID, reportFormat)
	default:
		return errors.New("a result file or --run is required")
	}
	if err != nil {
		return err
	}

	if reportOutput == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(reportOutput, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "Report written to: %s\n", reportOutput)
	return nil
}

func renderFile(w io.Writer, path, format string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	title := filepath.Base(path)

	switch validation.DetectArtifact(data) {
	case "sweep":
		outcome, err := validation.LoadSweep(path)
		if err != nil {
			return err
		}
		return renderSweep(w, title, outcome, format)
	case "comparison":
		report, err := validation.LoadComparison(path)
		if err != nil {
			return err
		}
		return renderComparison(w, title, report, format)
	case "recommendation":
		set, err := validation.LoadRecommendations(path)
		if err != nil {
			return err
		}
		if format != "text" {
			return fmt.Errorf("recommendation files only render as text")
		}
		printRecommendations(w, set)
		return nil
	default:
		return fmt.Errorf("%s is not a sweep, comparison or recommendation file", path)
	}
}

func renderRun(cmd *cobra.Command, w io.Writer, id, format string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	s, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	outcome, err := s.LoadSweep(ctx, id)
	if err == nil {
		return renderSweep(w, "run "+id, outcome, format)
	}
	if errors.Is(err, store.ErrNotFound) {
		return err
	}
	report, cerr := s.LoadComparison(ctx, id)
	if cerr != nil {
		return cerr
	}
	return renderComparison(w, "run "+id, report, format)
}

func renderSweep(w io.Writer, title string, outcome *models.SweepOutcome, format string) error {
	switch format {
	case "markdown":
		_, err := io.WriteString(w, reporting.SweepMarkdown(outcome))
		return err
	case "html":
		return writeHTML(w, title, reporting.SweepMarkdown(outcome))
	default:
		_, err := io.WriteString(w, reporting.SweepText(outcome))
		return err
	}
}

func renderComparison(w io.Writer, title string, report *models.ComparisonReport, format string) error {
	switch format {
	case "markdown":
		_, err := io.WriteString(w, reporting.ComparisonMarkdown(report))
		return err
	case "html":
		return writeHTML(w, title, reporting.ComparisonMarkdown(report))
	default:
		_, err := io.WriteString(w, reporting.ComparisonText(report))
		return err
	}
}

func writeHTML(w io.Writer, title, markdown string) error {
	page, err := reporting.RenderHTML(title, markdown)
	if err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	_, err = w.Write(page)
	return err
}

func printRecommendations(w io.Writer, set *models.RecommendationSet) {
	if set.RunID != "" {
		fmt.Fprintf(w, "Run: %s\n", set.RunID)
	}
	for _, c := range models.Criteria {
		rec, ok := set.Recommendations[c]
		if !ok {
			continue
		}
		fmt.Fprintf(w, "\n%s: %s (score %.4f, accuracy %s)\n", c, rec.Chosen, rec.Score, reporting.Percent(rec.Supporting.Accuracy))
		fmt.Fprintf(w, "  %s\n", rec.Reason)
		printCandidates(w, rec, 3)
	}
}
