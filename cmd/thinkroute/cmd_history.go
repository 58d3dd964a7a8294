package main

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/spboyer/thinkroute/internal/reporting"
	"github.com/spboyer/thinkroute/internal/store"
	"github.com/spf13/cobra"
)

var (
	historyLimit int
	historyJSON  bool
)

func newHistoryCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded sweep and comparison runs",
		Args:  cobra.NoArgs,
		RunE:  historyCommandE,
	}

	cmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Maximum number of runs to list (0 for all)")
	cmd.Flags().BoolVar(&historyJSON, "json", false, "Print runs as JSON")

	return cmd
}

func historyCommandE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadProjectConfig()
	if err != nil {
		return err
	}
	s, err := openHistory(cfg)
	if err != nil {
		return err
	}
	defer s.Close()

	runs, err := s.List(cmd.Context(), historyLimit)
	if err != nil {
		return fmt.Errorf("failed to list runs: %w", err)
	}

	out := cmd.OutOrStdout()
	if historyJSON {
		return writeJSON(out, runs)
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs recorded yet.")
		return nil
	}
	printHistory(out, runs)
	return nil
}

func printHistory(w io.Writer, runs []store.Run) {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		rows = append(rows, []string{
			r.ID,
			string(r.Kind),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Oracle,
			strconv.Itoa(r.Examples),
			r.BestLabel,
			reporting.Percent(r.BestAccuracy),
			formatDuration(time.Duration(r.DurationMs) * time.Millisecond),
		})
	}
	reporting.WriteTable(w, []string{"ID", "KIND", "WHEN", "ORACLE", "EXAMPLES", "BEST", "ACCURACY", "DURATION"}, rows)
}
