package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spboyer/thinkroute/internal/logging"
	"github.com/spf13/cobra"
)

var version = "dev"

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "thinkroute",
		Short: "thinkroute - route questions to reasoning strategies",
		Long: `thinkroute routes a question to a reasoning strategy from its breadth and
depth scores, falls back to several strategies when classification is not
confident, and tunes the routing thresholds against a labeled dataset.`,
		Version:      version,
		SilenceUsage: true,
	}

	debugLogging := cmd.PersistentFlags().Bool("debug", false, "Enable debug logging (same as --log-level debug)")
	logLevel := cmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	logFormat := cmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		level, err := logging.ParseLevel(*logLevel)
		if err != nil {
			return err
		}
		if *debugLogging {
			level = slog.LevelDebug
		}
		logging.Init(level, *logFormat, cmd.ErrOrStderr())
		return nil
	}

	cmd.AddCommand(newRouteCommand())
	cmd.AddCommand(newAskCommand())
	cmd.AddCommand(newSweepCommand())
	cmd.AddCommand(newOptimizeCommand())
	cmd.AddCommand(newCompareCommand())
	cmd.AddCommand(newReportCommand())
	cmd.AddCommand(newHistoryCommand())
	cmd.AddCommand(newInitCommand())
	cmd.AddCommand(newCacheCommand())

	return cmd
}

func execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rootCmd := newRootCommand()
	return rootCmd.ExecuteContext(ctx)
}
