package main

import (
	"fmt"
	"path/filepath"

	"github.com/spboyer/thinkroute/internal/cache"
	"github.com/spf13/cobra"
)

var cacheDir string

func newCacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the persistent score cache",
		Long: `Manage the persistent score cache.

Cached oracle responses are keyed by oracle backend and model, the scoring
instruction and the question text. Sweeps and comparisons read the cache when
cache.enabled is set in .thinkroute.yaml.`,
	}

	cmd.PersistentFlags().StringVar(&cacheDir, "cache-dir", "", "Cache directory (default: cache.dir from config)")

	cmd.AddCommand(newCacheInfoCommand())
	cmd.AddCommand(newCacheClearCommand())

	return cmd
}

func newCacheInfoCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "info",
		Short: "Show how many responses are cached",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache: %s (%d entries)\n", dir, cache.New(dir).Len())
			return nil
		},
	}
}

func newCacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear the persistent score cache",
		Long: `Clear all cached oracle responses.

The next sweep or comparison scores every question again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			dir, err := resolveCacheDir()
			if err != nil {
				return err
			}
			if err := cache.New(dir).Clear(); err != nil {
				return fmt.Errorf("clearing cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cache cleared: %s\n", dir)
			return nil
		},
	}
}

func resolveCacheDir() (string, error) {
	dir := cacheDir
	if dir == "" {
		cfg, err := loadProjectConfig()
		if err != nil {
			return "", err
		}
		dir = cfg.Cache.Dir
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving cache directory: %w", err)
	}
	return abs, nil
}
