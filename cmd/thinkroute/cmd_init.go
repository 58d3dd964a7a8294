package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/projectconfig"
	"github.com/spboyer/thinkroute/internal/wizard"
	"github.com/spf13/cobra"
)

func newInitCommand() *cobra.Command {
	var (
		interactive bool
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a .thinkroute.yaml and dataset layout",
		Long: `Write a .thinkroute.yaml with default settings and create one dataset
directory per routing mode.

Use --interactive to run a guided wizard that asks for the dataset
location, scoring oracle and thresholds.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive, force)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided configuration wizard")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing .thinkroute.yaml")

	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive, force bool) error {
	dir := "."
	if len(args) == 1 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", dir, err)
	}

	target := filepath.Join(dir, projectconfig.FileName)
	if _, err := os.Stat(target); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", target)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("checking %s: %w", target, err)
	}

	cfg := projectconfig.New()
	if interactive {
		var err error
		cfg, err = wizard.RunInitWizard(cmd.InOrStdin(), cmd.OutOrStdout(), cfg)
		if err != nil {
			return fmt.Errorf("wizard failed: %w", err)
		}
	}

	path, err := projectconfig.Write(dir, cfg)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", path)

	dataRoot := cfg.Paths.Dataset
	if !filepath.IsAbs(dataRoot) {
		dataRoot = filepath.Join(dir, dataRoot)
	}
	for _, mode := range models.CanonicalModes {
		p := filepath.Join(dataRoot, mode.DatasetDir())
		if err := os.MkdirAll(p, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", p, err)
		}
		fmt.Fprintf(out, "Created %s%c\n", p, filepath.Separator)
	}
	return nil
}
