// Package wizard collects a project configuration interactively for
// `thinkroute init`.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spboyer/thinkroute/internal/projectconfig"
	"golang.org/x/term"
)

// Answers holds the raw form values. Thresholds stay strings until
// ToConfig parses them.
type Answers struct {
	DatasetDir string
	ResultsDir string
	Backend    string
	Model      string
	Breadth    string
	Depth      string
	Grid       string
	Cache      bool
}

// DefaultAnswers pre-fills the form from cfg.
func DefaultAnswers(cfg *projectconfig.ProjectConfig) Answers {
	if cfg == nil {
		cfg = projectconfig.New()
	}
	cache := cfg.Cache.Enabled != nil && *cfg.Cache.Enabled
	return Answers{
		DatasetDir: cfg.Paths.Dataset,
		ResultsDir: cfg.Paths.Results,
		Backend:    cfg.Oracle.Backend,
		Model:      cfg.Oracle.Model,
		Breadth:    formatThreshold(cfg.Routing.Breadth),
		Depth:      formatThreshold(cfg.Routing.Depth),
		Grid:       cfg.Sweep.Grid,
		Cache:      cache,
	}
}

// RunInitWizard runs an interactive huh form seeded from defaults and
// returns the resulting configuration.
func RunInitWizard(in io.Reader, out io.Writer, defaults *projectconfig.ProjectConfig) (*projectconfig.ProjectConfig, error) {
	a := DefaultAnswers(defaults)

	backendOpts := make([]huh.Option[string], 0, len(projectconfig.Backends))
	for _, b := range projectconfig.Backends {
		backendOpts = append(backendOpts, huh.NewOption(b, b))
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Dataset directory").
				Description("Root holding one sub-directory per routing mode").
				Value(&a.DatasetDir).
				Validate(required("dataset directory")),
			huh.NewInput().
				Title("Results directory").
				Value(&a.ResultsDir).
				Validate(required("results directory")),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Scoring oracle").
				Options(backendOpts...).
				Value(&a.Backend),
			huh.NewInput().
				Title("Model").
				Value(&a.Model).
				Validate(required("model")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Breadth threshold").
				Description("Strictly between 0 and 1").
				Value(&a.Breadth).
				Validate(ValidateThreshold),
			huh.NewInput().
				Title("Depth threshold").
				Description("Strictly between 0 and 1").
				Value(&a.Depth).
				Validate(ValidateThreshold),
			huh.NewSelect[string]().
				Title("Sweep grid").
				Options(
					huh.NewOption("full (5x5)", projectconfig.GridFull),
					huh.NewOption("quick (3x3)", projectconfig.GridQuick),
				).
				Value(&a.Grid),
			huh.NewConfirm().
				Title("Cache oracle scores on disk?").
				Value(&a.Cache),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if !IsTerminal(in) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, fmt.Errorf("wizard failed: %w", err)
	}

	return a.ToConfig(defaults)
}

// IsTerminal reports whether r is an interactive terminal.
func IsTerminal(r io.Reader) bool {
	f, ok := r.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// ToConfig overlays the answers onto a copy of base (defaults when nil)
// and validates the result.
func (a Answers) ToConfig(base *projectconfig.ProjectConfig) (*projectconfig.ProjectConfig, error) {
	cfg := projectconfig.New()
	if base != nil {
		copied := *base
		cfg = &copied
	}

	breadth, err := parseThreshold(a.Breadth)
	if err != nil {
		return nil, fmt.Errorf("breadth threshold: %w", err)
	}
	depth, err := parseThreshold(a.Depth)
	if err != nil {
		return nil, fmt.Errorf("depth threshold: %w", err)
	}

	cfg.Paths.Dataset = strings.TrimSpace(a.DatasetDir)
	cfg.Paths.Results = strings.TrimSpace(a.ResultsDir)
	cfg.Oracle.Backend = a.Backend
	cfg.Oracle.Model = strings.TrimSpace(a.Model)
	cfg.Routing.Breadth = breadth
	cfg.Routing.Depth = depth
	cfg.Sweep.Grid = a.Grid
	cache := a.Cache
	cfg.Cache.Enabled = &cache

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ValidateThreshold accepts a number strictly between 0 and 1.
func ValidateThreshold(s string) error {
	_, err := parseThreshold(s)
	return err
}

func parseThreshold(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("%q is not a number", s)
	}
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("%v must be strictly between 0 and 1", v)
	}
	return v, nil
}

func formatThreshold(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func required(what string) func(string) error {
	return func(s string) error {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("%s is required", what)
		}
		return nil
	}
}
