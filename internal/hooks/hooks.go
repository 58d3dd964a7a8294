// Package hooks runs user-configured commands before and after a sweep.
package hooks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/spboyer/thinkroute/internal/logging"
)

// Lifecycle points.
const (
	BeforeSweep = "before_sweep"
	AfterSweep  = "after_sweep"
)

// Hook is one command. Arguments are split on whitespace; no shell is
// involved.
type Hook struct {
	Command          string `yaml:"command" json:"command"`
	WorkingDirectory string `yaml:"working_directory,omitempty" json:"working_directory,omitempty"`
	ExitCodes        []int  `yaml:"exit_codes,omitempty" json:"exit_codes,omitempty"`
	ErrorOnFail      bool   `yaml:"error_on_fail,omitempty" json:"error_on_fail,omitempty"`
}

// Config holds the sweep hooks from .thinkroute.yaml.
type Config struct {
	BeforeSweep []Hook `yaml:"before_sweep,omitempty" json:"before_sweep,omitempty"`
	AfterSweep  []Hook `yaml:"after_sweep,omitempty" json:"after_sweep,omitempty"`
}

// Empty reports whether no hook is configured.
func (c Config) Empty() bool {
	return len(c.BeforeSweep) == 0 && len(c.AfterSweep) == 0
}

// Runner executes hook commands. Output receives each command's combined
// output when set.
type Runner struct {
	Output io.Writer
	// Env is appended to the process environment as KEY=VALUE pairs.
	Env map[string]string
}

// Execute runs hooks in order for the lifecycle point name. It stops at
// the first hook that fails with ErrorOnFail set.
func (r *Runner) Execute(ctx context.Context, name string, hooks []Hook) error {
	for i, h := range hooks {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("hook %s: context canceled: %w", name, err)
		}
		if err := r.run(ctx, name, i, h); err != nil {
			return err
		}
	}
	return nil
}

func (r *Runner) run(ctx context.Context, name string, index int, h Hook) error {
	log := logging.New("hooks")

	parts := strings.Fields(h.Command)
	if len(parts) == 0 {
		return fmt.Errorf("hook %s[%d]: empty command", name, index)
	}

	//nolint:gosec // hook commands come from the project's own config file
	cmd := exec.CommandContext(ctx, parts[0], parts[1:]...)
	cmd.Dir = h.WorkingDirectory
	cmd.Env = os.Environ()
	for k, v := range r.Env {
		cmd.Env = append(cmd.Env, k+"="+v)
	}

	output, err := cmd.CombinedOutput()
	if r.Output != nil && len(output) > 0 {
		for _, line := range strings.Split(strings.TrimRight(string(output), "\n"), "\n") {
			fmt.Fprintf(r.Output, "[hook:%s] %s\n", name, line)
		}
	}

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			// command not found and similar
			if h.ErrorOnFail {
				return fmt.Errorf("hook %s[%d]: %w", name, index, err)
			}
			log.Warn("hook failed", "hook", name, "index", index, "error", err)
			return nil
		}
		code = exitErr.ExitCode()
	}

	if isAcceptableExit(code, h.ExitCodes) {
		return nil
	}
	if h.ErrorOnFail {
		return fmt.Errorf("hook %s[%d]: command exited with code %d", name, index, code)
	}
	log.Warn("hook exited with unexpected code", "hook", name, "index", index, "code", code, "expected", h.ExitCodes)
	return nil
}

// isAcceptableExit checks whether exitCode is in the allowed list.
// An empty allowedCodes list defaults to allowing only exit code 0.
func isAcceptableExit(exitCode int, allowedCodes []int) bool {
	if len(allowedCodes) == 0 {
		return exitCode == 0
	}
	for _, code := range allowedCodes {
		if exitCode == code {
			return true
		}
	}
	return false
}
