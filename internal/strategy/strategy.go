// Package strategy holds the reasoning strategy executors and the table
// that maps each mode to one.
package strategy

import (
	"context"
	"time"

	"github.com/spboyer/thinkroute/internal/models"
)

// Answer is one executor's output.
type Answer struct {
	Mode     models.Mode   `json:"mode"`
	Text     string        `json:"answer"`
	Trace    string        `json:"trace,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// Executor answers a question with one reasoning strategy. An empty answer
// must be reported as a *models.StrategyExecutionError.
type Executor interface {
	Execute(ctx context.Context, question string) (*Answer, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, question string) (*Answer, error)

func (f ExecutorFunc) Execute(ctx context.Context, question string) (*Answer, error) {
	return f(ctx, question)
}

// FallbackModes are the strategies run together when classification
// confidence is low. The set is fixed so repeated runs invoke the same
// executors.
var FallbackModes = []models.Mode{models.ModeCOT, models.ModeTOT, models.ModeGOT}

// Table maps a mode to its executor.
type Table map[models.Mode]Executor

// Lookup returns the executor for mode. Unknown or unmapped modes resolve
// to COT; the returned mode is the one actually used.
func (t Table) Lookup(mode models.Mode) (Executor, models.Mode, bool) {
	if ex, ok := t[mode]; ok && ex != nil {
		return ex, mode, true
	}
	ex, ok := t[models.ModeCOT]
	return ex, models.ModeCOT, ok && ex != nil
}
