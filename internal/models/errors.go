package models

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// InvalidInputError reports a malformed question or threshold. It is the
// caller's mistake and is never retried.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// OracleParseError reports a scoring oracle response that could not be
// turned into a ScoreVector.
type OracleParseError struct {
	Field string
	Raw   string
	Err   error
}

func (e *OracleParseError) Error() string {
	msg := fmt.Sprintf("oracle response: cannot parse %s", e.Field)
	if e.Raw != "" {
		msg += fmt.Sprintf(" from %q", truncate(e.Raw, 80))
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *OracleParseError) Unwrap() error { return e.Err }

// StrategyExecutionError reports a strategy executor that failed or came
// back with an empty answer.
type StrategyExecutionError struct {
	Mode Mode
	Err  error
}

func (e *StrategyExecutionError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("strategy %s failed", e.Mode)
	}
	return fmt.Sprintf("strategy %s failed: %v", e.Mode, e.Err)
}

func (e *StrategyExecutionError) Unwrap() error { return e.Err }

// AllStrategiesFailedError is returned when every executor invoked for a
// multi-strategy aggregation failed.
type AllStrategiesFailedError struct {
	Failures []error
}

func (e *AllStrategiesFailedError) Error() string {
	parts := make([]string, 0, len(e.Failures))
	for _, f := range e.Failures {
		parts = append(parts, f.Error())
	}
	return fmt.Sprintf("all %d strategies failed: %s", len(e.Failures), strings.Join(parts, "; "))
}

func (e *AllStrategiesFailedError) Unwrap() []error { return e.Failures }

// EmptyResultSetError is returned by the optimizer when it has nothing to
// choose from.
type EmptyResultSetError struct{}

func (e *EmptyResultSetError) Error() string {
	return "no evaluation results to optimize over"
}

// ErrorKind classifies a per-example failure in batch reports.
type ErrorKind string

const (
	ErrorKindInvalidInput      ErrorKind = "invalid_input"
	ErrorKindOracleParse       ErrorKind = "oracle_parse"
	ErrorKindStrategyExecution ErrorKind = "strategy_execution"
	ErrorKindAllFailed         ErrorKind = "all_strategies_failed"
	ErrorKindTimeout           ErrorKind = "timeout"
	ErrorKindCanceled          ErrorKind = "canceled"
	ErrorKindOracleCall        ErrorKind = "oracle_call"
)

// ClassifyError maps err to the ErrorKind reported for skipped examples.
func ClassifyError(err error) ErrorKind {
	var (
		invalid  *InvalidInputError
		parse    *OracleParseError
		strategy *StrategyExecutionError
		allFail  *AllStrategiesFailedError
	)

	switch {
	case errors.As(err, &invalid):
		return ErrorKindInvalidInput
	case errors.Is(err, context.DeadlineExceeded):
		return ErrorKindTimeout
	case errors.Is(err, context.Canceled):
		return ErrorKindCanceled
	case errors.As(err, &parse):
		return ErrorKindOracleParse
	case errors.As(err, &allFail):
		return ErrorKindAllFailed
	case errors.As(err, &strategy):
		return ErrorKindStrategyExecution
	default:
		return ErrorKindOracleCall
	}
}

// IsRetryable reports whether err is a transient external-call failure.
// Caller mistakes and cancellation are not.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var invalid *InvalidInputError
	if errors.As(err, &invalid) {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	var allFail *AllStrategiesFailedError
	return !errors.As(err, &allFail)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
