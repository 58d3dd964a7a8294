package models

import (
	"time"
)

// LabeledExample is one dataset record together with the mode it is
// expected to route to. It is not modified after loading.
type LabeledExample struct {
	ID           string `json:"id"`
	Question     string `json:"question"`
	ExpectedMode Mode   `json:"expected_mode"`
	Answer       string `json:"answer,omitempty"`
}

// ScoreVector holds the two routing dimensions, each in [0,1].
type ScoreVector struct {
	Breadth float64 `json:"breadth"`
	Depth   float64 `json:"depth"`
}

// OracleResponse is the parsed output of one scoring oracle call.
type OracleResponse struct {
	Scores    ScoreVector `json:"scores"`
	Rationale string      `json:"rationale,omitempty"`
	// ModeGuess is the oracle's own label suggestion, ModeUnknown when it
	// gave none or gave something unrecognizable.
	ModeGuess Mode `json:"mode_guess,omitempty"`
	// Confidence is nil when the oracle gave no usable confidence.
	Confidence *float64      `json:"confidence,omitempty"`
	Latency    time.Duration `json:"latency_ns"`
}

// Equal compares everything except latency.
func (r *OracleResponse) Equal(other *OracleResponse) bool {
	if r == nil || other == nil {
		return r == other
	}
	if r.Scores != other.Scores || r.Rationale != other.Rationale || r.ModeGuess != other.ModeGuess {
		return false
	}
	switch {
	case r.Confidence == nil && other.Confidence == nil:
		return true
	case r.Confidence == nil || other.Confidence == nil:
		return false
	default:
		return *r.Confidence == *other.Confidence
	}
}

// RoutingDecision is the outcome of routing one question under one
// threshold configuration.
type RoutingDecision struct {
	PredictedMode   Mode            `json:"predicted_mode"`
	Confidence      float64         `json:"confidence"`
	Rationale       string          `json:"rationale"`
	OracleRationale string          `json:"oracle_rationale,omitempty"`
	ModeHint        Mode            `json:"mode_hint,omitempty"`
	Scores          ScoreVector     `json:"scores"`
	Thresholds      ThresholdConfig `json:"threshold_config"`
}

// SkippedExample records an example left out of a batch because an
// external call for it failed.
type SkippedExample struct {
	ExampleID    string    `json:"example_id"`
	ExpectedMode Mode      `json:"expected_mode"`
	Kind         ErrorKind `json:"error_kind"`
	Error        string    `json:"error"`
}

// NewSkippedExample builds a SkippedExample from the failure err.
func NewSkippedExample(ex LabeledExample, err error) SkippedExample {
	return SkippedExample{
		ExampleID:    ex.ID,
		ExpectedMode: ex.ExpectedMode,
		Kind:         ClassifyError(err),
		Error:        err.Error(),
	}
}
