// Package router maps breadth/depth scores to a reasoning mode.
package router

import (
	"context"
	"fmt"
	"strings"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/oracle"
)

// DefaultConfidence is used when the oracle gives no usable confidence.
const DefaultConfidence = 0.7

// DefaultThresholds are the fixed thresholds used outside of a sweep.
var DefaultThresholds = models.ThresholdConfig{Breadth: 0.8, Depth: 0.7}

// Decide applies the decision table. Rows are checked in order and the
// first match wins:
//
//	breadth > bt && depth <= dt  -> GOT
//	depth > dt && breadth <= bt  -> AOT
//	breadth > bt && depth > dt   -> COMBINED
//	otherwise                    -> COT
//
// Decide never returns DIRECT or TOT.
func Decide(scores models.ScoreVector, tc models.ThresholdConfig) (models.Mode, string) {
	b, d := scores.Breadth, scores.Depth
	highB := b > tc.Breadth
	highD := d > tc.Depth

	switch {
	case highB && !highD:
		return models.ModeGOT, fmt.Sprintf("High breadth (%.2f) with low depth (%.2f)", b, d)
	case highD && !highB:
		return models.ModeAOT, fmt.Sprintf("High depth (%.2f) with low breadth (%.2f)", d, b)
	case highB && highD:
		return models.ModeCombined, fmt.Sprintf("Both breadth (%.2f) and depth (%.2f) high", b, d)
	default:
		return models.ModeCOT, fmt.Sprintf("Balanced scores (breadth: %.2f, depth: %.2f)", b, d)
	}
}

// Dimensional routes questions through a scoring oracle and the decision
// table.
type Dimensional struct {
	oracle oracle.Oracle
}

func NewDimensional(o oracle.Oracle) *Dimensional {
	return &Dimensional{oracle: o}
}

// Route scores question once and applies the decision table under tc.
func (r *Dimensional) Route(ctx context.Context, question string, tc models.ThresholdConfig) (*models.RoutingDecision, error) {
	if err := ValidateQuestion(question); err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}

	resp, err := r.oracle.Score(ctx, question)
	if err != nil {
		return nil, err
	}
	return r.Decide(question, resp, tc)
}

// Decide replays an already scored question. It does not call the oracle,
// so it is what a threshold sweep uses.
func (r *Dimensional) Decide(question string, resp *models.OracleResponse, tc models.ThresholdConfig) (*models.RoutingDecision, error) {
	if err := ValidateQuestion(question); err != nil {
		return nil, err
	}
	if err := tc.Validate(); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, &models.InvalidInputError{Field: "scores", Reason: "no oracle response"}
	}

	mode, rationale := Decide(resp.Scores, tc)
	return &models.RoutingDecision{
		PredictedMode:   mode,
		Confidence:      ConfidenceOf(resp),
		Rationale:       rationale,
		OracleRationale: resp.Rationale,
		ModeHint:        resp.ModeGuess,
		Scores:          resp.Scores,
		Thresholds:      tc,
	}, nil
}

// ConfidenceOf returns the oracle's confidence or DefaultConfidence.
func ConfidenceOf(resp *models.OracleResponse) float64 {
	if resp == nil || resp.Confidence == nil {
		return DefaultConfidence
	}
	return *resp.Confidence
}

// ValidateQuestion rejects blank questions.
func ValidateQuestion(question string) error {
	if strings.TrimSpace(question) == "" {
		return &models.InvalidInputError{Field: "question", Reason: "must not be empty"}
	}
	return nil
}
