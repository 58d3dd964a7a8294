package router

import (
	"context"
	"fmt"

	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/oracle"
)

// Classifier is the single-label path: it trusts the oracle's own mode
// guess instead of the breadth/depth thresholds. It is the only router
// that can produce DIRECT or TOT.
type Classifier struct {
	oracle oracle.Oracle
}

func NewClassifier(o oracle.Oracle) *Classifier {
	return &Classifier{oracle: o}
}

// Select scores question and returns the guessed mode with its confidence.
func (c *Classifier) Select(ctx context.Context, question string) (models.Mode, float64, error) {
	if err := ValidateQuestion(question); err != nil {
		return models.ModeUnknown, 0, err
	}
	resp, err := c.oracle.Score(ctx, question)
	if err != nil {
		return models.ModeUnknown, 0, err
	}
	mode, _ := Classify(resp)
	return mode, ConfidenceOf(resp), nil
}

// Classify maps an oracle response to a mode. A missing, unknown or
// non-routable guess falls back to COT.
func Classify(resp *models.OracleResponse) (models.Mode, string) {
	if resp == nil {
		return models.ModeCOT, "no classification, defaulting to COT"
	}
	guess := resp.ModeGuess
	if !guess.IsCanonical() {
		return models.ModeCOT, fmt.Sprintf("unrecognized mode guess %q, defaulting to COT", string(guess))
	}
	return guess, fmt.Sprintf("classified as %s", guess)
}
