package benchmark

import (
	"context"
	"fmt"

	"github.com/spboyer/thinkroute/internal/aggregate"
	"github.com/spboyer/thinkroute/internal/models"
	"github.com/spboyer/thinkroute/internal/router"
	"github.com/spboyer/thinkroute/internal/strategy"
)

// Router predicts a mode for one example from its cached oracle response.
type Router interface {
	Name() string
	Predict(ctx context.Context, ex models.LabeledExample, cached *models.OracleResponse) (models.Mode, error)
}

// Described is implemented by routers with a one-line description.
type Described interface {
	Description() string
}

// Router names used by DefaultRouters.
const (
	NameDimensional               = "dimensional"
	NameAdaptive                  = "adaptive"
	NameMultiStrategy             = "multi-strategy"
	NameMultiStrategyAggressive   = "multi-strategy-aggressive"
	NameMultiStrategyConservative = "multi-strategy-conservative"
)

// DimensionalRouter applies the decision table at fixed thresholds.
type DimensionalRouter struct {
	Thresholds models.ThresholdConfig
}

func (r DimensionalRouter) Name() string { return NameDimensional }

func (r DimensionalRouter) Description() string {
	return fmt.Sprintf("breadth/depth thresholds %s", r.Thresholds)
}

func (r DimensionalRouter) Predict(ctx context.Context, ex models.LabeledExample, cached *models.OracleResponse) (models.Mode, error) {
	d, err := router.NewDimensional(nil).Decide(ex.Question, cached, r.Thresholds)
	if err != nil {
		return models.ModeUnknown, err
	}
	return d.PredictedMode, nil
}

// ClassifierRouter trusts the oracle's own mode guess. It is the
// single-label baseline.
type ClassifierRouter struct{}

func (ClassifierRouter) Name() string { return NameAdaptive }

func (ClassifierRouter) Description() string {
	return "single-label classifier on the oracle's mode guess"
}

func (ClassifierRouter) Predict(ctx context.Context, ex models.LabeledExample, cached *models.OracleResponse) (models.Mode, error) {
	if cached == nil {
		return models.ModeUnknown, &models.InvalidInputError{Field: "scores", Reason: "no oracle response"}
	}
	mode, _ := router.Classify(cached)
	return mode, nil
}

// MultiStrategyRouter reports what the aggregator would tag a question
// with at a fixed confidence threshold. It plans but never executes
// strategies.
type MultiStrategyRouter struct {
	Label     string
	Threshold float64
	Table     strategy.Table
}

func (r MultiStrategyRouter) Name() string {
	if r.Label != "" {
		return r.Label
	}
	return NameMultiStrategy
}

func (r MultiStrategyRouter) Description() string {
	return fmt.Sprintf("aggregator at confidence threshold %.2f", r.Threshold)
}

func (r MultiStrategyRouter) Predict(ctx context.Context, ex models.LabeledExample, cached *models.OracleResponse) (models.Mode, error) {
	if cached == nil {
		return models.ModeUnknown, &models.InvalidInputError{Field: "scores", Reason: "no oracle response"}
	}
	mode, _ := router.Classify(cached)
	return aggregate.MakePlan(r.Table, mode, router.ConfidenceOf(cached), r.Threshold).Mode, nil
}

// DefaultRouters is the standard comparison set: the dimensional router at
// tc, the classifier baseline and the aggregator at 0.7, 0.8 and 0.4.
func DefaultRouters(tc models.ThresholdConfig) []Router {
	return []Router{
		DimensionalRouter{Thresholds: tc},
		ClassifierRouter{},
		MultiStrategyRouter{Label: NameMultiStrategy, Threshold: aggregate.DefaultConfidenceThreshold},
		MultiStrategyRouter{Label: NameMultiStrategyAggressive, Threshold: 0.8},
		MultiStrategyRouter{Label: NameMultiStrategyConservative, Threshold: 0.4},
	}
}
