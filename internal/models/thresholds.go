package models

import (
	"fmt"
	"math"
	"sort"
)

// ThresholdConfig is a pair of cutoffs applied to breadth and depth scores.
type ThresholdConfig struct {
	Breadth float64 `json:"breadth_threshold"`
	Depth   float64 `json:"depth_threshold"`
}

// Validate checks that both thresholds lie strictly inside (0,1).
func (tc ThresholdConfig) Validate() error {
	if !(tc.Breadth > 0 && tc.Breadth < 1) {
		return &InvalidInputError{Field: "breadth_threshold", Reason: fmt.Sprintf("%v is outside (0,1)", tc.Breadth)}
	}
	if !(tc.Depth > 0 && tc.Depth < 1) {
		return &InvalidInputError{Field: "depth_threshold", Reason: fmt.Sprintf("%v is outside (0,1)", tc.Depth)}
	}
	return nil
}

// Key is a stable map key, e.g. "0.60/0.70".
func (tc ThresholdConfig) Key() string {
	return fmt.Sprintf("%.2f/%.2f", tc.Breadth, tc.Depth)
}

func (tc ThresholdConfig) String() string {
	return fmt.Sprintf("breadth=%.2f depth=%.2f", tc.Breadth, tc.Depth)
}

// Asymmetry is |breadth - depth|.
func (tc ThresholdConfig) Asymmetry() float64 {
	return math.Abs(tc.Breadth - tc.Depth)
}

// Grid is an ordered set of threshold configurations.
type Grid []ThresholdConfig

// NewGrid builds the Cartesian product of breadths and depths, enumerated
// breadth ascending then depth ascending. Duplicate values are dropped.
func NewGrid(breadths, depths []float64) (Grid, error) {
	bs := sortedUnique(breadths)
	ds := sortedUnique(depths)

	if len(bs) == 0 || len(ds) == 0 {
		return nil, &InvalidInputError{Field: "grid", Reason: "needs at least one breadth and one depth value"}
	}

	grid := make(Grid, 0, len(bs)*len(ds))
	for _, b := range bs {
		for _, d := range ds {
			tc := ThresholdConfig{Breadth: b, Depth: d}
			if err := tc.Validate(); err != nil {
				return nil, err
			}
			grid = append(grid, tc)
		}
	}
	return grid, nil
}

// Validate checks every config and rejects an empty grid.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return &InvalidInputError{Field: "grid", Reason: "grid is empty"}
	}
	for _, tc := range g {
		if err := tc.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Steps returns min, min+step, ... up to and including max. Values are
// rounded to 6 decimals so 0.1 increments don't accumulate drift.
func Steps(min, max, step float64) []float64 {
	if step <= 0 || max < min {
		return nil
	}
	var out []float64
	for i := 0; ; i++ {
		v := round6(min + float64(i)*step)
		if v > max+1e-9 {
			break
		}
		out = append(out, v)
	}
	return out
}

// FullGrid is the 5x5 sweep over 0.4..0.8 in 0.1 steps.
func FullGrid() Grid {
	vals := Steps(0.4, 0.8, 0.1)
	g, _ := NewGrid(vals, vals)
	return g
}

// QuickGrid is the 3x3 sweep over {0.5, 0.6, 0.7}.
func QuickGrid() Grid {
	vals := []float64{0.5, 0.6, 0.7}
	g, _ := NewGrid(vals, vals)
	return g
}

func sortedUnique(values []float64) []float64 {
	seen := map[float64]bool{}
	var out []float64
	for _, v := range values {
		v = round6(v)
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	sort.Float64s(out)
	return out
}

func round6(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
