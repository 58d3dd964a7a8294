package metrics

import (
	"math"
	"testing"
)

const epsilon = 1e-9

func approxEqual(a, b float64) bool {
	return math.Abs(a-b) < epsilon
}

func TestMean(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{0.5}, 0.5},
		{"multiple", []float64{0.4, 0.5, 0.6}, 0.5},
		{"all_same", []float64{0.7, 0.7, 0.7}, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Mean(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Mean(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestVariance(t *testing.T) {
	tests := []struct {
		name   string
		input  []float64
		expect float64
	}{
		{"empty", nil, 0},
		{"single", []float64{0.3}, 0},
		{"known", []float64{2, 4, 4, 4, 5, 5, 7, 9}, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Variance(tt.input)
			if !approxEqual(got, tt.expect) {
				t.Errorf("Variance(%v) = %f, want %f", tt.input, got, tt.expect)
			}
		})
	}
}

func TestStdDevVariants(t *testing.T) {
	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	if got := StdDev(values); !approxEqual(got, 2) {
		t.Errorf("StdDev = %f, want 2", got)
	}
	if got := SampleStdDev(values); !approxEqual(got, math.Sqrt(32.0/7.0)) {
		t.Errorf("SampleStdDev = %f, want %f", got, math.Sqrt(32.0/7.0))
	}
	if got := SampleStdDev([]float64{1}); got != 0 {
		t.Errorf("SampleStdDev of one value = %f, want 0", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{0.5, 0.7, 0.6})
	if !approxEqual(s.Mean, 0.6) || !approxEqual(s.Min, 0.5) || !approxEqual(s.Max, 0.7) || s.Count != 3 {
		t.Errorf("unexpected summary %+v", s)
	}
	if !approxEqual(s.Std, 0.1) {
		t.Errorf("Std = %f, want 0.1", s.Std)
	}

	if empty := Summarize(nil); empty != (Summary{}) {
		t.Errorf("expected zero summary, got %+v", empty)
	}
}

func TestNormalize(t *testing.T) {
	higher := NormalizeHigherBetter([]float64{0.5, 0.75, 1.0})
	want := []float64{0, 0.5, 1}
	for i := range want {
		if !approxEqual(higher[i], want[i]) {
			t.Errorf("NormalizeHigherBetter[%d] = %f, want %f", i, higher[i], want[i])
		}
	}

	lower := NormalizeLowerBetter([]float64{0.01, 0.02, 0.03})
	want = []float64{1, 0.5, 0}
	for i := range want {
		if !approxEqual(lower[i], want[i]) {
			t.Errorf("NormalizeLowerBetter[%d] = %f, want %f", i, lower[i], want[i])
		}
	}

	for _, v := range NormalizeHigherBetter([]float64{0.6, 0.6}) {
		if v != 0.5 {
			t.Errorf("equal values should normalize to 0.5, got %f", v)
		}
	}
}

func TestSafeDivideAndRound(t *testing.T) {
	if SafeDivide(1, 0) != 0 {
		t.Error("SafeDivide by zero should be 0")
	}
}
