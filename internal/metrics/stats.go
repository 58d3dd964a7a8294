// Package metrics has the small descriptive statistics used by the sweep,
// optimizer and benchmark.
package metrics

import "math"

// Mean computes the arithmetic mean of values. Returns 0 for empty input.
func Mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// Variance computes the population variance. Returns 0 for empty input.
func Variance(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	m := Mean(values)
	sumSq := 0.0
	for _, v := range values {
		d := v - m
		sumSq += d * d
	}
	return sumSq / float64(len(values))
}

// StdDev computes the population standard deviation.
func StdDev(values []float64) float64 {
	return math.Sqrt(Variance(values))
}

// SampleStdDev uses Bessel's correction. Returns 0 for fewer than two values.
func SampleStdDev(values []float64) float64 {
	n := len(values)
	if n < 2 {
		return 0
	}
	return math.Sqrt(Variance(values) * float64(n) / float64(n-1))
}

// Summary describes a set of accuracy (or share) values.
type Summary struct {
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

// Summarize computes a Summary. Std is the sample standard deviation.
func Summarize(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	s := Summary{
		Mean:  Mean(values),
		Std:   SampleStdDev(values),
		Min:   values[0],
		Max:   values[0],
		Count: len(values),
	}
	for _, v := range values[1:] {
		s.Min = math.Min(s.Min, v)
		s.Max = math.Max(s.Max, v)
	}
	return s
}

// NormalizeHigherBetter maps values onto [0,1] with the largest at 1.
// When every value is equal each maps to 0.5.
func NormalizeHigherBetter(values []float64) []float64 {
	return normalize(values, false)
}

// NormalizeLowerBetter maps values onto [0,1] with the smallest at 1.
// When every value is equal each maps to 0.5.
func NormalizeLowerBetter(values []float64) []float64 {
	return normalize(values, true)
}

func normalize(values []float64, invert bool) []float64 {
	out := make([]float64, len(values))
	if len(values) == 0 {
		return out
	}

	lo, hi := values[0], values[0]
	for _, v := range values[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	spread := hi - lo
	for i, v := range values {
		switch {
		case spread < 1e-12:
			out[i] = 0.5
		case invert:
			out[i] = (hi - v) / spread
		default:
			out[i] = (v - lo) / spread
		}
	}
	return out
}

// SafeDivide returns 0 when den is 0.
func SafeDivide(num, den float64) float64 {
	if den == 0 {
		return 0
	}
	return num / den
}
