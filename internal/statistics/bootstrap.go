package statistics

import (
	"math"
	"math/rand"
	"sort"
)

// ConfidenceInterval holds a bootstrap percentile interval.
type ConfidenceInterval struct {
	Lower           float64 `json:"lower"`
	Upper           float64 `json:"upper"`
	Mean            float64 `json:"mean"`
	ConfidenceLevel float64 `json:"confidence_level"`
	NumBootstraps   int     `json:"num_bootstraps"`
}

const (
	// DefaultBootstrapIterations is the number of resamples per interval.
	DefaultBootstrapIterations = 10000

	// DefaultSeed keeps sweep reports reproducible run to run.
	DefaultSeed int64 = 20240601
)

// Indicators converts per-example correctness into 0/1 samples.
func Indicators(correct []bool) []float64 {
	out := make([]float64, len(correct))
	for i, ok := range correct {
		if ok {
			out[i] = 1
		}
	}
	return out
}

// AccuracyCI is the bootstrap interval of the accuracy of correct.
func AccuracyCI(correct []bool, confidenceLevel float64, seed int64) ConfidenceInterval {
	return BootstrapCIWithSeed(Indicators(correct), confidenceLevel, seed)
}

// PairedDeltaCI bootstraps the mean of candidate[i] - baseline[i]. Both
// slices must describe the same examples in the same order.
func PairedDeltaCI(candidate, baseline []bool, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := min(len(candidate), len(baseline))
	diffs := make([]float64, n)
	for i := 0; i < n; i++ {
		switch {
		case candidate[i] && !baseline[i]:
			diffs[i] = 1
		case !candidate[i] && baseline[i]:
			diffs[i] = -1
		}
	}
	return BootstrapCIWithSeed(diffs, confidenceLevel, seed)
}

// BootstrapCIWithSeed computes a percentile bootstrap interval of the mean
// of samples. A negative seed uses a non-deterministic source. Fewer than
// two samples give a degenerate interval at the mean.
func BootstrapCIWithSeed(samples []float64, confidenceLevel float64, seed int64) ConfidenceInterval {
	n := len(samples)
	m := mean(samples)
	if n < 2 {
		return ConfidenceInterval{Lower: m, Upper: m, Mean: m, ConfidenceLevel: confidenceLevel}
	}

	if seed < 0 {
		seed = rand.Int63()
	}
	rng := rand.New(rand.NewSource(seed))

	iters := DefaultBootstrapIterations
	boot := make([]float64, iters)
	for i := 0; i < iters; i++ {
		sum := 0.0
		for j := 0; j < n; j++ {
			sum += samples[rng.Intn(n)]
		}
		boot[i] = sum / float64(n)
	}
	sort.Float64s(boot)

	alpha := 1.0 - confidenceLevel
	lo := int(math.Floor(alpha / 2.0 * float64(iters)))
	hi := min(int(math.Floor((1.0-alpha/2.0)*float64(iters))), iters-1)

	return ConfidenceInterval{
		Lower:           boot[lo],
		Upper:           boot[hi],
		Mean:            m,
		ConfidenceLevel: confidenceLevel,
		NumBootstraps:   iters,
	}
}

// IsSignificant reports whether ci excludes zero.
func IsSignificant(ci ConfidenceInterval) bool {
	return ci.NumBootstraps > 0 && (ci.Lower > 0 || ci.Upper < 0)
}

// NormalizedGain is Hake's gain (post - pre) / (1 - pre): the share of the
// remaining headroom a router closed over the baseline. Negative when post
// is worse than pre.
func NormalizedGain(pre, post float64) float64 {
	if pre >= 1.0 {
		return 0
	}
	if math.Abs(post-pre) < 1e-12 {
		return 0
	}
	return (post - pre) / (1.0 - pre)
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
