package change

import (
	"fmt"
	"sort"
)

// ThresholdMethod selects the policy used to binarize a change map.
type ThresholdMethod string

const (
	// ThresholdOtsu maximizes between-class variance over a 256-bin
	// histogram of the map values.
	ThresholdOtsu ThresholdMethod = "otsu"

	// ThresholdPercentile takes a fixed quantile of the value
	// distribution.
	ThresholdPercentile ThresholdMethod = "percentile"

	// ThresholdKMeans clusters the values into two groups and places
	// the threshold at the midpoint of the cluster centers.
	ThresholdKMeans ThresholdMethod = "kmeans"
)

// thresholdClampLo and thresholdClampHi bound every selected threshold.
// On pathological inputs (constant maps, single-mode histograms) an
// unclamped policy happily selects 0 or 1 and produces an all-changed
// or all-unchanged mask.
const (
	thresholdClampLo = 0.1
	thresholdClampHi = 0.9
)

// SelectThreshold computes a binarization threshold for the map under
// the given policy, clamped to [0.1, 0.9]. The percentile argument is
// only consulted by ThresholdPercentile; 0 means the default 0.90.
func SelectThreshold(m *ChangeMap, method ThresholdMethod, percentile float64) (float64, error) {
	var raw float64
	switch method {
	case ThresholdOtsu, "":
		raw = otsuThreshold(m.Values)
	case ThresholdPercentile:
		if percentile <= 0 || percentile >= 1 {
			percentile = 0.90
		}
		raw = percentileThreshold(m.Values, percentile)
	case ThresholdKMeans:
		raw = kmeansThreshold(m.Values)
	default:
		return 0, fmt.Errorf("unknown threshold method %q", method)
	}
	return clampThreshold(raw), nil
}

func clampThreshold(t float64) float64 {
	if t < thresholdClampLo {
		return thresholdClampLo
	}
	if t > thresholdClampHi {
		return thresholdClampHi
	}
	return t
}

// applyThreshold binarizes the map: true where the value exceeds t.
func applyThreshold(m *ChangeMap, t float64) []bool {
	mask := make([]bool, len(m.Values))
	for i, v := range m.Values {
		mask[i] = v > t
	}
	return mask
}

// otsuThreshold finds the cut maximizing between-class variance over a
// 256-bin histogram of values in [0,1].
func otsuThreshold(values []float64) float64 {
	const bins = 256

	var hist [bins]int
	for _, v := range values {
		b := int(v * (bins - 1))
		if b < 0 {
			b = 0
		} else if b >= bins {
			b = bins - 1
		}
		hist[b]++
	}

	total := len(values)
	if total == 0 {
		return 0
	}

	sumAll := 0.0
	for b, n := range hist {
		sumAll += float64(b) * float64(n)
	}

	var (
		wBack, sumBack float64
		bestVar        float64
		bestBin        int
	)
	for b := 0; b < bins; b++ {
		wBack += float64(hist[b])
		if wBack == 0 {
			continue
		}
		wFore := float64(total) - wBack
		if wFore == 0 {
			break
		}
		sumBack += float64(b) * float64(hist[b])

		meanBack := sumBack / wBack
		meanFore := (sumAll - sumBack) / wFore
		diff := meanBack - meanFore
		between := wBack * wFore * diff * diff
		if between > bestVar {
			bestVar = between
			bestBin = b
		}
	}

	return float64(bestBin) / (bins - 1)
}

// percentileThreshold returns the p-quantile of the values.
func percentileThreshold(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// kmeansThreshold runs scalar 2-means and returns the midpoint of the
// converged cluster centers.
func kmeansThreshold(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}

	lo, hi := values[0], values[0]
	for _, v := range values {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	if hi-lo < 1e-12 {
		return lo
	}

	c0, c1 := lo, hi
	for iter := 0; iter < 100; iter++ {
		var sum0, sum1 float64
		var n0, n1 int
		mid := (c0 + c1) / 2
		for _, v := range values {
			if v <= mid {
				sum0 += v
				n0++
			} else {
				sum1 += v
				n1++
			}
		}
		if n0 == 0 || n1 == 0 {
			break
		}
		next0 := sum0 / float64(n0)
		next1 := sum1 / float64(n1)
		if next0 == c0 && next1 == c1 {
			break
		}
		c0, c1 = next0, next1
	}

	return (c0 + c1) / 2
}
