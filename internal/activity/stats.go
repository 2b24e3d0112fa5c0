package activity

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Statistic helpers shared by the outlier filter, the area selector and the
// baseline normalizer. All helpers ignore NaN inputs and return NaN for empty
// input instead of raising, so zero-count groups null their result.

// dropNaN returns the non-NaN values of vals in a fresh slice.
func dropNaN(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

// percentile computes the q-quantile (0..1) of vals with the provider's
// linear interpolation convention: the quantile sits at position (n-1)*q of
// the sorted values, interpolated between neighbors. gonum's CumulantKind
// variants follow different conventions, so this one is implemented directly
// to keep group thresholds bit-comparable with the provider exports.
func percentile(vals []float64, q float64) float64 {
	clean := dropNaN(vals)
	if len(clean) == 0 {
		return math.NaN()
	}
	sort.Float64s(clean)
	if len(clean) == 1 {
		return clean[0]
	}
	pos := float64(len(clean)-1) * q
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return clean[lo]
	}
	frac := pos - float64(lo)
	return clean[lo]*(1-frac) + clean[hi]*frac
}

// median is the 50th percentile.
func median(vals []float64) float64 {
	return percentile(vals, 0.5)
}

// iqr is the spread between the 75th and 25th percentiles.
func iqr(vals []float64) float64 {
	return percentile(vals, 0.75) - percentile(vals, 0.25)
}

// mean averages the non-NaN values.
func mean(vals []float64) float64 {
	clean := dropNaN(vals)
	if len(clean) == 0 {
		return math.NaN()
	}
	return stat.Mean(clean, nil)
}

// trimmedMean averages the values inside the closed [lowerQ, upperQ]
// percentile band, suppressing residual outliers.
func trimmedMean(vals []float64, lowerQ, upperQ float64) float64 {
	clean := dropNaN(vals)
	if len(clean) == 0 {
		return math.NaN()
	}
	lo := percentile(clean, lowerQ)
	hi := percentile(clean, upperQ)
	kept := make([]float64, 0, len(clean))
	for _, v := range clean {
		if v >= lo && v <= hi {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		return math.NaN()
	}
	return stat.Mean(kept, nil)
}

// variancePop is the population variance (divide by n), matching the
// convention the spline smoothing factor is defined with.
func variancePop(vals []float64) float64 {
	clean := dropNaN(vals)
	n := len(clean)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return 0
	}
	return stat.Variance(clean, nil) * float64(n-1) / float64(n)
}

// stddev is the sample standard deviation (divide by n-1).
func stddev(vals []float64) float64 {
	clean := dropNaN(vals)
	if len(clean) < 2 {
		return math.NaN()
	}
	return stat.StdDev(clean, nil)
}

// maxOf returns the maximum non-NaN value, or NaN when none exist.
func maxOf(vals []float64) float64 {
	out := math.NaN()
	for _, v := range vals {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(out) || v > out {
			out = v
		}
	}
	return out
}
