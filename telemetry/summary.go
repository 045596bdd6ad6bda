package telemetry

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Summary describes a sample of frame times.
type Summary struct {
	N    int
	Mean float64
	Std  float64
	P50  float64
	P90  float64
	Max  float64
}

// Summarize computes the mean, sample standard deviation and empirical
// quantiles of values. The input is not modified. Fewer than two values
// report a zero deviation.
func Summarize(values []float64) Summary {
	n := len(values)
	if n == 0 {
		return Summary{}
	}

	sorted := make([]float64, n)
	copy(sorted, values)
	sort.Float64s(sorted)

	s := Summary{N: n, Max: sorted[n-1]}
	if n == 1 {
		s.Mean = sorted[0]
	} else {
		s.Mean, s.Std = stat.MeanStdDev(sorted, nil)
		if math.IsNaN(s.Std) {
			s.Std = 0
		}
	}
	s.P50 = stat.Quantile(0.5, stat.Empirical, sorted, nil)
	s.P90 = stat.Quantile(0.9, stat.Empirical, sorted, nil)
	return s
}
