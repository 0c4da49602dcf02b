package thermal

import (
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Stats summarizes a temperature matrix. StdDev is the population
// standard deviation; Median averages the two middle values for an
// even element count.
type Stats struct {
	Min    float64
	Max    float64
	Mean   float64
	StdDev float64
	Median float64
}

// Summarize computes descriptive statistics over a temperature matrix.
// A zero-area matrix is rejected with ErrEmptyMatrix rather than
// silently summarized as NaN: dimensions come from metadata, so an
// empty matrix signals an upstream decode inconsistency.
func Summarize(tm *TempImage) (Stats, error) {
	if tm == nil || len(tm.Pix) == 0 {
		return Stats{}, ErrEmptyMatrix
	}

	sorted := make([]float64, len(tm.Pix))
	copy(sorted, tm.Pix)
	sort.Float64s(sorted)

	n := len(sorted)
	median := sorted[n/2]
	if n%2 == 0 {
		median = (sorted[n/2-1] + sorted[n/2]) / 2
	}

	return Stats{
		Min:    floats.Min(tm.Pix),
		Max:    floats.Max(tm.Pix),
		Mean:   stat.Mean(tm.Pix, nil),
		StdDev: stat.PopStdDev(tm.Pix, nil),
		Median: median,
	}, nil
}
