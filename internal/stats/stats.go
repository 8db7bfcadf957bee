// Package stats holds the closed-form numeric primitives shared by feature
// extraction and prediction. Every function has a defined result for empty
// or degenerate input instead of an error.
package stats

import "math"

const (
	// RecentWindow is how many trailing values count as "recent" for ImprovementRate.
	RecentWindow = 3

	// NeutralConsistency is returned when there are too few samples to judge spread.
	NeutralConsistency = 0.5
)

// Mean returns the arithmetic mean, or 0 for no values.
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

// StdDev returns the population standard deviation, or 0 for fewer than two values.
func StdDev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := Mean(values)
	ss := 0.0
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)))
}

// Consistency maps the spread of accuracies (0-100 scale) onto [0,1], where 1
// means perfectly stable. Fewer than two samples yield NeutralConsistency.
func Consistency(accuracies []float64) float64 {
	if len(accuracies) < 2 {
		return NeutralConsistency
	}
	return 1 - math.Min(1, StdDev(accuracies)/100)
}

// ImprovementRate compares the mean of the last RecentWindow values against
// the mean of everything before them and returns the relative change.
// It returns 0 when there is nothing to compare against.
func ImprovementRate(seq []float64) float64 {
	if len(seq) < 2 {
		return 0
	}
	split := len(seq) - RecentWindow
	if split <= 0 {
		return 0
	}
	early := Mean(seq[:split])
	if early == 0 {
		return 0
	}
	recent := Mean(seq[split:])
	return (recent - early) / early
}

// Clamp bounds v to [lo, hi]. NaN maps to lo.
func Clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
