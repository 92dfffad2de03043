// internal/stats/stats.go
// Package stats summarizes elapsed-time samples collected by the sweep.
package stats

import (
	"errors"
	"fmt"
	"math"
	"slices"
)

var (
	// ErrEmpty is returned when a statistic is requested over no values.
	ErrEmpty = errors.New("stats: empty sample")
	// ErrNonPositive is returned by Geomean when a value is zero or negative.
	ErrNonPositive = errors.New("stats: non-positive value")
)

// Summary holds the derived statistics of one measurement sample.
type Summary struct {
	Count   int     `json:"count" yaml:"count"`
	Geomean float64 `json:"geomean" yaml:"geomean"`
	Mean    float64 `json:"mean" yaml:"mean"`
	Stddev  float64 `json:"stddev" yaml:"stddev"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	P50     float64 `json:"p50" yaml:"p50"`
	P95     float64 `json:"p95" yaml:"p95"`
}

// Summarize computes every statistic reported for a sample.
func Summarize(values []float64) (Summary, error) {
	g, err := Geomean(values)
	if err != nil {
		return Summary{}, err
	}
	mean, std := meanStd(values)
	return Summary{
		Count:   len(values),
		Geomean: g,
		Mean:    mean,
		Stddev:  std,
		Min:     Min(values),
		Max:     Max(values),
		P50:     Quantile(values, 0.50),
		P95:     Quantile(values, 0.95),
	}, nil
}

// Geomean returns the geometric mean of strictly positive values.
func Geomean(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, ErrEmpty
	}
	var logsum float64
	for i, v := range values {
		if v <= 0 {
			return 0, fmt.Errorf("%w: values[%d] = %g", ErrNonPositive, i, v)
		}
		logsum += math.Log(v)
	}
	return math.Exp(logsum / float64(len(values))), nil
}

// Mean returns the arithmetic mean, 0 for an empty slice.
func Mean(values []float64) float64 {
	mean, _ := meanStd(values)
	return mean
}

// Stddev returns the population standard deviation, 0 for an empty slice.
func Stddev(values []float64) float64 {
	_, std := meanStd(values)
	return std
}

func meanStd(values []float64) (mean, std float64) {
	n := float64(len(values))
	if n == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / n
	var varsum float64
	for _, v := range values {
		d := v - mean
		varsum += d * d
	}
	std = math.Sqrt(varsum / n)
	return
}

// Min returns the smallest value, 0 for an empty slice.
func Min(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return slices.Min(values)
}

// Max returns the largest value, 0 for an empty slice.
func Max(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	return slices.Max(values)
}

// Quantile returns the q-quantile (0..1) of values using linear
// interpolation. The input slice is not modified.
func Quantile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return 0
	}
	cp := slices.Clone(values)
	slices.Sort(cp)
	if q <= 0 {
		return cp[0]
	}
	if q >= 1 {
		return cp[len(cp)-1]
	}
	pos := q * float64(len(cp)-1)
	l := int(math.Floor(pos))
	r := int(math.Ceil(pos))
	if l == r {
		return cp[l]
	}
	frac := pos - float64(l)
	return cp[l]*(1-frac) + cp[r]*frac
}

// Format renders a derived number the way every numeric fact is stored.
func Format(v float64) string {
	return fmt.Sprintf("%.5f", v)
}
