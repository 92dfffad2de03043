// internal/stats/histogram.go
package stats

import "math"

// Bin is one equal-width histogram bucket covering [Lo, Hi).
// The last bucket of a histogram also includes Hi.
type Bin struct {
	Lo      float64 `json:"lo" yaml:"lo"`
	Hi      float64 `json:"hi" yaml:"hi"`
	Count   int     `json:"count" yaml:"count"`
	Density float64 `json:"density" yaml:"density"`
}

// Bins returns the bucket count used for a sample of n values: ceil(sqrt(n)).
func Bins(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Ceil(math.Sqrt(float64(n))))
}

// Histogram buckets values into n equal-width bins spanning [min, max].
// Density is normalized so the bins integrate to one. A sample whose
// values are all equal is widened to [v-0.5, v+0.5].
func Histogram(values []float64, n int) []Bin {
	if len(values) == 0 || n <= 0 {
		return nil
	}
	lo, hi := Min(values), Max(values)
	if lo == hi {
		lo, hi = lo-0.5, hi+0.5
	}
	width := (hi - lo) / float64(n)

	bins := make([]Bin, n)
	for i := range bins {
		bins[i].Lo = lo + float64(i)*width
		bins[i].Hi = lo + float64(i+1)*width
	}
	bins[n-1].Hi = hi

	for _, v := range values {
		i := int((v - lo) / width)
		if i >= n {
			i = n - 1
		}
		if i < 0 {
			i = 0
		}
		bins[i].Count++
	}

	total := float64(len(values))
	for i := range bins {
		bins[i].Density = float64(bins[i].Count) / (total * width)
	}
	return bins
}
