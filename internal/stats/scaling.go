// internal/stats/scaling.go
package stats

import (
	"errors"
	"fmt"
)

// DefaultProcessors is the asymptotic processor count used for the
// Amdahl and Gustafson estimates when none is configured.
const DefaultProcessors = 1024

// Scaling holds the scaling-law fit derived from a 1-core/2-core timing pair.
type Scaling struct {
	Processors int     `json:"processors" yaml:"processors"`
	Parallel   float64 `json:"parallel" yaml:"parallel"`
	Serial     float64 `json:"serial" yaml:"serial"`
	Amdahl     float64 `json:"amdahl" yaml:"amdahl"`
	Gustafson  float64 `json:"gustafson" yaml:"gustafson"`
}

// FitScaling estimates the serial and parallel fractions of a workload from
// its elapsed time on one core (t1) and two cores (t2), then evaluates
// Amdahl's bound and Gustafson's scaled speedup for p processors.
//
//	parallel  = 2*(t1-t2)/t1
//	serial    = (t1 - 2*(t1-t2))/t1
//	amdahl    = 1 / (serial + (1-serial)/p)
//	gustafson = p - serial*(p-1)
func FitScaling(t1, t2 float64, p int) (Scaling, error) {
	if t1 <= 0 || t2 <= 0 {
		return Scaling{}, fmt.Errorf("%w: t1=%g t2=%g", ErrNonPositive, t1, t2)
	}
	if p <= 0 {
		return Scaling{}, errors.New("stats: processor count must be positive")
	}
	P := float64(p)
	parallel := 2 * (t1 - t2) / t1
	serial := (t1 - 2*(t1-t2)) / t1
	return Scaling{
		Processors: p,
		Parallel:   parallel,
		Serial:     serial,
		Amdahl:     1 / (serial + (1-serial)/P),
		Gustafson:  P - serial*(P-1),
	}, nil
}

// Ideal returns the reference curve plotted next to a thread sweep:
// ideal[0] = times[0] and ideal[k] = times[k]/k + 1 for k >= 1.
func Ideal(times []float64) []float64 {
	if len(times) == 0 {
		return nil
	}
	ideal := make([]float64, len(times))
	ideal[0] = times[0]
	for k := 1; k < len(times); k++ {
		ideal[k] = times[k]/float64(k) + 1
	}
	return ideal
}
