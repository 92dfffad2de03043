// internal/sweep/axes.go
package sweep

import (
	"context"
	"fmt"
	"math"
	"strconv"

	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/metrics"
	"github.com/mwiater/bottleneck/internal/stats"
)

// Workload runs the program count times at the smallest size and
// summarizes the elapsed times.
type Workload struct{}

func (Workload) Name() string       { return "workload" }
func (Workload) Requires() []string { return requires() }
func (Workload) Produces() []string {
	return []string{"geomean", "stddev", "min", "max", "mean", "p50", "p95"}
}

func (s Workload) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	if w.count < 1 {
		return nil, fmt.Errorf("count must be positive, got %d", w.count)
	}

	sess := env.session(s.Name(), env.TTL)
	cmd := w.inDir(w.runCmd(w.cores, w.first))
	times := make([]float64, 0, w.count)
	for i := 0; i < w.count; i++ {
		_, elapsed, err := timed(ctx, sess, cmd)
		if err != nil {
			return nil, err
		}
		env.log().Debug(fmt.Sprintf("control %d took %.2f seconds", i, elapsed))
		times = append(times, elapsed)
	}

	sum, err := stats.Summarize(times)
	if err != nil {
		return nil, err
	}
	env.log().Debug(fmt.Sprintf("deviation: gmean %.2f std %.2f", sum.Geomean, sum.Stddev))

	res := newResult()
	res.Facts.Set("geomean", stats.Format(sum.Geomean))
	res.Facts.Set("stddev", stats.Format(sum.Stddev))
	res.Facts.Set("min", stats.Format(sum.Min))
	res.Facts.Set("max", stats.Format(sum.Max))
	res.Facts.Set("mean", stats.Format(sum.Mean))
	res.Facts.Set("p50", stats.Format(sum.P50))
	res.Facts.Set("p95", stats.Format(sum.P95))

	elapsed := Series{Name: "elapsed", Title: "repetitions", XLabel: "run", YLabel: "time in seconds"}
	for i, t := range times {
		elapsed.Points = append(elapsed.Points, Point{X: float64(i), Y: t})
	}
	res.addSeries(elapsed)

	bins := stats.Histogram(times, stats.Bins(len(times)))
	hist := Series{Name: "histogram", Title: "histogram", XLabel: "time in seconds", YLabel: "density"}
	for _, b := range bins {
		hist.Points = append(hist.Points, Point{X: (b.Lo + b.Hi) / 2, Y: b.Density})
	}
	res.addSeries(hist)

	if sum.Stddev > 0 {
		normal := Series{Name: "normal", Title: "normal fit", XLabel: "time in seconds", YLabel: "density"}
		for _, b := range bins {
			x := (b.Lo + b.Hi) / 2
			normal.Points = append(normal.Points, Point{X: x, Y: normalPDF(x, sum.Mean, sum.Stddev)})
		}
		res.addSeries(normal)
	}
	return res, nil
}

func normalPDF(x, mean, std float64) float64 {
	z := (x - mean) / std
	return math.Exp(-z*z/2) / (std * math.Sqrt(2*math.Pi))
}

// Scaling rebuilds once with the configured flags and runs every problem
// size from first to last. The size series is in ascending size order.
type Scaling struct{}

func (Scaling) Name() string       { return "scaling" }
func (Scaling) Requires() []string { return requires() }
func (Scaling) Produces() []string { return []string{"range"} }

func (s Scaling) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	sizes := w.sizes()
	if len(sizes) == 0 {
		return nil, fmt.Errorf("empty problem size range %d..%d", w.first, w.last)
	}

	sess := env.session(s.Name(), env.TTL)
	if _, err := sess.Run(ctx, w.inDir(w.rebuild(w.cflags))); err != nil {
		return nil, err
	}

	res := newResult()
	series := Series{Name: "size", Title: "data size scaling", XLabel: "problem size in bytes", YLabel: "time in seconds"}
	for _, size := range sizes {
		_, elapsed, err := timed(ctx, sess, w.inDir(w.runCmd(w.cores, size)))
		if err != nil {
			return nil, err
		}
		env.log().Debug(fmt.Sprintf("problem at %d took %.2f seconds", size, elapsed))
		series.Points = append(series.Points, Point{X: float64(size), Y: elapsed})
		res.Facts.Set("scaling-"+strconv.Itoa(size), stats.Format(elapsed))
	}
	res.Facts.Set("range", formatInts(sizes))
	res.addSeries(series)
	return res, nil
}

// Threads runs the largest size on 1..cores cores and fits the scaling
// laws from the one and two core timings.
type Threads struct{}

func (Threads) Name() string       { return "threads" }
func (Threads) Requires() []string { return requires() }
func (Threads) Produces() []string {
	return []string{"parallel", "serial", "amdahl", "gustafson"}
}

func (s Threads) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}

	sess := env.session(s.Name(), env.TTL)
	res := newResult()
	times := make([]float64, 0, w.cores)
	for c := 1; c <= w.cores; c++ {
		_, elapsed, err := timed(ctx, sess, w.inDir(w.runCmd(c, w.last)))
		if err != nil {
			return nil, err
		}
		env.log().Debug(fmt.Sprintf("threads at %d took %.2f seconds", c, elapsed))
		times = append(times, elapsed)
		res.Facts.Set("threads-"+strconv.Itoa(c), stats.Format(elapsed))
	}

	actual := Series{Name: "threads", Title: "thread count scaling", XLabel: "cores in units", YLabel: "time in seconds"}
	ideal := Series{Name: "ideal", Title: "thread count scaling", XLabel: "cores in units", YLabel: "time in seconds"}
	for i, t := range stats.Ideal(times) {
		actual.Points = append(actual.Points, Point{X: float64(i + 1), Y: times[i]})
		ideal.Points = append(ideal.Points, Point{X: float64(i + 1), Y: t})
	}
	res.addSeries(actual)
	res.addSeries(ideal)

	if len(times) < 2 {
		env.log().Warn("scaling laws need at least two cores", "cores", w.cores)
		for _, k := range s.Produces() {
			res.Facts.Set(k, metrics.Unknown)
		}
		return res, nil
	}
	fit, err := stats.FitScaling(times[0], times[1], w.processors)
	if err != nil {
		return nil, err
	}
	res.Facts.Set("parallel", stats.Format(fit.Parallel))
	res.Facts.Set("serial", stats.Format(fit.Serial))
	res.Facts.Set("amdahl", stats.Format(fit.Amdahl))
	res.Facts.Set("gustafson", stats.Format(fit.Gustafson))
	env.log().Debug("computed scaling laws")
	return res, nil
}

// Optimization rebuilds at -O0 through -O3 and times one run per level.
// Only the run is timed, not the build.
type Optimization struct{}

// OptLevels are the compiler optimization levels swept, in order.
var OptLevels = []int{0, 1, 2, 3}

func (Optimization) Name() string       { return "optimization" }
func (Optimization) Requires() []string { return requires() }
func (Optimization) Produces() []string { return []string{"best-opt"} }

func (s Optimization) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}

	sess := env.session(s.Name(), env.TTL)
	res := newResult()
	series := Series{Name: "opts", Title: "optimization levels", XLabel: "optimization level", YLabel: "time in seconds"}
	best, bestTime := -1, math.Inf(1)
	for _, level := range OptLevels {
		if _, err := sess.Run(ctx, w.inDir(w.rebuild("-O"+strconv.Itoa(level)))); err != nil {
			return nil, err
		}
		_, elapsed, err := timed(ctx, sess, w.inDir(w.runCmd(w.cores, w.first)))
		if err != nil {
			return nil, err
		}
		env.log().Debug(fmt.Sprintf("optimizations at %d took %.2f seconds", level, elapsed))
		series.Points = append(series.Points, Point{X: float64(level), Y: elapsed})
		res.Facts.Set("opt-"+strconv.Itoa(level), stats.Format(elapsed))
		if elapsed < bestTime {
			best, bestTime = level, elapsed
		}
	}
	res.Facts.Set("best-opt", "-O"+strconv.Itoa(best))
	res.addSeries(series)
	return res, nil
}

// formatInts renders a list the way the report shows ranges: [1, 2, 3].
func formatInts(ns []int) string {
	b := []byte{'['}
	for i, n := range ns {
		if i > 0 {
			b = append(b, ", "...)
		}
		b = strconv.AppendInt(b, int64(n), 10)
	}
	return string(append(b, ']'))
}
