// internal/sweep/baseline.go
package sweep

import (
	"context"
	"strconv"

	"github.com/mwiater/bottleneck/internal/cache"
	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/metrics"
)

// Sanity builds the program at -O3 and runs it once at the smallest size.
// Any failure here stops the sweep before the expensive axes run.
type Sanity struct{}

func (Sanity) Name() string       { return "sanity" }
func (Sanity) Requires() []string { return requires() }
func (Sanity) Produces() []string { return []string{"sanity"} }

func (s Sanity) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	cmd := w.inDir(w.compile("-O3"), w.runCmd(w.cores, w.first))
	if _, err := env.session(s.Name(), 0).Run(ctx, cmd); err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Set("sanity", "passed")
	return res, nil
}

// DefaultBenchmark runs HPCC on every core and prints its summary file.
const DefaultBenchmark = "mpirun -np {0} `which hpcc` && cat hpccoutf.txt"

// Benchmark runs the HPC Challenge baseline once and keeps its output
// forever, then extracts the headline metrics as hpcc-<metric> facts.
type Benchmark struct {
	Rules []metrics.Rule
}

func (Benchmark) Name() string       { return "benchmark" }
func (Benchmark) Requires() []string { return []string{"cores"} }

func (b Benchmark) Produces() []string {
	return namespaced("hpcc", metrics.Names(b.rules()))
}

func (b Benchmark) rules() []metrics.Rule {
	if b.Rules != nil {
		return b.Rules
	}
	return metrics.HPCC
}

func (b Benchmark) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	r := &reader{in: in}
	cores := r.int("cores")
	tmpl := r.optional("benchmark")
	if err := r.err(); err != nil {
		return nil, err
	}
	if tmpl == "" {
		tmpl = DefaultBenchmark
	}

	out, err := env.session(b.Name(), cache.Forever).Run(ctx, Expand(tmpl, strconv.Itoa(cores)))
	if err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Merge(metrics.Namespace("hpcc", metrics.Extract(out, b.rules())))
	env.log().Debug("system baseline completed")
	return res, nil
}

func namespaced(source string, names []string) []string {
	out := make([]string, len(names))
	for i, n := range names {
		out[i] = source + "-" + n
	}
	return out
}
