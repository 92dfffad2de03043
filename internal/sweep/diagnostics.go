// internal/sweep/diagnostics.go
package sweep

import (
	"context"
	"strconv"

	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/metrics"
)

// Vectorization rebuilds with the vectorizer report enabled and keeps the
// compiler's output.
type Vectorization struct{}

func (Vectorization) Name() string       { return "vectorization" }
func (Vectorization) Requires() []string { return requires() }
func (Vectorization) Produces() []string { return []string{"vectorizer"} }

func (s Vectorization) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	out, err := env.session(s.Name(), env.TTL).Run(ctx, w.inDir(w.rebuild("-O3 -ftree-vectorizer-verbose=7")))
	if err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Set("vectorizer", out)
	env.log().Debug("vectorization report completed")
	return res, nil
}

// Profile builds with gprof instrumentation, runs once and keeps the flat
// line-level profile.
type Profile struct{}

func (Profile) Name() string       { return "profile" }
func (Profile) Requires() []string { return requires() }
func (Profile) Produces() []string { return []string{"profile"} }

func (s Profile) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	gprof := "gprof -l -b " + Quote(w.program) + " | awk '/[[:alnum:]]/'"
	cmd := w.inDir(w.rebuild("-O3 -g -pg"), w.runCmd(w.cores, w.first), gprof)
	out, err := env.session(s.Name(), env.TTL).Run(ctx, cmd)
	if err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Set("profile", out)
	env.log().Debug("profiling report completed")
	return res, nil
}

// Annotation records a perf profile and keeps the annotated source lines
// that carry samples.
type Annotation struct{}

func (Annotation) Name() string       { return "annotation" }
func (Annotation) Requires() []string { return requires() }
func (Annotation) Produces() []string { return []string{"annotation"} }

func (s Annotation) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	record := w.runEnv(w.cores, w.first) + "perf record -q -o perf.data ./" + w.program
	annotate := `perf annotate --stdio -i perf.data | awk '!/^[[:space:]]*:[[:space:]]*$/ && !/ 0\.00 /'`
	out, err := env.session(s.Name(), env.TTL).Run(ctx, w.inDir(w.rebuild("-O3 -g"), record, annotate))
	if err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Set("annotation", out)
	env.log().Debug("source annotation completed")
	return res, nil
}

// Counters runs the program under perf stat at the largest size and
// extracts the headline hardware counters as counters-<event> facts.
type Counters struct {
	Repeat int
}

func (Counters) Name() string       { return "counters" }
func (Counters) Requires() []string { return requires() }

func (Counters) Produces() []string {
	return append([]string{"counters"}, namespaced("counters", metrics.Names(metrics.PerfStat))...)
}

func (s Counters) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}
	repeat := s.Repeat
	if repeat < 1 {
		repeat = 3
	}
	stat := w.runEnv(w.cores, w.last) + "perf stat -r " + strconv.Itoa(repeat) + " ./" + w.program
	out, err := env.session(s.Name(), env.TTL).Run(ctx, w.inDir(stat))
	if err != nil {
		return nil, err
	}
	res := newResult()
	res.Facts.Set("counters", out)
	res.Facts.Merge(metrics.Namespace("counters", metrics.Extract(out, metrics.PerfStat)))
	env.log().Debug("hardware counters gathering completed")
	return res, nil
}
