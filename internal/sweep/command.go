// internal/sweep/command.go
package sweep

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/mwiater/bottleneck/internal/cache"
	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/stats"
)

// Expand substitutes positional placeholders {0}, {1}, ... in tmpl.
// Substituted values are not expanded again.
func Expand(tmpl string, args ...string) string {
	pairs := make([]string, 0, 2*len(args))
	for i, a := range args {
		pairs = append(pairs, "{"+strconv.Itoa(i)+"}", a)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Quote wraps s in single quotes for /bin/sh.
func Quote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

// chain joins non-empty commands with &&.
func chain(cmds ...string) string {
	var parts []string
	for _, c := range cmds {
		if strings.TrimSpace(c) != "" {
			parts = append(parts, c)
		}
	}
	return strings.Join(parts, " && ")
}

// timed runs command through the session and returns its output and the
// elapsed wall-clock seconds. Replayed entries report the recorded time.
func timed(ctx context.Context, sess *cache.Session, command string) (string, float64, error) {
	out, elapsed, err := sess.Measure(ctx, command)
	return out, elapsed.Seconds(), err
}

// workload is the view of the facts describing how to build and run the
// program under test.
type workload struct {
	dir, build, clean, run, cflags, program string

	cores, count, first, last, increment, processors int
}

// reader pulls typed facts out of a snapshot and remembers every failure.
type reader struct {
	in   facts.Snapshot
	errs []error
}

func (r *reader) str(key string) string {
	v, err := r.in.String(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return v
}

func (r *reader) optional(key string) string {
	v, _ := r.in.Get(key)
	return v
}

func (r *reader) int(key string) int {
	n, err := r.in.Int(key)
	if err != nil {
		r.errs = append(r.errs, err)
	}
	return n
}

func (r *reader) err() error { return errors.Join(r.errs...) }

// inDir prefixes a command chain with a cd into the workload directory.
func (w workload) inDir(cmds ...string) string {
	return chain(append([]string{"cd " + Quote(w.dir)}, cmds...)...)
}

// compile renders the build template with flags quoted as one word.
func (w workload) compile(flags string) string {
	return Expand(w.build, Quote(flags))
}

// rebuild cleans (when a clean command is configured) and builds with flags.
func (w workload) rebuild(flags string) string {
	return chain(w.clean, w.compile(flags))
}

// runCmd renders the run template for a core count and problem size.
func (w workload) runCmd(cores, size int) string {
	return Expand(w.run, strconv.Itoa(cores), strconv.Itoa(size), w.program)
}

// runEnv is the environment-assignment prefix of the run command, the part
// before "./", so tools like perf can launch the program themselves.
func (w workload) runEnv(cores, size int) string {
	prefix, _, _ := strings.Cut(w.runCmd(cores, size), "./")
	return prefix
}

// workloadFacts are the facts every workload section reads.
var workloadFacts = []string{"program", "dir", "build", "run", "cflags", "cores", "count", "first", "last", "increment"}

func requires(extra ...string) []string {
	return append(append([]string(nil), workloadFacts...), extra...)
}

// loadWorkload reads the workload description from a snapshot. The clean
// command is optional and processors defaults to stats.DefaultProcessors.
func loadWorkload(in facts.Snapshot) (workload, error) {
	r := &reader{in: in}
	w := workload{
		dir:       r.str("dir"),
		build:     r.str("build"),
		clean:     r.optional("clean"),
		run:       r.str("run"),
		cflags:    r.str("cflags"),
		program:   r.str("program"),
		cores:     r.int("cores"),
		count:     r.int("count"),
		first:     r.int("first"),
		last:      r.int("last"),
		increment: r.int("increment"),
	}
	w.processors = stats.DefaultProcessors
	if _, ok := in.Get("processors"); ok {
		w.processors = r.int("processors")
	}
	if err := r.err(); err != nil {
		return workload{}, err
	}
	if w.cores < 1 {
		return workload{}, fmt.Errorf("cores must be positive, got %d", w.cores)
	}
	if w.increment < 1 {
		return workload{}, fmt.Errorf("increment must be positive, got %d", w.increment)
	}
	return w, nil
}

// sizes returns the inclusive problem-size range in ascending order.
func (w workload) sizes() []int {
	var out []int
	for s := w.first; s <= w.last; s += w.increment {
		out = append(out, s)
	}
	return out
}
