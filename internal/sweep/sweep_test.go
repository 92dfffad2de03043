// internal/sweep/sweep_test.go
package sweep

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/mwiater/bottleneck/internal/cache"
	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/logging"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time { return c.t }

// fakeShell answers commands without running them. respond returns the
// output, how long the command "takes" on the fake clock, and an error.
type fakeShell struct {
	clock   *fakeClock
	calls   []string
	respond func(command string) (string, time.Duration, error)
}

func (f *fakeShell) Execute(_ context.Context, command string) ([]byte, error) {
	f.calls = append(f.calls, command)
	if f.respond == nil {
		f.clock.t = f.clock.t.Add(time.Second)
		return []byte("ok"), nil
	}
	out, d, err := f.respond(command)
	f.clock.t = f.clock.t.Add(d)
	return []byte(out), err
}

func (f *fakeShell) count(substr string) int {
	n := 0
	for _, c := range f.calls {
		if strings.Contains(c, substr) {
			n++
		}
	}
	return n
}

func newTestEnv(t *testing.T, respond func(string) (string, time.Duration, error)) (*Env, *fakeShell) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	shell := &fakeShell{clock: clock, respond: respond}
	c, err := cache.New(cache.Options{Dir: t.TempDir(), Executor: shell, Now: clock.Now})
	if err != nil {
		t.Fatalf("cache.New: %v", err)
	}
	return &Env{Cache: c, Logger: logging.Discard(), Timestamp: "20240101-000000"}, shell
}

func baseFacts() map[string]string {
	return map[string]string{
		"program":    "prog",
		"dir":        "/work/prog",
		"build":      "CFLAGS={0} make",
		"clean":      "make clean",
		"run":        "OMP_NUM_THREADS={0} N={1} ./{2}",
		"cflags":     "-O3",
		"cores":      "2",
		"count":      "4",
		"first":      "512",
		"last":       "640",
		"increment":  "64",
		"processors": "1024",
	}
}

func snapshot(m map[string]string) facts.Snapshot {
	return facts.FromMap(m).Snapshot()
}

func TestRunner_MissingRequirementIsFatal(t *testing.T) {
	env, shell := newTestEnv(t, nil)
	m := baseFacts()
	delete(m, "build")
	store := facts.FromMap(m)

	r := &Runner{Env: env, Sections: []Section{Sanity{}, Workload{}}}
	rep, err := r.Run(context.Background(), store)
	if !errors.Is(err, facts.ErrMissing) {
		t.Fatalf("expected ErrMissing, got %v", err)
	}
	if !strings.Contains(err.Error(), "build") {
		t.Fatalf("expected the missing key in the error, got %v", err)
	}
	if len(shell.calls) != 0 {
		t.Fatalf("expected no commands, got %v", shell.calls)
	}
	if rep.Sections[0].State != StateFailed || rep.Sections[1].State != StatePending {
		t.Fatalf("unexpected states: %+v", rep.Sections)
	}
}

func TestRunner_SanityFailureStopsLaterSections(t *testing.T) {
	env, shell := newTestEnv(t, func(cmd string) (string, time.Duration, error) {
		return "", 0, &cache.ExitError{Command: cmd, Code: 2, Output: "make: *** [all] Error 1"}
	})
	r := &Runner{Env: env, Sections: []Section{Sanity{}, Workload{}, Threads{}}}
	rep, err := r.Run(context.Background(), facts.FromMap(baseFacts()))

	var exit *cache.ExitError
	if !errors.As(err, &exit) || exit.Code != 2 {
		t.Fatalf("expected exit error with code 2, got %v", err)
	}
	if len(shell.calls) != 1 {
		t.Fatalf("expected only the sanity command to run, got %d calls", len(shell.calls))
	}
	if rep.Gathered("workload") || rep.Gathered("threads") {
		t.Fatal("sections after sanity must not run")
	}
	if rep.Sections[1].State != StatePending {
		t.Fatalf("expected workload pending, got %s", rep.Sections[1].State)
	}
}

func TestRunner_MergesFactsAndSeries(t *testing.T) {
	env, _ := newTestEnv(t, func(cmd string) (string, time.Duration, error) {
		return "ok", time.Second, nil
	})
	store := facts.FromMap(baseFacts())
	r := &Runner{Env: env, Sections: []Section{Sanity{}, Scaling{}}}
	rep, err := r.Run(context.Background(), store)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if v, _ := store.Get("sanity"); v != "passed" {
		t.Fatalf("expected sanity fact, got %q", v)
	}
	if v, _ := store.Get("range"); v != "[512, 576, 640]" {
		t.Fatalf("unexpected range %q", v)
	}
	if _, ok := rep.Lookup("size"); !ok {
		t.Fatal("expected size series in report")
	}
	for _, s := range rep.Sections {
		if s.State != StateGathered {
			t.Fatalf("section %s not gathered: %s", s.Name, s.State)
		}
	}
}

type recorder struct{ events []string }

func (r *recorder) SectionStarted(name string) { r.events = append(r.events, "start "+name) }
func (r *recorder) SectionFinished(name string, _ *Result, err error) {
	if err != nil {
		r.events = append(r.events, "fail "+name)
		return
	}
	r.events = append(r.events, "done "+name)
}

func TestRunner_NotifiesObserver(t *testing.T) {
	env, _ := newTestEnv(t, nil)
	obs := &recorder{}
	r := &Runner{Env: env, Sections: []Section{Sanity{}}, Observer: obs}
	if _, err := r.Run(context.Background(), facts.FromMap(baseFacts())); err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []string{"start sanity", "done sanity"}
	if strings.Join(obs.events, "|") != strings.Join(want, "|") {
		t.Fatalf("events = %v, want %v", obs.events, want)
	}
}

func TestRunner_CancelledContext(t *testing.T) {
	env, shell := newTestEnv(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &Runner{Env: env, Sections: []Section{Sanity{}}}
	if _, err := r.Run(ctx, facts.FromMap(baseFacts())); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(shell.calls) != 0 {
		t.Fatalf("expected no commands, got %v", shell.calls)
	}
}

func TestSelect(t *testing.T) {
	all, skipped, err := Select(nil, nil)
	if err != nil || len(all) != len(Default()) || len(skipped) != 0 {
		t.Fatalf("Select(nil, nil) = %d sections, %v, %v", len(all), skipped, err)
	}

	some, skipped, err := Select([]string{"threads", "sanity"}, nil)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if got := strings.Join(Names(some), ","); got != "sanity,threads" {
		t.Fatalf("expected default order, got %s", got)
	}
	if len(skipped) != len(Default())-2 {
		t.Fatalf("expected %d skipped, got %d", len(Default())-2, len(skipped))
	}

	rest, _, err := Select(nil, []string{"benchmark"})
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	for _, s := range rest {
		if s.Name() == "benchmark" {
			t.Fatal("benchmark should be skipped")
		}
	}

	if _, _, err := Select([]string{"nope"}, nil); err == nil {
		t.Fatal("expected error for unknown section")
	}
}

func TestExpandAndQuote(t *testing.T) {
	got := Expand("OMP_NUM_THREADS={0} N={1} ./{2}", "4", "512", "prog")
	if got != "OMP_NUM_THREADS=4 N=512 ./prog" {
		t.Fatalf("Expand = %q", got)
	}
	if got := Expand("{0}", "{1}", "x"); got != "{1}" {
		t.Fatalf("substituted values must not be expanded again, got %q", got)
	}
	if got := Quote("it's"); got != `'it'\''s'` {
		t.Fatalf("Quote = %q", got)
	}
}

func TestWorkloadCommands(t *testing.T) {
	w, err := loadWorkload(snapshot(baseFacts()))
	if err != nil {
		t.Fatalf("loadWorkload: %v", err)
	}
	if got := w.runEnv(2, 640); got != "OMP_NUM_THREADS=2 N=640 " {
		t.Fatalf("runEnv = %q", got)
	}
	if got := w.rebuild("-O3 -g"); got != "make clean && CFLAGS='-O3 -g' make" {
		t.Fatalf("rebuild = %q", got)
	}
	if got := w.inDir("make"); got != "cd '/work/prog' && make" {
		t.Fatalf("inDir = %q", got)
	}

	m := baseFacts()
	delete(m, "clean")
	w, err = loadWorkload(snapshot(m))
	if err != nil {
		t.Fatalf("loadWorkload without clean: %v", err)
	}
	if got := w.rebuild("-O1"); got != "CFLAGS='-O1' make" {
		t.Fatalf("rebuild without clean = %q", got)
	}
}

func TestLoadWorkload_BadInteger(t *testing.T) {
	m := baseFacts()
	m["cores"] = "many"
	if _, err := loadWorkload(snapshot(m)); err == nil {
		t.Fatal("expected error for non-numeric cores")
	}
}
