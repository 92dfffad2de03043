// internal/cache/cache_test.go
package cache

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// fakeClock is a manually advanced clock.
type fakeClock struct{ t time.Time }

func (c *fakeClock) Now() time.Time          { return c.t }
func (c *fakeClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

// countingExecutor records how often each command was executed.
type countingExecutor struct {
	calls map[string]int
	out   func(command string, n int) string
}

func newCountingExecutor() *countingExecutor {
	return &countingExecutor{calls: map[string]int{}}
}

func (e *countingExecutor) Execute(_ context.Context, command string) ([]byte, error) {
	e.calls[command]++
	if e.out != nil {
		return []byte(e.out(command, e.calls[command])), nil
	}
	return []byte("output of " + command + "\n\n"), nil
}

func newTestCache(t *testing.T, ex Executor, clock *fakeClock) *Cache {
	t.Helper()
	dir := t.TempDir()
	c, err := New(Options{
		Dir:      filepath.Join(dir, "cache"),
		LogDir:   filepath.Join(dir, "log"),
		Executor: ex,
		Now:      clock.Now,
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return c
}

func TestSession_IdempotentWithinTTL(t *testing.T) {
	ex := newCountingExecutor()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestCache(t, ex, clock)

	first, err := c.Session("hardware", time.Hour).Run(context.Background(), "lshw")
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	clock.Advance(30 * time.Minute)
	second, err := c.Session("hardware", time.Hour).Run(context.Background(), "lshw")
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if first != second {
		t.Fatalf("outputs differ: %q vs %q", first, second)
	}
	if ex.calls["lshw"] != 1 {
		t.Fatalf("expected 1 execution, got %d", ex.calls["lshw"])
	}
	if first != "output of lshw" {
		t.Fatalf("expected trailing whitespace trimmed, got %q", first)
	}
}

func TestSession_ExpiresAfterTTL(t *testing.T) {
	ex := newCountingExecutor()
	ex.out = func(command string, n int) string { return strings.Repeat("x", n) }
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := newTestCache(t, ex, clock)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := c.Session("hardware", time.Hour).Run(ctx, "lshw"); err != nil {
			t.Fatalf("run %d: %v", i, err)
		}
	}
	clock.Advance(2 * time.Hour)
	out, err := c.Session("hardware", time.Hour).Run(ctx, "lshw")
	if err != nil {
		t.Fatalf("third run: %v", err)
	}
	if ex.calls["lshw"] != 2 {
		t.Fatalf("expected re-execution after expiry, got %d calls", ex.calls["lshw"])
	}
	if out != "xx" {
		t.Fatalf("expected fresh output, got %q", out)
	}
}

func TestSession_ZeroTTLAlwaysRuns(t *testing.T) {
	ex := newCountingExecutor()
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(t, ex, clock)
	for i := 0; i < 3; i++ {
		if _, err := c.Session("workload", 0).Run(context.Background(), "./matrix"); err != nil {
			t.Fatal(err)
		}
	}
	if ex.calls["./matrix"] != 3 {
		t.Fatalf("expected 3 executions, got %d", ex.calls["./matrix"])
	}
}

func TestSession_ForeverNeverExpires(t *testing.T) {
	ex := newCountingExecutor()
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(t, ex, clock)
	ctx := context.Background()
	if _, err := c.Session("benchmark", Forever).Run(ctx, "hpcc"); err != nil {
		t.Fatal(err)
	}
	clock.Advance(24 * 365 * time.Hour)
	if _, err := c.Session("benchmark", Forever).Run(ctx, "hpcc"); err != nil {
		t.Fatal(err)
	}
	if ex.calls["hpcc"] != 1 {
		t.Fatalf("expected 1 execution, got %d", ex.calls["hpcc"])
	}
}

func TestSession_OrdinalsSeparateRepeatedCommands(t *testing.T) {
	ex := newCountingExecutor()
	ex.out = func(command string, n int) string { return strings.Repeat("y", n) }
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(t, ex, clock)
	ctx := context.Background()

	s := c.Session("workload", time.Hour)
	a, _ := s.Run(ctx, "./matrix")
	b, _ := s.Run(ctx, "./matrix")
	if a == b {
		t.Fatalf("repeated command in one session must use distinct slots")
	}
	if s.Ordinal() != 2 {
		t.Fatalf("expected ordinal 2, got %d", s.Ordinal())
	}

	// A new session replays both slots in order.
	s2 := c.Session("workload", time.Hour)
	a2, _ := s2.Run(ctx, "./matrix")
	b2, _ := s2.Run(ctx, "./matrix")
	if a2 != a || b2 != b {
		t.Fatalf("replay mismatch: %q %q vs %q %q", a2, b2, a, b)
	}
	if ex.calls["./matrix"] != 2 {
		t.Fatalf("expected 2 executions, got %d", ex.calls["./matrix"])
	}
}

func TestSession_CorruptEntryIsAMiss(t *testing.T) {
	ex := newCountingExecutor()
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(t, ex, clock)
	ctx := context.Background()

	if _, err := c.Session("hardware", time.Hour).Run(ctx, "lshw"); err != nil {
		t.Fatal(err)
	}
	paths, _ := filepath.Glob(filepath.Join(c.Dir(), "hardware.0.*.cache"))
	if len(paths) != 1 {
		t.Fatalf("expected one entry, got %v", paths)
	}
	data, _ := os.ReadFile(paths[0])
	// Truncate the body so the recorded length no longer matches.
	if err := os.WriteFile(paths[0], data[:len(data)-3], 0o644); err != nil {
		t.Fatal(err)
	}

	out, err := c.Session("hardware", time.Hour).Run(ctx, "lshw")
	if err != nil {
		t.Fatal(err)
	}
	if out != "output of lshw" {
		t.Fatalf("corrupt entry leaked into output: %q", out)
	}
	if ex.calls["lshw"] != 2 {
		t.Fatalf("expected re-execution for corrupt entry, got %d", ex.calls["lshw"])
	}
}

func TestSession_WritesSectionLog(t *testing.T) {
	ex := newCountingExecutor()
	dir := t.TempDir()
	c, err := New(Options{Dir: filepath.Join(dir, "c"), LogDir: filepath.Join(dir, "l"), Executor: ex})
	if err != nil {
		t.Fatal(err)
	}
	s := c.Session("software", time.Hour)
	s.Run(context.Background(), "gcc --version")
	s.Run(context.Background(), "ldd --version")

	b, err := os.ReadFile(filepath.Join(dir, "l", "software.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if string(b) != "output of ldd --version" {
		t.Fatalf("log should hold the most recent output, got %q", string(b))
	}
}

func TestSession_ErrorPropagatesAndIsNotCached(t *testing.T) {
	boom := errors.New("boom")
	calls := 0
	ex := ExecutorFunc(func(ctx context.Context, command string) ([]byte, error) {
		calls++
		return nil, boom
	})
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(t, ex, clock)
	for i := 0; i < 2; i++ {
		if _, err := c.Session("sanity", time.Hour).Run(context.Background(), "make"); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if calls != 2 {
		t.Fatalf("failed commands must not be cached; calls=%d", calls)
	}
}

func TestShellExecutor_NonzeroExit(t *testing.T) {
	_, err := ShellExecutor{}.Execute(context.Background(), "echo failing; exit 3")
	var ee *ExitError
	if !errors.As(err, &ee) {
		t.Fatalf("expected ExitError, got %v", err)
	}
	if ee.Code != 3 || !strings.Contains(ee.Output, "failing") {
		t.Fatalf("unexpected exit error: %+v", ee)
	}
}

func TestShellExecutor_CombinedOutput(t *testing.T) {
	out, err := ShellExecutor{}.Execute(context.Background(), "echo out; echo err 1>&2")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(out), "out") || !strings.Contains(string(out), "err") {
		t.Fatalf("expected stdout and stderr, got %q", string(out))
	}
}

func TestShellExecutor_Timeout(t *testing.T) {
	_, err := ShellExecutor{Timeout: 50 * time.Millisecond}.Execute(context.Background(), "sleep 5")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestListAndClear(t *testing.T) {
	ex := newCountingExecutor()
	clock := &fakeClock{t: time.Now()}
	c := newTestCache(t, ex, clock)
	ctx := context.Background()
	c.Session("hardware", time.Hour).Run(ctx, "lshw")
	w := c.Session("workload", 0)
	w.Run(ctx, "a")
	w.Run(ctx, "b")

	entries, err := List(c.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 || entries[0].Section != "hardware" || entries[2].Ordinal != 1 {
		t.Fatalf("unexpected entries: %+v", entries)
	}

	n, err := Clear(c.Dir(), "workload")
	if err != nil || n != 2 {
		t.Fatalf("Clear(workload) = %d, %v", n, err)
	}
	n, err = Clear(c.Dir())
	if err != nil || n != 1 {
		t.Fatalf("Clear() = %d, %v", n, err)
	}
}

func TestIdentity_Stable(t *testing.T) {
	a := Identity("workload", 0, "./matrix")
	if a != Identity("workload", 0, "./matrix") {
		t.Fatalf("identity must be deterministic")
	}
	if a == Identity("workload", 1, "./matrix") || a == Identity("scaling", 0, "./matrix") {
		t.Fatalf("identity must depend on section and ordinal")
	}
}

func TestSession_MeasureReplaysRecordedDuration(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	calls := 0
	slow := ExecutorFunc(func(_ context.Context, command string) ([]byte, error) {
		calls++
		clock.Advance(3 * time.Second)
		return []byte("done"), nil
	})
	c := newTestCache(t, slow, clock)

	_, first, err := c.Session("workload", time.Hour).Measure(context.Background(), "./run")
	if err != nil {
		t.Fatalf("first measure: %v", err)
	}
	if first != 3*time.Second {
		t.Fatalf("expected 3s on a miss, got %v", first)
	}

	_, second, err := c.Session("workload", time.Hour).Measure(context.Background(), "./run")
	if err != nil {
		t.Fatalf("second measure: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a cache hit, executor ran %d times", calls)
	}
	if second != first {
		t.Fatalf("expected replayed duration %v, got %v", first, second)
	}
}
