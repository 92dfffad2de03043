// internal/sweep/types.go
// Package sweep runs the measurement sections of a benchmark sweep in order
// and collects the facts and series they produce.
package sweep

import (
	"context"
	"log/slog"
	"time"

	"github.com/mwiater/bottleneck/internal/cache"
	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/logging"
)

// Section is one unit of measurement, usually one sweep axis.
type Section interface {
	// Name identifies the section in logs, cache slots and facts.
	Name() string
	// Requires lists the facts that must exist before Gather runs.
	Requires() []string
	// Produces lists the facts Gather always sets. Sections may set more,
	// such as one fact per swept value.
	Produces() []string
	// Gather performs the measurement against a snapshot of the facts
	// gathered so far and returns the facts and series it produced.
	Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error)
}

// Env is the run context shared by every section. It is built once at
// startup and passed explicitly; there is no package-level state.
type Env struct {
	// Cache runs and memoizes external commands.
	Cache *cache.Cache
	// Logger receives diagnostics.
	Logger *slog.Logger
	// LogDir is the per-run log directory.
	LogDir string
	// Timestamp is the run start, formatted for the report.
	Timestamp string
	// TTL is the freshness window of ordinary sections; 0 always re-runs.
	TTL time.Duration
	// HardwareTTL is the freshness window of hardware discovery.
	HardwareTTL time.Duration
}

func (e *Env) session(name string, ttl time.Duration) *cache.Session {
	return e.Cache.Session(name, ttl)
}

func (e *Env) log() *slog.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}

// Point is one sample of a series.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Series is a named numeric series handed to the plotting collaborator.
type Series struct {
	Name   string  `json:"name"`
	Title  string  `json:"title"`
	XLabel string  `json:"x_label"`
	YLabel string  `json:"y_label"`
	Points []Point `json:"points"`
}

// Xs returns the X values of the series.
func (s Series) Xs() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.X
	}
	return out
}

// Ys returns the Y values of the series.
func (s Series) Ys() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Y
	}
	return out
}

// Result is what a section hands back to the runner.
type Result struct {
	Facts  facts.Bucket
	Series []Series
}

func newResult() *Result {
	return &Result{Facts: facts.Bucket{}}
}

func (r *Result) addSeries(s Series) {
	r.Series = append(r.Series, s)
}

// State is the lifecycle state of a section within a run.
type State string

const (
	StatePending  State = "pending"
	StateGathered State = "gathered"
	StateFailed   State = "failed"
	StateSkipped  State = "skipped"
)

// SectionReport records how one section went.
type SectionReport struct {
	Name    string        `json:"name"`
	State   State         `json:"state"`
	Facts   int           `json:"facts"`
	Elapsed time.Duration `json:"elapsed"`
	Error   string        `json:"error,omitempty"`
}

// Report is the outcome of a run.
type Report struct {
	Sections []SectionReport `json:"sections"`
	Series   []Series        `json:"series"`
	Started  time.Time       `json:"started"`
	Finished time.Time       `json:"finished"`
	Facts    *facts.Store    `json:"-"`
}

// Observer is notified as sections start and finish.
type Observer interface {
	SectionStarted(name string)
	SectionFinished(name string, res *Result, err error)
}
