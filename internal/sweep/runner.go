// internal/sweep/runner.go
package sweep

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/logging"
)

// Runner executes sections strictly in order. A section only starts once
// every fact it requires is present, and the first failure stops the run.
type Runner struct {
	Env      *Env
	Sections []Section
	Observer Observer
}

// Run gathers every section into store. On failure the returned report
// covers the sections that ran, and the remaining ones stay pending.
func (r *Runner) Run(ctx context.Context, store *facts.Store) (*Report, error) {
	if r.Env == nil || r.Env.Cache == nil {
		return nil, errors.New("sweep: runner needs an environment with a cache")
	}
	if r.Env.Logger == nil {
		r.Env.Logger = logging.Discard()
	}
	log := r.Env.Logger

	rep := &Report{Started: time.Now(), Facts: store}
	for _, s := range r.Sections {
		rep.Sections = append(rep.Sections, SectionReport{Name: s.Name(), State: StatePending})
	}

	for i, s := range r.Sections {
		sr := &rep.Sections[i]
		if err := ctx.Err(); err != nil {
			rep.Finished = time.Now()
			return rep, err
		}
		if r.Observer != nil {
			r.Observer.SectionStarted(s.Name())
		}
		log.Debug("creating section named " + s.Name())

		start := time.Now()
		res, err := r.gather(ctx, s, store)
		sr.Elapsed = time.Since(start)
		if r.Observer != nil {
			r.Observer.SectionFinished(s.Name(), res, err)
		}
		if err != nil {
			sr.State = StateFailed
			sr.Error = err.Error()
			rep.Finished = time.Now()
			log.Error("section failed", "section", s.Name(), "error", err)
			return rep, fmt.Errorf("section %s: %w", s.Name(), err)
		}

		for _, k := range s.Produces() {
			if _, ok := res.Facts[k]; !ok {
				log.Warn("section did not produce declared fact", "section", s.Name(), "fact", k)
			}
		}
		store.Merge(res.Facts)
		rep.Series = append(rep.Series, res.Series...)
		sr.State = StateGathered
		sr.Facts = len(res.Facts)
		Show(log, s.Name(), res.Facts)
		log.Info("section gathered", "section", s.Name(), "facts", len(res.Facts), "elapsed", sr.Elapsed.Round(time.Millisecond))
	}

	rep.Finished = time.Now()
	return rep, nil
}

func (r *Runner) gather(ctx context.Context, s Section, store *facts.Store) (*Result, error) {
	if err := store.Require(s.Requires()...); err != nil {
		return nil, err
	}
	res, err := s.Gather(ctx, r.Env, store.Snapshot())
	if err != nil {
		return nil, err
	}
	if res == nil {
		res = newResult()
	}
	if res.Facts == nil {
		res.Facts = facts.Bucket{}
	}
	return res, nil
}

// Skip marks sections as skipped in a report, for sections left out by
// selection rather than failure.
func (rep *Report) Skip(names ...string) {
	for _, n := range names {
		rep.Sections = append(rep.Sections, SectionReport{Name: n, State: StateSkipped})
	}
}

// Gathered reports whether the named section completed.
func (rep *Report) Gathered(name string) bool {
	for _, s := range rep.Sections {
		if s.Name == name {
			return s.State == StateGathered
		}
	}
	return false
}
