// internal/sweep/results.go
package sweep

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/mwiater/bottleneck/internal/facts"
)

// Show logs one debug line per fact of a section, in key order.
func Show(log *slog.Logger, section string, b facts.Bucket) {
	log.Debug("showing section named " + section)
	for _, k := range b.Keys() {
		log.Debug(fmt.Sprintf("tag %s is %s", k, b[k]), "section", section)
	}
}

// Lookup returns the named series.
func (rep *Report) Lookup(name string) (Series, bool) {
	for _, s := range rep.Series {
		if s.Name == name {
			return s, true
		}
	}
	return Series{}, false
}

// WriteSeries stores every series of the report as indented JSON at path,
// the input of the plotting step.
func (rep *Report) WriteSeries(path string) error {
	b, err := json.MarshalIndent(rep.Series, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode series: %w", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return fmt.Errorf("could not write series: %w", err)
	}
	return nil
}

// WriteSummary stores the per-section outcome as indented JSON at path.
func (rep *Report) WriteSummary(path string) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode report: %w", err)
	}
	return os.WriteFile(path, b, 0o644)
}
