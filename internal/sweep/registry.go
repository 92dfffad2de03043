// internal/sweep/registry.go
package sweep

import (
	"fmt"
	"strings"
)

// Default returns every section in run order. Later sections read facts
// produced by earlier ones, so the order matters.
func Default() []Section {
	return []Section{
		Program{},
		Hardware{},
		Software{},
		Sanity{},
		Benchmark{},
		Workload{},
		Scaling{},
		Threads{},
		Optimization{},
		Vectorization{},
		Profile{},
		Annotation{},
		Resources{},
		Counters{},
	}
}

// Names returns the names of sections in order.
func Names(sections []Section) []string {
	names := make([]string, len(sections))
	for i, s := range sections {
		names[i] = s.Name()
	}
	return names
}

// Select filters the default sections. An empty only keeps every section;
// skip then removes sections by name. Unknown names are an error. The
// result keeps the default order, along with the names left out.
func Select(only, skip []string) ([]Section, []string, error) {
	all := Default()
	known := map[string]bool{}
	for _, s := range all {
		known[s.Name()] = true
	}

	var unknown []string
	want := map[string]bool{}
	for _, n := range only {
		if !known[n] {
			unknown = append(unknown, n)
		}
		want[n] = true
	}
	drop := map[string]bool{}
	for _, n := range skip {
		if !known[n] {
			unknown = append(unknown, n)
		}
		drop[n] = true
	}
	if len(unknown) > 0 {
		return nil, nil, fmt.Errorf("unknown sections: %s (known: %s)",
			strings.Join(unknown, ", "), strings.Join(Names(all), ", "))
	}

	var selected []Section
	var skipped []string
	for _, s := range all {
		if (len(want) > 0 && !want[s.Name()]) || drop[s.Name()] {
			skipped = append(skipped, s.Name())
			continue
		}
		selected = append(selected, s)
	}
	return selected, skipped, nil
}
