// internal/sweep/resources.go
package sweep

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/stats"
)

// Usage is the resource consumption of finished child processes.
type Usage struct {
	// MaxRSS is the largest resident set size in kilobytes.
	MaxRSS int64
	// User and System are CPU seconds.
	User   float64
	System float64
}

// Resources samples CPU and memory use once a second with pidstat while the
// program runs at the largest size.
type Resources struct{}

// resourceFields are the pidstat columns exposed as series.
var resourceFields = []string{"%CPU", "%MEM"}

func (Resources) Name() string       { return "resources" }
func (Resources) Requires() []string { return requires() }
func (Resources) Produces() []string { return []string{"resources"} }

func (s Resources) Gather(ctx context.Context, env *Env, in facts.Snapshot) (*Result, error) {
	w, err := loadWorkload(in)
	if err != nil {
		return nil, err
	}

	before, usageErr := childUsage()
	cmd := w.inDir(w.runCmd(w.cores, w.last) + " & pidstat -s -r -d -u -h -p $! 1")
	out, err := env.session(s.Name(), env.TTL).Run(ctx, cmd)
	if err != nil {
		return nil, err
	}

	res := newResult()
	res.Facts.Set("resources", out)

	header, rows := parsePidstat(out)
	for _, field := range resourceFields {
		col := slices.Index(header, field)
		if col < 0 {
			env.log().Warn("pidstat column missing", "column", field)
			continue
		}
		series := Series{
			Name:   field,
			Title:  "resource usage",
			XLabel: field + " usage rate",
			YLabel: "percentage of available resources",
		}
		for i, row := range rows {
			v, err := strconv.ParseFloat(row[col], 64)
			if err != nil {
				continue
			}
			series.Points = append(series.Points, Point{X: float64(i), Y: v})
		}
		res.addSeries(series)
	}

	if usageErr == nil {
		if after, err := childUsage(); err == nil {
			res.Facts.Set("resources-maxrss", strconv.FormatInt(after.MaxRSS, 10)+" KB")
			res.Facts.Set("resources-utime", stats.Format(after.User-before.User)+" seconds")
			res.Facts.Set("resources-stime", stats.Format(after.System-before.System)+" seconds")
		}
	} else {
		env.log().Debug("child resource usage unavailable", "error", usageErr)
	}
	env.log().Debug("resource usage gathering completed")
	return res, nil
}

// parsePidstat splits pidstat -h output into its column names and the data
// rows that have exactly as many columns. The header is the last line that
// starts with "#"; other lines, such as the banner or program output, are
// dropped.
func parsePidstat(out string) ([]string, [][]string) {
	var header []string
	var rows [][]string
	for _, line := range strings.Split(out, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, "#") {
			header = strings.Fields(strings.TrimPrefix(trimmed, "#"))
			continue
		}
		fields := strings.Fields(trimmed)
		if header != nil && len(fields) == len(header) {
			rows = append(rows, fields)
		}
	}
	return header, rows
}
