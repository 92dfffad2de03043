// cmd/bottleneck/render.go
package bottleneck

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/bottleneck/internal/sweep"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("62")).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	faintStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(faintStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers(headers...)
}

func stateText(s sweep.State) string {
	switch s {
	case sweep.StateGathered:
		return okStyle.Render(string(s))
	case sweep.StateFailed:
		return failStyle.Render(string(s))
	default:
		return faintStyle.Render(string(s))
	}
}

// printSummary renders the per-section outcome of a run.
func printSummary(w io.Writer, rep *sweep.Report, logDir string) {
	t := newTable("section", "state", "facts", "elapsed")
	for _, s := range rep.Sections {
		t.Row(s.Name, stateText(s.State), fmt.Sprint(s.Facts), s.Elapsed.Round(time.Millisecond).String())
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, faintStyle.Render("logs: "+logDir))
}

// firstLine shortens a fact value to its first line for tabular display.
func firstLine(v string, width int) string {
	line, _, multi := strings.Cut(v, "\n")
	if len(line) > width {
		return line[:width-1] + "…"
	}
	if multi {
		return line + " …"
	}
	return line
}
