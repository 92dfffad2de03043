// internal/tui/tui.go
// Package tui shows the progress of a sweep in the terminal while the
// sections run.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/mwiater/bottleneck/internal/facts"
	"github.com/mwiater/bottleneck/internal/sweep"
)

// stateRunning marks the section currently gathering. It only exists on
// screen; the runner itself goes straight from pending to a final state.
const stateRunning sweep.State = "running"

// SectionStartedMsg is sent when the runner starts a section.
type SectionStartedMsg struct{ Name string }

// SectionFinishedMsg is sent when a section completes or fails.
type SectionFinishedMsg struct {
	Name  string
	Facts int
	Err   error
}

// DoneMsg is sent once the sweep returns.
type DoneMsg struct {
	Report *sweep.Report
	Err    error
}

var (
	titleStyle   = lipgloss.NewStyle().Background(lipgloss.Color("62")).Foreground(lipgloss.Color("230")).Padding(0, 1)
	okStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	failStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	pendingStyle = lipgloss.NewStyle().Faint(true)
	metaStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("244"))
)

// Model is the Bubble Tea model of the progress view.
type Model struct {
	program string
	names   []string
	states  map[string]sweep.State
	started map[string]time.Time
	elapsed map[string]time.Duration
	facts   map[string]int
	errs    map[string]error

	spinner spinner.Model
	done    bool
	err     error
	cancel  context.CancelFunc
	now     func() time.Time
}

// New returns a model listing the sections in run order. cancel is called
// when the user quits before the sweep ends.
func New(program string, names []string, cancel context.CancelFunc) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	m := &Model{
		program: program,
		names:   names,
		states:  make(map[string]sweep.State, len(names)),
		started: map[string]time.Time{},
		elapsed: map[string]time.Duration{},
		facts:   map[string]int{},
		errs:    map[string]error{},
		spinner: s,
		cancel:  cancel,
		now:     time.Now,
	}
	for _, n := range names {
		m.states[n] = sweep.StatePending
	}
	return m
}

// Init starts the spinner.
func (m *Model) Init() tea.Cmd {
	return m.spinner.Tick
}

// Update applies progress messages and key presses.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case SectionStartedMsg:
		m.states[msg.Name] = stateRunning
		m.started[msg.Name] = m.now()

	case SectionFinishedMsg:
		m.elapsed[msg.Name] = m.now().Sub(m.started[msg.Name])
		if msg.Err != nil {
			m.states[msg.Name] = sweep.StateFailed
			m.errs[msg.Name] = msg.Err
		} else {
			m.states[msg.Name] = sweep.StateGathered
			m.facts[msg.Name] = msg.Facts
		}

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// View renders one line per section.
func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("bottleneck "+m.program) + "\n\n")
	for _, n := range m.names {
		b.WriteString("  " + m.line(n) + "\n")
	}
	switch {
	case m.done && m.err != nil:
		b.WriteString("\n" + failStyle.Render("sweep failed: "+m.err.Error()) + "\n")
	case m.done:
		b.WriteString("\n" + okStyle.Render("sweep complete") + "\n")
	default:
		b.WriteString("\n" + metaStyle.Render("q to abort") + "\n")
	}
	return b.String()
}

func (m *Model) line(name string) string {
	switch m.states[name] {
	case stateRunning:
		return fmt.Sprintf("%s %s %s", m.spinner.View(), name,
			metaStyle.Render(fmt.Sprintf("%.1fs", m.now().Sub(m.started[name]).Seconds())))
	case sweep.StateGathered:
		return okStyle.Render("✓ "+name) + " " +
			metaStyle.Render(fmt.Sprintf("%d facts in %.1fs", m.facts[name], m.elapsed[name].Seconds()))
	case sweep.StateFailed:
		return failStyle.Render("✗ "+name) + " " + metaStyle.Render(m.errs[name].Error())
	default:
		return pendingStyle.Render("· " + name)
	}
}

// Observer forwards runner progress to a running program.
type Observer struct {
	Program *tea.Program
}

func (o Observer) SectionStarted(name string) {
	o.Program.Send(SectionStartedMsg{Name: name})
}

func (o Observer) SectionFinished(name string, res *sweep.Result, err error) {
	msg := SectionFinishedMsg{Name: name, Err: err}
	if res != nil {
		msg.Facts = len(res.Facts)
	}
	o.Program.Send(msg)
}

type outcome struct {
	report *sweep.Report
	err    error
}

// Run executes the sweep in the background while the progress view owns
// the terminal. Quitting the view cancels the sweep; Run still waits for
// it to stop and returns its report.
func Run(ctx context.Context, program string, r *sweep.Runner, store *facts.Store) (*sweep.Report, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	m := New(program, sweep.Names(r.Sections), cancel)
	p := tea.NewProgram(m)
	r.Observer = Observer{Program: p}

	results := make(chan outcome, 1)
	go func() {
		rep, err := r.Run(ctx, store)
		results <- outcome{rep, err}
		p.Send(DoneMsg{Report: rep, Err: err})
	}()

	if _, err := p.Run(); err != nil {
		cancel()
		<-results
		return nil, fmt.Errorf("progress view: %w", err)
	}
	cancel()
	res := <-results
	return res.report, res.err
}
