// internal/tui/tui_test.go
package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mwiater/bottleneck/internal/sweep"
)

func TestModel_ProgressAndView(t *testing.T) {
	m := New("prog", []string{"sanity", "workload"}, nil)
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return now }

	m.Update(SectionStartedMsg{Name: "sanity"})
	if m.states["sanity"] != stateRunning {
		t.Fatalf("expected sanity running, got %s", m.states["sanity"])
	}
	now = now.Add(1500 * time.Millisecond)
	m.Update(SectionFinishedMsg{Name: "sanity", Facts: 1})
	if m.states["sanity"] != sweep.StateGathered || m.elapsed["sanity"] != 1500*time.Millisecond {
		t.Fatalf("unexpected sanity state %s after %v", m.states["sanity"], m.elapsed["sanity"])
	}

	view := m.View()
	if !strings.Contains(view, "sanity") || !strings.Contains(view, "1 facts in 1.5s") {
		t.Fatalf("view missing sanity line:\n%s", view)
	}
	if !strings.Contains(view, "workload") {
		t.Fatalf("view missing pending workload:\n%s", view)
	}
}

func TestModel_FailureAndDone(t *testing.T) {
	m := New("prog", []string{"sanity"}, nil)
	m.Update(SectionStartedMsg{Name: "sanity"})
	m.Update(SectionFinishedMsg{Name: "sanity", Err: errors.New("exit status 2")})
	if m.states["sanity"] != sweep.StateFailed {
		t.Fatalf("expected failed, got %s", m.states["sanity"])
	}

	_, cmd := m.Update(DoneMsg{Err: errors.New("section sanity: exit status 2")})
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
	if !strings.Contains(m.View(), "sweep failed") {
		t.Fatalf("expected failure footer:\n%s", m.View())
	}
}

func TestModel_QuitCancels(t *testing.T) {
	cancelled := false
	m := New("prog", []string{"sanity"}, func() { cancelled = true })
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("q")})
	if !cancelled {
		t.Fatal("expected quitting to cancel the sweep")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Fatal("expected tea.QuitMsg")
	}
}
