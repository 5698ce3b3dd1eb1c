package main

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/wippyai/bindptr/selftest"
)

func TestInteractiveModel_Counts(t *testing.T) {
	m := newInteractiveModel(make(chan tea.Msg), 3, "/data")

	m.Update(resultMsg(selftest.Result{Name: "ok"}))
	m.Update(resultMsg(selftest.Result{Name: "bad", Err: errors.New("boom")}))
	_, cmd := m.Update(resultMsg(selftest.Result{Name: "skip", Err: selftest.Skip("n/a"), Skipped: true}))
	if cmd == nil {
		t.Fatal("result should schedule the next wait")
	}

	if m.passed != 1 || m.failed != 1 || m.skipped != 1 || m.completed() != 3 {
		t.Fatalf("passed=%d failed=%d skipped=%d", m.passed, m.failed, m.skipped)
	}
	if len(m.failures) != 1 || m.failures[0].Name != "bad" {
		t.Fatalf("failures = %v", m.failures)
	}

	view := m.View()
	for _, want := range []string{"3/3", "1 passed", "1 failed", "1 skipped", "boom"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q:\n%s", want, view)
		}
	}
}

func TestInteractiveModel_RecentLimit(t *testing.T) {
	m := newInteractiveModel(make(chan tea.Msg), 100, "/data")
	for i := 0; i < recentLimit+5; i++ {
		m.Update(resultMsg(selftest.Result{Name: "c"}))
	}
	if len(m.recent) != recentLimit {
		t.Fatalf("recent = %d, want %d", len(m.recent), recentLimit)
	}
}

func TestInteractiveModel_Done(t *testing.T) {
	m := newInteractiveModel(make(chan tea.Msg), 1, "/data")
	report := &selftest.Report{Duration: 1500 * time.Millisecond}

	_, cmd := m.Update(doneMsg{report: report})
	if cmd != nil {
		t.Fatal("done should not schedule more work")
	}
	if !m.done || !strings.Contains(m.View(), "Finished in 1.5s") {
		t.Fatalf("view after done:\n%s", m.View())
	}

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("q should quit")
	}
}

func TestInteractiveModel_Bar(t *testing.T) {
	m := newInteractiveModel(make(chan tea.Msg), 4, "/data")
	m.passed = 2
	if got := strings.Count(m.bar(), "█"); got != barWidth/2 {
		t.Fatalf("filled = %d, want %d", got, barWidth/2)
	}
}
