package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/wippyai/bindptr/selftest"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Padding(0, 1)

	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#87CEEB"))

	passStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#90EE90"))

	skipStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0E68C"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B"))

	barStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4"))

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))
)

const (
	barWidth    = 40
	recentLimit = 8
)

type resultMsg selftest.Result

type doneMsg struct {
	err    error
	report *selftest.Report
}

type interactiveModel struct {
	err      error
	events   <-chan tea.Msg
	report   *selftest.Report
	dataDir  string
	last     string
	failures []selftest.Result
	recent   []selftest.Result
	spinner  spinner.Model
	total    int
	passed   int
	failed   int
	skipped  int
	done     bool
}

func newInteractiveModel(events <-chan tea.Msg, total int, dataDir string) *interactiveModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = barStyle
	return &interactiveModel{
		events:  events,
		total:   total,
		dataDir: dataDir,
		spinner: s,
	}
}

func waitFor(events <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-events
	}
}

func (m *interactiveModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, waitFor(m.events))
}

func (m *interactiveModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			return m, tea.Quit
		}

	case resultMsg:
		res := selftest.Result(msg)
		switch {
		case res.Skipped:
			m.skipped++
		case res.Err != nil:
			m.failed++
			m.failures = append(m.failures, res)
		default:
			m.passed++
		}
		m.last = res.Name
		m.recent = append(m.recent, res)
		if len(m.recent) > recentLimit {
			m.recent = m.recent[len(m.recent)-recentLimit:]
		}
		return m, waitFor(m.events)

	case doneMsg:
		m.done = true
		m.report = msg.report
		m.err = msg.err
		return m, nil

	case spinner.TickMsg:
		if m.done {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *interactiveModel) completed() int {
	return m.passed + m.failed + m.skipped
}

func (m *interactiveModel) bar() string {
	filled := 0
	if m.total > 0 {
		filled = m.completed() * barWidth / m.total
	}
	if filled > barWidth {
		filled = barWidth
	}
	return barStyle.Render(strings.Repeat("█", filled)) +
		helpStyle.Render(strings.Repeat("░", barWidth-filled))
}

func (m *interactiveModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("bindptr self-test"))
	b.WriteString(" ")
	b.WriteString(m.dataDir)
	b.WriteString("\n\n")

	if m.done {
		b.WriteString("   ")
	} else {
		b.WriteString(m.spinner.View())
		b.WriteString(" ")
	}
	b.WriteString(m.bar())
	b.WriteString(fmt.Sprintf(" %d/%d\n\n", m.completed(), m.total))

	b.WriteString(passStyle.Render(fmt.Sprintf("%d passed", m.passed)))
	b.WriteString("  ")
	b.WriteString(errorStyle.Render(fmt.Sprintf("%d failed", m.failed)))
	b.WriteString("  ")
	b.WriteString(skipStyle.Render(fmt.Sprintf("%d skipped", m.skipped)))
	b.WriteString("\n\n")

	for _, res := range m.recent {
		b.WriteString(formatResult(res))
		b.WriteString("\n")
	}

	if len(m.failures) > 0 {
		b.WriteString("\nFailures:\n")
		for _, f := range m.failures {
			b.WriteString(errorStyle.Render(fmt.Sprintf("  %s#%d: %v", f.Name, f.Round, f.Err)))
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(fmt.Sprintf("Error: %v", m.err)))
		b.WriteString("\n\n")
		b.WriteString(helpStyle.Render("q quit"))
	case m.done:
		b.WriteString(fmt.Sprintf("Finished in %s\n\n", m.report.Duration.Round(time.Millisecond)))
		b.WriteString(helpStyle.Render("q quit"))
	default:
		b.WriteString(helpStyle.Render("running " + m.last + " • q abort"))
	}

	return b.String()
}

func formatResult(res selftest.Result) string {
	var status string
	switch {
	case res.Skipped:
		status = skipStyle.Render("SKIP")
	case res.Err != nil:
		status = errorStyle.Render("FAIL")
	default:
		status = passStyle.Render("PASS")
	}
	return fmt.Sprintf("%s %s %s", status, nameStyle.Render(res.Name),
		helpStyle.Render(res.Duration.Round(time.Microsecond).String()))
}

// runInteractive runs the harness behind a TUI. Quitting before the run
// finishes cancels it and waits for the partial report to be written.
func runInteractive(ctx context.Context, log *zap.Logger, cfg *Config) (*selftest.Report, error) {
	checks, err := selftest.Default.Select(cfg.Run)
	if err != nil {
		return nil, err
	}
	repeat := cfg.Repeat
	if repeat == 0 {
		repeat = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	events := make(chan tea.Msg)
	send := func(msg tea.Msg) {
		select {
		case events <- msg:
		case <-ctx.Done():
		}
	}
	finished := make(chan doneMsg, 1)

	go func() {
		report, err := run(ctx, log, cfg, func(r selftest.Result) {
			send(resultMsg(r))
		})
		done := doneMsg{report: report, err: err}
		finished <- done
		send(done)
	}()

	model := newInteractiveModel(events, len(checks)*repeat, cfg.Data)
	p := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		cancel()
		<-finished
		return nil, err
	}

	cancel()
	done := <-finished
	return done.report, done.err
}
