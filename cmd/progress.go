package cmd

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// spawnMsg reports that the client started one op subcommand.
type spawnMsg struct {
	command string
}

type queryDoneMsg struct {
	err error
}

var (
	progressSpinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("69"))
	progressDetailStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// queryProgressModel draws a spinner while a query runs, with the op
// subcommand currently in flight, how many were spawned and the time taken.
type queryProgressModel struct {
	spinner spinner.Model
	label   string
	query   tea.Cmd
	now     func() time.Time
	started time.Time
	spawns  int
	last    string
	err     error
	done    bool
}

func newQueryProgressModel(label string, query tea.Cmd, now func() time.Time) queryProgressModel {
	return queryProgressModel{
		spinner: spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(progressSpinnerStyle)),
		label:   label,
		query:   query,
		now:     now,
		started: now(),
	}
}

func (m queryProgressModel) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.query)
}

func (m queryProgressModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	case spawnMsg:
		m.spawns++
		m.last = msg.command
		return m, nil
	case queryDoneMsg:
		m.done = true
		m.err = msg.err
		return m, tea.Quit
	default:
		return m, nil
	}
}

func (m queryProgressModel) View() string {
	if m.done {
		return ""
	}

	line := fmt.Sprintf("%s %s", m.spinner.View(), m.label)
	if m.spawns == 0 {
		return line
	}

	calls := "call"
	if m.spawns > 1 {
		calls = "calls"
	}
	elapsed := m.now().Sub(m.started).Round(100 * time.Millisecond)
	detail := strings.Join([]string{"op " + m.last, fmt.Sprintf("%d %s", m.spawns, calls), elapsed.String()}, " · ")

	return line + " " + progressDetailStyle.Render(detail)
}

// progressReporter forwards client spawn notifications to the progress
// program that is currently drawing, if any.
type progressReporter struct {
	program atomic.Pointer[tea.Program]
}

func (r *progressReporter) reportSpawn(command string) {
	if p := r.program.Load(); p != nil {
		p.Send(spawnMsg{command: command})
	}
}

func (r *progressReporter) run(ctx context.Context, output io.Writer, label string, now func() time.Time, query func(context.Context) error) error {
	queryCmd := func() tea.Msg {
		return queryDoneMsg{err: query(ctx)}
	}

	p := tea.NewProgram(
		newQueryProgressModel(label, queryCmd, now),
		tea.WithInput(nil),
		tea.WithOutput(output),
		tea.WithContext(ctx),
	)
	r.program.Store(p)
	defer r.program.Store(nil)

	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	result, ok := finalModel.(queryProgressModel)
	if !ok {
		return fmt.Errorf("unexpected final progress model type %T", finalModel)
	}

	return result.err
}
