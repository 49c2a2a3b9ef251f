package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	failStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	keyStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	mutedStyle = lipgloss.NewStyle().Faint(true)
)

// ErrInterrupted is returned when the operator presses ctrl+c before the
// action finishes. The action's context is cancelled at the same time.
var ErrInterrupted = errors.New("interrupted")

type actionMsg struct {
	details []string
	err     error
}

type model struct {
	title   string
	details []string
	err     error
	done    bool
	elapsed time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	start  time.Time
	action func(context.Context) ([]string, error)
}

func (m model) Init() tea.Cmd {
	return func() tea.Msg {
		details, err := m.action(m.ctx)
		return actionMsg{details: details, err: err}
	}
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			if m.cancel != nil {
				m.cancel()
			}
			m.err = ErrInterrupted
			m.done = true
			m.elapsed = time.Since(m.start)
			return m, tea.Quit
		}
	case actionMsg:
		m.details = msg.details
		m.err = msg.err
		m.done = true
		m.elapsed = time.Since(m.start)
		return m, tea.Quit
	}
	return m, nil
}

func (m model) View() string {
	title := titleStyle.Render(m.title)
	if !m.done {
		return fmt.Sprintf("%s\n\nRunning...\n", title)
	}

	var b strings.Builder
	b.WriteString(title)
	b.WriteString("\n")
	if m.err != nil {
		fmt.Fprintf(&b, "%s: %v", failStyle.Render("FAILED"), m.err)
	} else {
		b.WriteString(okStyle.Render("OK"))
	}
	if m.elapsed > 0 {
		b.WriteString(" " + mutedStyle.Render("("+m.elapsed.Round(time.Millisecond).String()+")"))
	}
	b.WriteString("\n")
	b.WriteString(renderDetails(m.details))
	return b.String()
}

// renderDetails aligns "key=value" lines into two columns. Lines without a
// key are printed as bullets.
func renderDetails(details []string) string {
	width := 0
	for _, d := range details {
		if k, _, ok := strings.Cut(d, "="); ok && len(k) > width {
			width = len(k)
		}
	}
	var b strings.Builder
	for _, d := range details {
		k, v, ok := strings.Cut(d, "=")
		if !ok {
			b.WriteString("- " + d + "\n")
			continue
		}
		b.WriteString("  " + keyStyle.Render(fmt.Sprintf("%-*s", width, k)) + "  " + v + "\n")
	}
	return b.String()
}

// Run executes action under a bubbletea program and returns its result once
// it finishes, times out or is interrupted.
func Run(title string, timeout time.Duration, action func(context.Context) ([]string, error)) ([]string, error) {
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	m := model{title: title, action: action, ctx: ctx, cancel: cancel, start: time.Now()}
	final, err := tea.NewProgram(m).Run()
	if err != nil {
		return nil, err
	}
	res := final.(model)
	return res.details, res.err
}
