package ui

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"

	"tug/internal/progress"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// RunWithProgress runs fn while showing its progress on stderr. Interactive
// terminals get a spinner labelled with the active step; otherwise each step
// is printed as a line when it finishes. Ctrl+C cancels the context passed
// to fn.
func RunWithProgress(ctx context.Context, msg string, fn func(context.Context, *progress.Tracker) error) error {
	if !IsInteractive() {
		printer := &stepPrinter{w: os.Stderr, seen: make(map[string]progress.Status)}
		return fn(ctx, progress.New(printer.report))
	}

	m := &spinnerModel{
		spinner: spinner.New(
			spinner.WithSpinner(spinner.MiniDot),
			spinner.WithStyle(lipgloss.NewStyle().Foreground(purple)),
		),
		msg: msg,
	}

	fnCtx, fnCancel := context.WithCancel(ctx)
	defer fnCancel()

	p := tea.NewProgram(m,
		tea.WithOutput(os.Stderr),
		tea.WithContext(ctx),
	)
	tracker := progress.New(func(s progress.Snapshot) {
		go p.Send(stepMsg{active: s.Active()})
	})

	go func() {
		m.err = fn(fnCtx, tracker)
		p.Send(spinnerDoneMsg{})
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("spinner: %w", err)
	}
	if m.cancelled {
		fnCancel()
		return context.Canceled
	}
	return m.err
}

type spinnerDoneMsg struct{}

type stepMsg struct{ active string }

type spinnerModel struct {
	spinner   spinner.Model
	msg       string
	active    string
	err       error
	done      bool
	cancelled bool
}

func (m *spinnerModel) Init() tea.Cmd {
	return m.spinner.Tick
}

func (m *spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			m.cancelled = true
			return m, tea.Quit
		}
	case stepMsg:
		m.active = msg.active
	case spinnerDoneMsg:
		m.done = true
		return m, tea.Quit
	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

func (m *spinnerModel) View() string {
	if m.done || m.cancelled {
		return ""
	}
	line := m.spinner.View() + " " + m.msg
	if m.active != "" {
		line += " " + Muted("("+m.active+")")
	}
	return line + "\n"
}

// stepPrinter writes one line per finished step.
type stepPrinter struct {
	mu   sync.Mutex
	w    io.Writer
	seen map[string]progress.Status
}

func (p *stepPrinter) report(s progress.Snapshot) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, step := range s.Steps {
		if step.Status != progress.Done && step.Status != progress.Failed {
			continue
		}
		if p.seen[step.ID] == step.Status {
			continue
		}
		p.seen[step.ID] = step.Status
		fmt.Fprintln(p.w, formatStepLine(step))
	}
}

func formatStepLine(step progress.Step) string {
	prefix := "[..]"
	switch step.Status {
	case progress.Running:
		prefix = "[->]"
	case progress.Done:
		prefix = "[ok]"
	case progress.Failed:
		prefix = "[x]"
	}
	if step.Message != "" {
		return fmt.Sprintf("  %s %s (%s)", prefix, step.Title, step.Message)
	}
	return fmt.Sprintf("  %s %s", prefix, step.Title)
}
