// Package ui renders a single transfer as a terminal program: a spinner
// while the request is negotiated, a progress bar once blocks flow, and a
// one-screen summary at the end.
package ui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	appevents "github.com/lanport/tftpgo/internal/app_events"
	"github.com/lanport/tftpgo/internal/util"
)

// Controller is the app-side half of the UI: a source of transfer events.
type Controller interface {
	UIMessages() <-chan tea.Msg
}

type state int

const (
	preparing state = iota
	transferring
	done
	failed
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true)
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

const defaultWidth = 60

// Model is the bubbletea model for one transfer.
type Model struct {
	ctrl  Controller
	title string

	state       state
	status      string
	transferred int64
	total       int64
	summary     appevents.Summary
	err         error

	spinner  spinner.Model
	progress progress.Model
	width    int
}

func NewModel(title string, ctrl Controller) Model {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	return Model{
		ctrl:     ctrl,
		title:    title,
		status:   "Connecting...",
		spinner:  sp,
		progress: progress.New(progress.WithDefaultGradient()),
		width:    defaultWidth,
	}
}

// listen waits for the next event from the transfer controller.
func (m Model) listen() tea.Cmd {
	return func() tea.Msg {
		return <-m.ctrl.UIMessages()
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.listen())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.progress.Width = min(msg.Width-10, defaultWidth)
	case appevents.StatusMsg:
		m.status = msg.Message
		return m, m.listen()
	case appevents.ProgressMsg:
		m.state = transferring
		m.transferred = msg.Transferred
		m.total = msg.Total
		return m, m.listen()
	case appevents.DoneMsg:
		m.state = done
		m.summary = msg.Summary
		return m, tea.Quit
	case appevents.ErrorMsg:
		m.state = failed
		m.err = msg.Err
		return m, tea.Quit
	}

	var cmd tea.Cmd
	m.spinner, cmd = m.spinner.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	header := titleStyle.Render(util.PadRight(m.title, m.width-2)) + "\n"
	switch m.state {
	case preparing:
		return fmt.Sprintf("%s\n%s %s\n", header, m.spinner.View(), m.status)
	case transferring:
		return header + "\n" + m.progressView() + "\n"
	case done:
		s := m.summary
		line := fmt.Sprintf("%s %s (%s, %s)",
			successStyle.Render("Transfer complete:"),
			s.LocalPath, util.FormatSize(s.Bytes), s.MimeType)
		return fmt.Sprintf("%s\n%s\n%s\n", header, line,
			subtleStyle.Render(fmt.Sprintf("took %s", s.Elapsed.Round(time.Millisecond))))
	case failed:
		return fmt.Sprintf("%s\n%s %v\n", header, errorStyle.Render("Transfer failed:"), m.err)
	default:
		return header
	}
}

// progressView shows a bar when the total size is known (tsize negotiated)
// and falls back to a plain byte counter otherwise.
func (m Model) progressView() string {
	if m.total > 0 {
		pct := float64(m.transferred) / float64(m.total)
		if pct > 1 {
			pct = 1
		}
		counts := subtleStyle.Render(fmt.Sprintf("%s / %s",
			util.FormatSize(m.transferred), util.FormatSize(m.total)))
		return m.progress.ViewAs(pct) + "\n" + counts
	}
	return fmt.Sprintf("%s %s received",
		m.spinner.View(), util.FormatSize(m.transferred))
}
