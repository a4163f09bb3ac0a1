// Package tui provides the Bubble Tea terminal UI for the pep crawl,
// displaying live progress and a styled tally once the run completes.
package tui

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/pep"
)

// RunFunc runs the workflow the UI reports on.
type RunFunc func(ctx context.Context) (*pep.Result, error)

// Model is the Bubble Tea model for the crawl TUI.
type Model struct {
	ctx        context.Context
	cancel     context.CancelFunc
	run        RunFunc
	spinner    spinner.Model
	progressCh <-chan crawler.CrawlEvent

	checked    int
	total      int
	mismatches int
	rejected   int
	skipped    int
	rate       int
	rtt        time.Duration
	current    string
	fromCache  bool

	quitting bool
	done     bool
	result   *pep.Result
	err      error
	width    int
}

// NewModel creates a TUI model that runs run and listens on progressCh,
// which run is expected to close when it returns.
func NewModel(ctx context.Context, cancel context.CancelFunc, run RunFunc, progressCh <-chan crawler.CrawlEvent) Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))
	return Model{
		ctx:        ctx,
		cancel:     cancel,
		run:        run,
		spinner:    spin,
		progressCh: progressCh,
	}
}

// Init starts the spinner, the workflow, and the progress listener concurrently.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, m.startCrawl(), waitForProgress(m.progressCh))
}

// startCrawl returns a tea.Cmd that runs the workflow and sends CrawlDoneMsg.
func (m Model) startCrawl() tea.Cmd {
	return func() tea.Msg {
		res, err := m.run(m.ctx)
		if err != nil {
			err = fmt.Errorf("pep crawl: %w", err)
		}
		return CrawlDoneMsg{Result: res, Err: err}
	}
}

// Update handles messages from the Bubble Tea runtime.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.quitting = true
			if m.cancel != nil {
				m.cancel()
			}
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case CrawlProgressMsg:
		evt := msg.Event
		m.checked = evt.Checked
		m.total = evt.Total
		m.mismatches = evt.Mismatches
		m.rejected = evt.Rejected
		m.skipped = evt.Skipped
		m.rate = evt.Rate
		m.rtt = evt.RTT
		m.current = evt.URL
		m.fromCache = evt.FromCache
		return m, waitForProgress(m.progressCh)

	case progressClosedMsg:
		return m, nil

	case CrawlDoneMsg:
		m.done = true
		m.result = msg.Result
		m.err = msg.Err
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// View renders the current TUI state.
func (m Model) View() string {
	if m.done && m.result != nil {
		return RenderSummary(m.result)
	}
	if m.done && m.err != nil {
		return errorStyle.Render("Error: "+m.err.Error()) + "\n"
	}
	if m.quitting {
		return dimStyle.Render("Stopping...") + "\n"
	}

	current := m.current
	if m.fromCache {
		current += " (cached)"
	}
	rate := ""
	if m.rate > 0 {
		rate = fmt.Sprintf(" at %d req/s", m.rate)
		if m.rtt > 0 {
			rate += fmt.Sprintf(" (~%s)", m.rtt.Round(time.Millisecond))
		}
	}
	return fmt.Sprintf("%s Checking PEPs... %d/%d, mismatches %d, rejected %d, skipped %d%s\n%s\n",
		m.spinner.View(), m.checked, m.total, m.mismatches, m.rejected, m.skipped, rate,
		dimStyle.Render("  "+current))
}

// Result returns the workflow result, or nil if the run failed or was
// interrupted.
func (m Model) Result() *pep.Result {
	return m.result
}

// Err returns the error the workflow ended with.
func (m Model) Err() error {
	return m.err
}

// Interrupted reports whether the user quit before the run finished.
func (m Model) Interrupted() bool {
	return m.quitting && !m.done
}
