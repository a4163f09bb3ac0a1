package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/pep"
)

// CrawlProgressMsg carries one progress event from the workflow.
type CrawlProgressMsg struct {
	Event crawler.CrawlEvent
}

// CrawlDoneMsg signals the workflow has returned.
type CrawlDoneMsg struct {
	Result *pep.Result
	Err    error
}

// progressClosedMsg is sent once the workflow closes the progress channel.
// The outcome arrives separately as a CrawlDoneMsg.
type progressClosedMsg struct{}

// waitForProgress returns a tea.Cmd that reads one event from the progress
// channel.
func waitForProgress(ch <-chan crawler.CrawlEvent) tea.Cmd {
	return func() tea.Msg {
		evt, ok := <-ch
		if !ok {
			return progressClosedMsg{}
		}
		return CrawlProgressMsg{Event: evt}
	}
}
