package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/docs"
	"github.com/lukemcguire/pepcensus/pep"
	"github.com/lukemcguire/pepcensus/result"
	"github.com/lukemcguire/pepcensus/tui"
)

func newPepCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "pep",
		Short: "Cross-check PEP statuses and tally them by category.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			interactive := !opts.noProgress && isTerminal(cmd.OutOrStdout())

			e, err := newEnv(cmd, opts, interactive)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			var res *pep.Result
			if e.progressView {
				res, err = runPepInteractive(ctx, e)
			} else {
				res, err = newWorkflow(e).Run(ctx, nil)
			}
			if err == nil {
				err = e.writeReport(ctx, res.Report)
			}
			return e.finish(ctx, err)
		},
	}
}

func newWorkflow(e *env) *pep.Workflow {
	return pep.NewWorkflow(pep.Config{
		BaseURL:     e.cfg.PepURL,
		Concurrency: e.cfg.Concurrency,
	}, e.session, e.logger)
}

// runPepInteractive runs the workflow under the Bubble Tea progress view.
func runPepInteractive(ctx context.Context, e *env) (*pep.Result, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	progressCh := make(chan crawler.CrawlEvent, 100)
	wf := newWorkflow(e)
	run := func(ctx context.Context) (*pep.Result, error) {
		return wf.Run(ctx, progressCh)
	}

	model := tui.NewModel(ctx, cancel, run, progressCh)
	final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("progress view: %w", err)
	}

	m := final.(tui.Model)
	if m.Interrupted() {
		return nil, context.Canceled
	}
	return m.Result(), m.Err()
}

func newWhatsNewCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "whats-new",
		Short: "List the What's New articles with their titles and authors.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocsReport(cmd, opts, (*docs.Client).WhatsNew)
		},
	}
}

func newLatestVersionsCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "latest-versions",
		Short: "List the documented Python versions and their status.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDocsReport(cmd, opts, (*docs.Client).LatestVersions)
		},
	}
}

func runDocsReport(cmd *cobra.Command, opts *options, mode func(*docs.Client, context.Context) (*result.Report, error)) error {
	e, err := newEnv(cmd, opts, false)
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	client, err := docs.NewClient(e.cfg.DocsURL, e.session, e.logger)
	if err != nil {
		return e.finish(ctx, err)
	}
	report, err := mode(client, ctx)
	if err == nil {
		err = e.writeReport(ctx, report)
	}
	return e.finish(ctx, err)
}

func newDownloadCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "download",
		Short: "Download the A4 PDF documentation archive.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := newEnv(cmd, opts, false)
			if err != nil {
				return err
			}
			ctx := cmd.Context()

			client, err := docs.NewClient(e.cfg.DocsURL, e.session, e.logger)
			if err != nil {
				return e.finish(ctx, err)
			}
			path, err := client.Download(ctx, e.cfg.DownloadsDir)
			if err == nil {
				fmt.Fprintln(e.stdout, path)
			}
			return e.finish(ctx, err)
		},
	}
}
