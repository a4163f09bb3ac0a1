// Package cli is the pepcensus command tree: one subcommand per crawl mode,
// sharing configuration, logging, telemetry, the response cache and the
// HTTP session.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
)

// Output modes accepted by --output.
const (
	OutputPretty = "pretty"
	OutputFile   = "file"
	OutputJSON   = "json"
)

type options struct {
	configPath  string
	clearCache  bool
	output      string
	noProgress  bool
	concurrency int
	rateLimit   int
	retries     int
	retryDelay  time.Duration
	userAgent   string
}

// NewRootCmd builds the command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "pepcensus",
		Short: "pepcensus crawls peps.python.org and docs.python.org and reports what it finds.",
		Long: "pepcensus cross-checks the status of every PEP on the index page against the PEP's own page\n" +
			"and tallies the statuses. It can also list the What's New articles and documentation\n" +
			"versions of docs.python.org and download the A4 PDF documentation archive.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			switch opts.output {
			case "", OutputPretty, OutputFile, OutputJSON:
				return nil
			default:
				return fmt.Errorf("invalid --output %q: want %s, %s or %s", opts.output, OutputPretty, OutputFile, OutputJSON)
			}
		},
	}

	bindFlags(root, opts)

	root.AddCommand(
		newPepCmd(opts),
		newWhatsNewCmd(opts),
		newLatestVersionsCmd(opts),
		newDownloadCmd(opts),
	)
	return root
}

// bindFlags registers the flags every mode shares.
func bindFlags(cmd *cobra.Command, opts *options) {
	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default pepcensus.json5)")
	flags.BoolVarP(&opts.clearCache, "clear-cache", "c", false, "clear the response cache before crawling")
	flags.StringVarP(&opts.output, "output", "o", "", "output mode: pretty, file or json (default plain table)")
	flags.BoolVar(&opts.noProgress, "no-progress", false, "disable the interactive progress view")
	flags.IntVar(&opts.concurrency, "concurrency", 1, "detail pages fetched ahead of the reconciler")
	flags.IntVar(&opts.rateLimit, "rate-limit", 10, "requests per second")
	flags.IntVar(&opts.retries, "retries", 2, "number of retries for transient errors")
	flags.DurationVar(&opts.retryDelay, "retry-delay", time.Second, "base delay between retries")
	flags.StringVar(&opts.userAgent, "user-agent", "", "user agent string")
}

// ExecuteContext runs the command tree and returns the process exit code.
// An interrupt cancels ctx so a crawl in progress stops between pages.
func ExecuteContext(ctx context.Context) int {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	root := NewRootCmd()
	if err := root.ExecuteContext(ctx); err != nil {
		if errors.Is(err, context.Canceled) {
			fmt.Fprintln(root.ErrOrStderr(), "interrupted")
		} else {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
		return 1
	}
	return 0
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
