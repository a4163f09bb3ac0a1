package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/lukemcguire/pepcensus/config"
	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/httpcache"
	"github.com/lukemcguire/pepcensus/logging"
	"github.com/lukemcguire/pepcensus/result"
	"github.com/lukemcguire/pepcensus/telemetry"
)

const serviceName = "pepcensus"

// env is everything a mode needs, built once per invocation.
type env struct {
	cfg     config.Config
	opts    *options
	logger  *slog.Logger
	session *crawler.Session
	stdout  io.Writer

	// progressView is set when the terminal belongs to the progress view
	// and log records go to the log file only.
	progressView bool

	closers []func(context.Context) error
}

// newEnv loads configuration, applies flag overrides and opens the shared
// resources. progressView asks to keep log records off the terminal so the
// progress view can own it; that is only granted when a log file receives
// the records instead.
func newEnv(cmd *cobra.Command, opts *options, progressView bool) (*env, error) {
	ctx := cmd.Context()

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	applyFlags(cmd, opts, &cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	e := &env{
		cfg:          cfg,
		opts:         opts,
		stdout:       cmd.OutOrStdout(),
		progressView: progressView && logging.FileEnabled(cfg.Log.File),
	}

	logOpts := logging.Options{
		Level:   cfg.Log.Level,
		Format:  cfg.Log.Format,
		File:    cfg.Log.File,
		NoColor: !isTerminal(cmd.ErrOrStderr()),
	}
	if !e.progressView {
		logOpts.Console = cmd.ErrOrStderr()
	}
	logger, logCloser, err := logging.Setup(logOpts)
	if err != nil {
		return nil, err
	}
	e.logger = logger.With("mode", cmd.Name())
	e.closers = append(e.closers, func(context.Context) error { return logCloser.Close() })
	if progressView && !e.progressView {
		e.logger.InfoContext(ctx, "progress view disabled, log file is off")
	}

	tel, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		_ = e.close(ctx)
		return nil, fmt.Errorf("setup telemetry: %w", err)
	}
	e.closers = append(e.closers, tel.Shutdown)

	var cache *httpcache.Store
	if !cfg.Cache.Disabled {
		cache, err = httpcache.Open(cfg.Cache.Path, cfg.Cache.TTL.Std(), e.logger)
		if err != nil {
			_ = e.close(ctx)
			return nil, err
		}
		e.closers = append(e.closers, func(context.Context) error { return cache.Close() })

		if opts.clearCache {
			if err := clearCache(ctx, e.logger, cache, cfg.Cache.Path); err != nil {
				_ = e.close(ctx)
				return nil, err
			}
		}
	} else if opts.clearCache {
		e.logger.WarnContext(ctx, "cache is disabled, nothing to clear")
	}

	e.session = crawler.NewSession(cfg.Session(), e.logger, cache)
	e.logger.InfoContext(ctx, "pepcensus started",
		"output", opts.output,
		"concurrency", cfg.Concurrency,
		"cache", !cfg.Cache.Disabled,
	)
	return e, nil
}

func clearCache(ctx context.Context, logger *slog.Logger, cache *httpcache.Store, path string) error {
	entries, err := cache.Len(ctx)
	if err != nil {
		return err
	}
	if err := cache.Clear(ctx); err != nil {
		return err
	}
	logger.InfoContext(ctx, "cache cleared", "path", path, "entries", entries)
	return nil
}

// applyFlags overrides cfg with the flags given on the command line.
func applyFlags(cmd *cobra.Command, opts *options, cfg *config.Config) {
	flags := cmd.Flags()
	if flags.Changed("concurrency") {
		cfg.Concurrency = opts.concurrency
	}
	if flags.Changed("rate-limit") {
		cfg.RateLimit = opts.rateLimit
	}
	if flags.Changed("retries") {
		retries := opts.retries
		cfg.Retries = &retries
	}
	if flags.Changed("retry-delay") {
		cfg.RetryDelay = config.Duration(opts.retryDelay)
	}
	if flags.Changed("user-agent") {
		cfg.UserAgent = opts.userAgent
	}
}

// close releases resources in reverse order of acquisition.
func (e *env) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	var errs []error
	for i := len(e.closers) - 1; i >= 0; i-- {
		errs = append(errs, e.closers[i](ctx))
	}
	e.closers = nil
	return errors.Join(errs...)
}

// finish logs the end of a run and closes the environment.
func (e *env) finish(ctx context.Context, runErr error) error {
	if runErr != nil {
		e.logger.ErrorContext(ctx, "pepcensus failed", "error", runErr)
	} else {
		e.logger.InfoContext(ctx, "pepcensus finished")
	}
	return errors.Join(runErr, e.close(ctx))
}

// writeReport renders report in the selected output mode.
func (e *env) writeReport(ctx context.Context, report *result.Report) error {
	switch e.opts.output {
	case OutputPretty:
		result.PrintPretty(e.stdout, report)
	case OutputFile:
		path, err := result.SaveCSV(e.cfg.ResultsDir, report, time.Now())
		if err != nil {
			return err
		}
		e.logger.InfoContext(ctx, "results saved", "path", path)
	case OutputJSON:
		return result.WriteJSON(e.stdout, report)
	default:
		result.PrintResults(e.stdout, report)
	}
	return nil
}
