package pep

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/lukemcguire/pepcensus/crawler"
	"github.com/lukemcguire/pepcensus/result"
	"github.com/lukemcguire/pepcensus/urlutil"
)

// ErrIndexUnavailable is returned when the index page cannot be fetched.
var ErrIndexUnavailable = errors.New("pep index unavailable")

var tracer = otel.Tracer("pepcensus/pep")

// Config controls a workflow run.
type Config struct {
	BaseURL     string // index page; PEP links resolve against it
	Concurrency int    // detail pages fetched ahead of the reconciler; 1 or less is sequential
}

// Result is the outcome of a completed run.
type Result struct {
	Report          *result.Report
	Tally           *Tally
	Stats           Stats
	Reconciliations []Reconciliation // one per index entry, in index order
	Duration        time.Duration
}

// Workflow fetches the index, then every PEP page it lists, and reconciles
// the two statuses. Entries are always reconciled and logged in index
// order, whatever the concurrency.
type Workflow struct {
	cfg        Config
	fetcher    crawler.Fetcher
	logger     *slog.Logger
	categories Categories
}

// NewWorkflow creates a workflow. A workflow holds no per-run state and may
// be run any number of times.
func NewWorkflow(cfg Config, fetcher crawler.Fetcher, logger *slog.Logger) *Workflow {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Workflow{
		cfg:        cfg,
		fetcher:    fetcher,
		logger:     logger,
		categories: KnownCategories(),
	}
}

type fetched struct {
	page *crawler.Page
	err  error
}

// Run executes the workflow. A missing index page yields
// ErrIndexUnavailable, and a page missing a required element yields an
// error wrapping htmlutil.ErrElementNotFound; in both cases no report is
// produced. Unreachable PEP pages are logged and skipped.
//
// progress may be nil; otherwise Run sends one event for the index and one
// per entry, and closes progress when it returns.
func (w *Workflow) Run(ctx context.Context, progress chan<- crawler.CrawlEvent) (res *Result, err error) {
	if progress != nil {
		defer close(progress)
	}

	ctx, span := tracer.Start(ctx, "pep.Run")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	start := time.Now()

	base, err := urlutil.ParseBase(w.cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	indexURL := base.String()

	indexPage := crawler.Get(ctx, w.logger, w.fetcher, indexURL)
	if indexPage == nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%w: %s", ErrIndexUnavailable, indexURL)
	}
	doc, err := indexPage.Document()
	if err != nil {
		return nil, err
	}
	entries, err := ParseIndex(doc, base)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", indexURL, err)
	}
	span.SetAttributes(attribute.Int("pep.entries", len(entries)))

	reconciler := NewReconciler(w.logger, w.categories)
	run := &runState{
		workflow:        w,
		reconciler:      reconciler,
		progress:        progress,
		total:           len(entries),
		reconciliations: make([]Reconciliation, 0, len(entries)),
	}
	rate, rtt := w.pace()
	run.emit(ctx, crawler.CrawlEvent{URL: indexURL, Total: len(entries), Rate: rate, RTT: rtt})

	if w.cfg.Concurrency > 1 {
		err = w.prefetch(ctx, entries, run)
	} else {
		err = w.sequential(ctx, entries, run)
	}
	if err != nil {
		return nil, err
	}

	stats := reconciler.Stats()
	span.SetAttributes(
		attribute.Int("pep.mismatches", stats.Mismatches),
		attribute.Int("pep.rejected", stats.Rejected),
		attribute.Int("pep.skipped", stats.Skipped),
	)

	return &Result{
		Report:          reconciler.Tally().Report(),
		Tally:           reconciler.Tally(),
		Stats:           stats,
		Reconciliations: run.reconciliations,
		Duration:        time.Since(start),
	}, nil
}

func (w *Workflow) sequential(ctx context.Context, entries []IndexEntry, run *runState) error {
	for _, entry := range entries {
		page, err := w.fetcher.FetchPage(ctx, entry.DetailURL)
		if err := run.handle(ctx, entry, fetched{page: page, err: err}); err != nil {
			return err
		}
	}
	return nil
}

// prefetch fetches up to Concurrency pages ahead while the reconciler
// consumes results strictly in index order. Each entry gets its own
// single-slot channel, so fetch completion order never leaks into the logs
// or the progress stream.
func (w *Workflow) prefetch(ctx context.Context, entries []IndexEntry, run *runState) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	slots := make([]chan fetched, len(entries))
	for i := range slots {
		slots[i] = make(chan fetched, 1)
	}

	var g errgroup.Group
	g.SetLimit(w.cfg.Concurrency)

	feederDone := make(chan struct{})
	go func() {
		defer close(feederDone)
		for i, entry := range entries {
			if ctx.Err() != nil {
				return
			}
			g.Go(func() error {
				page, err := w.fetcher.FetchPage(ctx, entry.DetailURL)
				slots[i] <- fetched{page: page, err: err}
				return nil
			})
		}
	}()

	stop := func() {
		cancel()
		<-feederDone
		_ = g.Wait()
	}

	for i, entry := range entries {
		var f fetched
		select {
		case f = <-slots[i]:
		case <-ctx.Done():
			stop()
			return ctx.Err()
		}
		if err := run.handle(ctx, entry, f); err != nil {
			stop()
			return err
		}
	}
	stop()
	return nil
}

// runState carries the per-run bookkeeping shared by both fetch strategies.
type runState struct {
	workflow        *Workflow
	reconciler      *Reconciler
	progress        chan<- crawler.CrawlEvent
	total           int
	reconciliations []Reconciliation
}

func (r *runState) handle(ctx context.Context, entry IndexEntry, f fetched) error {
	w := r.workflow
	evt := crawler.CrawlEvent{URL: entry.DetailURL}

	if f.err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		crawler.LogFetchFailure(ctx, w.logger, entry.DetailURL, f.err)
		r.reconciliations = append(r.reconciliations, r.reconciler.Skip(ctx, entry))
		evt.Error = f.err.Error()
		evt.ErrorCategory = result.ClassifyError(f.err)
		r.report(ctx, evt)
		return nil
	}

	doc, err := f.page.Document()
	if err != nil {
		return err
	}
	detail, err := ParseDetail(doc, entry.DetailURL)
	if err != nil {
		return fmt.Errorf("%s: %w", entry.DetailURL, err)
	}

	r.reconciliations = append(r.reconciliations, r.reconciler.Reconcile(ctx, entry, detail))
	evt.FromCache = f.page.FromCache
	r.report(ctx, evt)
	return nil
}

func (r *runState) report(ctx context.Context, evt crawler.CrawlEvent) {
	stats := r.reconciler.Stats()
	evt.Checked = stats.Processed
	evt.Total = r.total
	evt.Mismatches = stats.Mismatches
	evt.Rejected = stats.Rejected
	evt.Skipped = stats.Skipped
	evt.Rate, evt.RTT = r.workflow.pace()
	r.emit(ctx, evt)
}

func (r *runState) emit(ctx context.Context, evt crawler.CrawlEvent) {
	if r.progress == nil {
		return
	}
	select {
	case r.progress <- evt:
	case <-ctx.Done():
	}
}

// pace reports the fetcher's current request rate and smoothed response
// time when it exposes a limiter, as crawler.Session does.
func (w *Workflow) pace() (int, time.Duration) {
	l, ok := w.fetcher.(interface {
		Limiter() *crawler.AdaptiveLimiter
	})
	if !ok || l.Limiter() == nil {
		return 0, 0
	}
	return l.Limiter().CurrentRate(), l.Limiter().CurrentEMA()
}
