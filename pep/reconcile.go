package pep

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

var meter = otel.Meter("pepcensus/pep")
var entriesCounter, _ = meter.Int64Counter("pep.entries", metric.WithDescription("PEP entries reconciled"))
var mismatchCounter, _ = meter.Int64Counter("pep.mismatches", metric.WithDescription("Index and page statuses that disagree"))
var unplannedCounter, _ = meter.Int64Counter("pep.unplanned", metric.WithDescription("Statuses outside the known categories"))
var skippedCounter, _ = meter.Int64Counter("pep.skipped", metric.WithDescription("Entries whose page could not be fetched"))

// Outcome is the terminal state of one entry.
type Outcome int

const (
	Skipped  Outcome = iota // detail page could not be fetched
	Tallied                 // counted under its category
	Rejected                // status outside the known categories
)

func (o Outcome) String() string {
	switch o {
	case Skipped:
		return "skipped"
	case Tallied:
		return "tallied"
	case Rejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Reconciliation is the result of checking one entry.
type Reconciliation struct {
	URL           string
	Summary       string // status from the index, set when Compared
	Authoritative string // status from the PEP page
	Compared      bool   // the index listed two codes, so the second was checked
	Agreed        bool
	Category      Category
	Outcome       Outcome
}

// Mismatched reports whether the index and page statuses disagreed.
func (r Reconciliation) Mismatched() bool {
	return r.Compared && !r.Agreed
}

// Stats counts entries by what happened to them.
type Stats struct {
	Processed  int
	Tallied    int
	Mismatches int
	Rejected   int
	Skipped    int
}

// Reconciler compares index and page statuses and owns the run's tally.
// It is not safe for concurrent use.
type Reconciler struct {
	tally  *Tally
	logger *slog.Logger
	stats  Stats
}

// NewReconciler creates a reconciler with a fresh tally over categories.
func NewReconciler(logger *slog.Logger, categories Categories) *Reconciler {
	return &Reconciler{
		tally:  NewTally(categories),
		logger: logger,
	}
}

// Reconcile checks entry against its page and tallies the page's status.
// The page status always decides the category, even when the index
// disagrees with it.
func (r *Reconciler) Reconcile(ctx context.Context, entry IndexEntry, detail DetailRecord) Reconciliation {
	rec := Reconciliation{
		URL:           detail.URL,
		Authoritative: detail.Status,
	}
	r.stats.Processed++
	entriesCounter.Add(ctx, 1)

	if len(entry.SummaryStatuses) == 2 {
		rec.Compared = true
		rec.Summary = entry.SummaryStatuses[1]
		rec.Agreed = rec.Summary == detail.Status
		if !rec.Agreed {
			r.stats.Mismatches++
			mismatchCounter.Add(ctx, 1)
			r.logger.ErrorContext(ctx, "status mismatch",
				"url", detail.URL,
				"detail_status", detail.Status,
				"summary_status", rec.Summary,
			)
		}
	}

	category, ok := CategoryOf(detail.Status)
	if !ok || !r.tally.Categories().Contains(category) {
		rec.Outcome = Rejected
		r.stats.Rejected++
		unplannedCounter.Add(ctx, 1, metric.WithAttributes(attribute.String("status", detail.Status)))
		r.logger.ErrorContext(ctx, "unplanned status",
			"url", detail.URL,
			"status", detail.Status,
		)
		return rec
	}

	r.tally.Increment(category)
	rec.Category = category
	rec.Outcome = Tallied
	r.stats.Tallied++
	return rec
}

// Skip records an entry whose page could not be fetched. The entry is not
// compared or tallied.
func (r *Reconciler) Skip(ctx context.Context, entry IndexEntry) Reconciliation {
	r.stats.Processed++
	r.stats.Skipped++
	entriesCounter.Add(ctx, 1)
	skippedCounter.Add(ctx, 1)
	return Reconciliation{URL: entry.DetailURL, Outcome: Skipped}
}

// Tally returns the run's tally.
func (r *Reconciler) Tally() *Tally {
	return r.tally
}

// Stats returns the counts so far.
func (r *Reconciler) Stats() Stats {
	return r.stats
}
