package pipeline

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/canonical/manbook/internal/logging"
	"github.com/canonical/manbook/internal/manpage"
	"github.com/canonical/manbook/internal/metrics"
	"github.com/canonical/manbook/internal/progress"
)

const notFetchedReason = manpage.ReasonNotFetched + ": " + manpage.ReasonInterrupted

// Fetcher retrieves one package's man page. *manpage.Fetcher satisfies it.
type Fetcher interface {
	Fetch(ctx context.Context, pkg string) manpage.Entry
}

// Pool fans fetches out over at most Limit concurrent workers.
type Pool struct {
	Fetcher  Fetcher
	Limit    int
	Grace    time.Duration
	Progress *progress.Counters
	Metrics  *metrics.Recorder
	Logger   *slog.Logger
}

// Run fetches every name and returns once all dispatched fetches have
// finished. When ctx is cancelled nothing new is started; fetches already
// running get Grace to finish before their context is cancelled too.
// Names that were never fetched are recorded as errors and Run returns
// ErrInterrupted alongside the partial results.
func (p *Pool) Run(ctx context.Context, names []string) (*Results, error) {
	results := newResults(names)
	logger := p.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	workCtx, cancelWork := context.WithCancel(context.WithoutCancel(ctx))
	defer cancelWork()
	stopGrace := context.AfterFunc(ctx, func() {
		if p.Grace <= 0 {
			cancelWork()
			return
		}
		logger.Warn("interrupted, waiting for running fetches", "grace", p.Grace)
		time.AfterFunc(p.Grace, cancelWork)
	})
	defer stopGrace()

	g := new(errgroup.Group)
	g.SetLimit(max(p.Limit, 1))

	for _, name := range results.order {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// The slot may have freed up after cancellation.
			if ctx.Err() != nil {
				return nil
			}
			start := time.Now()
			entry := p.Fetcher.Fetch(workCtx, name)
			elapsed := time.Since(start)

			results.set(name, entry)
			p.Metrics.ObserveFetch(entry.Status.String(), elapsed)
			p.Progress.Fetched()

			if entry.Status == manpage.StatusError {
				logger.Warn("fetch failed", logging.KeyPackage, name, logging.KeyReason, entry.Reason)
			} else {
				logger.Debug("fetched", logging.KeyPackage, name,
					logging.KeyStatus, entry.Status.String(), logging.KeyDuration, elapsed)
			}
			return nil
		})
	}
	_ = g.Wait()

	if ctx.Err() == nil {
		return results, nil
	}
	skipped, cut := 0, 0
	for _, name := range results.order {
		entry, ok := results.Get(name)
		switch {
		case !ok:
			results.set(name, manpage.Failed(name, notFetchedReason))
			skipped++
		case entry.Status == manpage.StatusError && (entry.Reason == manpage.ReasonInterrupted ||
			strings.HasPrefix(entry.Reason, manpage.ReasonNotFetched)):
			cut++
		}
	}
	if skipped == 0 && cut == 0 {
		// Everything in flight finished within the grace period.
		return results, nil
	}
	logger.Warn("fetching interrupted", "skipped", skipped, "cut_short", cut)
	return results, ErrInterrupted
}
