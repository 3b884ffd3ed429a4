package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/canonical/manbook/internal/document"
	"github.com/canonical/manbook/internal/lister"
	"github.com/canonical/manbook/internal/logging"
	"github.com/canonical/manbook/internal/manpage"
	"github.com/canonical/manbook/internal/metrics"
	"github.com/canonical/manbook/internal/progress"
	"github.com/canonical/manbook/internal/storage"
)

// Lister produces the package catalog. *lister.Lister satisfies it.
type Lister interface {
	List(ctx context.Context) ([]lister.Package, error)
}

type Runner struct {
	Lister       Lister
	Pool         *Pool
	Builder      *document.Builder
	Writer       document.Writer
	Storage      *storage.FSStorage
	OutputPath   string
	FailuresPath string
	MetricsFile  string
	Metrics      *metrics.Recorder
	Progress     *progress.Counters
	Logger       *slog.Logger
	Now          func() time.Time
}

// Run lists the catalog, fetches every man page, and writes the document.
// A listing failure is returned as is (*lister.ListingError) and nothing
// is written. When ctx is cancelled the partial document is still written
// and ErrInterrupted is returned.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	if r.Lister == nil || r.Pool == nil || r.Builder == nil || r.Writer == nil || r.Storage == nil {
		return Summary{}, errors.New("pipeline runner missing dependencies")
	}
	logger := r.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	now := r.Now
	if now == nil {
		now = time.Now
	}
	started := now()

	packages, err := r.Lister.List(ctx)
	if err != nil {
		return Summary{}, err
	}

	names := make([]string, len(packages))
	for i, pkg := range packages {
		names[i] = pkg.Name
	}
	r.Progress.SetTotal(len(names))
	r.Metrics.SetPackagesListed(len(names))
	logger.Info("fetching man pages", "packages", len(names), "concurrency", max(r.Pool.Limit, 1))

	results, err := r.Pool.Run(ctx, names)
	interrupted := errors.Is(err, ErrInterrupted)
	if err != nil && !interrupted {
		return Summary{}, err
	}

	doc := r.Builder.Build(packages, results.Map(), started)
	r.Metrics.SetDocumentPages(len(doc.Pages))

	// The document is written even after an interrupt.
	writeCtx := context.WithoutCancel(ctx)
	err = r.Storage.WriteDocument(writeCtx, r.OutputPath, func(w io.Writer) error {
		return r.Writer.Write(w, doc)
	})
	if err != nil {
		return Summary{}, &WriteError{Err: fmt.Errorf("%s: %w", r.OutputPath, err)}
	}
	logger.Info("document written", logging.KeyPath, r.OutputPath, "pages", len(doc.Pages))

	r.writeFailures(writeCtx, logger, doc)

	if err := r.Metrics.WriteTextfile(r.MetricsFile); err != nil {
		// Non-fatal: the document is already in place.
		logger.Warn("metrics not written", logging.KeyPath, r.MetricsFile, logging.KeyError, err)
	}

	summary := Summary{
		Total:    doc.Summary.Total,
		Found:    doc.Summary.Found,
		Missing:  doc.Summary.Missing,
		Errors:   doc.Summary.Errors,
		Pages:    len(doc.Pages),
		Output:   r.OutputPath,
		Duration: now().Sub(started),
	}
	logger.Info("run complete",
		"total", summary.Total,
		"found", summary.Found,
		"missing", summary.Missing,
		"errors", summary.Errors,
		logging.KeyDuration, summary.Duration,
	)

	if interrupted {
		return summary, ErrInterrupted
	}
	return summary, nil
}

// writeFailures records one line per errored section. The file is
// replaced even when empty so a stale log never survives a clean run.
func (r *Runner) writeFailures(ctx context.Context, logger *slog.Logger, doc *document.Document) {
	if r.FailuresPath == "" {
		return
	}
	var lines []string
	for _, s := range doc.Sections {
		if s.Entry.Status == manpage.StatusError {
			lines = append(lines, fmt.Sprintf("fetch %s: %s", s.Package.Name, s.Entry.Reason))
		}
	}
	if err := r.Storage.WriteLines(ctx, r.FailuresPath, lines); err != nil {
		logger.Warn("failures log not written", logging.KeyPath, r.FailuresPath, logging.KeyError, err)
		return
	}
	if len(lines) > 0 {
		logger.Warn("run completed with failures", "count", len(lines), logging.KeyPath, r.FailuresPath)
	}
}
