package main

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/fatih/color"

	"github.com/canonical/manbook/internal/config"
	"github.com/canonical/manbook/internal/document"
	"github.com/canonical/manbook/internal/lister"
	"github.com/canonical/manbook/internal/logging"
	"github.com/canonical/manbook/internal/manpage"
	"github.com/canonical/manbook/internal/metrics"
	"github.com/canonical/manbook/internal/pipeline"
	"github.com/canonical/manbook/internal/progress"
	"github.com/canonical/manbook/internal/storage"
)

// BuildCmd is the "build" subcommand. Flags override the config file.
type BuildCmd struct {
	Concurrency int           `short:"j" help:"Concurrent man page fetches (default: number of CPUs)"`
	Output      string        `short:"o" help:"Output document path"`
	Format      string        `help:"Document format (pdf, txt, html); inferred from the output extension when unset"`
	Timeout     time.Duration `help:"Per-package fetch timeout"`
	Progress    string        `help:"Progress display (auto, tui, log, off)"`
	FailuresLog string        `help:"Write one line per failed package to this file"`
	MetricsFile string        `help:"Write Prometheus metrics to this textfile"`
	Title       string        `help:"Document title"`
}

func (c *BuildCmd) apply(cfg *config.Config) {
	if c.Concurrency != 0 {
		cfg.Concurrency = c.Concurrency
	}
	if c.Output != "" {
		cfg.Output = c.Output
	}
	if c.Format != "" {
		cfg.Format = c.Format
	}
	if c.Timeout != 0 {
		cfg.FetchTimeout = c.Timeout
	}
	if c.Progress != "" {
		cfg.Progress = c.Progress
	}
	if c.FailuresLog != "" {
		cfg.FailuresLog = c.FailuresLog
	}
	if c.MetricsFile != "" {
		cfg.MetricsFile = c.MetricsFile
	}
	if c.Title != "" {
		cfg.Title = c.Title
	}
}

// Run executes the build command.
func (c *BuildCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	c.apply(cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger := deps.Logger

	writer, err := document.NewWriter(cfg.DocumentFormat())
	if err != nil {
		return err
	}

	counters := &progress.Counters{}
	recorder := metrics.NewRecorder()

	l := lister.New(cfg.ListCommand, cfg.ListTimeout)
	l.Progress = counters
	l.Logger = logger

	fetcher := manpage.NewFetcher(cfg.ManCommand, cfg.FetchTimeout)
	fetcher.Grace = cfg.GracePeriod
	fetcher.Width = cfg.Layout.Width

	runner := &pipeline.Runner{
		Lister: l,
		Pool: &pipeline.Pool{
			Fetcher:  fetcher,
			Limit:    cfg.Concurrency,
			Grace:    cfg.GracePeriod,
			Progress: counters,
			Metrics:  recorder,
			Logger:   logger,
		},
		Builder:      document.NewBuilder(cfg.Title, layoutFromConfig(cfg)),
		Writer:       writer,
		Storage:      storage.NewFSStorage(""),
		OutputPath:   cfg.Output,
		FailuresPath: cfg.FailuresLog,
		MetricsFile:  cfg.MetricsFile,
		Metrics:      recorder,
		Progress:     counters,
		Logger:       logger,
	}

	mode, err := progress.ResolveMode(cfg.Progress, deps.Terminal)
	if err != nil {
		return err
	}
	reporter, err := progress.New(counters, progress.Options{
		Mode:   mode,
		Title:  cfg.Title,
		Out:    deps.Terminal,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	release := holdLogs(deps.LogOut, mode)
	reporter.Start()
	summary, err := runner.Run(deps.Ctx)
	reporter.Stop()
	release()

	if err != nil && !errors.Is(err, pipeline.ErrInterrupted) {
		return err
	}
	printSummary(deps.Stdout, summary, err != nil)
	return err
}

// holdLogs buffers log output while the tui display owns the terminal and
// returns the function that flushes it.
func holdLogs(out *logging.HeldWriter, mode string) func() {
	if out == nil || mode != "tui" {
		return func() {}
	}
	out.Hold()
	return func() { _ = out.Release() }
}

func layoutFromConfig(cfg *config.Config) document.Layout {
	return document.Layout{
		Width:               cfg.Layout.Width,
		Height:              cfg.Layout.Height,
		CompactPlaceholders: cfg.Layout.CompactPlaceholders,
	}
}

func printSummary(w io.Writer, s pipeline.Summary, interrupted bool) {
	bold := color.New(color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	if interrupted {
		fmt.Fprintln(w, red("Interrupted: the document is incomplete."))
	}
	fmt.Fprintf(w, "%s %s (%d pages)\n", bold("Wrote"), s.Output, s.Pages)
	fmt.Fprintf(w, "  packages: %d  found: %s  missing: %s  errors: %s  in %s\n",
		s.Total, green(s.Found), yellow(s.Missing), red(s.Errors), s.Duration.Round(time.Millisecond))
}
