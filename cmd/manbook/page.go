package main

import (
	"fmt"
	"time"

	"github.com/canonical/manbook/internal/document"
	"github.com/canonical/manbook/internal/lister"
	"github.com/canonical/manbook/internal/logging"
	"github.com/canonical/manbook/internal/manpage"
)

// PageCmd is the "page" subcommand.
type PageCmd struct {
	Name    string        `arg:"" help:"Package name"`
	Timeout time.Duration `help:"Fetch timeout"`
}

// Run fetches a single man page and prints its section body lines.
func (c *PageCmd) Run(deps *Dependencies) error {
	cfg := deps.Config
	timeout := cfg.FetchTimeout
	if c.Timeout != 0 {
		timeout = c.Timeout
	}

	fetcher := manpage.NewFetcher(cfg.ManCommand, timeout)
	fetcher.Grace = cfg.GracePeriod
	fetcher.Width = cfg.Layout.Width

	entry := fetcher.Fetch(deps.Ctx, c.Name)
	deps.Logger.Debug("fetched", logging.KeyPackage, c.Name, logging.KeyStatus, entry.Status.String())

	doc := document.NewBuilder(cfg.Title, layoutFromConfig(cfg)).Build(
		[]lister.Package{{Name: c.Name}},
		map[string]manpage.Entry{c.Name: entry},
		time.Now(),
	)
	for _, page := range doc.Pages {
		if page.Kind != document.PageSection {
			continue
		}
		for _, line := range page.Lines {
			fmt.Fprintln(deps.Stdout, line.Text)
		}
	}

	if entry.Status == manpage.StatusError {
		return fmt.Errorf("fetch %s: %s", c.Name, entry.Reason)
	}
	return nil
}
