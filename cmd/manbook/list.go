package main

import (
	"fmt"

	"github.com/canonical/manbook/internal/lister"
)

// ListCmd is the "list" subcommand.
type ListCmd struct {
	Versions bool `short:"v" help:"Also print version and repository"`
}

// Run executes the list command.
func (c *ListCmd) Run(deps *Dependencies) error {
	l := lister.New(deps.Config.ListCommand, deps.Config.ListTimeout)
	l.Logger = deps.Logger

	packages, err := l.List(deps.Ctx)
	if err != nil {
		return err
	}
	for _, pkg := range packages {
		if c.Versions {
			fmt.Fprintf(deps.Stdout, "%s\t%s\t%s\n", pkg.Name, pkg.Version, pkg.Repo)
			continue
		}
		fmt.Fprintln(deps.Stdout, pkg.Name)
	}
	return nil
}
