package lister

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	debversion "pault.ag/go/debian/version"

	"github.com/canonical/manbook/internal/progress"
)

// ErrEmptyListing is returned when the package manager advertised nothing.
var ErrEmptyListing = errors.New("package listing is empty")

// ListingError wraps any failure to obtain the package listing. It is
// fatal for a run: without a listing there is nothing to document.
type ListingError struct{ Err error }

func (e *ListingError) Error() string { return "list packages: " + e.Err.Error() }
func (e *ListingError) Unwrap() error { return e.Err }

// Package is one catalog entry. Version and Repo are empty when the
// listing format does not carry them.
type Package struct {
	Name    string
	Version string
	Repo    string
}

type Lister struct {
	Command  []string
	Timeout  time.Duration
	Progress *progress.Counters
	Logger   *slog.Logger
}

func New(command []string, timeout time.Duration) *Lister {
	return &Lister{Command: command, Timeout: timeout}
}

// List runs the listing command and parses its output. Any failure,
// including an empty listing, is returned as *ListingError.
func (l *Lister) List(ctx context.Context) ([]Package, error) {
	if len(l.Command) == 0 {
		return nil, &ListingError{Err: errors.New("no listing command configured")}
	}
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	if l.Logger != nil {
		l.Logger.Info("fetching package list", "command", strings.Join(l.Command, " "))
	}

	cmd := exec.CommandContext(ctx, l.Command[0], l.Command[1:]...)
	cmd.WaitDelay = 5 * time.Second
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			err = fmt.Errorf("%w: %w", err, ctx.Err())
		}
		return nil, &ListingError{Err: fmt.Errorf("%s failed: %w: %s", l.Command[0], err, strings.TrimSpace(stderr.String()))}
	}

	l.Progress.SetExpected(countCandidates(stdout.Bytes()))

	packages, err := Parse(&stdout, l.Progress.Discover)
	if err != nil {
		return nil, &ListingError{Err: err}
	}
	if len(packages) == 0 {
		return nil, &ListingError{Err: ErrEmptyListing}
	}
	l.Progress.SetExpected(len(packages))

	if l.Logger != nil {
		l.Logger.Info("parsed package list", "count", len(packages))
	}
	return packages, nil
}

// Parse reads a line-oriented listing. Each record line yields one
// package; the name is everything before the first "/" of the first
// field. Names keep their first position; for duplicates the greatest
// version wins. onNew, if non-nil, is called once per unique name.
func Parse(r io.Reader, onNew func()) ([]Package, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	index := map[string]int{}
	var results []Package

	for scanner.Scan() {
		pkg, ok := parseLine(scanner.Text())
		if !ok {
			continue
		}
		if i, seen := index[pkg.Name]; seen {
			if versionGreater(pkg.Version, results[i].Version) {
				results[i].Version = pkg.Version
				results[i].Repo = pkg.Repo
			}
			continue
		}
		index[pkg.Name] = len(results)
		results = append(results, pkg)
		if onNew != nil {
			onNew()
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan package list: %w", err)
	}
	return results, nil
}

func parseLine(line string) (Package, bool) {
	line = strings.TrimSpace(line)
	if line == "" || isHeader(line) {
		return Package{}, false
	}

	fields := strings.Fields(line)
	name, repo, hasRepo := strings.Cut(fields[0], "/")
	if name == "" || strings.ContainsFunc(name, isControl) {
		return Package{}, false
	}

	pkg := Package{Name: name}
	if hasRepo {
		pkg.Repo, _, _ = strings.Cut(repo, ",")
		if len(fields) > 1 {
			pkg.Version = fields[1]
		}
	}
	return pkg, true
}

func isHeader(line string) bool {
	return strings.HasPrefix(line, "Listing...") ||
		strings.HasPrefix(line, "WARNING:") ||
		line == "Done"
}

func isControl(r rune) bool { return r < 0x20 || r == 0x7f }

func countCandidates(out []byte) int {
	var n int
	for line := range bytes.SplitSeq(out, []byte("\n")) {
		if s := strings.TrimSpace(string(line)); s != "" && !isHeader(s) {
			n++
		}
	}
	return n
}

func versionGreater(left string, right string) bool {
	if left == "" {
		return false
	}
	if right == "" {
		return true
	}
	l, err := debversion.Parse(left)
	if err != nil {
		return false
	}
	r, err := debversion.Parse(right)
	if err != nil {
		return false
	}
	return debversion.Compare(l, r) > 0
}
