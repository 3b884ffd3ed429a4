package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/canonical/manbook/internal/lister"
	"github.com/canonical/manbook/internal/logging"
	"github.com/canonical/manbook/internal/pipeline"
)

const fakeListing = `#!/bin/sh
echo "Listing..."
echo "bash/stable 5.2.37 aarch64"
echo "coreutils/stable 9.5 aarch64"
echo "nothing/stable 1.0 all"
echo "broken/stable 1.0 all"
echo "bash/stable 5.2.32 aarch64"
`

const fakeMan = `#!/bin/sh
case "$2" in
bash) printf 'BASH(1)\n\nNAME\n       bash - GNU Bourne-Again SHell\n' ;;
coreutils) printf 'NAME\n       coreutils - basic tools\n' ;;
broken) echo "troff: fatal error" >&2; exit 3 ;;
*) echo "No manual entry for $2" >&2; exit 16 ;;
esac
`

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type fixture struct {
	dir    string
	config string
}

func newFixture(t *testing.T, listing string) fixture {
	t.Helper()
	dir := t.TempDir()
	write := func(name, content string, mode os.FileMode) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), mode))
		return path
	}
	list := write("fake-pkg", listing, 0o755)
	man := write("fake-man", fakeMan, 0o755)
	cfg := write("manbook.yaml", fmt.Sprintf(`
title: Test Catalog
output: %s
list_command: [%s]
man_command: [%s]
progress: "off"
concurrency: 2
layout:
  width: 60
  height: 20
`, filepath.Join(dir, "book.txt"), list, man), 0o644)
	return fixture{dir: dir, config: cfg}
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	err := NewMain().Run(context.Background(), args, &stdout, &stderr)
	return stdout.String(), stderr.String(), err
}

func TestHelpListsCommands(t *testing.T) {
	stdout, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, cmd := range []string{"build", "list", "page"} {
		assert.Contains(t, stdout, cmd)
	}
	assert.Contains(t, stdout, "Usage:")
}

func TestBuildWritesDocument(t *testing.T) {
	fx := newFixture(t, fakeListing)
	failures := filepath.Join(fx.dir, "failures.log")
	metricsFile := filepath.Join(fx.dir, "manbook.prom")

	stdout, stderr, err := run(t, "--config", fx.config, "build",
		"--failures-log", failures, "--metrics-file", metricsFile)
	require.NoError(t, err)

	assert.Contains(t, stdout, "Wrote "+filepath.Join(fx.dir, "book.txt"))
	assert.Contains(t, stdout, "packages: 4  found: 2  missing: 1  errors: 1")
	assert.Contains(t, stderr, "run_id=")

	raw, err := os.ReadFile(filepath.Join(fx.dir, "book.txt"))
	require.NoError(t, err)
	book := string(raw)
	assert.Contains(t, book, "Test Catalog")
	assert.Contains(t, book, "bash 5.2.37")
	assert.Contains(t, book, "bash - GNU Bourne-Again SHell")
	assert.Contains(t, book, "No man page available.")
	assert.Contains(t, strings.Join(strings.Fields(book), " "), "Man page could not be retrieved: exit status 3: troff: fatal error")

	order := []string{"\nbash 5.2.37\n", "\ncoreutils 9.5\n", "\nnothing 1.0\n", "\nbroken 1.0\n"}
	last := -1
	for _, heading := range order {
		i := strings.Index(book, heading)
		require.Greater(t, i, last, heading)
		last = i
	}

	log, err := os.ReadFile(failures)
	require.NoError(t, err)
	assert.Equal(t, "fetch broken: exit status 3: troff: fatal error\n", string(log))

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), "manbook_packages_listed 4")
}

func TestBuildIsDefaultCommand(t *testing.T) {
	fx := newFixture(t, fakeListing)
	out := filepath.Join(fx.dir, "book.html")

	_, _, err := run(t, "--config", fx.config, "-o", out)
	require.NoError(t, err)

	raw, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "<!DOCTYPE html>"))
}

func TestBuildEmptyListingFails(t *testing.T) {
	fx := newFixture(t, "#!/bin/sh\necho Listing...\n")

	_, _, err := run(t, "--config", fx.config, "build")
	var listingErr *lister.ListingError
	require.ErrorAs(t, err, &listingErr)
	assert.ErrorIs(t, err, lister.ErrEmptyListing)
	assert.Equal(t, 1, exitCode(err))

	_, statErr := os.Stat(filepath.Join(fx.dir, "book.txt"))
	assert.ErrorIs(t, statErr, os.ErrNotExist)
}

func TestBuildRejectsBadFlags(t *testing.T) {
	fx := newFixture(t, fakeListing)

	_, _, err := run(t, "--config", fx.config, "build", "--format", "docx")
	require.Error(t, err)

	_, _, err = run(t, "--config", fx.config, "build", "--progress", "fancy")
	require.Error(t, err)
}

func TestMissingExplicitConfig(t *testing.T) {
	_, _, err := run(t, "--config", filepath.Join(t.TempDir(), "absent.yaml"), "list")
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestListPrintsNames(t *testing.T) {
	fx := newFixture(t, fakeListing)

	stdout, _, err := run(t, "--config", fx.config, "list")
	require.NoError(t, err)
	assert.Equal(t, "bash\ncoreutils\nnothing\nbroken\n", stdout)

	stdout, _, err = run(t, "--config", fx.config, "list", "--versions")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stdout, "bash\t5.2.37\tstable\n"))
}

func TestPagePrintsSection(t *testing.T) {
	fx := newFixture(t, fakeListing)

	stdout, _, err := run(t, "--config", fx.config, "page", "coreutils")
	require.NoError(t, err)
	assert.Equal(t, "coreutils\n=========\n\nNAME\n       coreutils - basic tools\n", stdout)

	_, _, err = run(t, "--config", fx.config, "page", "broken")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 3")
}

func TestExitCode(t *testing.T) {
	assert.Equal(t, 0, exitCode(nil))
	assert.Equal(t, 1, exitCode(errors.New("boom")))
	assert.Equal(t, 130, exitCode(pipeline.ErrInterrupted))
	assert.Equal(t, 130, exitCode(fmt.Errorf("build: %w", pipeline.ErrInterrupted)))
}

func TestExitCodeListingCancelled(t *testing.T) {
	cancelled := &lister.ListingError{Err: fmt.Errorf("%w: %w", errors.New("signal: killed"), context.Canceled)}
	assert.Equal(t, 130, exitCode(cancelled))

	timedOut := &lister.ListingError{Err: fmt.Errorf("%w: %w", errors.New("signal: killed"), context.DeadlineExceeded)}
	assert.Equal(t, 1, exitCode(timedOut))
}

func TestBuildCancelledDuringListingExits130(t *testing.T) {
	fx := newFixture(t, "#!/bin/sh\nexec sleep 60\n")
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(200*time.Millisecond, cancel)

	var stdout, stderr bytes.Buffer
	err := NewMain().Run(ctx, []string{"--config", fx.config, "build"}, &stdout, &stderr)
	require.Error(t, err)
	assert.Equal(t, 130, exitCode(err))
}

func TestHoldLogsOnlyInTUIMode(t *testing.T) {
	for _, mode := range []string{"tui", "log", "off"} {
		t.Run(mode, func(t *testing.T) {
			var stderr bytes.Buffer
			out := logging.NewHeldWriter(&stderr)
			logger := logging.BuildLogger("info", "text", out)

			release := holdLogs(out, mode)
			logger.Warn("fetch failed", logging.KeyPackage, "broken")
			if mode == "tui" {
				assert.Empty(t, stderr.String())
			} else {
				assert.Contains(t, stderr.String(), "package=broken")
			}

			release()
			assert.Contains(t, stderr.String(), "package=broken")
		})
	}
	assert.NotPanics(t, func() { holdLogs(nil, "tui")() })
}
