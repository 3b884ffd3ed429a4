package manpage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeMan writes an executable shell script standing in for man(1).
func fakeMan(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fake-man")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0o755))
	return path
}

func TestFetchFound(t *testing.T) {
	script := fakeMan(t, `[ "$1" = "--" ] || exit 9
printf 'NAME\n\t%s manual\n\n' "$2"
`)
	f := NewFetcher([]string{script}, 5*time.Second)

	entry := f.Fetch(context.Background(), "pkgA")
	assert.Equal(t, Found("pkgA", "NAME\n        pkgA manual"), entry)
}

func TestFetchPassesNameAsSingleArgument(t *testing.T) {
	script := fakeMan(t, `printf '%s|' "$@"`)
	f := NewFetcher([]string{script, "-P", "cat"}, 5*time.Second)

	entry := f.Fetch(context.Background(), "-rf; echo pwned")
	require.Equal(t, StatusFound, entry.Status)
	assert.Equal(t, "-P|cat|--|-rf; echo pwned|", entry.Text)
}

func TestFetchExportsWidth(t *testing.T) {
	script := fakeMan(t, `echo "width=$MANWIDTH pager=$MANPAGER"`)
	f := NewFetcher([]string{script}, 5*time.Second)
	f.Width = 72

	entry := f.Fetch(context.Background(), "bash")
	assert.Equal(t, "width=72 pager=cat", entry.Text)
}

func TestFetchMissing(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"man-db exit status", "exit 16\n"},
		{"no manual entry message", "echo \"No manual entry for $2\" >&2\nexit 1\n"},
		{"mandoc message", "echo \"man: No entry for $2 in the manual.\" >&2\nexit 5\n"},
		{"empty output", "exit 0\n"},
		{"blank output", "printf '\\n\\n  \\n'\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFetcher([]string{fakeMan(t, tt.body)}, 5*time.Second)
			assert.Equal(t, Missing("pkgB"), f.Fetch(context.Background(), "pkgB"))
		})
	}
}

func TestFetchError(t *testing.T) {
	f := NewFetcher([]string{fakeMan(t, "echo 'groff: fatal error' >&2\nexit 3\n")}, 5*time.Second)

	entry := f.Fetch(context.Background(), "broken")
	assert.Equal(t, StatusError, entry.Status)
	assert.Contains(t, entry.Reason, "exit status 3")
	assert.Contains(t, entry.Reason, "groff: fatal error")
	assert.Empty(t, entry.Text)
}

func TestFetchMissingBinary(t *testing.T) {
	f := NewFetcher([]string{filepath.Join(t.TempDir(), "no-man")}, time.Second)
	entry := f.Fetch(context.Background(), "bash")
	assert.Equal(t, StatusError, entry.Status)
	assert.NotEmpty(t, entry.Reason)
}

func TestFetchTimeoutIsError(t *testing.T) {
	// exec so the shell is replaced and the signal reaches sleep directly.
	f := NewFetcher([]string{fakeMan(t, "exec sleep 60\n")}, 200*time.Millisecond)
	f.Grace = time.Second

	start := time.Now()
	entry := f.Fetch(context.Background(), "slow")
	assert.Equal(t, StatusError, entry.Status)
	assert.Contains(t, entry.Reason, "timed out")
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestFetchKillsReaderIgnoringTerm(t *testing.T) {
	f := NewFetcher([]string{fakeMan(t, "trap '' TERM\nwhile :; do sleep 0.1; done\n")}, 200*time.Millisecond)
	f.Grace = 300 * time.Millisecond

	start := time.Now()
	entry := f.Fetch(context.Background(), "stubborn")
	assert.Equal(t, StatusError, entry.Status)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestFetchCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher([]string{fakeMan(t, "echo never")}, time.Second)
	entry := f.Fetch(ctx, "bash")
	assert.Equal(t, StatusError, entry.Status)
	assert.Contains(t, entry.Reason, "not fetched")
}

func TestClassifySuccessWinsOverExpiredContext(t *testing.T) {
	f := NewFetcher([]string{"man"}, 30*time.Second)

	tests := []struct {
		name   string
		runErr error
		ctxErr error
		want   Entry
	}{
		{"finished as the deadline hit", nil, context.DeadlineExceeded, Found("bash", "BASH(1)")},
		{"finished as the run was cancelled", nil, context.Canceled, Found("bash", "BASH(1)")},
		{"killed by the deadline", errors.New("signal: terminated"), context.DeadlineExceeded, Failed("bash", "timed out after 30s")},
		{"killed by cancellation", errors.New("signal: terminated"), context.Canceled, Failed("bash", ReasonInterrupted)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.classify("bash", tt.runErr, tt.ctxErr, "BASH(1)\n", ""))
		})
	}
}

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"bold overstrike", "N\bNA\bAM\bME\bE", "NAME"},
		{"underline overstrike", "_\bf_\bi_\bl_\be", "file"},
		{"ansi styling", "\x1b[1mNAME\x1b[0m\n  ls", "NAME\n  ls"},
		{"tabs", "a\tb", "a       b"},
		{"crlf and trailing spaces", "line one  \r\nline two\t\r\n", "line one\nline two"},
		{"edge blank lines", "\n\n  \nbody\n\n\n", "body"},
		{"inner blank lines kept", "a\n\n\nb", "a\n\n\nb"},
		{"nfc", "cafe\u0301", "caf\u00e9"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.in))
		})
	}
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "found", StatusFound.String())
	assert.Equal(t, "missing", StatusMissing.String())
	assert.Equal(t, "error", StatusError.String())
	assert.Equal(t, "unknown", Status(42).String())
}
