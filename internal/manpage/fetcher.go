package manpage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// exitNotFound is man-db's exit status for "no manual entry".
const exitNotFound = 16

type Fetcher struct {
	// Command is the man reader and any fixed arguments; the package name
	// is appended after "--" as a separate argument.
	Command []string
	Timeout time.Duration
	// Grace is how long a cancelled reader gets between SIGTERM and SIGKILL.
	Grace time.Duration
	// Width is exported to the reader as MANWIDTH when positive.
	Width int
}

func NewFetcher(command []string, timeout time.Duration) *Fetcher {
	if len(command) == 0 {
		command = []string{"man"}
	}
	return &Fetcher{Command: command, Timeout: timeout, Grace: 5 * time.Second}
}

// Fetch runs the man reader for pkg and classifies the outcome. It never
// returns an error: every failure is recorded in the entry.
func (f *Fetcher) Fetch(ctx context.Context, pkg string) Entry {
	if ctx.Err() != nil {
		return Failed(pkg, ReasonNotFetched+": "+ctx.Err().Error())
	}
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	args := append(append([]string{}, f.Command[1:]...), "--", pkg)
	cmd := exec.CommandContext(ctx, f.Command[0], args...)
	cmd.Env = f.environ()
	cmd.Cancel = func() error { return cmd.Process.Signal(syscall.SIGTERM) }
	cmd.WaitDelay = f.Grace
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return f.classify(pkg, err, ctx.Err(), stdout.String(), stderr.String())
}

// classify turns the reader's outcome into an entry. A successful exit
// wins over a context that expired after the reader had finished.
func (f *Fetcher) classify(pkg string, runErr, ctxErr error, stdout, stderr string) Entry {
	switch {
	case runErr == nil:
		text := Clean(stdout)
		if text == "" {
			return Missing(pkg)
		}
		return Found(pkg, text)
	case errors.Is(ctxErr, context.DeadlineExceeded):
		return Failed(pkg, fmt.Sprintf("timed out after %s", f.Timeout))
	case ctxErr != nil:
		return Failed(pkg, ReasonInterrupted)
	}

	if isNotFound(runErr, stderr) {
		return Missing(pkg)
	}

	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return Failed(pkg, strings.TrimSpace(fmt.Sprintf("%s: %s", exitErr, firstLine(stderr))))
	}
	return Failed(pkg, runErr.Error())
}

func (f *Fetcher) environ() []string {
	env := append(os.Environ(),
		"MANPAGER=cat",
		"PAGER=cat",
		"MAN_KEEP_FORMATTING=",
		"GROFF_NO_SGR=1",
	)
	if f.Width > 0 {
		env = append(env, "MANWIDTH="+strconv.Itoa(f.Width))
	}
	return env
}

func isNotFound(err error, stderr string) bool {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == exitNotFound {
		return true
	}
	msg := strings.ToLower(stderr)
	return strings.Contains(msg, "no manual entry") || strings.Contains(msg, "no entry for")
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	line, _, _ := strings.Cut(s, "\n")
	return line
}
