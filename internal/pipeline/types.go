package pipeline

import (
	"errors"
	"time"
)

// ErrInterrupted is returned by Run when the context was cancelled. The
// document has still been written with whatever was fetched.
var ErrInterrupted = errors.New("run interrupted")

// WriteError wraps a failure to write the document so callers can
// distinguish it from listing failures.
type WriteError struct{ Err error }

func (e *WriteError) Error() string { return "write document: " + e.Err.Error() }
func (e *WriteError) Unwrap() error { return e.Err }

// Summary describes a finished run.
type Summary struct {
	Total    int
	Found    int
	Missing  int
	Errors   int
	Pages    int
	Output   string
	Duration time.Duration
}
