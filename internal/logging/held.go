package logging

import (
	"bytes"
	"io"
	"sync"
)

// HeldWriter passes writes through to an underlying writer until Hold is
// called. While held, output is buffered and Release flushes it in order.
// It lets log records wait while a full-screen display owns the terminal.
type HeldWriter struct {
	mu   sync.Mutex
	w    io.Writer
	held bool
	buf  bytes.Buffer
}

func NewHeldWriter(w io.Writer) *HeldWriter {
	return &HeldWriter{w: w}
}

func (h *HeldWriter) Write(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.held {
		return h.buf.Write(p)
	}
	return h.w.Write(p)
}

// Hold starts buffering.
func (h *HeldWriter) Hold() {
	h.mu.Lock()
	h.held = true
	h.mu.Unlock()
}

// Release writes everything buffered since Hold and resumes passing
// writes through.
func (h *HeldWriter) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.held = false
	if h.buf.Len() == 0 {
		return nil
	}
	_, err := h.buf.WriteTo(h.w)
	h.buf.Reset()
	return err
}
