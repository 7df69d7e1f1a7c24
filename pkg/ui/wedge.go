package ui

import (
	"io"
	"strings"
	"sync"
)

// Wedge carries lines typed by a keyboard-wedge scanner from a presenter to
// the Keyboard scan source.
type Wedge struct {
	mu     sync.Mutex
	r      *io.PipeReader
	w      *io.PipeWriter
	closed bool
}

// NewWedge creates an open wedge pipe.
func NewWedge() *Wedge {
	r, w := io.Pipe()
	return &Wedge{r: r, w: w}
}

// Reader returns the end consumed by the scan source.
func (w *Wedge) Reader() io.Reader { return w.r }

// WriteLine sends one scanned line. It blocks until the source consumes it.
func (w *Wedge) WriteLine(line string) error {
	line = strings.TrimRight(line, "\r\n")
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return io.ErrClosedPipe
	}
	_, err := io.WriteString(w.w, line+"\n")
	return err
}

// Close ends the stream; the scan source then reports it as closed.
func (w *Wedge) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return nil
	}
	w.closed = true
	return w.w.Close()
}
