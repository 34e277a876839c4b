// Package audit provides the append-only request audit sink.
//
// Every accepted or rejected request produces exactly one audit line of the
// form "HH:MM:SS\t<description>". The sink is an observability artifact: its
// content is human-readable and is not part of the wire response contract.
package audit

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Sink writes timestamped audit lines to an append-only destination.
//
// All methods are safe for concurrent use. Lines are flushed as they are
// written so that a crash loses at most the line being written.
type Sink struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	closed bool
	clock  func() time.Time
}

// NewFileSink opens (or creates) the audit log at path in append mode.
func NewFileSink(path string) (*Sink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open audit log: %w", err)
	}
	return &Sink{w: f, closer: f, clock: time.Now}, nil
}

// NewWriterSink wraps an existing writer, e.g. os.Stdout or a test buffer.
// The writer is not closed by Close.
func NewWriterSink(w io.Writer) *Sink {
	return &Sink{w: w, clock: time.Now}
}

// Log appends one audit line. Writes after Close are dropped.
func (s *Sink) Log(format string, v ...any) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	stamp := s.clock().Format("15:04:05")
	fmt.Fprintf(s.w, "%s\t%s\n", stamp, fmt.Sprintf(format, v...))
	if f, ok := s.w.(*os.File); ok {
		f.Sync()
	}
}

// LogError appends a rejected-request line in the form
// "HH:MM:SS\tERROR\t<op>\t<description>.".
func (s *Sink) LogError(op, desc string) {
	s.Log("ERROR\t%s\t%s", op, desc)
}

// Close releases the underlying file, if any. Safe to call more than once.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true

	if s.closer != nil {
		return s.closer.Close()
	}
	return nil
}
