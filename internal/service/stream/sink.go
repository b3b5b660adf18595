package stream

import (
	"io"
	"net/http"
)

// Sink receives chunk text as it is produced
type Sink interface {
	Write(chunk string) error
	Close() error
}

// WriterSink writes chunks to an io.Writer, flushing after every chunk when the
// writer supports it
type WriterSink struct {
	w       io.Writer
	flusher http.Flusher
	closed  bool
}

// NewWriterSink creates a sink over w. Closing the sink does not close w.
func NewWriterSink(w io.Writer) *WriterSink {
	flusher, _ := w.(http.Flusher)
	return &WriterSink{w: w, flusher: flusher}
}

func (s *WriterSink) Write(chunk string) error {
	if s.closed {
		return io.ErrClosedPipe
	}
	if _, err := io.WriteString(s.w, chunk); err != nil {
		return err
	}
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

func (s *WriterSink) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true
	if s.flusher != nil {
		s.flusher.Flush()
	}
	return nil
}

// Closed reports whether Close has been called
func (s *WriterSink) Closed() bool {
	return s.closed
}
