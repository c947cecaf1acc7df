package logging

import (
	"io"
	"os"
	"sync"
)

// stderrSink is the stderr destination shared by every component logger.
type stderrSink struct {
	mu sync.RWMutex
	w  io.Writer
}

func (s *stderrSink) Write(p []byte) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.w.Write(p)
}

func (s *stderrSink) swap(w io.Writer) io.Writer {
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.w
	s.w = w
	return prev
}

var sink = &stderrSink{w: os.Stderr}

// SetOutput redirects the stderr output of every component logger, including
// loggers created earlier, and returns a func restoring the previous writer.
func SetOutput(w io.Writer) (restore func()) {
	prev := sink.swap(w)
	return func() { sink.swap(prev) }
}
