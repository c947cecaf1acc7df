// Package profiling records nested timing spans and CPU/heap profiles for
// the command line.
package profiling

import (
	"fmt"
	"io"
	"strings"
	"sync"
	"time"
)

// Stopper ends a timed span.
type Stopper interface {
	Stop()
}

type span struct {
	name     string
	start    time.Time
	duration time.Duration
	children []*span
	rec      *Recorder
}

func (s *span) Stop() {
	s.rec.end(s, time.Since(s.start))
}

// Recorder collects spans. Spans started while another is open become its
// children.
type Recorder struct {
	mu      sync.Mutex
	enabled bool
	root    *span
	open    []*span
}

var defaultRecorder = &Recorder{}

// Enable starts recording on the global recorder.
func Enable() {
	defaultRecorder.Enable()
}

// Start opens a span on the global recorder. Use it as
// defer profiling.Start("name").Stop().
func Start(name string) Stopper {
	return defaultRecorder.Start(name)
}

// Summarize writes the global recorder's span tree to w.
func Summarize(w io.Writer) {
	defaultRecorder.Summarize(w)
}

// Enable starts recording. Calling it twice keeps the first root.
func (r *Recorder) Enable() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.enabled {
		return
	}
	r.enabled = true
	r.root = &span{name: "total", start: time.Now(), rec: r}
	r.open = []*span{r.root}
}

// Start opens a span. It is a no-op while recording is disabled.
func (r *Recorder) Start(name string) Stopper {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return noopStopper{}
	}
	s := &span{name: name, start: time.Now(), rec: r}
	parent := r.open[len(r.open)-1]
	parent.children = append(parent.children, s)
	r.open = append(r.open, s)
	return s
}

func (r *Recorder) end(s *span, d time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s.duration = d
	for i := len(r.open) - 1; i > 0; i-- {
		if r.open[i] == s {
			r.open = r.open[:i]
			return
		}
	}
}

// Summarize writes the span tree with each span's share of the total.
func (r *Recorder) Summarize(w io.Writer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.enabled {
		return
	}
	total := time.Since(r.root.start)
	fmt.Fprintf(w, "timing: %v total\n", total.Round(100*time.Microsecond))
	for _, child := range r.root.children {
		printSpan(w, child, 1, total)
	}
}

func printSpan(w io.Writer, s *span, depth int, total time.Duration) {
	share := 0.0
	if total > 0 {
		share = float64(s.duration) / float64(total) * 100
	}
	fmt.Fprintf(w, "%s- %s (%v, %.1f%%)\n", strings.Repeat("  ", depth), s.name, s.duration.Round(100*time.Microsecond), share)
	for _, child := range s.children {
		printSpan(w, child, depth+1, total)
	}
}

type noopStopper struct{}

func (noopStopper) Stop() {}
