package reindex

import (
	"fmt"
	"io"
	"sync"
	"time"
)

// Progress writes a single self-overwriting status line as chunks are
// re-embedded. A nil writer discards output.
type Progress struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	done     int
	every    int
	reported int
	started  time.Time
}

// NewProgress creates a tracker for total chunks that reports at least
// every chunks.
func NewProgress(w io.Writer, total, every int) *Progress {
	if w == nil {
		w = io.Discard
	}
	if every <= 0 {
		every = 1
	}
	return &Progress{w: w, total: total, every: every, started: time.Now()}
}

// Add records n more chunks as done.
func (p *Progress) Add(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = min(p.done+n, p.total)
	if p.done-p.reported >= p.every {
		p.print()
		p.reported = p.done
	}
}

// Done prints the final line and terminates it.
func (p *Progress) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.print()
	fmt.Fprintln(p.w)
}

// Count returns the chunks recorded so far.
func (p *Progress) Count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.done
}

// Elapsed returns the time since the tracker was created.
func (p *Progress) Elapsed() time.Duration {
	return time.Since(p.started)
}

func (p *Progress) print() {
	pct := 100.0
	if p.total > 0 {
		pct = float64(p.done) / float64(p.total) * 100
	}
	rate := 0.0
	if secs := time.Since(p.started).Seconds(); secs > 0 {
		rate = float64(p.done) / secs
	}
	fmt.Fprintf(p.w, "\rReindexing: %d/%d chunks (%.1f%%) - %.1f chunks/s", p.done, p.total, pct, rate)
}
