package cli

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

// ProgressReporter reports progress for long-running operations such as
// seed application or audit exports.
type ProgressReporter interface {
	Start(total int64)
	Update(current int64)
	Finish()
	Error(err error)
}

// SimpleProgress renders a single-line text progress bar. Intermediate
// repaints are throttled so tight update loops do not spend their time
// repainting the terminal; Start and Finish always draw.
type SimpleProgress struct {
	mu       sync.Mutex
	writer   io.Writer
	total    int64
	current  int64
	started  time.Time
	lastDraw time.Time
}

const (
	barWidth  = 40
	drawEvery = 100 * time.Millisecond
)

// NewProgressReporter creates a progress reporter writing to w. A nil w
// defaults to os.Stderr so progress never corrupts redirected command
// output.
func NewProgressReporter(w io.Writer) ProgressReporter {
	if w == nil {
		w = os.Stderr
	}
	return &SimpleProgress{writer: w}
}

// Start resets the reporter for a run of total items and draws the empty
// bar.
func (p *SimpleProgress) Start(total int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.total = total
	p.current = 0
	p.started = time.Now()
	p.draw(true)
}

// Update advances the bar.
func (p *SimpleProgress) Update(current int64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current
	p.draw(false)
}

// Finish draws the completed bar and terminates the line.
func (p *SimpleProgress) Finish() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = p.total
	p.draw(true)
	fmt.Fprintln(p.writer)
}

// Error breaks the bar line and reports the failure.
func (p *SimpleProgress) Error(err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fmt.Fprintf(p.writer, "\n✗ Error: %v\n", err)
}

// draw repaints the bar. Callers hold p.mu.
func (p *SimpleProgress) draw(force bool) {
	if p.total <= 0 {
		return
	}

	now := time.Now()
	if !force && now.Sub(p.lastDraw) < drawEvery {
		return
	}
	p.lastDraw = now

	fraction := float64(p.current) / float64(p.total)
	if fraction > 1 {
		fraction = 1
	}
	filled := int(fraction * barWidth)

	var rate float64
	if elapsed := now.Sub(p.started).Seconds(); elapsed > 0 {
		rate = float64(p.current) / elapsed
	}

	fmt.Fprintf(p.writer, "\rProgress: [%s%s] %.1f%% (%d/%d) %.1f items/s",
		strings.Repeat("█", filled), strings.Repeat("░", barWidth-filled),
		fraction*100, p.current, p.total, rate)
}
