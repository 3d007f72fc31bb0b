// Package progress renders the probe-phase progress line.
package progress

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// Display manages progress bar display while endpoints are probed.
type Display struct {
	mu      sync.Mutex
	out     io.Writer
	started bool
	stopped bool

	// Stats
	total    atomic.Int64
	done     atomic.Int64
	findings atomic.Int64

	// Timing
	startTime time.Time
	target    string

	// Display
	lastLine string
}

// New creates a progress display writing to w. A nil writer means stderr.
func New(w io.Writer) *Display {
	if w == nil {
		w = os.Stderr
	}
	return &Display{out: w}
}

// Start begins the display for total endpoints.
func (d *Display) Start(target string, total int) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.started {
		return
	}

	d.started = true
	d.startTime = time.Now()
	d.target = target
	d.total.Store(int64(total))
}

// Update records done endpoints and findings so far and redraws the line.
func (d *Display) Update(done, findings int) {
	d.done.Store(int64(done))
	d.findings.Store(int64(findings))

	d.mu.Lock()
	defer d.mu.Unlock()

	if !d.started || d.stopped {
		return
	}

	line := d.render()
	if len(line) < len(d.lastLine) {
		fmt.Fprint(d.out, "\r"+strings.Repeat(" ", len(d.lastLine)))
	}
	fmt.Fprint(d.out, line)
	d.lastLine = line
}

func (d *Display) render() string {
	total := d.total.Load()
	done := d.done.Load()

	progress := 100
	if total > 0 {
		progress = int(float64(done) / float64(total) * 100)
		if progress > 100 {
			progress = 100
		}
	}

	barWidth := 30
	filled := progress * barWidth / 100
	bar := strings.Repeat("█", filled) + strings.Repeat("░", barWidth-filled)

	return fmt.Sprintf("\r[%s] %3d%% | Endpoints: %d/%d | Findings: %d | %s | %s",
		bar, progress, done, total, d.findings.Load(),
		formatDuration(time.Since(d.startTime)), truncateURL(d.target, 40))
}

// Stop ends the display and moves past the progress line.
func (d *Display) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || !d.started {
		return
	}

	d.stopped = true
	fmt.Fprintln(d.out)
}

// Stats returns the last recorded counters.
func (d *Display) Stats() (done, total, findings int64) {
	return d.done.Load(), d.total.Load(), d.findings.Load()
}

// truncateURL truncates a URL to maxLen characters.
func truncateURL(url string, maxLen int) string {
	if len(url) <= maxLen {
		return url
	}
	return url[:maxLen-3] + "..."
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%02dm%02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
